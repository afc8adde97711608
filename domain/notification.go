package domain

import "time"

// Live channel event names.
const (
	EventSync       = "notification:sync"
	EventNew        = "notification:new"
	EventMarkedRead = "notification:marked-read"
)

// MarkedAll is the ids value of a marked-read event that covers every notification.
const MarkedAll = "all"

// Notification is a persisted message for a single recipient. It only ever
// transitions from unread to read.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	TaskID    *int64    `json:"taskId"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Metadata  *Metadata `json:"metadata"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationInput is what callers supply to create a notification.
type NotificationInput struct {
	UserID   int64     `json:"userId"`
	TaskID   *int64    `json:"taskId,omitempty"`
	Type     string    `json:"type"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// SyncEvent is pushed to a session right after it joins.
type SyncEvent struct {
	UnreadCount int `json:"unreadCount"`
}

// NewNotificationEvent carries a freshly created notification.
type NewNotificationEvent struct {
	Notification *Notification `json:"notification"`
	UnreadCount  int           `json:"unreadCount"`
}

// MarkedReadEvent carries either the explicit ids or MarkedAll.
type MarkedReadEvent struct {
	IDs         interface{} `json:"ids"`
	UnreadCount int         `json:"unreadCount"`
}
