package domain

import (
	"strings"
	"time"
)

// AccessLevel is the grant tier a participant holds on someone else's task.
type AccessLevel string

const (
	AccessFull    AccessLevel = "full"
	AccessLimited AccessLevel = "limited"
	// AccessOwner is only ever reported to viewers, never stored.
	AccessOwner AccessLevel = "owner"
)

// NormalizeAccessLevel lowercases the input and falls back to limited for
// anything other than full/limited.
func NormalizeAccessLevel(raw string) AccessLevel {
	switch AccessLevel(strings.ToLower(strings.TrimSpace(raw))) {
	case AccessFull:
		return AccessFull
	default:
		return AccessLimited
	}
}

// Participation links a non-owner user to a task with an independent status.
type Participation struct {
	TaskID      int64       `json:"task_id"`
	UserID      int64       `json:"user_id"`
	AccessLevel AccessLevel `json:"access_level"`
	Status      TaskStatus  `json:"status"`
	InvitedBy   int64       `json:"invited_by"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Participant is a participation row joined with the participant's identity.
type Participant struct {
	UserID      int64
	Username    string
	Email       string
	AccessLevel AccessLevel
	Status      TaskStatus
}
