package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// TaskStatus is the progress state shared by owners and participants.
type TaskStatus string

const (
	StatusPending    TaskStatus = "Pending"
	StatusInProgress TaskStatus = "In Progress"
	StatusCompleted  TaskStatus = "Completed"
)

// Statuses lists the valid statuses in display order.
var Statuses = []TaskStatus{StatusPending, StatusInProgress, StatusCompleted}

// Valid reports whether s is one of the three known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ParseStatus trims and validates a raw status value.
func ParseStatus(raw string) (TaskStatus, error) {
	status := TaskStatus(strings.TrimSpace(raw))
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// Task is a user-owned activity item. Status is always the owner's status.
type Task struct {
	ID          int64      `json:"id"`
	OwnerID     int64      `json:"owner_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      TaskStatus `json:"status"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Owner is populated by storage from the users table.
	Owner UserRef `json:"-"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == StatusCompleted
}

// UserRef is the public identity of a user as embedded in task payloads.
type UserRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// NewTask holds the validated fields of a task about to be created.
type NewTask struct {
	OwnerID     int64
	Title       string
	Description *string
	Status      TaskStatus
	DueDate     *time.Time
}

// TaskChanges is a validated partial update. Nil pointers are left untouched;
// the Clear flags set the nullable columns to NULL.
type TaskChanges struct {
	Title            *string
	Description      *string
	ClearDescription bool
	Status           *TaskStatus
	DueDate          *time.Time
	ClearDueDate     bool
}

// Empty reports whether the change set touches no column.
func (c TaskChanges) Empty() bool {
	return c.Title == nil && c.Description == nil && !c.ClearDescription &&
		c.Status == nil && c.DueDate == nil && !c.ClearDueDate
}

// Patch tracks whether a JSON field was present at all, so that an explicit
// null can be told apart from an omitted field.
type Patch[T any] struct {
	Present bool
	Value   T
}

func (p *Patch[T]) UnmarshalJSON(data []byte) error {
	p.Present = true
	return json.Unmarshal(data, &p.Value)
}

// TaskPatch is the raw partial update as received from a client.
type TaskPatch struct {
	Title       Patch[string]  `json:"title"`
	Description Patch[*string] `json:"description"`
	Status      Patch[string]  `json:"status"`
	DueDate     Patch[*string] `json:"due_date"`
}

// ParseDueDate accepts a calendar date (2006-01-02) or an RFC3339 timestamp.
// An empty value means "no due date".
func ParseDueDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.DateOnly, raw); err == nil {
		return &parsed, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, Validation("invalid due date")
	}
	return &parsed, nil
}
