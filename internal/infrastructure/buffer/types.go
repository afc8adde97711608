package buffer

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DefaultPriority is used when an item carries none. Lower drains first.
const DefaultPriority = 3

// Item is an operation held back until primary storage accepts it again.
type Item struct {
	ID        string          `json:"id"`
	UserID    int64           `json:"user_id"`
	Entity    string          `json:"entity"`
	Operation string          `json:"operation"`
	Data      json.RawMessage `json:"data"`
	Priority  int             `json:"priority"`
	Retries   int             `json:"retries"`
	Timestamp time.Time       `json:"timestamp"`

	bucketKey []byte
}

// Command is the dispatcher key of the item.
func (i Item) Command() string {
	return i.Entity + "." + i.Operation
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Priority <= 0 || i.Priority > 5 {
		i.Priority = DefaultPriority
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}
