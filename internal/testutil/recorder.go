package testutil

import (
	"context"
	"sync"
)

// Emission is one recorded broadcaster call.
type Emission struct {
	UserID  int64
	Event   string
	Payload interface{}
}

// Recorder is a broadcaster that remembers every emission.
type Recorder struct {
	mu        sync.Mutex
	emissions []Emission
	Err       error
}

func (r *Recorder) EmitToUser(_ context.Context, userID int64, event string, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emissions = append(r.emissions, Emission{UserID: userID, Event: event, Payload: payload})
	return r.Err
}

func (r *Recorder) Emissions() []Emission {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Emission, len(r.emissions))
	copy(out, r.emissions)
	return out
}

// For returns the emissions addressed to userID.
func (r *Recorder) For(userID int64) []Emission {
	var out []Emission
	for _, e := range r.Emissions() {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emissions = nil
}
