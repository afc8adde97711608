package monitor

import "time"

// Status is the last health snapshot. Redis is nil when no redis is configured.
type Status struct {
	Database   bool      `json:"database"`
	Driver     string    `json:"driver"`
	Redis      *bool     `json:"redis"`
	Buffer     bool      `json:"buffer"`
	BufferSize int       `json:"buffer_size"`
	LastCheck  time.Time `json:"last_check"`
}

// Healthy reports whether every configured dependency answered.
func (s Status) Healthy() bool {
	return s.Database && (s.Redis == nil || *s.Redis)
}
