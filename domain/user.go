package domain

import "time"

// User represents a registered account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal is the already-authenticated identity every core operation runs as.
type Principal struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// DisplayName is the name used in notification messages.
func (p Principal) DisplayName() string {
	switch {
	case p.Username != "":
		return p.Username
	case p.Email != "":
		return p.Email
	default:
		return "Someone"
	}
}

// Principal returns the identity view of the user.
func (u *User) Principal() Principal {
	if u == nil {
		return Principal{}
	}
	return Principal{ID: u.ID, Username: u.Username, Email: u.Email}
}
