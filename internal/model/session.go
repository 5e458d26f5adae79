package model

import "time"

const (
	// UsernameMaxLength is the longest username accepted from clients
	UsernameMaxLength = 20
	// GeneratedUsernameMinLength and GeneratedUsernameMaxLength bound
	// server-generated usernames
	GeneratedUsernameMinLength = 5
	GeneratedUsernameMaxLength = 10
)

// SessionID is the opaque identifier handed to a client at login
type SessionID string

// Session binds a session identifier to a username
type Session struct {
	ID           SessionID
	Username     string
	CreatedAt    time.Time
	LastActivity time.Time
}

// Expired reports whether the session has been idle longer than idle or has
// lived longer than maxLifetime
func (s *Session) Expired(now time.Time, idle, maxLifetime time.Duration) bool {
	return now.Sub(s.LastActivity) > idle || now.Sub(s.CreatedAt) > maxLifetime
}

// Touch refreshes the session's activity time
func (s *Session) Touch(now time.Time) {
	s.LastActivity = now
}

// ValidateUsername checks a client-supplied username: ASCII letters only, at
// most UsernameMaxLength characters
func ValidateUsername(name string) error {
	if name == "" || len(name) > UsernameMaxLength {
		return ErrInvalidUsername
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return ErrInvalidUsername
		}
	}
	return nil
}
