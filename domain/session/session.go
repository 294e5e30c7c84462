// Package session provides liveness records for streaming connections.
package session

import "time"

// TypeSTT is the session type for live speech-to-text connections.
const TypeSTT = "stt"

// Window is how long a session counts as live after its last heartbeat.
// Expiry is computed at read time; there is no background sweep, so a
// crashed client can appear active for up to this long.
const Window = 5 * time.Minute

// Session represents one live streaming connection (value type).
type Session struct {
	ID         string
	UserID     string
	Type       string
	Provider   string
	StartedAt  time.Time
	LastSeenAt time.Time
	EndedAt    *time.Time
}

// Key returns the deterministic session id that enforces one live
// session per user and type via upsert.
func Key(userID, typ string) string {
	return userID + ":" + typ
}

// IsActive reports whether the session counts as live at now.
func (s Session) IsActive(now time.Time) bool {
	return s.EndedAt == nil && now.Sub(s.LastSeenAt) < Window
}
