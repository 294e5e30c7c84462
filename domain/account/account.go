// Package account provides the user account model and quota rules.
// All functions are pure - no side effects.
package account

import (
	"math"
	"time"
)

// Lifecycle status values for a user account.
const (
	StatusPending = "pending"
	StatusActive  = "active"
	StatusBanned  = "banned"
)

// UsageKind identifies a metered quota counter.
type UsageKind string

const (
	UsageSTTMinutes UsageKind = "stt_minutes"
	UsageAICredits  UsageKind = "ai_credits"
)

// MaxMinutesPerReport caps a single STT usage report at 3 hours to bound
// the damage of a misbehaving client.
const MaxMinutesPerReport = 180

// User represents a user account (value type).
type User struct {
	ID            string
	Email         string
	PasswordHash  []byte
	Name          string
	Status        string
	IsAdmin       bool
	IsDeveloper   bool
	OpenRouterKey string

	STTMinutesUsed  int
	STTMinutesLimit int
	AICreditsUsed   float64
	AICreditsLimit  float64

	CreatedAt   time.Time
	LastLoginAt *time.Time
}

// IsActive reports whether the account may use metered endpoints.
func (u User) IsActive() bool {
	return u.Status == StatusActive
}

// CanUseSTT reports whether the user has STT minutes remaining.
func (u User) CanUseSTT() bool {
	return u.STTMinutesUsed < u.STTMinutesLimit
}

// ValidStatus reports whether s is a known lifecycle status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusActive, StatusBanned:
		return true
	}
	return false
}

// ClampMinutes validates and caps a single STT minute report.
// Non-finite or non-positive values are rejected. Valid values are
// rounded to whole minutes and capped at MaxMinutesPerReport.
func ClampMinutes(minutes float64) (int, bool) {
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) || minutes <= 0 {
		return 0, false
	}
	m := int(math.Round(minutes))
	if m > MaxMinutesPerReport {
		m = MaxMinutesPerReport
	}
	return m, true
}
