// Package ledger provides append-only usage and audit record types.
// All functions are pure - no side effects.
package ledger

import "time"

// Usage event types.
const (
	TypeSTT    = "stt"
	TypeAIChat = "ai_chat"
)

// Auth log actions.
const (
	ActionLoginOK   = "login_ok"
	ActionLoginFail = "login_fail"
	ActionRegister  = "register"
)

// Error log types.
const (
	ErrorAIRequestFail = "ai_request_fail"
	ErrorSTTTokenFail  = "stt_token_fail"
	ErrorUsageCommit   = "usage_commit_fail"
)

// UsageEvent is one immutable metered-usage record. Rows are never
// updated or deleted; all cost reporting aggregates over them.
type UsageEvent struct {
	ID        string
	UserID    string
	Provider  string
	Type      string
	Units     float64
	CostUSD   float64
	Metadata  map[string]string
	CreatedAt time.Time
}

// AuthEntry is one immutable authentication audit record.
// UserEmail/UserName are filled on read via join, empty on write.
type AuthEntry struct {
	ID        string
	UserID    string
	Email     string
	Action    string
	IP        string
	UserAgent string
	CreatedAt time.Time

	UserEmail string
	UserName  string
}

// ErrorEntry is one immutable operational-failure record.
type ErrorEntry struct {
	ID        string
	UserID    string
	Type      string
	Provider  string
	Message   string
	Metadata  map[string]string
	CreatedAt time.Time

	UserEmail string
	UserName  string
}

// ProviderTotal is aggregated usage for one provider (and optionally one
// event type) over a window.
type ProviderTotal struct {
	Provider string
	Type     string
	Events   int64
	Units    float64
	CostUSD  float64
}

// UserTotal is aggregated usage for one user over a window.
type UserTotal struct {
	UserID  string
	Email   string
	Name    string
	Events  int64
	Units   float64
	CostUSD float64
}

// Default and maximum trailing-day windows for cost aggregation.
const (
	DefaultWindowDays = 30
	MaxWindowDays     = 365
)

// ClampWindowDays normalizes a caller-specified trailing-day window.
func ClampWindowDays(days int) int {
	if days <= 0 {
		return DefaultWindowDays
	}
	if days > MaxWindowDays {
		return MaxWindowDays
	}
	return days
}

// Pagination limits for admin log listings.
const (
	DefaultLogLimit = 50
	MaxLogLimit     = 200
)

// ClampLogPage normalizes admin log pagination parameters.
func ClampLogPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	if limit > MaxLogLimit {
		limit = MaxLogLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
