// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/voxway/voxgate/domain/account"
	"github.com/voxway/voxgate/domain/chat"
	"github.com/voxway/voxgate/domain/ledger"
	"github.com/voxway/voxgate/domain/session"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// Hasher provides password hashing.
type Hasher interface {
	// Hash generates a hash from a plaintext value.
	Hash(plaintext string) ([]byte, error)

	// Compare checks if plaintext matches hash.
	Compare(hash []byte, plaintext string) bool
}

// -----------------------------------------------------------------------------
// Authentication Ports
// -----------------------------------------------------------------------------

// Claims is the verified identity carried by a bearer token.
type Claims struct {
	UserID  string
	Email   string
	IsAdmin bool
}

// TokenService issues and verifies signed bearer tokens.
type TokenService interface {
	// Issue creates a token for a user. Returns the token and its expiry.
	Issue(userID, email string, isAdmin bool) (string, time.Time, error)

	// Verify validates a token and extracts its claims.
	Verify(token string) (Claims, error)
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// UserStore persists user accounts.
type UserStore interface {
	// Get retrieves a user by ID.
	Get(ctx context.Context, id string) (account.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (account.User, error)

	// Create stores a new user.
	Create(ctx context.Context, u account.User) error

	// Update modifies an existing user.
	Update(ctx context.Context, u account.User) error

	// Delete removes a user.
	Delete(ctx context.Context, id string) error

	// List returns users with pagination, newest first.
	List(ctx context.Context, limit, offset int) ([]account.User, error)

	// Count returns total user count.
	Count(ctx context.Context) (int, error)

	// TouchLogin records a successful login time.
	TouchLogin(ctx context.Context, id string, at time.Time) error

	// IncrementSTTMinutes atomically adds minutes to a user's STT usage
	// and returns the new used/limit pair.
	IncrementSTTMinutes(ctx context.Context, id string, minutes int) (used, limit int, err error)

	// IncrementAICredits atomically adds credits to a user's AI usage
	// and returns the new used value.
	IncrementAICredits(ctx context.Context, id string, credits float64) (float64, error)

	// CountByStatus returns the number of users in a status.
	CountByStatus(ctx context.Context, status string) (int, error)

	// CountCreatedSince returns the number of users created at or after t.
	CountCreatedSince(ctx context.Context, t time.Time) (int, error)

	// SumUsage returns the totals of used STT minutes and AI credits.
	SumUsage(ctx context.Context) (sttMinutes int, aiCredits float64, err error)
}

// SessionView is a session joined with its user's identity.
type SessionView struct {
	session.Session
	UserEmail string
	UserName  string
}

// SessionStore persists provider sessions.
type SessionStore interface {
	// Upsert creates or refreshes the session keyed by user and type.
	Upsert(ctx context.Context, s session.Session) error

	// End closes the session keyed by user and type, if open.
	End(ctx context.Context, userID, typ string, at time.Time) error

	// List returns sessions newest first. With activeOnly, only
	// sessions still inside the activity window at now are returned.
	List(ctx context.Context, activeOnly bool, now time.Time, limit int) ([]SessionView, error)

	// CountActive returns the number of sessions active at now.
	CountActive(ctx context.Context, now time.Time) (int, error)
}

// LedgerStore persists the append-only usage ledger.
type LedgerStore interface {
	// Record appends a usage event.
	Record(ctx context.Context, e ledger.UsageEvent) error

	// TotalsByProvider aggregates events per provider since t.
	TotalsByProvider(ctx context.Context, since time.Time) ([]ledger.ProviderTotal, error)

	// TotalsByProviderType aggregates events per provider and type since t.
	TotalsByProviderType(ctx context.Context, since time.Time) ([]ledger.ProviderTotal, error)

	// TopUsers returns the highest-spending users since t.
	TopUsers(ctx context.Context, since time.Time, limit int) ([]ledger.UserTotal, error)

	// TotalCost returns the summed cost of all events since t.
	TotalCost(ctx context.Context, since time.Time) (float64, error)
}

// AuditStore persists auth and error logs.
type AuditStore interface {
	// RecordAuth appends an auth log entry.
	RecordAuth(ctx context.Context, e ledger.AuthEntry) error

	// RecordError appends an error log entry.
	RecordError(ctx context.Context, e ledger.ErrorEntry) error

	// ListAuth returns auth entries newest first, with the total count.
	ListAuth(ctx context.Context, limit, offset int) ([]ledger.AuthEntry, int, error)

	// ListErrors returns error entries newest first, with the total count.
	ListErrors(ctx context.Context, limit, offset int) ([]ledger.ErrorEntry, int, error)

	// CountAuthSince returns the number of auth entries for an action
	// recorded at or after t.
	CountAuthSince(ctx context.Context, action string, t time.Time) (int, error)

	// CountErrorsSince returns the number of error entries recorded at
	// or after t.
	CountErrorsSince(ctx context.Context, t time.Time) (int, error)
}

// -----------------------------------------------------------------------------
// External Service Ports
// -----------------------------------------------------------------------------

// UpstreamStatusError reports a non-success response from a provider.
type UpstreamStatusError struct {
	Provider string
	Status   int
	Body     string
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.Status, e.Body)
}

// ChatUpstream streams chat completions from the LLM provider.
type ChatUpstream interface {
	// Stream opens a streaming completion for the message list. The
	// returned body carries the provider's event stream; the caller
	// closes it. A non-2xx response yields *UpstreamStatusError.
	Stream(ctx context.Context, msgs []chat.Message) (io.ReadCloser, error)
}

// KeyProvisioner creates per-user provider API keys.
type KeyProvisioner interface {
	// ProvisionKey creates a spend-limited key named for the user.
	ProvisionKey(ctx context.Context, name string, limitUSD float64) (string, error)
}

// STTTokenProvider issues short-lived speech-to-text credentials.
type STTTokenProvider interface {
	// Name returns the provider identifier recorded in sessions.
	Name() string

	// IssueToken obtains a single-use client token.
	IssueToken(ctx context.Context) (string, error)
}

// ProviderHealth is the result of one provider probe.
type ProviderHealth struct {
	Provider      string
	OK            bool
	LatencyMs     int64
	Error         string
	KeyConfigured bool
}

// HealthProber checks provider reachability.
type HealthProber interface {
	// Probe checks all configured providers.
	Probe(ctx context.Context) []ProviderHealth
}
