// Package apierr defines the error taxonomy surfaced to API clients.
// Every client-visible failure maps to an E carrying the HTTP status
// and the message to put in the error envelope.
package apierr

import "fmt"

// E is a client-visible error.
type E struct {
	Status  int    // HTTP status code
	Code    string // stable machine-readable code
	Message string // message placed in the response envelope
}

func (e *E) Error() string { return e.Message }

// Canonical errors. Handlers return these directly; anything else is
// mapped to Internal so internals never leak to clients.
var (
	Unauthorized = &E{Status: 401, Code: "unauthorized", Message: "Unauthorized"}
	NotActive    = &E{Status: 403, Code: "not_active", Message: "Account not active"}
	Forbidden    = &E{Status: 403, Code: "forbidden", Message: "Forbidden"}
	STTQuota     = &E{Status: 403, Code: "stt_quota", Message: "STT minutes limit exceeded"}
	NotFound     = &E{Status: 404, Code: "not_found", Message: "Not found"}
	EmailTaken   = &E{Status: 409, Code: "email_taken", Message: "User with this email already exists"}
	Internal     = &E{Status: 500, Code: "internal", Message: "Internal server error"}
	// NotConfigured means the server is missing an upstream credential.
	// It is a deployment problem, not a provider failure, so it is a
	// 500 rather than a 502.
	NotConfigured = &E{Status: 500, Code: "not_configured", Message: "AI service not configured"}
)

// Validation returns a 400 with a request-specific message.
func Validation(msg string) *E {
	return &E{Status: 400, Code: "validation", Message: msg}
}

// Upstream returns the 502 reported when a provider call fails,
// carrying the provider's own status in the message.
func Upstream(status int) *E {
	return &E{Status: 502, Code: "upstream", Message: fmt.Sprintf("AI provider error: %d", status)}
}
