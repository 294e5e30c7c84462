// Package app provides application services that orchestrate domain logic.
package app

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/voxway/voxgate/domain/account"
	"github.com/voxway/voxgate/domain/apierr"
	"github.com/voxway/voxgate/domain/ledger"
	"github.com/voxway/voxgate/ports"
)

// RequestMeta carries client metadata recorded in the auth log.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// LoginResult is a successful authentication.
type LoginResult struct {
	User      account.User
	Token     string
	ExpiresAt time.Time
}

// AuthService handles registration, login and token verification.
type AuthService struct {
	users  ports.UserStore
	audit  ports.AuditStore
	tokens ports.TokenService
	hasher ports.Hasher
	clock  ports.Clock
	idGen  ports.IDGenerator
	logger zerolog.Logger
}

// AuthDeps contains dependencies for AuthService.
type AuthDeps struct {
	Users  ports.UserStore
	Audit  ports.AuditStore
	Tokens ports.TokenService
	Hasher ports.Hasher
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger zerolog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(deps AuthDeps) *AuthService {
	return &AuthService{
		users:  deps.Users,
		audit:  deps.Audit,
		tokens: deps.Tokens,
		hasher: deps.Hasher,
		clock:  deps.Clock,
		idGen:  deps.IDGen,
		logger: deps.Logger,
	}
}

// Register creates a new pending account. The account cannot use
// metered endpoints until an admin activates it.
func (s *AuthService) Register(ctx context.Context, email, password, name string, meta RequestMeta) (account.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return account.User{}, apierr.Validation("Email and password are required")
	}
	if len(password) < 8 {
		return account.User{}, apierr.Validation("Password must be at least 8 characters")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return account.User{}, apierr.EmailTaken
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return account.User{}, err
	}

	u := account.User{
		ID:           s.idGen.New(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Status:       account.StatusPending,
		CreatedAt:    s.clock.Now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return account.User{}, err
	}

	s.recordAuth(ctx, u.ID, email, ledger.ActionRegister, meta)
	return u, nil
}

// Login verifies credentials and issues a bearer token. Both the
// success and the failure are written to the auth log.
func (s *AuthService) Login(ctx context.Context, email, password string, meta RequestMeta) (LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil || !s.hasher.Compare(u.PasswordHash, password) {
		s.recordAuth(ctx, u.ID, email, ledger.ActionLoginFail, meta)
		return LoginResult{}, apierr.Unauthorized
	}

	token, expiresAt, err := s.tokens.Issue(u.ID, u.Email, u.IsAdmin)
	if err != nil {
		return LoginResult{}, err
	}

	now := s.clock.Now().UTC()
	if err := s.users.TouchLogin(ctx, u.ID, now); err != nil {
		s.logger.Warn().Err(err).Str("user_id", u.ID).Msg("failed to record login time")
	} else {
		u.LastLoginAt = &now
	}

	s.recordAuth(ctx, u.ID, email, ledger.ActionLoginOK, meta)
	return LoginResult{User: u, Token: token, ExpiresAt: expiresAt}, nil
}

// Authenticate verifies a bearer token and reloads the current account
// state. A token for a deleted account does not authenticate.
func (s *AuthService) Authenticate(ctx context.Context, token string) (account.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return account.User{}, apierr.Unauthorized
	}
	u, err := s.users.Get(ctx, claims.UserID)
	if err != nil {
		return account.User{}, apierr.Unauthorized
	}
	return u, nil
}

// RequireActive returns the error for a user who may not use metered
// endpoints.
func RequireActive(u account.User) error {
	if !u.IsActive() {
		return apierr.NotActive
	}
	return nil
}

// RequireAdmin returns the error for a non-admin caller.
func RequireAdmin(u account.User) error {
	if !u.IsAdmin {
		return apierr.Forbidden
	}
	return nil
}

// recordAuth appends an auth log entry. Audit failures never fail the
// request.
func (s *AuthService) recordAuth(ctx context.Context, userID, email, action string, meta RequestMeta) {
	entry := ledger.AuthEntry{
		ID:        s.idGen.New(),
		UserID:    userID,
		Email:     email,
		Action:    action,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.audit.RecordAuth(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to write auth log")
	}
}
