package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/voxway/voxgate/domain/account"
	"github.com/voxway/voxgate/domain/apierr"
	"github.com/voxway/voxgate/domain/ledger"
	"github.com/voxway/voxgate/domain/pricing"
	"github.com/voxway/voxgate/domain/session"
	"github.com/voxway/voxgate/ports"
)

// UsageReport is the outcome of one STT minute report.
type UsageReport struct {
	Added           int
	STTMinutesUsed  int
	STTMinutesLimit int
}

// STTService gates speech-to-text credential issuance on quota and
// records the minutes clients report back.
type STTService struct {
	users    ports.UserStore
	sessions ports.SessionStore
	ledger   ports.LedgerStore
	audit    ports.AuditStore
	rates    *pricing.Store
	clock    ports.Clock
	idGen    ports.IDGenerator
	logger   zerolog.Logger
}

// STTDeps contains dependencies for STTService.
type STTDeps struct {
	Users    ports.UserStore
	Sessions ports.SessionStore
	Ledger   ports.LedgerStore
	Audit    ports.AuditStore
	Rates    *pricing.Store
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   zerolog.Logger
}

// NewSTTService creates a new STT service.
func NewSTTService(deps STTDeps) *STTService {
	rates := deps.Rates
	if rates == nil {
		rates = pricing.NewStore(nil)
	}
	return &STTService{
		users:    deps.Users,
		sessions: deps.Sessions,
		ledger:   deps.Ledger,
		audit:    deps.Audit,
		rates:    rates,
		clock:    deps.Clock,
		idGen:    deps.IDGen,
		logger:   deps.Logger,
	}
}

// IssueToken checks the caller's remaining minutes, obtains a
// credential from the provider and marks the caller's session live.
// Both ElevenLabs and Speechmatics draw on the same minute quota.
func (s *STTService) IssueToken(ctx context.Context, user account.User, provider ports.STTTokenProvider) (string, error) {
	if !user.CanUseSTT() {
		return "", apierr.STTQuota
	}

	token, err := provider.IssueToken(ctx)
	if err != nil {
		s.recordTokenFailure(ctx, user.ID, provider.Name(), err)
		return "", err
	}

	now := s.clock.Now().UTC()
	sess := session.Session{
		UserID:     user.ID,
		Type:       session.TypeSTT,
		Provider:   provider.Name(),
		StartedAt:  now,
		LastSeenAt: now,
	}
	if err := s.sessions.Upsert(ctx, sess); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("failed to upsert stt session")
	}

	return token, nil
}

// Heartbeat refreshes the caller's live session window.
func (s *STTService) Heartbeat(ctx context.Context, user account.User, provider string) error {
	now := s.clock.Now().UTC()
	return s.sessions.Upsert(ctx, session.Session{
		UserID:     user.ID,
		Type:       session.TypeSTT,
		Provider:   provider,
		StartedAt:  now,
		LastSeenAt: now,
	})
}

// ReportUsage records minutes a client consumed: the quota counter is
// incremented atomically, the session is closed and a ledger row is
// appended. A single report is capped at three hours.
func (s *STTService) ReportUsage(ctx context.Context, user account.User, provider string, minutes float64) (UsageReport, error) {
	capped, ok := account.ClampMinutes(minutes)
	if !ok {
		return UsageReport{}, apierr.Validation("Invalid minutes value")
	}

	used, limit, err := s.users.IncrementSTTMinutes(ctx, user.ID, capped)
	if err != nil {
		return UsageReport{}, err
	}

	now := s.clock.Now().UTC()
	if err := s.sessions.End(ctx, user.ID, session.TypeSTT, now); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("failed to end stt session")
	}

	if provider == "" {
		provider = pricing.ProviderElevenLabs
	}
	event := ledger.UsageEvent{
		ID:        s.idGen.New(),
		UserID:    user.ID,
		Provider:  provider,
		Type:      ledger.TypeSTT,
		Units:     float64(capped),
		CostUSD:   s.rates.Cost(provider, float64(capped)),
		CreatedAt: now,
	}
	if err := s.ledger.Record(ctx, event); err != nil {
		// Quota is already committed; the ledger row is best effort.
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to record stt usage event")
	}

	return UsageReport{Added: capped, STTMinutesUsed: used, STTMinutesLimit: limit}, nil
}

func (s *STTService) recordTokenFailure(ctx context.Context, userID, provider string, cause error) {
	message := cause.Error()
	var statusErr *ports.UpstreamStatusError
	if errors.As(cause, &statusErr) {
		body := statusErr.Body
		if len(body) > 200 {
			body = body[:200]
		}
		message = fmt.Sprintf("HTTP %d: %s", statusErr.Status, body)
	}

	entry := ledger.ErrorEntry{
		ID:        s.idGen.New(),
		UserID:    userID,
		Type:      ledger.ErrorSTTTokenFail,
		Provider:  provider,
		Message:   message,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.audit.RecordError(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Msg("failed to write error log")
	}
}
