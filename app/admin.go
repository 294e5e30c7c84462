package app

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/voxway/voxgate/domain/account"
	"github.com/voxway/voxgate/domain/apierr"
	"github.com/voxway/voxgate/domain/ledger"
	"github.com/voxway/voxgate/ports"
)

// sessionListLimit caps one admin session listing.
const sessionListLimit = 100

// UserPatch carries the admin-editable user fields. Nil means leave
// unchanged.
type UserPatch struct {
	Name            *string
	Status          *string
	IsAdmin         *bool
	IsDeveloper     *bool
	STTMinutesUsed  *int
	STTMinutesLimit *int
	AICreditsUsed   *float64
	AICreditsLimit  *float64
}

// InviteResult is a newly invited user plus the password generated for
// them, when the admin did not supply one.
type InviteResult struct {
	User              account.User
	GeneratedPassword string
}

// DashboardStats is the admin overview.
type DashboardStats struct {
	TotalUsers      int
	ActiveUsers     int
	PendingUsers    int
	BannedUsers     int
	NewToday        int
	NewThisWeek     int
	ActiveSessions  int
	TotalSTTMinutes int
	TotalAICredits  float64
	CostLast30dUSD  float64
	ErrorsLastWeek  int
	LoginsToday     int
}

// CostReport is aggregated provider spend over a trailing window.
type CostReport struct {
	Days           int
	TotalCostUSD   float64
	TotalUnits     float64
	ByProvider     []ledger.ProviderTotal
	ByProviderType []ledger.ProviderTotal
	TopUsers       []ledger.UserTotal
}

// AdminService implements the administrative query and mutation surface.
type AdminService struct {
	users       ports.UserStore
	sessions    ports.SessionStore
	ledger      ports.LedgerStore
	audit       ports.AuditStore
	provisioner ports.KeyProvisioner
	prober      ports.HealthProber
	hasher      ports.Hasher
	clock       ports.Clock
	idGen       ports.IDGenerator
	logger      zerolog.Logger
}

// AdminDeps contains dependencies for AdminService.
type AdminDeps struct {
	Users       ports.UserStore
	Sessions    ports.SessionStore
	Ledger      ports.LedgerStore
	Audit       ports.AuditStore
	Provisioner ports.KeyProvisioner
	Prober      ports.HealthProber
	Hasher      ports.Hasher
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Logger      zerolog.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(deps AdminDeps) *AdminService {
	return &AdminService{
		users:       deps.Users,
		sessions:    deps.Sessions,
		ledger:      deps.Ledger,
		audit:       deps.Audit,
		provisioner: deps.Provisioner,
		prober:      deps.Prober,
		hasher:      deps.Hasher,
		clock:       deps.Clock,
		idGen:       deps.IDGen,
		logger:      deps.Logger,
	}
}

// ListUsers returns all users newest first.
func (s *AdminService) ListUsers(ctx context.Context, limit, offset int) ([]account.User, error) {
	if limit <= 0 {
		limit = 1000
	}
	return s.users.List(ctx, limit, offset)
}

// GetUser returns one user.
func (s *AdminService) GetUser(ctx context.Context, id string) (account.User, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return account.User{}, apierr.NotFound
	}
	return u, nil
}

// PatchUser applies the set fields of a patch.
func (s *AdminService) PatchUser(ctx context.Context, id string, patch UserPatch) (account.User, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return account.User{}, apierr.NotFound
	}

	if patch.Status != nil {
		if !account.ValidStatus(*patch.Status) {
			return account.User{}, apierr.Validation("Invalid status value")
		}
		u.Status = *patch.Status
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.IsAdmin != nil {
		u.IsAdmin = *patch.IsAdmin
	}
	if patch.IsDeveloper != nil {
		u.IsDeveloper = *patch.IsDeveloper
	}
	if patch.STTMinutesUsed != nil {
		u.STTMinutesUsed = *patch.STTMinutesUsed
	}
	if patch.STTMinutesLimit != nil {
		u.STTMinutesLimit = *patch.STTMinutesLimit
	}
	if patch.AICreditsUsed != nil {
		u.AICreditsUsed = *patch.AICreditsUsed
	}
	if patch.AICreditsLimit != nil {
		u.AICreditsLimit = *patch.AICreditsLimit
	}

	if err := s.users.Update(ctx, u); err != nil {
		return account.User{}, err
	}
	return u, nil
}

// DeleteUser permanently removes a user.
func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return apierr.NotFound
	}
	return nil
}

// ActivateUser flips a pending or banned account to active and, when
// missing, provisions a spend-limited provider key for it. Key
// provisioning is best effort; the admin can add one manually later.
func (s *AdminService) ActivateUser(ctx context.Context, id string) (account.User, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return account.User{}, apierr.NotFound
	}
	if u.Status == account.StatusActive {
		return account.User{}, apierr.Validation("User already active")
	}

	if u.OpenRouterKey == "" && s.provisioner != nil {
		name := strings.SplitN(u.Email, "@", 2)[0]
		key, err := s.provisioner.ProvisionKey(ctx, name, u.AICreditsLimit)
		if err != nil {
			s.logger.Warn().Err(err).Str("user_id", u.ID).Msg("failed to provision provider key")
		} else {
			u.OpenRouterKey = key
		}
	}

	u.Status = account.StatusActive
	if err := s.users.Update(ctx, u); err != nil {
		return account.User{}, err
	}
	return u, nil
}

// InviteUser creates an already active account. When no password is
// given a random one is generated and returned once.
func (s *AdminService) InviteUser(ctx context.Context, email, name, password string) (InviteResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return InviteResult{}, apierr.Validation("Invalid email")
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return InviteResult{}, apierr.EmailTaken
	}

	generated := ""
	if password == "" {
		generated = strings.ReplaceAll(s.idGen.New(), "-", "")
		if len(generated) > 10 {
			generated = generated[:10]
		}
		password = generated
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return InviteResult{}, err
	}

	u := account.User{
		ID:           s.idGen.New(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Status:       account.StatusActive,
		CreatedAt:    s.clock.Now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return InviteResult{}, err
	}
	return InviteResult{User: u, GeneratedPassword: generated}, nil
}

// Dashboard assembles the admin overview counters.
func (s *AdminService) Dashboard(ctx context.Context) (DashboardStats, error) {
	now := s.clock.Now().UTC()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekAgo := now.Add(-7 * 24 * time.Hour)
	monthAgo := now.Add(-30 * 24 * time.Hour)

	var stats DashboardStats
	var err error

	if stats.TotalUsers, err = s.users.Count(ctx); err != nil {
		return DashboardStats{}, err
	}
	if stats.ActiveUsers, err = s.users.CountByStatus(ctx, account.StatusActive); err != nil {
		return DashboardStats{}, err
	}
	if stats.PendingUsers, err = s.users.CountByStatus(ctx, account.StatusPending); err != nil {
		return DashboardStats{}, err
	}
	if stats.BannedUsers, err = s.users.CountByStatus(ctx, account.StatusBanned); err != nil {
		return DashboardStats{}, err
	}
	if stats.NewToday, err = s.users.CountCreatedSince(ctx, todayStart); err != nil {
		return DashboardStats{}, err
	}
	if stats.NewThisWeek, err = s.users.CountCreatedSince(ctx, weekAgo); err != nil {
		return DashboardStats{}, err
	}
	if stats.ActiveSessions, err = s.sessions.CountActive(ctx, now); err != nil {
		return DashboardStats{}, err
	}
	if stats.TotalSTTMinutes, stats.TotalAICredits, err = s.users.SumUsage(ctx); err != nil {
		return DashboardStats{}, err
	}
	if stats.CostLast30dUSD, err = s.ledger.TotalCost(ctx, monthAgo); err != nil {
		return DashboardStats{}, err
	}
	if stats.ErrorsLastWeek, err = s.audit.CountErrorsSince(ctx, weekAgo); err != nil {
		return DashboardStats{}, err
	}
	if stats.LoginsToday, err = s.audit.CountAuthSince(ctx, ledger.ActionLoginOK, todayStart); err != nil {
		return DashboardStats{}, err
	}
	return stats, nil
}

// Costs aggregates provider spend over a trailing window of days.
func (s *AdminService) Costs(ctx context.Context, days int) (CostReport, error) {
	days = ledger.ClampWindowDays(days)
	since := s.clock.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)

	byProvider, err := s.ledger.TotalsByProvider(ctx, since)
	if err != nil {
		return CostReport{}, err
	}
	byType, err := s.ledger.TotalsByProviderType(ctx, since)
	if err != nil {
		return CostReport{}, err
	}
	topUsers, err := s.ledger.TopUsers(ctx, since, 10)
	if err != nil {
		return CostReport{}, err
	}

	return CostReport{
		Days:           days,
		TotalCostUSD:   lo.SumBy(byProvider, func(t ledger.ProviderTotal) float64 { return t.CostUSD }),
		TotalUnits:     lo.SumBy(byProvider, func(t ledger.ProviderTotal) float64 { return t.Units }),
		ByProvider:     byProvider,
		ByProviderType: byType,
		TopUsers:       topUsers,
	}, nil
}

// Sessions lists sessions, active ones by default.
func (s *AdminService) Sessions(ctx context.Context, activeOnly bool) ([]ports.SessionView, error) {
	return s.sessions.List(ctx, activeOnly, s.clock.Now().UTC(), sessionListLimit)
}

// AuthLogs lists authentication audit entries.
func (s *AdminService) AuthLogs(ctx context.Context, limit, offset int) ([]ledger.AuthEntry, int, error) {
	limit, offset = ledger.ClampLogPage(limit, offset)
	return s.audit.ListAuth(ctx, limit, offset)
}

// ErrorLogs lists operational failure entries.
func (s *AdminService) ErrorLogs(ctx context.Context, limit, offset int) ([]ledger.ErrorEntry, int, error) {
	limit, offset = ledger.ClampLogPage(limit, offset)
	return s.audit.ListErrors(ctx, limit, offset)
}

// ProviderHealth probes all configured providers.
func (s *AdminService) ProviderHealth(ctx context.Context) ([]ports.ProviderHealth, bool) {
	results := s.prober.Probe(ctx)
	allOK := lo.EveryBy(results, func(h ports.ProviderHealth) bool { return h.OK })
	return results, allOK
}
