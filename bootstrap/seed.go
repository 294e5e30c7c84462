package bootstrap

import (
	"context"
	"fmt"

	"github.com/voxway/voxgate/domain/account"
)

// Admin seed defaults, used when no overrides are supplied.
const (
	DefaultAdminEmail    = "admin@voxway.app"
	DefaultAdminPassword = "admin123"

	seedSTTMinutesLimit = 10000
	seedAICreditsLimit  = 1000
)

// SeedAdmin creates or refreshes the admin account. An existing account
// with the same email is promoted and its password reset, so the
// command doubles as password recovery.
func (a *App) SeedAdmin(ctx context.Context, email, password string) (account.User, error) {
	if email == "" {
		email = DefaultAdminEmail
	}
	if password == "" {
		password = DefaultAdminPassword
	}

	hash, err := a.hasher.Hash(password)
	if err != nil {
		return account.User{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		u = account.User{
			ID:        a.idGen.New(),
			Email:     email,
			CreatedAt: a.clock.Now().UTC(),
		}
		applyAdminSeed(&u, hash)
		if err := a.users.Create(ctx, u); err != nil {
			return account.User{}, fmt.Errorf("create admin: %w", err)
		}
		a.Logger.Info().Str("email", email).Msg("admin user created")
		return u, nil
	}

	applyAdminSeed(&u, hash)
	if err := a.users.Update(ctx, u); err != nil {
		return account.User{}, fmt.Errorf("update admin: %w", err)
	}
	a.Logger.Info().Str("email", email).Msg("admin user updated")
	return u, nil
}

func applyAdminSeed(u *account.User, hash []byte) {
	u.PasswordHash = hash
	u.Name = "Admin"
	u.Status = account.StatusActive
	u.IsAdmin = true
	u.IsDeveloper = true
	u.STTMinutesLimit = seedSTTMinutesLimit
	u.AICreditsLimit = seedAICreditsLimit
}
