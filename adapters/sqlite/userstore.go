package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/voxway/voxgate/domain/account"
	"github.com/voxway/voxgate/ports"
)

// ErrNotFound is returned when an entity is not found.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique constraint is violated.
var ErrDuplicate = errors.New("already exists")

const userColumns = `id, email, password_hash, name, status, is_admin, is_developer,
	openrouter_key, stt_minutes_used, stt_minutes_limit, ai_credits_used, ai_credits_limit,
	created_at, last_login_at`

// UserStore implements ports.UserStore using SQLite.
type UserStore struct {
	db *DB
}

// NewUserStore creates a new SQLite user store.
func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

// Get retrieves a user by ID.
func (s *UserStore) Get(ctx context.Context, id string) (account.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetByEmail retrieves a user by email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (account.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// Create stores a new user.
func (s *UserStore) Create(ctx context.Context, u account.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, name, status, is_admin, is_developer,
			openrouter_key, stt_minutes_used, stt_minutes_limit, ai_credits_used, ai_credits_limit,
			created_at, last_login_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.Email, u.PasswordHash, u.Name, u.Status, u.IsAdmin, u.IsDeveloper,
		nullString(u.OpenRouterKey), u.STTMinutesUsed, u.STTMinutesLimit,
		u.AICreditsUsed, u.AICreditsLimit, u.CreatedAt, nullTime(u.LastLoginAt))

	if err != nil && isUniqueConstraintError(err) {
		return ErrDuplicate
	}
	return err
}

// Update modifies an existing user.
func (s *UserStore) Update(ctx context.Context, u account.User) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET email = ?, password_hash = ?, name = ?, status = ?, is_admin = ?, is_developer = ?,
			openrouter_key = ?, stt_minutes_used = ?, stt_minutes_limit = ?,
			ai_credits_used = ?, ai_credits_limit = ?
		WHERE id = ?
	`, u.Email, u.PasswordHash, u.Name, u.Status, u.IsAdmin, u.IsDeveloper,
		nullString(u.OpenRouterKey), u.STTMinutesUsed, u.STTMinutesLimit,
		u.AICreditsUsed, u.AICreditsLimit, u.ID)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicate
		}
		return err
	}
	return requireAffected(result)
}

// Delete permanently removes a user.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// List returns users with pagination, newest first.
func (s *UserStore) List(ctx context.Context, limit, offset int) ([]account.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []account.User
	for rows.Next() {
		u, err := scanUserRows(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Count returns total user count.
func (s *UserStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// TouchLogin records a successful login time.
func (s *UserStore) TouchLogin(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET last_login_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// IncrementSTTMinutes atomically adds minutes to a user's STT usage.
// The increment and readback happen in one statement so concurrent
// reports cannot lose updates.
func (s *UserStore) IncrementSTTMinutes(ctx context.Context, id string, minutes int) (int, int, error) {
	var used, limit int
	err := s.db.QueryRowContext(ctx, `
		UPDATE users
		SET stt_minutes_used = stt_minutes_used + ?
		WHERE id = ?
		RETURNING stt_minutes_used, stt_minutes_limit
	`, minutes, id).Scan(&used, &limit)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, ErrNotFound
	}
	return used, limit, err
}

// IncrementAICredits atomically adds credits to a user's AI usage.
func (s *UserStore) IncrementAICredits(ctx context.Context, id string, credits float64) (float64, error) {
	var used float64
	err := s.db.QueryRowContext(ctx, `
		UPDATE users
		SET ai_credits_used = ai_credits_used + ?
		WHERE id = ?
		RETURNING ai_credits_used
	`, credits, id).Scan(&used)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return used, err
}

// CountByStatus returns the number of users in a status.
func (s *UserStore) CountByStatus(ctx context.Context, status string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE status = ?`, status).Scan(&count)
	return count, err
}

// CountCreatedSince returns the number of users created at or after t.
func (s *UserStore) CountCreatedSince(ctx context.Context, t time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE created_at >= ?`, t).Scan(&count)
	return count, err
}

// SumUsage returns the totals of used STT minutes and AI credits.
func (s *UserStore) SumUsage(ctx context.Context) (int, float64, error) {
	var sttMinutes int
	var aiCredits float64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(stt_minutes_used), 0), COALESCE(SUM(ai_credits_used), 0) FROM users
	`).Scan(&sttMinutes, &aiCredits)
	return sttMinutes, aiCredits, err
}

func scanUser(row *sql.Row) (account.User, error) {
	var u account.User
	var key sql.NullString
	var lastLogin sql.NullTime

	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Status, &u.IsAdmin, &u.IsDeveloper,
		&key, &u.STTMinutesUsed, &u.STTMinutesLimit, &u.AICreditsUsed, &u.AICreditsLimit,
		&u.CreatedAt, &lastLogin,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return account.User{}, ErrNotFound
	}
	if err != nil {
		return account.User{}, err
	}
	applyNullables(&u, key, lastLogin)
	return u, nil
}

func scanUserRows(rows *sql.Rows) (account.User, error) {
	var u account.User
	var key sql.NullString
	var lastLogin sql.NullTime

	err := rows.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Status, &u.IsAdmin, &u.IsDeveloper,
		&key, &u.STTMinutesUsed, &u.STTMinutesLimit, &u.AICreditsUsed, &u.AICreditsLimit,
		&u.CreatedAt, &lastLogin,
	)
	if err != nil {
		return account.User{}, err
	}
	applyNullables(&u, key, lastLogin)
	return u, nil
}

func applyNullables(u *account.User, key sql.NullString, lastLogin sql.NullTime) {
	if key.Valid {
		u.OpenRouterKey = key.String
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
}

func requireAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Ensure interface compliance.
var _ ports.UserStore = (*UserStore)(nil)
