package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/voxway/voxgate/domain/session"
	"github.com/voxway/voxgate/ports"
)

// SessionStore implements ports.SessionStore using SQLite.
type SessionStore struct {
	db *DB
}

// NewSessionStore creates a new SQLite session store.
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

// Upsert creates or refreshes the session keyed by user and type.
// A new connection from the same user replaces the previous row, so
// at most one session per user and type exists.
func (s *SessionStore) Upsert(ctx context.Context, sess session.Session) error {
	if sess.ID == "" {
		sess.ID = session.Key(sess.UserID, sess.Type)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, type, provider, started_at, last_seen_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, NULL)
		ON CONFLICT(id) DO UPDATE SET
			provider = excluded.provider,
			started_at = excluded.started_at,
			last_seen_at = excluded.last_seen_at,
			ended_at = NULL
	`, sess.ID, sess.UserID, sess.Type, sess.Provider, sess.StartedAt, sess.LastSeenAt)
	return err
}

// End closes the session keyed by user and type, if open.
func (s *SessionStore) End(ctx context.Context, userID, typ string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL
	`, at, session.Key(userID, typ))
	return err
}

// List returns sessions newest first, joined with user identity.
func (s *SessionStore) List(ctx context.Context, activeOnly bool, now time.Time, limit int) ([]ports.SessionView, error) {
	query := `
		SELECT s.id, s.user_id, s.type, s.provider, s.started_at, s.last_seen_at, s.ended_at,
			COALESCE(u.email, ''), COALESCE(u.name, '')
		FROM sessions s
		LEFT JOIN users u ON u.id = s.user_id
	`
	args := []interface{}{}
	if activeOnly {
		query += ` WHERE s.ended_at IS NULL AND s.last_seen_at > ?`
		args = append(args, now.Add(-session.Window))
	}
	query += ` ORDER BY s.last_seen_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []ports.SessionView
	for rows.Next() {
		var v ports.SessionView
		var ended sql.NullTime
		err := rows.Scan(&v.ID, &v.UserID, &v.Type, &v.Provider, &v.StartedAt, &v.LastSeenAt,
			&ended, &v.UserEmail, &v.UserName)
		if err != nil {
			return nil, err
		}
		if ended.Valid {
			t := ended.Time
			v.EndedAt = &t
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// CountActive returns the number of sessions active at now.
func (s *SessionStore) CountActive(ctx context.Context, now time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sessions WHERE ended_at IS NULL AND last_seen_at > ?
	`, now.Add(-session.Window)).Scan(&count)
	return count, err
}

// Ensure interface compliance.
var _ ports.SessionStore = (*SessionStore)(nil)
