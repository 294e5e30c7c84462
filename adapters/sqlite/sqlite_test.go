package sqlite_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/voxway/voxgate/adapters/sqlite"
	"github.com/voxway/voxgate/domain/account"
	"github.com/voxway/voxgate/domain/ledger"
	"github.com/voxway/voxgate/domain/session"
)

func setupTestDB(t *testing.T) (*sqlite.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp("", "voxgate-test-*.db")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	path := f.Name()
	f.Close()

	db, err := sqlite.Open(path)
	if err != nil {
		os.Remove(path)
		t.Fatalf("open database: %v", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		os.Remove(path)
		t.Fatalf("migrate: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.Remove(path)
	}

	return db, cleanup
}

func testUser(id, email string) account.User {
	return account.User{
		ID:              id,
		Email:           email,
		PasswordHash:    []byte("$2a$12$fakehash"),
		Name:            "Test User",
		Status:          account.StatusActive,
		STTMinutesLimit: 300,
		AICreditsLimit:  10,
		CreatedAt:       time.Now().UTC(),
	}
}

// -----------------------------------------------------------------------------
// UserStore Tests
// -----------------------------------------------------------------------------

func TestUserStore_CreateAndGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewUserStore(db)
	ctx := context.Background()

	u := testUser("user-1", "a@example.com")
	u.OpenRouterKey = "sk-or-abc"
	if err := store.Create(ctx, u); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Email != "a@example.com" || got.Status != account.StatusActive {
		t.Errorf("got = %+v", got)
	}
	if got.OpenRouterKey != "sk-or-abc" {
		t.Errorf("OpenRouterKey = %q", got.OpenRouterKey)
	}
	if got.LastLoginAt != nil {
		t.Error("LastLoginAt should be nil before first login")
	}

	byEmail, err := store.GetByEmail(ctx, "a@example.com")
	if err != nil || byEmail.ID != "user-1" {
		t.Errorf("GetByEmail = %+v, %v", byEmail, err)
	}
}

func TestUserStore_Get_NotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewUserStore(db)
	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, sqlite.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUserStore_Create_DuplicateEmail(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewUserStore(db)
	ctx := context.Background()

	if err := store.Create(ctx, testUser("u1", "dup@example.com")); err != nil {
		t.Fatal(err)
	}
	err := store.Create(ctx, testUser("u2", "dup@example.com"))
	if !errors.Is(err, sqlite.ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
}

func TestUserStore_UpdateAndDelete(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewUserStore(db)
	ctx := context.Background()

	u := testUser("u1", "x@example.com")
	if err := store.Create(ctx, u); err != nil {
		t.Fatal(err)
	}

	u.Status = account.StatusBanned
	u.AICreditsLimit = 25
	if err := store.Update(ctx, u); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, _ := store.Get(ctx, "u1")
	if got.Status != account.StatusBanned || got.AICreditsLimit != 25 {
		t.Errorf("got = %+v", got)
	}

	if err := store.Delete(ctx, "u1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, "u1"); !errors.Is(err, sqlite.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestUserStore_TouchLogin(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewUserStore(db)
	ctx := context.Background()

	if err := store.Create(ctx, testUser("u1", "x@example.com")); err != nil {
		t.Fatal(err)
	}
	at := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	if err := store.TouchLogin(ctx, "u1", at); err != nil {
		t.Fatalf("TouchLogin failed: %v", err)
	}

	got, _ := store.Get(ctx, "u1")
	if got.LastLoginAt == nil || !got.LastLoginAt.Equal(at) {
		t.Errorf("LastLoginAt = %v, want %v", got.LastLoginAt, at)
	}
}

func TestUserStore_IncrementSTTMinutes(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewUserStore(db)
	ctx := context.Background()

	if err := store.Create(ctx, testUser("u1", "x@example.com")); err != nil {
		t.Fatal(err)
	}

	used, limit, err := store.IncrementSTTMinutes(ctx, "u1", 15)
	if err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if used != 15 || limit != 300 {
		t.Errorf("used = %d, limit = %d", used, limit)
	}

	used, _, _ = store.IncrementSTTMinutes(ctx, "u1", 5)
	if used != 20 {
		t.Errorf("used = %d, want 20", used)
	}

	if _, _, err := store.IncrementSTTMinutes(ctx, "missing", 1); !errors.Is(err, sqlite.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUserStore_IncrementSTTMinutes_Concurrent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewUserStore(db)
	ctx := context.Background()

	if err := store.Create(ctx, testUser("u1", "x@example.com")); err != nil {
		t.Fatal(err)
	}

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := store.IncrementSTTMinutes(ctx, "u1", 1); err != nil {
				t.Errorf("increment failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, _ := store.Get(ctx, "u1")
	if got.STTMinutesUsed != workers {
		t.Errorf("used = %d, want %d (lost update)", got.STTMinutesUsed, workers)
	}
}

func TestUserStore_IncrementAICredits(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewUserStore(db)
	ctx := context.Background()

	if err := store.Create(ctx, testUser("u1", "x@example.com")); err != nil {
		t.Fatal(err)
	}

	used, err := store.IncrementAICredits(ctx, "u1", 0.042)
	if err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if used != 0.042 {
		t.Errorf("used = %v", used)
	}
}

func TestUserStore_Counts(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewUserStore(db)
	ctx := context.Background()

	now := time.Now().UTC()
	for i, spec := range []struct {
		id, email, status string
		createdAt         time.Time
	}{
		{"u1", "a@x.com", account.StatusActive, now},
		{"u2", "b@x.com", account.StatusPending, now},
		{"u3", "c@x.com", account.StatusActive, now.Add(-48 * time.Hour)},
	} {
		u := testUser(spec.id, spec.email)
		u.Status = spec.status
		u.CreatedAt = spec.createdAt
		u.STTMinutesUsed = (i + 1) * 10
		u.AICreditsUsed = float64(i+1) * 0.5
		if err := store.Create(ctx, u); err != nil {
			t.Fatal(err)
		}
	}

	if n, _ := store.Count(ctx); n != 3 {
		t.Errorf("Count = %d", n)
	}
	if n, _ := store.CountByStatus(ctx, account.StatusActive); n != 2 {
		t.Errorf("CountByStatus(active) = %d", n)
	}
	if n, _ := store.CountCreatedSince(ctx, now.Add(-24*time.Hour)); n != 2 {
		t.Errorf("CountCreatedSince = %d", n)
	}
	mins, creds, err := store.SumUsage(ctx)
	if err != nil || mins != 60 || creds != 3.0 {
		t.Errorf("SumUsage = %d, %v, %v", mins, creds, err)
	}
}

// -----------------------------------------------------------------------------
// SessionStore Tests
// -----------------------------------------------------------------------------

func TestSessionStore_UpsertReplacesExisting(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	users := sqlite.NewUserStore(db)
	store := sqlite.NewSessionStore(db)
	ctx := context.Background()

	if err := users.Create(ctx, testUser("u1", "x@example.com")); err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC()
	first := session.Session{
		UserID: "u1", Type: session.TypeSTT, Provider: "elevenlabs",
		StartedAt: now.Add(-time.Hour), LastSeenAt: now.Add(-time.Hour),
	}
	if err := store.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := store.End(ctx, "u1", session.TypeSTT, now.Add(-30*time.Minute)); err != nil {
		t.Fatal(err)
	}

	// Reconnect reopens the same row.
	second := first
	second.Provider = "speechmatics"
	second.StartedAt = now
	second.LastSeenAt = now
	if err := store.Upsert(ctx, second); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	views, err := store.List(ctx, false, now, 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("got %d sessions, want 1", len(views))
	}
	v := views[0]
	if v.Provider != "speechmatics" || v.EndedAt != nil {
		t.Errorf("session = %+v", v)
	}
	if v.UserEmail != "x@example.com" {
		t.Errorf("UserEmail = %q", v.UserEmail)
	}
}

func TestSessionStore_ActiveWindow(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewSessionStore(db)
	ctx := context.Background()
	now := time.Now().UTC()

	fresh := session.Session{UserID: "u1", Type: session.TypeSTT, Provider: "elevenlabs",
		StartedAt: now, LastSeenAt: now}
	stale := session.Session{UserID: "u2", Type: session.TypeSTT, Provider: "elevenlabs",
		StartedAt: now.Add(-time.Hour), LastSeenAt: now.Add(-time.Hour)}
	for _, s := range []session.Session{fresh, stale} {
		if err := store.Upsert(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	active, err := store.List(ctx, true, now, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].UserID != "u1" {
		t.Errorf("active = %+v", active)
	}

	if n, _ := store.CountActive(ctx, now); n != 1 {
		t.Errorf("CountActive = %d", n)
	}
}

// -----------------------------------------------------------------------------
// LedgerStore Tests
// -----------------------------------------------------------------------------

func TestLedgerStore_RecordAndAggregate(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	users := sqlite.NewUserStore(db)
	store := sqlite.NewLedgerStore(db)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := users.Create(ctx, testUser("u1", "x@example.com")); err != nil {
		t.Fatal(err)
	}

	events := []ledger.UsageEvent{
		{ID: "e1", UserID: "u1", Provider: "openrouter", Type: ledger.TypeAIChat,
			Units: 1.2, CostUSD: 0.0012, Metadata: map[string]string{"tokens": "1200"}, CreatedAt: now},
		{ID: "e2", UserID: "u1", Provider: "openrouter", Type: ledger.TypeAIChat,
			Units: 0.5, CostUSD: 0.0005, CreatedAt: now},
		{ID: "e3", UserID: "u1", Provider: "elevenlabs", Type: ledger.TypeSTT,
			Units: 12, CostUSD: 0, CreatedAt: now},
		{ID: "e4", UserID: "u1", Provider: "openrouter", Type: ledger.TypeAIChat,
			Units: 9, CostUSD: 0.009, CreatedAt: now.Add(-60 * 24 * time.Hour)},
	}
	for _, e := range events {
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	since := now.Add(-30 * 24 * time.Hour)

	totals, err := store.TotalsByProvider(ctx, since)
	if err != nil {
		t.Fatalf("TotalsByProvider failed: %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("got %d providers, want 2", len(totals))
	}
	// Most expensive provider first.
	if totals[0].Provider != "openrouter" || totals[0].Events != 2 {
		t.Errorf("totals[0] = %+v", totals[0])
	}
	if diff := totals[0].CostUSD - 0.0017; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("openrouter cost = %v", totals[0].CostUSD)
	}

	byType, err := store.TotalsByProviderType(ctx, since)
	if err != nil || len(byType) != 2 {
		t.Fatalf("TotalsByProviderType = %+v, %v", byType, err)
	}

	top, err := store.TopUsers(ctx, since, 5)
	if err != nil || len(top) != 1 {
		t.Fatalf("TopUsers = %+v, %v", top, err)
	}
	if top[0].Email != "x@example.com" || top[0].Events != 3 {
		t.Errorf("top[0] = %+v", top[0])
	}

	total, err := store.TotalCost(ctx, since)
	if err != nil {
		t.Fatal(err)
	}
	if diff := total - 0.0017; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("TotalCost = %v", total)
	}
}

// -----------------------------------------------------------------------------
// AuditStore Tests
// -----------------------------------------------------------------------------

func TestAuditStore_AuthLog(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	users := sqlite.NewUserStore(db)
	store := sqlite.NewAuditStore(db)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := users.Create(ctx, testUser("u1", "x@example.com")); err != nil {
		t.Fatal(err)
	}

	entries := []ledger.AuthEntry{
		{ID: "a1", UserID: "u1", Email: "x@example.com", Action: ledger.ActionLoginOK,
			IP: "10.0.0.1", UserAgent: "test", CreatedAt: now.Add(-time.Minute)},
		{ID: "a2", Email: "ghost@example.com", Action: ledger.ActionLoginFail,
			IP: "10.0.0.2", CreatedAt: now},
	}
	for _, e := range entries {
		if err := store.RecordAuth(ctx, e); err != nil {
			t.Fatalf("RecordAuth failed: %v", err)
		}
	}

	got, total, err := store.ListAuth(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListAuth failed: %v", err)
	}
	if total != 2 || len(got) != 2 {
		t.Fatalf("total = %d, len = %d", total, len(got))
	}
	// Newest first.
	if got[0].ID != "a2" {
		t.Errorf("got[0].ID = %s", got[0].ID)
	}
	if got[1].UserName != "Test User" {
		t.Errorf("join should fill UserName, got %q", got[1].UserName)
	}

	if n, _ := store.CountAuthSince(ctx, ledger.ActionLoginFail, now.Add(-time.Hour)); n != 1 {
		t.Errorf("CountAuthSince = %d", n)
	}
}

func TestAuditStore_ErrorLog(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewAuditStore(db)
	ctx := context.Background()
	now := time.Now().UTC()

	e := ledger.ErrorEntry{
		ID: "e1", UserID: "u1", Type: ledger.ErrorAIRequestFail, Provider: "openrouter",
		Message:   "HTTP 429: rate limited",
		Metadata:  map[string]string{"model": "gpt-4o"},
		CreatedAt: now,
	}
	if err := store.RecordError(ctx, e); err != nil {
		t.Fatalf("RecordError failed: %v", err)
	}

	got, total, err := store.ListErrors(ctx, 10, 0)
	if err != nil || total != 1 || len(got) != 1 {
		t.Fatalf("ListErrors = %+v, %d, %v", got, total, err)
	}
	if got[0].Message != "HTTP 429: rate limited" {
		t.Errorf("Message = %q", got[0].Message)
	}
	if got[0].Metadata["model"] != "gpt-4o" {
		t.Errorf("Metadata = %+v", got[0].Metadata)
	}

	if n, _ := store.CountErrorsSince(ctx, now.Add(-time.Minute)); n != 1 {
		t.Errorf("CountErrorsSince = %d", n)
	}
}
