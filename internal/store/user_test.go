package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jjudge-oj/roster/config"
	"github.com/jjudge-oj/roster/internal/db"
	"github.com/jjudge-oj/roster/types"
)

// testDB creates a migrated SQLite database in a temp dir.
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roster.db")
	if err := db.MigrateUp(config.DatabaseConfig{Driver: config.DriverSQLite, Path: path}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	conn, err := db.OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// steppingClock returns base, base+step, base+2*step, ...
func steppingClock(base time.Time, step time.Duration) func() time.Time {
	next := base
	return func() time.Time {
		current := next
		next = next.Add(step)
		return current
	}
}

func strPtr(s string) *string { return &s }

func TestInsertAssignsIDAndCreatedAt(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewUserRepository(testDB(t), config.DriverSQLite).WithClock(func() time.Time { return at })

	user, err := repo.Insert(context.Background(), types.NewUser{
		Name:   strPtr("Alice"),
		Email:  strPtr("a@x.com"),
		Status: types.UserStatusActive,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("expected generated id")
	}
	if !user.CreatedAt.Equal(at) {
		t.Fatalf("created_at = %v, want %v", user.CreatedAt, at)
	}
	if user.PhotoURL != nil {
		t.Fatalf("expected nil photo, got %q", *user.PhotoURL)
	}

	users, err := repo.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	got := users[0]
	if got.ID != user.ID || got.Name != "Alice" || got.Email != "a@x.com" || got.Status != "Active" {
		t.Fatalf("unexpected stored user: %+v", got)
	}
	if got.PhotoURL != nil {
		t.Fatalf("expected nil photo after round trip, got %q", *got.PhotoURL)
	}
	if !got.CreatedAt.Equal(at) {
		t.Fatalf("stored created_at = %v, want %v", got.CreatedAt, at)
	}
}

func TestInsertStoresPhotoRef(t *testing.T) {
	repo := NewUserRepository(testDB(t), config.DriverSQLite)

	if _, err := repo.Insert(context.Background(), types.NewUser{
		Name:     strPtr("Bob"),
		Email:    strPtr("b@x.com"),
		PhotoURL: strPtr("1700000000000-cat.png"),
		Status:   types.UserStatusActive,
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	users, err := repo.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 1 || users[0].PhotoURL == nil || *users[0].PhotoURL != "1700000000000-cat.png" {
		t.Fatalf("unexpected users: %+v", users)
	}
}

func TestListAllNewestFirst(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := NewUserRepository(testDB(t), config.DriverSQLite).WithClock(steppingClock(base, 1500*time.Millisecond))
	ctx := context.Background()

	for _, name := range []string{"t1", "t2", "t3"} {
		if _, err := repo.Insert(ctx, types.NewUser{Name: strPtr(name), Email: strPtr(name + "@x.com"), Status: types.UserStatusActive}); err != nil {
			t.Fatalf("insert %s: %v", name, err)
		}
	}

	users, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Name)
	}
	if diff := cmp.Diff([]string{"t3", "t2", "t1"}, names); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestListAllBreaksTiesByID(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := NewUserRepository(testDB(t), config.DriverSQLite).WithClock(func() time.Time { return at })
	ctx := context.Background()

	for _, name := range []string{"first", "second"} {
		if _, err := repo.Insert(ctx, types.NewUser{Name: strPtr(name), Email: strPtr("same@x.com"), Status: types.UserStatusActive}); err != nil {
			t.Fatalf("insert %s: %v", name, err)
		}
	}

	users, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 2 || users[0].Name != "second" || users[1].Name != "first" {
		t.Fatalf("unexpected order: %+v", users)
	}
}

func TestListAllEmpty(t *testing.T) {
	repo := NewUserRepository(testDB(t), config.DriverSQLite)

	users, err := repo.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if users == nil || len(users) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", users)
	}
}

func TestInsertMissingNameRejectedBySchema(t *testing.T) {
	repo := NewUserRepository(testDB(t), config.DriverSQLite)

	_, err := repo.Insert(context.Background(), types.NewUser{Email: strPtr("a@x.com"), Status: types.UserStatusActive})
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *PersistenceError, got %v", err)
	}
	if perr.Op != "insert" {
		t.Fatalf("unexpected op: %q", perr.Op)
	}
	if perr.Error() == "" {
		t.Fatal("expected a message")
	}
}

func TestInsertEmptyStringsPassThrough(t *testing.T) {
	repo := NewUserRepository(testDB(t), config.DriverSQLite)

	if _, err := repo.Insert(context.Background(), types.NewUser{Name: strPtr(""), Email: strPtr(""), Status: types.UserStatusActive}); err != nil {
		t.Fatalf("empty strings should be accepted by the schema: %v", err)
	}
}

func TestClosedDatabaseReturnsPersistenceError(t *testing.T) {
	conn := testDB(t)
	repo := NewUserRepository(conn, config.DriverSQLite)
	_ = conn.Close()

	_, err := repo.Insert(context.Background(), types.NewUser{Name: strPtr("a"), Email: strPtr("b"), Status: types.UserStatusActive})
	var perr *PersistenceError
	if !errors.As(err, &perr) || perr.Op != "insert" {
		t.Fatalf("expected insert PersistenceError, got %v", err)
	}

	_, err = repo.ListAll(context.Background())
	if !errors.As(err, &perr) || perr.Op != "list" {
		t.Fatalf("expected list PersistenceError, got %v", err)
	}
	if perr.Err == nil {
		t.Fatal("expected underlying driver error")
	}
}

func TestDialectFor(t *testing.T) {
	if dialectFor(config.DriverSQLite).returning {
		t.Fatal("sqlite dialect should not use RETURNING")
	}
	if !dialectFor(config.DriverPostgres).returning {
		t.Fatal("postgres dialect should use RETURNING")
	}
	if !dialectFor("").returning {
		t.Fatal("default dialect should be postgres")
	}
}
