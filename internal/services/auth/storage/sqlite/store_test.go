package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/louisbranch/userapi/internal/services/auth/storage"
	"github.com/louisbranch/userapi/internal/services/auth/user"
)

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestStoreNilSafe(t *testing.T) {
	var store *Store
	if err := store.Close(); err != nil {
		t.Fatalf("close nil store: %v", err)
	}
	if err := store.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error for nil store")
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.db")
	first, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.CreateUser(context.Background(), testUser("user-1", "ana@example.com")); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	if _, err := second.GetUser(context.Background(), "user-1"); err != nil {
		t.Fatalf("get user after reopen: %v", err)
	}
}

func TestCreateGetUserRoundTrip(t *testing.T) {
	store := openTempStore(t)

	input := testUser("user-1", "ana@example.com")
	input.Role = user.RoleAdmin
	input.PasswordHash = "hash"
	if err := store.CreateUser(context.Background(), input); err != nil {
		t.Fatalf("create user: %v", err)
	}

	got, err := store.GetUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.ID != input.ID || got.Name != input.Name || got.Email != input.Email {
		t.Fatalf("unexpected user: %+v", got)
	}
	if got.Role != user.RoleAdmin || !got.Active || got.PasswordHash != "hash" {
		t.Fatalf("unexpected user fields: %+v", got)
	}
	if !got.CreatedAt.Equal(input.CreatedAt) || !got.UpdatedAt.Equal(input.UpdatedAt) {
		t.Fatalf("timestamps = %v/%v, want %v/%v", got.CreatedAt, got.UpdatedAt, input.CreatedAt, input.UpdatedAt)
	}
}

func TestCreateUserRequiresID(t *testing.T) {
	store := openTempStore(t)

	if err := store.CreateUser(context.Background(), user.User{ID: "  ", Email: "a@example.com"}); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestCreateUserDuplicateEmailIgnoresCase(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	if err := store.CreateUser(ctx, testUser("user-1", "ana@example.com")); err != nil {
		t.Fatalf("create user: %v", err)
	}
	err := store.CreateUser(ctx, testUser("user-2", "ANA@example.com"))
	if !errors.Is(err, storage.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestConcurrentCreateSameEmail(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	const attempts = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		taken   int
	)
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.CreateUser(ctx, testUser(fmt.Sprintf("user-%d", i), "race@example.com"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, storage.ErrEmailTaken):
				taken++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 || taken != attempts-1 {
		t.Fatalf("created=%d taken=%d, want 1/%d", created, taken, attempts-1)
	}
}

func TestGetUserNotFound(t *testing.T) {
	store := openTempStore(t)

	_, err := store.GetUser(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetUserByEmailIgnoresCase(t *testing.T) {
	store := openTempStore(t)
	if err := store.CreateUser(context.Background(), testUser("user-1", "ana@example.com")); err != nil {
		t.Fatalf("create user: %v", err)
	}

	got, err := store.GetUserByEmail(context.Background(), "  Ana@Example.COM ")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.ID != "user-1" {
		t.Fatalf("id = %q, want user-1", got.ID)
	}

	if _, err := store.GetUserByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListUsersSearch(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	seed := []user.User{
		{ID: "u1", Name: "Ana Pérez", Email: "ana@example.com"},
		{ID: "u2", Name: "Bruno", Email: "bruno@corp.test"},
		{ID: "u3", Name: "Carla 100%", Email: "carla_x@example.com"},
		{ID: "u4", Name: "Ángela Núñez", Email: "angela@mail.test"},
	}
	for i, u := range seed {
		u.Role = user.RoleUser
		u.Active = true
		u.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		u.UpdatedAt = u.CreatedAt
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("create %s: %v", u.ID, err)
		}
	}

	tests := []struct {
		search string
		want   []string
	}{
		{search: "", want: []string{"u1", "u2", "u3", "u4"}},
		{search: "ANA", want: []string{"u1"}},
		{search: "example", want: []string{"u1", "u3"}},
		{search: "%", want: []string{"u3"}},
		{search: "_", want: []string{"u3"}},
		{search: "ángela", want: []string{"u4"}},
		{search: "NÚÑEZ", want: []string{"u4"}},
		{search: "PÉREZ", want: []string{"u1"}},
		{search: "zzz", want: nil},
	}
	for _, tc := range tests {
		t.Run(tc.search, func(t *testing.T) {
			got, err := store.ListUsers(ctx, tc.search)
			if err != nil {
				t.Fatalf("list users: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %d users, want %d", len(got), len(tc.want))
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Fatalf("users[%d] = %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestListUsersContextError(t *testing.T) {
	store := openTempStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.ListUsers(ctx, ""); err == nil {
		t.Fatal("expected context error")
	}
}

func TestUpdateUser(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	for _, u := range []user.User{testUser("u1", "ana@example.com"), testUser("u2", "bruno@example.com")} {
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}

	updated := testUser("u1", "ana.new@example.com")
	updated.Name = "Ana Nueva"
	updated.Active = false
	updated.UpdatedAt = updated.UpdatedAt.Add(time.Hour)
	if err := store.UpdateUser(ctx, updated); err != nil {
		t.Fatalf("update user: %v", err)
	}
	got, err := store.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Name != "Ana Nueva" || got.Email != "ana.new@example.com" || got.Active {
		t.Fatalf("unexpected user after update: %+v", got)
	}
	if !got.UpdatedAt.Equal(updated.UpdatedAt) {
		t.Fatalf("updated_at = %v, want %v", got.UpdatedAt, updated.UpdatedAt)
	}

	clash := testUser("u1", "bruno@example.com")
	if err := store.UpdateUser(ctx, clash); !errors.Is(err, storage.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	if err := store.UpdateUser(ctx, testUser("missing", "x@example.com")); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	if err := store.CreateUser(ctx, testUser("u1", "ana@example.com")); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := store.DeleteUser(ctx, "u1"); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if err := store.DeleteUser(ctx, "u1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	if err := store.CreateUser(ctx, testUser("u2", "ana@example.com")); err != nil {
		t.Fatalf("email should be reusable after delete: %v", err)
	}
}

func TestOAuthStateConsumeOnce(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	state := storage.OAuthState{
		State:        "state-1",
		CodeVerifier: "verifier",
		CreatedAt:    now,
		ExpiresAt:    now.Add(10 * time.Minute),
	}
	if err := store.PutOAuthState(ctx, state); err != nil {
		t.Fatalf("put state: %v", err)
	}

	got, err := store.ConsumeOAuthState(ctx, "state-1")
	if err != nil {
		t.Fatalf("consume state: %v", err)
	}
	if got.CodeVerifier != "verifier" || !got.ExpiresAt.Equal(state.ExpiresAt) {
		t.Fatalf("unexpected state: %+v", got)
	}

	if _, err := store.ConsumeOAuthState(ctx, "state-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found on replay, got %v", err)
	}
}

func TestDeleteExpiredOAuthStates(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	for i, expires := range []time.Time{now.Add(-time.Minute), now, now.Add(time.Minute)} {
		err := store.PutOAuthState(ctx, storage.OAuthState{
			State:     fmt.Sprintf("state-%d", i),
			CreatedAt: now.Add(-time.Hour),
			ExpiresAt: expires,
		})
		if err != nil {
			t.Fatalf("put state: %v", err)
		}
	}

	deleted, err := store.DeleteExpiredOAuthStates(ctx, now)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted = %d, want 2", deleted)
	}
	if _, err := store.ConsumeOAuthState(ctx, "state-2"); err != nil {
		t.Fatalf("live state should remain: %v", err)
	}
}

func TestIsUniqueViolationFallback(t *testing.T) {
	if !isUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: users.email")) {
		t.Fatal("expected message fallback to match")
	}
	if isUniqueViolation(errors.New("disk I/O error")) {
		t.Fatal("expected unrelated error not to match")
	}
	if isUniqueViolation(nil) {
		t.Fatal("expected nil not to match")
	}
}

func testUser(id, email string) user.User {
	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	return user.User{
		ID:        id,
		Name:      "User " + id,
		Email:     email,
		Role:      user.RoleUser,
		Active:    true,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func openTempStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.db")
	store, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}
