package storage

import (
	"context"
	"strings"
	"time"

	"github.com/louisbranch/userapi/internal/platform/errors"
	"github.com/louisbranch/userapi/internal/services/auth/user"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New(errors.CodeNotFound, "record not found")
	// ErrEmailTaken indicates the unique email index rejected a write.
	ErrEmailTaken = errors.New(errors.CodeUserEmailTaken, "email already registered")
)

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser inserts a new account. It returns ErrEmailTaken when the
	// email is already used by another account.
	CreateUser(ctx context.Context, u user.User) error
	GetUser(ctx context.Context, userID string) (user.User, error)
	// GetUserByEmail looks an account up by its normalized email.
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	// ListUsers returns accounts whose name or email contains search,
	// case-insensitively, ordered by creation time. Empty search lists all.
	ListUsers(ctx context.Context, search string) ([]user.User, error)
	// UpdateUser replaces the mutable fields of an existing account.
	UpdateUser(ctx context.Context, u user.User) error
	DeleteUser(ctx context.Context, userID string) error
}

// OAuthState is a pending provider login awaiting its callback.
type OAuthState struct {
	State        string
	CodeVerifier string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// OAuthStateStore persists one-time provider login state.
type OAuthStateStore interface {
	PutOAuthState(ctx context.Context, state OAuthState) error
	// ConsumeOAuthState returns and deletes a state in one step so it cannot
	// be replayed. Missing states return ErrNotFound.
	ConsumeOAuthState(ctx context.Context, state string) (OAuthState, error)
	DeleteExpiredOAuthStates(ctx context.Context, now time.Time) (int64, error)
}

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store is the full persistence surface a backend provides.
type Store interface {
	UserStore
	OAuthStateStore
	Pinger
	Close() error
}

// EscapeLike escapes LIKE wildcards so search input matches literally.
// The escape character is a backslash.
func EscapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
