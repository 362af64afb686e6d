package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/louisbranch/userapi/internal/services/auth/storage"
	"github.com/louisbranch/userapi/internal/services/auth/storage/postgres/migrations"
	"github.com/louisbranch/userapi/internal/services/auth/user"
)

// uniqueViolation is the SQLSTATE Postgres reports for unique index conflicts.
const uniqueViolation = "23505"

// IsURL reports whether dsn names a Postgres database.
func IsURL(dsn string) bool {
	dsn = strings.ToLower(strings.TrimSpace(dsn))
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Store implements account persistence over a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

// Open connects to url and applies bundled migrations.
func Open(ctx context.Context, url string) (*Store, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("database url is required")
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := applyMigrations(ctx, pool, migrations.FS); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.ensurePool(); err != nil {
		return err
	}
	return s.pool.Ping(ctx)
}

func (s *Store) ensurePool() error {
	if s == nil || s.pool == nil {
		return errors.New("storage is not configured")
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

const userColumns = `id, name, email, password_hash, role, active, provider, created_at, updated_at`

func scanUser(row pgx.Row) (user.User, error) {
	var (
		u    user.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.Active, &u.Provider, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return user.User{}, err
	}
	u.Role = user.Role(role)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}

func scanOne(row pgx.Row) (user.User, error) {
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return user.User{}, storage.ErrNotFound
	}
	if err != nil {
		return user.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

// CreateUser inserts a new account.
func (s *Store) CreateUser(ctx context.Context, u user.User) error {
	if err := s.ensurePool(); err != nil {
		return err
	}
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(u.Email) == "" {
		return fmt.Errorf("email is required")
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role), u.Active, u.Provider,
		u.CreatedAt.UTC(), u.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser fetches an account by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (user.User, error) {
	if err := s.ensurePool(); err != nil {
		return user.User{}, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return user.User{}, fmt.Errorf("user id is required")
	}
	return scanOne(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
}

// GetUserByEmail fetches an account by email, ignoring case.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	if err := s.ensurePool(); err != nil {
		return user.User{}, err
	}
	email = user.NormalizeEmail(email)
	if email == "" {
		return user.User{}, fmt.Errorf("email is required")
	}
	return scanOne(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = $1`, email))
}

// ListUsers returns accounts matching search on name or email.
func (s *Store) ListUsers(ctx context.Context, search string) ([]user.User, error) {
	if err := s.ensurePool(); err != nil {
		return nil, err
	}
	search = strings.TrimSpace(search)
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users
		WHERE $1 = '' OR name ILIKE $2 OR email ILIKE $2
		ORDER BY created_at, id`,
		search, "%"+storage.EscapeLike(search)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (user.User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}
	if users == nil {
		users = make([]user.User, 0)
	}
	return users, nil
}

// UpdateUser replaces the mutable fields of an account.
func (s *Store) UpdateUser(ctx context.Context, u user.User) error {
	if err := s.ensurePool(); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET name = $1, email = $2, password_hash = $3, role = $4, active = $5, provider = $6, updated_at = $7
		WHERE id = $8`,
		u.Name, u.Email, u.PasswordHash, string(u.Role), u.Active, u.Provider, u.UpdatedAt.UTC(), u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrEmailTaken
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteUser removes an account.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	if err := s.ensurePool(); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, strings.TrimSpace(userID))
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// PutOAuthState stores a pending provider login.
func (s *Store) PutOAuthState(ctx context.Context, state storage.OAuthState) error {
	if err := s.ensurePool(); err != nil {
		return err
	}
	if strings.TrimSpace(state.State) == "" {
		return fmt.Errorf("state is required")
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO oauth_states (state, code_verifier, created_at, expires_at) VALUES ($1, $2, $3, $4)`,
		state.State, state.CodeVerifier, state.CreatedAt.UTC(), state.ExpiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert oauth state: %w", err)
	}
	return nil
}

// ConsumeOAuthState deletes and returns a pending provider login.
func (s *Store) ConsumeOAuthState(ctx context.Context, state string) (storage.OAuthState, error) {
	if err := s.ensurePool(); err != nil {
		return storage.OAuthState{}, err
	}
	out := storage.OAuthState{State: state}
	err := s.pool.QueryRow(ctx,
		`DELETE FROM oauth_states WHERE state = $1 RETURNING code_verifier, created_at, expires_at`,
		state,
	).Scan(&out.CodeVerifier, &out.CreatedAt, &out.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.OAuthState{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.OAuthState{}, fmt.Errorf("consume oauth state: %w", err)
	}
	out.CreatedAt = out.CreatedAt.UTC()
	out.ExpiresAt = out.ExpiresAt.UTC()
	return out, nil
}

// DeleteExpiredOAuthStates removes states that expired at or before now.
func (s *Store) DeleteExpiredOAuthStates(ctx context.Context, now time.Time) (int64, error) {
	if err := s.ensurePool(); err != nil {
		return 0, err
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM oauth_states WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired oauth states: %w", err)
	}
	return tag.RowsAffected(), nil
}
