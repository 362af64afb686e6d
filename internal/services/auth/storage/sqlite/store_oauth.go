package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/userapi/internal/services/auth/storage"
)

// PutOAuthState stores a pending provider login.
func (s *Store) PutOAuthState(ctx context.Context, state storage.OAuthState) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	if strings.TrimSpace(state.State) == "" {
		return fmt.Errorf("state is required")
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO oauth_states (state, code_verifier, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		state.State, state.CodeVerifier, toMillis(state.CreatedAt), toMillis(state.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("insert oauth state: %w", err)
	}
	return nil
}

// ConsumeOAuthState deletes and returns a pending provider login.
func (s *Store) ConsumeOAuthState(ctx context.Context, state string) (storage.OAuthState, error) {
	if err := s.ensureDB(); err != nil {
		return storage.OAuthState{}, err
	}
	var (
		out       = storage.OAuthState{State: state}
		createdAt int64
		expiresAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`DELETE FROM oauth_states WHERE state = ? RETURNING code_verifier, created_at, expires_at`,
		state,
	).Scan(&out.CodeVerifier, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.OAuthState{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.OAuthState{}, fmt.Errorf("consume oauth state: %w", err)
	}
	out.CreatedAt = fromMillis(createdAt)
	out.ExpiresAt = fromMillis(expiresAt)
	return out, nil
}

// DeleteExpiredOAuthStates removes states that expired at or before now.
func (s *Store) DeleteExpiredOAuthStates(ctx context.Context, now time.Time) (int64, error) {
	if err := s.ensureDB(); err != nil {
		return 0, err
	}
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM oauth_states WHERE expires_at <= ?`, toMillis(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired oauth states: %w", err)
	}
	return result.RowsAffected()
}
