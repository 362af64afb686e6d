package oauth

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/louisbranch/userapi/internal/platform/errors"
	"github.com/louisbranch/userapi/internal/platform/id"
	"github.com/louisbranch/userapi/internal/services/auth/account"
	"github.com/louisbranch/userapi/internal/services/auth/storage"
	"github.com/louisbranch/userapi/internal/services/auth/user"
	"golang.org/x/oauth2"
)

var (
	// ErrDisabled is returned when Google sign-in is not configured.
	ErrDisabled = apperrors.New(apperrors.CodeOAuthDisabled, "google sign-in is not configured")
	// ErrInvalidState is returned for unknown, replayed or expired states.
	ErrInvalidState = apperrors.New(apperrors.CodeOAuthInvalidState, "invalid or expired oauth state")
	// ErrMissingEmail is returned when the provider profile carries no usable email.
	ErrMissingEmail = apperrors.New(apperrors.CodeOAuthMissingEmail, "provider profile has no email")
)

// Signer issues a session for an already identified user.
type Signer interface {
	SignIn(ctx context.Context, u user.User) (account.Session, error)
}

// Bridge runs the Google login flow.
type Bridge struct {
	config     Config
	oauth      *oauth2.Config
	states     storage.OAuthStateStore
	users      storage.UserStore
	signer     Signer
	httpClient *http.Client
	clock      func() time.Time
	idGen      func() (string, error)
}

// NewBridge builds a Bridge. A disabled config yields a bridge whose
// operations return ErrDisabled.
func NewBridge(cfg Config, states storage.OAuthStateStore, users storage.UserStore, signer Signer) *Bridge {
	return &Bridge{
		config:     cfg,
		oauth:      cfg.oauth2Config(),
		states:     states,
		users:      users,
		signer:     signer,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		clock:      time.Now,
		idGen:      id.NewID,
	}
}

// WithHTTPClient overrides the client used to reach the provider.
func (b *Bridge) WithHTTPClient(client *http.Client) *Bridge {
	if client != nil {
		b.httpClient = client
	}
	return b
}

// WithClock overrides the time source.
func (b *Bridge) WithClock(clock func() time.Time) *Bridge {
	if clock != nil {
		b.clock = clock
	}
	return b
}

// Enabled reports whether the bridge can run logins.
func (b *Bridge) Enabled() bool {
	return b != nil && b.config.Enabled()
}

// Start records a new login attempt and returns the provider URL to redirect to.
func (b *Bridge) Start(ctx context.Context) (string, error) {
	if !b.Enabled() {
		return "", ErrDisabled
	}
	now := b.clock().UTC()
	state := storage.OAuthState{
		State:        rand.Text(),
		CodeVerifier: oauth2.GenerateVerifier(),
		CreatedAt:    now,
		ExpiresAt:    now.Add(b.config.stateTTL()),
	}
	if err := b.states.PutOAuthState(ctx, state); err != nil {
		return "", fmt.Errorf("store oauth state: %w", err)
	}
	return b.oauth.AuthCodeURL(state.State,
		oauth2.S256ChallengeOption(state.CodeVerifier),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	), nil
}

// Complete finishes a login from the provider callback parameters.
func (b *Bridge) Complete(ctx context.Context, code, state string) (account.Session, error) {
	if !b.Enabled() {
		return account.Session{}, ErrDisabled
	}
	code = strings.TrimSpace(code)
	state = strings.TrimSpace(state)
	if code == "" || state == "" {
		return account.Session{}, ErrInvalidState
	}

	pending, err := b.states.ConsumeOAuthState(ctx, state)
	if errors.Is(err, storage.ErrNotFound) {
		return account.Session{}, ErrInvalidState
	}
	if err != nil {
		return account.Session{}, fmt.Errorf("consume oauth state: %w", err)
	}
	if !b.clock().UTC().Before(pending.ExpiresAt) {
		return account.Session{}, ErrInvalidState
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, b.httpClient)
	tok, err := b.oauth.Exchange(ctx, code, oauth2.VerifierOption(pending.CodeVerifier))
	if err != nil {
		return account.Session{}, apperrors.Wrap(apperrors.CodeOAuthFailed, "exchange authorization code", err)
	}

	prof, err := b.fetchProfile(ctx, tok)
	if err != nil {
		return account.Session{}, apperrors.Wrap(apperrors.CodeOAuthFailed, "fetch provider profile", err)
	}

	u, err := b.resolveUser(ctx, prof)
	if err != nil {
		return account.Session{}, err
	}
	return b.signer.SignIn(ctx, u)
}

// profile is the subset of the OpenID userinfo document the bridge uses.
type profile struct {
	Subject       string `json:"sub"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified"`
}

func (b *Bridge) fetchProfile(ctx context.Context, tok *oauth2.Token) (profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.config.userInfoURL(), nil)
	if err != nil {
		return profile{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return profile{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return profile{}, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var payload profile
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return profile{}, fmt.Errorf("decode userinfo: %w", err)
	}
	return payload, nil
}

// resolveUser maps a provider profile onto a local account, provisioning a
// federated-only account on first sight of an email.
func (b *Bridge) resolveUser(ctx context.Context, prof profile) (user.User, error) {
	email := user.NormalizeEmail(prof.Email)
	if email == "" || (prof.EmailVerified != nil && !*prof.EmailVerified) {
		return user.User{}, ErrMissingEmail
	}

	found, err := b.users.GetUserByEmail(ctx, email)
	if err == nil {
		return found, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return user.User{}, fmt.Errorf("load user: %w", err)
	}

	created, err := user.CreateUser(user.CreateUserInput{
		Name:     firstNonEmpty(prof.Name, email),
		Email:    email,
		Provider: user.ProviderGoogle,
	}, b.clock, b.idGen)
	if err != nil {
		return user.User{}, err
	}
	err = b.users.CreateUser(ctx, created)
	if errors.Is(err, storage.ErrEmailTaken) {
		// Another request provisioned the same email first.
		found, err := b.users.GetUserByEmail(ctx, email)
		if err != nil {
			return user.User{}, apperrors.Wrap(apperrors.CodeOAuthFailed, "load concurrently provisioned user", err)
		}
		return found, nil
	}
	if err != nil {
		return user.User{}, fmt.Errorf("create user: %w", err)
	}
	log.Printf("provisioned google account %s", created.ID)
	return created, nil
}

// SweepExpired removes login states whose callback never arrived.
func (b *Bridge) SweepExpired(ctx context.Context) (int64, error) {
	return b.states.DeleteExpiredOAuthStates(ctx, b.clock().UTC())
}

// RunCleanup sweeps expired states every interval until ctx ends.
func (b *Bridge) RunCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = b.config.stateTTL()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := b.SweepExpired(ctx); err != nil && ctx.Err() == nil {
				log.Printf("sweep oauth states: %v", err)
			}
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return ""
}
