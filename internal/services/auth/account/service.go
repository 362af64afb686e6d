package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	apperrors "github.com/louisbranch/userapi/internal/platform/errors"
	"github.com/louisbranch/userapi/internal/platform/id"
	"github.com/louisbranch/userapi/internal/services/auth/storage"
	"github.com/louisbranch/userapi/internal/services/auth/user"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/userapi/internal/services/auth/account"

var (
	// ErrInvalidCredentials covers both unknown emails and wrong passwords.
	ErrInvalidCredentials = apperrors.New(apperrors.CodeInvalidCredentials, "invalid credentials")
	// ErrUnauthenticated is the single outcome of every failed bearer check.
	ErrUnauthenticated = apperrors.New(apperrors.CodeUnauthenticated, "authentication required")
	// ErrAccountDisabled rejects logins to inactive accounts.
	ErrAccountDisabled = apperrors.New(apperrors.CodeAccountDisabled, "account is disabled")
	// ErrForbidden rejects principals without the required role.
	ErrForbidden = apperrors.New(apperrors.CodeForbidden, "insufficient role")
	// ErrCurrentPasswordInvalid rejects a password change with a wrong current password.
	ErrCurrentPasswordInvalid = apperrors.New(apperrors.CodeUserPasswordInvalid, "current password is incorrect")
	// ErrUserNotFound indicates the addressed user does not exist.
	ErrUserNotFound = apperrors.New(apperrors.CodeNotFound, "user not found")
)

// PasswordHasher hashes and verifies plaintext passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// TokenIssuer issues and verifies bearer tokens.
type TokenIssuer interface {
	Issue(userID string) (string, error)
	Verify(raw string) (string, error)
}

// Session is an authenticated user together with a freshly issued token.
type Session struct {
	User  user.User
	Token string
}

// RegisterInput is the payload of a self registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Service owns the credential flows.
type Service struct {
	store  storage.UserStore
	hasher PasswordHasher
	tokens TokenIssuer
	clock  func() time.Time
	idGen  func() (string, error)
	tracer trace.Tracer

	decoyOnce sync.Once
	decoyHash string
}

// NewService builds a Service over the given collaborators.
func NewService(store storage.UserStore, hasher PasswordHasher, tokens TokenIssuer) *Service {
	return &Service{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		clock:  time.Now,
		idGen:  id.NewID,
		tracer: otel.Tracer(tracerName),
	}
}

// WithClock overrides the time source.
func (s *Service) WithClock(clock func() time.Time) *Service {
	if clock != nil {
		s.clock = clock
	}
	return s
}

func (s *Service) now() time.Time {
	return s.clock().UTC()
}

func (s *Service) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "account."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperrors.CodeOf(err)))
	}
	span.End()
}

// Register creates a local account and signs it in.
func (s *Service) Register(ctx context.Context, input RegisterInput) (session Session, err error) {
	ctx, span := s.start(ctx, "Register")
	defer func() { endSpan(span, err) }()

	created, err := user.CreateUser(user.CreateUserInput{Name: input.Name, Email: input.Email}, s.clock, s.idGen)
	if err != nil {
		return Session{}, err
	}
	if err := created.SetPassword(input.Password, s.hasher, created.CreatedAt); err != nil {
		return Session{}, err
	}
	if err := s.store.CreateUser(ctx, created); err != nil {
		return Session{}, err
	}
	span.SetAttributes(attribute.String("user.id", created.ID))
	return s.issue(created)
}

// Login verifies an email and password pair.
func (s *Service) Login(ctx context.Context, email, password string) (session Session, err error) {
	ctx, span := s.start(ctx, "Login")
	defer func() { endSpan(span, err) }()

	if user.NormalizeEmail(email) == "" {
		return Session{}, ErrInvalidCredentials
	}
	found, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && found.FederatedOnly()) {
		// Spend the same hashing time as a real check.
		s.hasher.Verify(password, s.decoy())
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	if !s.hasher.Verify(password, found.PasswordHash) {
		return Session{}, ErrInvalidCredentials
	}
	if !found.Active {
		return Session{}, ErrAccountDisabled
	}
	span.SetAttributes(attribute.String("user.id", found.ID))
	return s.issue(found)
}

// SignIn issues a token for an already verified user, such as one returned
// by a federated identity provider.
func (s *Service) SignIn(ctx context.Context, u user.User) (Session, error) {
	if !u.Active {
		return Session{}, ErrAccountDisabled
	}
	return s.issue(u)
}

func (s *Service) issue(u user.User) (Session, error) {
	raw, err := s.tokens.Issue(u.ID)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	u.PasswordHash = ""
	return Session{User: u, Token: raw}, nil
}

// decoy returns a valid hash used to equalize login timing for unknown emails.
func (s *Service) decoy() string {
	s.decoyOnce.Do(func() {
		hash, err := s.hasher.Hash("decoy-password")
		if err == nil {
			s.decoyHash = hash
		}
	})
	return s.decoyHash
}

// Authenticate resolves a bearer token to an active user.
// Every failure is reported as ErrUnauthenticated except store outages.
func (s *Service) Authenticate(ctx context.Context, rawToken string) (u user.User, err error) {
	ctx, span := s.start(ctx, "Authenticate")
	defer func() { endSpan(span, err) }()

	userID, err := s.tokens.Verify(rawToken)
	if err != nil {
		return user.User{}, ErrUnauthenticated
	}
	found, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return user.User{}, ErrUnauthenticated
	}
	if err != nil {
		return user.User{}, fmt.Errorf("load user: %w", err)
	}
	if !found.Active {
		return user.User{}, ErrUnauthenticated
	}
	found.PasswordHash = ""
	return found, nil
}

// Authorize checks that u holds role.
func Authorize(u user.User, role user.Role) error {
	if u.Role != role {
		return ErrForbidden
	}
	return nil
}

// ChangePassword replaces the password of userID after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) (err error) {
	ctx, span := s.start(ctx, "ChangePassword", attribute.String("user.id", userID))
	defer func() { endSpan(span, err) }()

	found, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if found.FederatedOnly() {
		return user.ErrFederatedOnly
	}
	if !s.hasher.Verify(current, found.PasswordHash) {
		return ErrCurrentPasswordInvalid
	}
	if err := found.SetPassword(next, s.hasher, s.now()); err != nil {
		return err
	}
	if err := s.store.UpdateUser(ctx, found); err != nil {
		return mapNotFound(err)
	}
	return nil
}

// ListUsers returns users whose name or email contains search.
func (s *Service) ListUsers(ctx context.Context, search string) (users []user.User, err error) {
	ctx, span := s.start(ctx, "ListUsers")
	defer func() { endSpan(span, err) }()

	users, err = s.store.ListUsers(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	span.SetAttributes(attribute.Int("users.count", len(users)))
	return users, nil
}

// GetUser returns a single user without its password hash.
func (s *Service) GetUser(ctx context.Context, userID string) (u user.User, err error) {
	ctx, span := s.start(ctx, "GetUser", attribute.String("user.id", userID))
	defer func() { endSpan(span, err) }()

	u, err = s.getUser(ctx, userID)
	if err != nil {
		return user.User{}, err
	}
	u.PasswordHash = ""
	return u, nil
}

// UpdateUser applies an administrator update.
func (s *Service) UpdateUser(ctx context.Context, userID string, input user.UpdateInput) (u user.User, err error) {
	ctx, span := s.start(ctx, "UpdateUser", attribute.String("user.id", userID))
	defer func() { endSpan(span, err) }()

	found, err := s.getUser(ctx, userID)
	if err != nil {
		return user.User{}, err
	}
	updated, _, err := user.ApplyUpdate(found, input, s.now())
	if err != nil {
		return user.User{}, err
	}
	if err := s.store.UpdateUser(ctx, updated); err != nil {
		return user.User{}, mapNotFound(err)
	}
	updated.PasswordHash = ""
	return updated, nil
}

// DeleteUser removes a user.
func (s *Service) DeleteUser(ctx context.Context, userID string) (err error) {
	ctx, span := s.start(ctx, "DeleteUser", attribute.String("user.id", userID))
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(userID) == "" {
		return ErrUserNotFound
	}
	return mapNotFound(s.store.DeleteUser(ctx, userID))
}

func (s *Service) getUser(ctx context.Context, userID string) (user.User, error) {
	if strings.TrimSpace(userID) == "" {
		return user.User{}, ErrUserNotFound
	}
	found, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return user.User{}, mapNotFound(err)
	}
	return found, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}
