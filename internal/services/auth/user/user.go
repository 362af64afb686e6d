package user

import (
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/louisbranch/userapi/internal/platform/errors"
	"github.com/louisbranch/userapi/internal/platform/id"
)

const (
	// MinPasswordLength is the minimum plaintext length in characters.
	MinPasswordLength = 6
	// MaxPasswordBytes is the longest plaintext bcrypt accepts.
	MaxPasswordBytes = 72

	// ProviderGoogle marks accounts provisioned through Google sign-in.
	ProviderGoogle = "google"
)

var (
	// ErrEmptyName indicates a missing display name.
	ErrEmptyName = apperrors.New(apperrors.CodeUserEmptyName, "name is required")
	// ErrEmptyEmail indicates a missing email.
	ErrEmptyEmail = apperrors.New(apperrors.CodeUserEmptyEmail, "email is required")
	// ErrInvalidEmail indicates an email that is not shaped like an address.
	ErrInvalidEmail = apperrors.New(apperrors.CodeUserInvalidEmail, "email is not valid")
	// ErrInvalidRole indicates a role outside the enum.
	ErrInvalidRole = apperrors.WithMetadata(apperrors.CodeUserInvalidRole, "role must be user or admin", map[string]string{
		"Allowed": "user | admin",
	})
	// ErrPasswordTooShort indicates a plaintext below MinPasswordLength.
	ErrPasswordTooShort = apperrors.WithMetadata(apperrors.CodeUserPasswordShort, "password is too short", map[string]string{
		"Min": strconv.Itoa(MinPasswordLength),
	})
	// ErrPasswordTooLong indicates a plaintext above MaxPasswordBytes.
	ErrPasswordTooLong = apperrors.WithMetadata(apperrors.CodeUserPasswordLong, "password is too long", map[string]string{
		"Max": strconv.Itoa(MaxPasswordBytes),
	})
	// ErrFederatedOnly indicates a password operation on a provider-only account.
	ErrFederatedOnly = apperrors.New(apperrors.CodeUserFederatedOnly, "account has no local password")
)

// Role is the authorization level of an account.
type Role string

const (
	// RoleUser is the default role.
	RoleUser Role = "user"
	// RoleAdmin grants access to user administration.
	RoleAdmin Role = "admin"
)

// ParseRole validates a role string. "usuario" is accepted as a legacy
// spelling of RoleUser.
func ParseRole(value string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleUser, "usuario":
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", ErrInvalidRole
	}
}

// Hasher turns a plaintext password into a one-way digest.
type Hasher interface {
	Hash(plain string) (string, error)
}

// User is a persisted account.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	// Provider is empty for local accounts and names the identity provider for
	// federated-only accounts.
	Provider  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAdmin reports whether the account holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// FederatedOnly reports whether the account can only sign in through a provider.
func (u User) FederatedOnly() bool {
	return u.PasswordHash == ""
}

// SetPassword validates plain and replaces the stored hash.
func (u *User) SetPassword(plain string, hasher Hasher, now time.Time) error {
	if err := ValidatePassword(plain); err != nil {
		return err
	}
	hash, err := hasher.Hash(plain)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash
	u.UpdatedAt = now.UTC()
	return nil
}

// ValidatePassword enforces plaintext length limits before hashing.
func ValidatePassword(plain string) error {
	if utf8.RuneCountInString(plain) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(plain) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// NormalizeEmail trims and lowercases an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUserInput describes the metadata needed to create a user.
type CreateUserInput struct {
	Name     string
	Email    string
	Role     Role
	Provider string
}

// CreateUser creates a new active user with a generated ID and timestamps.
// The password hash is left empty; callers set it with SetPassword.
func CreateUser(input CreateUserInput, now func() time.Time, idGenerator func() (string, error)) (User, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateUserInput(input)
	if err != nil {
		return User{}, err
	}

	userID, err := idGenerator()
	if err != nil {
		return User{}, fmt.Errorf("generate user id: %w", err)
	}

	createdAt := now().UTC()
	return User{
		ID:        userID,
		Name:      normalized.Name,
		Email:     normalized.Email,
		Role:      normalized.Role,
		Active:    true,
		Provider:  normalized.Provider,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}, nil
}

// NormalizeCreateUserInput trims and validates user input metadata.
func NormalizeCreateUserInput(input CreateUserInput) (CreateUserInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return CreateUserInput{}, ErrEmptyName
	}
	email, err := validateEmail(input.Email)
	if err != nil {
		return CreateUserInput{}, err
	}
	input.Email = email
	if input.Role == "" {
		input.Role = RoleUser
	}
	role, err := ParseRole(string(input.Role))
	if err != nil {
		return CreateUserInput{}, err
	}
	input.Role = role
	input.Provider = strings.ToLower(strings.TrimSpace(input.Provider))
	return input, nil
}

// UpdateInput carries the optional fields an administrator may change.
// Nil fields and blank strings leave the stored value untouched.
type UpdateInput struct {
	Name   *string
	Email  *string
	Role   *string
	Active *bool
}

// ApplyUpdate returns u with the update applied. It reports whether the email changed.
func ApplyUpdate(u User, input UpdateInput, now time.Time) (User, bool, error) {
	emailChanged := false
	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" {
			u.Name = name
		}
	}
	if input.Email != nil && strings.TrimSpace(*input.Email) != "" {
		email, err := validateEmail(*input.Email)
		if err != nil {
			return User{}, false, err
		}
		if email != u.Email {
			u.Email = email
			emailChanged = true
		}
	}
	if input.Role != nil && strings.TrimSpace(*input.Role) != "" {
		role, err := ParseRole(*input.Role)
		if err != nil {
			return User{}, false, err
		}
		u.Role = role
	}
	if input.Active != nil {
		u.Active = *input.Active
	}
	u.UpdatedAt = now.UTC()
	return u, emailChanged, nil
}

func validateEmail(raw string) (string, error) {
	email := NormalizeEmail(raw)
	if email == "" {
		return "", ErrEmptyEmail
	}
	parsed, err := mail.ParseAddress(email)
	if err != nil || parsed.Address != email {
		return "", ErrInvalidEmail
	}
	_, domain, _ := strings.Cut(parsed.Address, "@")
	if !strings.Contains(strings.Trim(domain, "."), ".") {
		return "", ErrInvalidEmail
	}
	return parsed.Address, nil
}
