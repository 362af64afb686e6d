package account

import (
	"context"

	"github.com/louisbranch/userapi/internal/services/auth/user"
)

// principalContextKey is the context key for the authenticated user.
type principalContextKey struct{}

// WithPrincipal stores the authenticated user in context.
func WithPrincipal(ctx context.Context, u user.User) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	u.PasswordHash = ""
	return context.WithValue(ctx, principalContextKey{}, u)
}

// PrincipalFromContext returns the authenticated user stored in context.
func PrincipalFromContext(ctx context.Context) (user.User, bool) {
	if ctx == nil {
		return user.User{}, false
	}
	u, ok := ctx.Value(principalContextKey{}).(user.User)
	return u, ok
}
