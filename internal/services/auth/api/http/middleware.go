package httpapi

import (
	"net/http"
	"strings"

	"github.com/louisbranch/userapi/internal/services/auth/account"
	"github.com/louisbranch/userapi/internal/services/auth/user"
)

// bearerToken extracts the token from an Authorization header.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// requireAuth rejects requests without a valid bearer token and attaches the
// authenticated user to the request context.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeError(w, r, account.ErrUnauthenticated)
			return
		}
		principal, err := h.accounts.Authenticate(r.Context(), raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(account.WithPrincipal(r.Context(), principal)))
	})
}

// requireRole rejects authenticated requests whose principal lacks role.
// It must be mounted after requireAuth.
func requireRole(role user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := account.PrincipalFromContext(r.Context())
			if !ok {
				writeError(w, r, account.ErrUnauthenticated)
				return
			}
			if err := account.Authorize(principal, role); err != nil {
				writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
