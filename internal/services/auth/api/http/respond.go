package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/louisbranch/userapi/internal/platform/errors"
	"github.com/louisbranch/userapi/internal/platform/errors/i18n"
	"github.com/louisbranch/userapi/internal/services/auth/user"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

var errInvalidBody = apperrors.New(apperrors.CodeInvalidRequest, "invalid request body")

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// userResponse is the public shape of a user. It never includes the hash.
type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	Provider  string    `json:"provider,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toUserResponse(u user.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		Active:    u.Active,
		Provider:  u.Provider,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toUserResponses(users []user.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

type sessionData struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

type userData struct {
	User userResponse `json:"user"`
}

type usersData struct {
	Users []userResponse `json:"users"`
}

func catalogFor(r *http.Request) *i18n.Catalog {
	return i18n.GetCatalog(i18n.Negotiate(r.Header.Get("Accept-Language")))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeSuccess writes a success envelope. messageKey may be empty.
func writeSuccess(w http.ResponseWriter, r *http.Request, status int, messageKey string, data any) {
	body := envelope{Success: true, Data: data}
	if messageKey != "" {
		catalog := catalogFor(r)
		w.Header().Set("Content-Language", catalog.Locale())
		body.Message = catalog.Format(messageKey, nil)
	}
	writeJSON(w, status, body)
}

// writeError translates err into the error envelope. Errors without a domain
// code are logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.CodeOf(err)
	var metadata map[string]string
	if domainErr, ok := apperrors.As(err); ok {
		metadata = domainErr.Metadata
	}
	status := code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	catalog := catalogFor(r)
	w.Header().Set("Content-Language", catalog.Locale())
	writeJSON(w, status, envelope{
		Success: false,
		Message: catalog.Format(string(code), metadata),
		Error:   string(code),
	})
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(body)
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.Wrap(apperrors.CodeInvalidRequest, "empty request body", err)
		}
		return apperrors.Wrap(apperrors.CodeInvalidRequest, "decode request body", err)
	}
	if decoder.More() {
		return errInvalidBody
	}
	return nil
}

// firstNonEmpty returns the first value that is not blank.
func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
