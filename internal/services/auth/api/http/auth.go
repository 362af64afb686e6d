package httpapi

import (
	"net/http"

	apperrors "github.com/louisbranch/userapi/internal/platform/errors"
	"github.com/louisbranch/userapi/internal/platform/errors/i18n"
	"github.com/louisbranch/userapi/internal/services/auth/account"
)

type registerRequest struct {
	Name     string `json:"name"`
	Nombre   string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	session, err := h.accounts.Register(r.Context(), account.RegisterInput{
		Name:     firstNonEmpty(req.Name, req.Nombre),
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusCreated, i18n.MsgUserRegistered, sessionData{
		User:  toUserResponse(session.User),
		Token: session.Token,
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	session, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusOK, i18n.MsgLoginSucceeded, sessionData{
		User:  toUserResponse(session.User),
		Token: session.Token,
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := account.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, account.ErrUnauthenticated)
		return
	}
	writeSuccess(w, r, http.StatusOK, "", userData{User: toUserResponse(principal)})
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	principal, ok := account.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, account.ErrUnauthenticated)
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.accounts.ChangePassword(r.Context(), principal.ID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusOK, i18n.MsgPasswordChanged, nil)
}

func (h *Handler) handleGoogleStart(w http.ResponseWriter, r *http.Request) {
	if h.federation == nil || !h.federation.Enabled() {
		writeError(w, r, apperrors.New(apperrors.CodeOAuthDisabled, "google sign-in is not configured"))
		return
	}
	redirectURL, err := h.federation.Start(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

func (h *Handler) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.federation == nil || !h.federation.Enabled() {
		writeError(w, r, apperrors.New(apperrors.CodeOAuthDisabled, "google sign-in is not configured"))
		return
	}
	query := r.URL.Query()
	if providerErr := query.Get("error"); providerErr != "" {
		writeError(w, r, apperrors.New(apperrors.CodeOAuthFailed, "provider returned "+providerErr))
		return
	}
	session, err := h.federation.Complete(r.Context(), query.Get("code"), query.Get("state"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusOK, i18n.MsgGoogleLogin, sessionData{
		User:  toUserResponse(session.User),
		Token: session.Token,
	})
}
