package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/louisbranch/userapi/internal/platform/errors/i18n"
	"github.com/louisbranch/userapi/internal/services/auth/user"
)

// updateUserRequest accepts the English field names and the legacy Spanish
// ones. Absent fields leave the stored value unchanged.
type updateUserRequest struct {
	Name   *string `json:"name"`
	Nombre *string `json:"nombre"`
	Email  *string `json:"email"`
	Role   *string `json:"role"`
	Rol    *string `json:"rol"`
	Active *bool   `json:"active"`
	Activo *bool   `json:"activo"`
}

func (req updateUserRequest) input() user.UpdateInput {
	return user.UpdateInput{
		Name:   firstSet(req.Name, req.Nombre),
		Email:  req.Email,
		Role:   firstSet(req.Role, req.Rol),
		Active: firstSet(req.Active, req.Activo),
	}
}

func firstSet[T any](values ...*T) *T {
	for _, value := range values {
		if value != nil {
			return value
		}
	}
	return nil
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.ListUsers(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusOK, "", usersData{Users: toUserResponses(users)})
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	found, err := h.accounts.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusOK, "", userData{User: toUserResponse(found)})
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := h.accounts.UpdateUser(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusOK, i18n.MsgUserUpdated, userData{User: toUserResponse(updated)})
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusOK, i18n.MsgUserDeleted, nil)
}
