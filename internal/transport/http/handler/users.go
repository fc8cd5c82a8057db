package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-auth-api/internal/application/user"
	"github.com/go-auth-api/internal/domain"
	"github.com/go-auth-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// UserHandler handles profile and admin user-management endpoints.
type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler { return &UserHandler{svc: svc} }

// Me returns the authenticated user's profile. The gate already loaded the
// account, so no second read is needed.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.FromContext(r.Context())
	if !ok {
		writeError(w, fmt.Errorf("missing credentials: %w", domain.ErrUnauthorized))
		return
	}
	writeData(w, http.StatusOK, "", ac.User)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.FromContext(r.Context())
	if !ok {
		writeError(w, fmt.Errorf("missing credentials: %w", domain.ErrUnauthorized))
		return
	}
	var req domain.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	u, err := h.svc.UpdateProfile(r.Context(), ac.Claims.UserID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "profile updated", u)
}

// PaginatedUsersData is the cursor-paginated admin listing payload.
type PaginatedUsersData struct {
	Users      []domain.User `json:"users"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	cursor := r.URL.Query().Get("cursor")
	users, next, err := h.svc.List(r.Context(), limit, cursor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", PaginatedUsersData{Users: users, NextCursor: next})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", u)
}

func (h *UserHandler) Block(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Block(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "user blocked", nil)
}

func (h *UserHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Unblock(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "user unblocked", nil)
}
