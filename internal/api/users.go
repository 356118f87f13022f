package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"blogify/internal/apperr"
	"blogify/internal/db"
	"blogify/internal/models"
	"blogify/internal/validation"
)

// UserDirectory is the read and administration surface over stored users.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]*models.User, int, error)
	SetActive(ctx context.Context, id string, active bool) error
}

type UserHandler struct {
	users UserDirectory
}

func NewUserHandler(users UserDirectory) *UserHandler {
	return &UserHandler{users: users}
}

type userPage struct {
	Users      []*models.User    `json:"users"`
	Pagination models.Pagination `json:"pagination"`
}

type updateStatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// GET /api/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := pageParams(q)

	users, total, err := h.users.List(r.Context(), models.UserFilter{
		Page:     page,
		Limit:    limit,
		Search:   q.Get("search"),
		Role:     strings.TrimSpace(q.Get("role")),
		IsActive: optionalBool(q.Get("isActive")),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Users retrieved successfully", userPage{
		Users:      users,
		Pagination: models.NewPagination(page, limit, total),
	})
}

// GET /api/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.FindByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, r, apperr.New(apperr.KindNotFound, "User not found"))
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "User retrieved successfully", user)
}

// PATCH /api/users/{id}/status
func (h *UserHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validation.Struct(&req); err != nil {
		writeError(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.users.SetActive(r.Context(), id, *req.IsActive); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, r, apperr.New(apperr.KindNotFound, "User not found"))
			return
		}
		writeError(w, r, err)
		return
	}

	user, err := h.users.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("user status changed", "user_id", id, "active", user.IsActive, "by", userID(r))
	writeSuccess(w, http.StatusOK, "User status updated successfully", user)
}
