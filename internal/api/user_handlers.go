package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/example/stocktrack/internal/api/middleware"
	"github.com/example/stocktrack/internal/auth"
	"github.com/example/stocktrack/internal/model"
	"github.com/example/stocktrack/internal/store"
)

// UserAdmin is the user store surface for admin management.
type UserAdmin interface {
	List(ctx context.Context) ([]model.User, error)
	ByID(ctx context.Context, id int64) (*model.User, error)
	Update(ctx context.Context, id int64, u store.UserUpdate) error
	Delete(ctx context.Context, id int64) error
}

// UserHandlers exposes admin-only user management.
type UserHandlers struct {
	users UserAdmin
}

func NewUserHandlers(users UserAdmin) *UserHandlers {
	return &UserHandlers{users: users}
}

// ListUsers handles GET /users
func (h *UserHandlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		log.Printf("[API] Error listing users: %v", err)
		respondJSONError(w, "Failed to fetch users", http.StatusInternalServerError)
		return
	}

	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = UserResponse{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
	}
	respondJSON(w, http.StatusOK, out)
}

// GetUser handles GET /users/{id}
func (h *UserHandlers) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r.URL.Path, "/users/")
	if err != nil {
		respondJSONError(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	u, err := h.users.ByID(r.Context(), id)
	if errors.Is(err, store.ErrUserNotFound) {
		respondJSONError(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("[API] Error getting user %d: %v", id, err)
		respondJSONError(w, "Failed to fetch user", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, UserResponse{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role})
}

// UpdateUser handles PUT /users/{id}
func (h *UserHandlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r.URL.Path, "/users/")
	if err != nil {
		respondJSONError(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	var req struct {
		Username *string `json:"username"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
		Role     *string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Username == nil && req.Email == nil && req.Password == nil && req.Role == nil {
		respondJSONError(w, "Nothing to update", http.StatusBadRequest)
		return
	}
	if req.Username != nil && strings.TrimSpace(*req.Username) == "" {
		respondJSONError(w, "Username must not be empty", http.StatusBadRequest)
		return
	}
	if req.Role != nil && *req.Role != "user" && *req.Role != "admin" {
		respondJSONError(w, "Role must be user or admin", http.StatusBadRequest)
		return
	}

	u := store.UserUpdate{Username: req.Username, Email: req.Email, Role: req.Role}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrPasswordTooShort) {
				respondJSONError(w, "Password must be at least 8 characters", http.StatusBadRequest)
				return
			}
			log.Printf("[API] Error hashing password: %v", err)
			respondJSONError(w, "Failed to update user", http.StatusInternalServerError)
			return
		}
		u.PasswordHash = &hash
	}

	if err := h.users.Update(r.Context(), id, u); err != nil {
		switch {
		case errors.Is(err, store.ErrUserNotFound):
			respondJSONError(w, "User not found", http.StatusNotFound)
		case errors.Is(err, store.ErrDuplicate):
			respondJSONError(w, "Username or email already in use", http.StatusConflict)
		default:
			log.Printf("[API] Error updating user %d: %v", id, err)
			respondJSONError(w, "Failed to update user", http.StatusInternalServerError)
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "User updated"})
}

// DeleteUser handles DELETE /users/{id}
func (h *UserHandlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r.URL.Path, "/users/")
	if err != nil {
		respondJSONError(w, "Invalid user id", http.StatusBadRequest)
		return
	}
	if id == middleware.GetUserID(r.Context()) {
		respondJSONError(w, "Cannot delete your own account", http.StatusConflict)
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			respondJSONError(w, "User not found", http.StatusNotFound)
			return
		}
		log.Printf("[API] Error deleting user %d: %v", id, err)
		respondJSONError(w, "Failed to delete user", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}
