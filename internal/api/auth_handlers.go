package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/example/stocktrack/internal/auth"
	"github.com/example/stocktrack/internal/model"
	"github.com/example/stocktrack/internal/store"
)

// Users is the user store surface the auth handlers consume.
type Users interface {
	Create(ctx context.Context, u model.User) (int64, error)
	ByUsername(ctx context.Context, username string) (*model.User, error)
}

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	users      Users
	jwtService *auth.JWTService
}

// NewAuthHandlers creates a new AuthHandlers instance
func NewAuthHandlers(users Users, jwtService *auth.JWTService) *AuthHandlers {
	return &AuthHandlers{users: users, jwtService: jwtService}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	Token   string       `json:"token"`
	User    UserResponse `json:"user"`
	Message string       `json:"message,omitempty"`
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Register handles user registration
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		respondJSONError(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			respondJSONError(w, "Password must be at least 8 characters", http.StatusBadRequest)
			return
		}
		log.Printf("[API] Error hashing password: %v", err)
		respondJSONError(w, "Registration failed", http.StatusInternalServerError)
		return
	}

	id, err := h.users.Create(r.Context(), model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         "user",
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			respondJSONError(w, "Username or email already in use", http.StatusConflict)
			return
		}
		log.Printf("[API] Error creating user: %v", err)
		respondJSONError(w, "Registration failed", http.StatusInternalServerError)
		return
	}

	token, expiresAt, err := h.jwtService.Generate(id, req.Username, "user")
	if err != nil {
		log.Printf("[API] Error generating token: %v", err)
		respondJSONError(w, "Registration failed", http.StatusInternalServerError)
		return
	}
	h.setAuthCookie(w, token, expiresAt)

	respondJSON(w, http.StatusCreated, AuthResponse{
		Token: token,
		User: UserResponse{
			ID:       id,
			Username: req.Username,
			Email:    req.Email,
			Role:     "user",
		},
		Message: "Registration successful",
	})
}

// Login handles user login
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		respondJSONError(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.users.ByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			respondJSONError(w, "Invalid username or password", http.StatusUnauthorized)
			return
		}
		log.Printf("[API] Error looking up user: %v", err)
		respondJSONError(w, "Login failed", http.StatusInternalServerError)
		return
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		respondJSONError(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	token, expiresAt, err := h.jwtService.Generate(user.ID, user.Username, user.Role)
	if err != nil {
		log.Printf("[API] Error generating token: %v", err)
		respondJSONError(w, "Login failed", http.StatusInternalServerError)
		return
	}
	h.setAuthCookie(w, token, expiresAt)

	respondJSON(w, http.StatusOK, AuthResponse{
		Token: token,
		User: UserResponse{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			Role:     user.Role,
		},
		Message: "Login successful",
	})
}

// Logout clears the auth cookie
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *AuthHandlers) setAuthCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
