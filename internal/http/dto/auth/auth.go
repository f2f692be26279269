// Package auth contiene los DTOs del flujo de autenticación.
package auth

import (
	"time"

	"github.com/aromera/passport/internal/domain/repository"
)

// RegisterRequest es el body de POST /register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

// LoginRequest es el body de POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GoogleLoginRequest es el body de POST /login/google.
type GoogleLoginRequest struct {
	IDToken string `json:"id_token"`
}

// TokenResponse es la respuesta de un login exitoso.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// UserResponse es la vista pública de un usuario. Nunca incluye el hash.
type UserResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Provider string `json:"provider"`
	IsActive bool   `json:"is_active"`
}

// NewUserResponse proyecta un usuario de dominio a su vista pública.
func NewUserResponse(u *repository.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Provider: u.Provider,
		IsActive: u.IsActive,
	}
}

// SessionRequest es el body de POST /sessions.
type SessionRequest struct {
	SessionData map[string]any `json:"session_data"`
}

// SessionResponse es la vista pública de una sesión persistida.
type SessionResponse struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	SessionData map[string]any `json:"session_data"`
	CreatedAt   time.Time      `json:"created_at"`
}
