package repository

import (
	"context"
	"time"
)

// User representa un usuario del sistema.
type User struct {
	ID string
	// Email es único entre todos los usuarios (igualdad exacta, sin normalizar).
	Email string
	// PasswordHash es nil para cuentas creadas vía federación (sin password local).
	PasswordHash *string
	FullName     string
	IsActive     bool
	// Provider indica cómo se creó la cuenta: "email" o el nombre del
	// identity provider externo ("google").
	Provider  string
	CreatedAt time.Time
}

// HasPassword reporta si el usuario tiene una credencial de password local.
func (u *User) HasPassword() bool {
	return u != nil && u.PasswordHash != nil && *u.PasswordHash != ""
}

// CreateUserInput contiene los datos para crear un usuario.
type CreateUserInput struct {
	Email        string
	PasswordHash string // vacío para cuentas de federación
	FullName     string
	Provider     string // default "email"
}

// UserRepository define las operaciones sobre usuarios que el core necesita.
// La implementación (pg, memory) es un colaborador inyectado.
type UserRepository interface {
	// GetByEmail busca un usuario por email (match exacto).
	// Retorna ErrNotFound si no existe.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Create crea un nuevo usuario.
	// Retorna ErrConflict si el email ya existe.
	Create(ctx context.Context, input CreateUserInput) (*User, error)
}
