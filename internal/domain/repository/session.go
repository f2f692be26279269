package repository

import (
	"context"
	"time"
)

// Session es un registro auxiliar de sesión: payload estructurado arbitrario
// keyed por user ID. El user ID es string para admitir identificadores de
// providers externos. No participa en la autenticación por bearer token.
type Session struct {
	ID        string
	UserID    string
	Data      map[string]any
	CreatedAt time.Time
}

// SessionRepository define el session-store que el core puede usar para
// persistir side-data de logins federados.
type SessionRepository interface {
	// Put guarda un payload de sesión para un usuario y retorna el registro creado.
	Put(ctx context.Context, userID string, data map[string]any) (*Session, error)
}
