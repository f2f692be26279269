package middlewares

import (
	"context"

	"github.com/aromera/passport/internal/domain/repository"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyUser
)

func setRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, rid)
}

// GetRequestID devuelve el request ID del contexto ("" si no hay).
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return v
	}
	return ""
}

// WithUser guarda el usuario autenticado en el contexto.
func WithUser(ctx context.Context, u *repository.User) context.Context {
	return context.WithValue(ctx, ctxKeyUser, u)
}

// GetUser devuelve el usuario autenticado (nil si no hay).
func GetUser(ctx context.Context) *repository.User {
	if u, ok := ctx.Value(ctxKeyUser).(*repository.User); ok {
		return u
	}
	return nil
}
