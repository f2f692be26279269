package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/aromera/passport/internal/domain/repository"
	httperrors "github.com/aromera/passport/internal/http/errors"
	"github.com/aromera/passport/internal/observability/logger"
)

// Resolver recupera el usuario detrás de un bearer token.
// *auth.Service lo implementa; los tests inyectan fakes.
type Resolver interface {
	Resolve(ctx context.Context, bearer string) (*repository.User, error)
}

// RequireAuth valida Authorization: Bearer <token> y guarda el usuario en
// el contexto. Token ausente, malformado, expirado o con subject
// desconocido: siempre el mismo 401 genérico.
func RequireAuth(resolver Resolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ah := strings.TrimSpace(r.Header.Get("Authorization"))
			if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				httperrors.WriteError(w, httperrors.ErrUnauthorized)
				return
			}
			raw := strings.TrimSpace(ah[len("Bearer "):])

			user, err := resolver.Resolve(r.Context(), raw)
			if err != nil {
				// No detallamos la causa en el response
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				httperrors.WriteError(w, httperrors.ErrUnauthorized)
				return
			}

			ctx := WithUser(r.Context(), user)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.UserID(user.ID)))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
