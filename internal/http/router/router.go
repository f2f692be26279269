// Package router arma el árbol de rutas del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	httpx "github.com/aromera/passport/internal/http"
	authctrl "github.com/aromera/passport/internal/http/controllers/auth"
	healthctrl "github.com/aromera/passport/internal/http/controllers/health"
	mw "github.com/aromera/passport/internal/http/middlewares"
)

// Deps contiene las dependencias del router.
type Deps struct {
	Auth     *authctrl.Controllers
	Health   *healthctrl.Controller
	Resolver mw.Resolver
	// Metrics es el handler de /metrics; nil lo deshabilita.
	Metrics http.Handler
}

// New construye el router con la cadena de middlewares base:
// recover -> request id -> metrics -> logging.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.WithRecover())
	r.Use(mw.WithRequestID())
	r.Use(httpx.WithMetrics)
	r.Use(mw.WithLogging())

	// Públicas
	r.Post("/register", deps.Auth.Register.Register)
	r.Post("/login", deps.Auth.Login.Login)
	r.Post("/login/google", deps.Auth.Google.Login)
	r.Get("/healthz", deps.Health.Healthz)

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	// Protegidas por bearer token
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireAuth(deps.Resolver))
		r.Get("/me", deps.Auth.Me.Me)
		r.Post("/sessions", deps.Auth.Sessions.Create)
	})

	return r
}
