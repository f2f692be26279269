// Package health contiene el controller de health checks.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/aromera/passport/internal/http/helpers"
	"github.com/aromera/passport/internal/observability/logger"
)

// Deps contiene los checks inyectables. Cualquiera puede ser nil.
type Deps struct {
	DBCheck    func(ctx context.Context) error
	CacheCheck func(ctx context.Context) error
}

// Controller maneja GET /healthz.
type Controller struct {
	deps Deps
}

// NewController crea el controller de health.
func NewController(deps Deps) *Controller {
	return &Controller{deps: deps}
}

type componentStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type response struct {
	Status     string                     `json:"status"` // ok | degraded
	Components map[string]componentStatus `json:"components,omitempty"`
	Timestamp  time.Time                  `json:"timestamp"`
}

// Healthz reporta la salud del proceso y de sus dependencias.
// Un check que falla degrada el estado pero responde 200: el proceso sigue
// vivo; 503 queda para cuando no puede servir nada.
func (c *Controller) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := response{
		Status:     "ok",
		Components: map[string]componentStatus{},
		Timestamp:  time.Now().UTC(),
	}

	run := func(name string, check func(ctx context.Context) error) {
		if check == nil {
			return
		}
		if err := check(ctx); err != nil {
			resp.Status = "degraded"
			resp.Components[name] = componentStatus{Status: "down", Error: err.Error()}
			logger.From(ctx).Warn("health check failed",
				logger.Component("health"), logger.String("check", name), logger.Err(err))
			return
		}
		resp.Components[name] = componentStatus{Status: "up"}
	}

	run("db", c.deps.DBCheck)
	run("cache", c.deps.CacheCheck)

	helpers.WriteJSON(w, http.StatusOK, resp)
}
