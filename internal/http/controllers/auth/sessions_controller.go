package auth

import (
	"net/http"

	"github.com/aromera/passport/internal/domain/repository"
	dto "github.com/aromera/passport/internal/http/dto/auth"
	httperrors "github.com/aromera/passport/internal/http/errors"
	"github.com/aromera/passport/internal/http/helpers"
	mw "github.com/aromera/passport/internal/http/middlewares"
	"github.com/aromera/passport/internal/observability/logger"
)

// SessionsController maneja POST /sessions.
type SessionsController struct {
	sessions repository.SessionRepository
}

// NewSessionsController crea el controller de sesiones.
func NewSessionsController(sessions repository.SessionRepository) *SessionsController {
	return &SessionsController{sessions: sessions}
}

// Create persiste side-data de sesión para el usuario autenticado.
// Requiere RequireAuth antes en la cadena.
func (c *SessionsController) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SessionsController.Create"))

	user := mw.GetUser(ctx)
	if user == nil {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}
	if c.sessions == nil {
		httperrors.WriteError(w, httperrors.ErrNotFound.WithDetail("session store disabled"))
		return
	}

	var req dto.SessionRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.SessionData == nil {
		req.SessionData = map[string]any{}
	}

	sess, err := c.sessions.Put(ctx, user.ID, req.SessionData)
	if err != nil {
		log.Error("session persist failed", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusCreated, dto.SessionResponse{
		ID:          sess.ID,
		UserID:      sess.UserID,
		SessionData: sess.Data,
		CreatedAt:   sess.CreatedAt,
	})
}
