package auth

import (
	"net/http"

	authsvc "github.com/aromera/passport/internal/auth"
	httpx "github.com/aromera/passport/internal/http"
	dto "github.com/aromera/passport/internal/http/dto/auth"
	httperrors "github.com/aromera/passport/internal/http/errors"
	"github.com/aromera/passport/internal/http/helpers"
	"github.com/aromera/passport/internal/observability/logger"
)

// GoogleController maneja POST /login/google.
type GoogleController struct {
	svc *authsvc.Service
}

// NewGoogleController crea el controller de login federado con Google.
func NewGoogleController(svc *authsvc.Service) *GoogleController {
	return &GoogleController{svc: svc}
}

// Login verifica un ID token de Google y emite un bearer token propio.
// Un token con desfase de reloj responde 401 con la hora UTC del servidor
// en el detalle; cualquier otra falla de verificación responde el 401
// genérico.
func (c *GoogleController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("GoogleController.Login"))

	var req dto.GoogleLoginRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.IDToken == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("id_token is required"))
		return
	}

	res, err := c.svc.LoginGoogle(ctx, req.IDToken)
	if err != nil {
		httpx.ObserveLogin("google", "failure")
		httperrors.WriteError(w, err)
		return
	}
	httpx.ObserveLogin("google", "success")

	w.Header().Set("Cache-Control", "no-store")
	helpers.WriteJSON(w, http.StatusOK, dto.TokenResponse{
		AccessToken: res.AccessToken,
		TokenType:   "bearer",
		ExpiresAt:   res.ExpiresAt,
	})
	log.Debug("federated login completed", logger.UserID(res.User.ID))
}
