package auth

import (
	"net/http"

	authsvc "github.com/aromera/passport/internal/auth"
	httpx "github.com/aromera/passport/internal/http"
	dto "github.com/aromera/passport/internal/http/dto/auth"
	httperrors "github.com/aromera/passport/internal/http/errors"
	"github.com/aromera/passport/internal/http/helpers"
)

// LoginController maneja POST /login.
type LoginController struct {
	svc *authsvc.Service
}

// NewLoginController crea el controller de login por credenciales.
func NewLoginController(svc *authsvc.Service) *LoginController {
	return &LoginController{svc: svc}
}

// Login autentica email/password y emite un bearer token.
// Toda falla de credenciales responde el mismo 401.
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req dto.LoginRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
		return
	}

	res, err := c.svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		httpx.ObserveLogin("email", "failure")
		httperrors.WriteError(w, err)
		return
	}
	httpx.ObserveLogin("email", "success")

	// El token NO debe cachearse
	w.Header().Set("Cache-Control", "no-store")
	helpers.WriteJSON(w, http.StatusOK, dto.TokenResponse{
		AccessToken: res.AccessToken,
		TokenType:   "bearer",
		ExpiresAt:   res.ExpiresAt,
	})
}
