package auth

import (
	"net/http"

	authsvc "github.com/aromera/passport/internal/auth"
	dto "github.com/aromera/passport/internal/http/dto/auth"
	httperrors "github.com/aromera/passport/internal/http/errors"
	"github.com/aromera/passport/internal/http/helpers"
	"github.com/aromera/passport/internal/observability/logger"
)

// RegisterController maneja POST /register.
type RegisterController struct {
	svc *authsvc.Service
}

// NewRegisterController crea el controller de registro.
func NewRegisterController(svc *authsvc.Service) *RegisterController {
	return &RegisterController{svc: svc}
}

// Register crea un usuario con credencial de password local.
// Email duplicado responde 409.
func (c *RegisterController) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RegisterController.Register"))

	var req dto.RegisterRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	user, err := c.svc.Register(ctx, req.Email, req.Password, req.FullName)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusCreated, dto.NewUserResponse(user))
	log.Debug("user registered", logger.UserID(user.ID))
}
