package auth

import (
	"net/http"

	dto "github.com/aromera/passport/internal/http/dto/auth"
	httperrors "github.com/aromera/passport/internal/http/errors"
	"github.com/aromera/passport/internal/http/helpers"
	mw "github.com/aromera/passport/internal/http/middlewares"
)

// MeController maneja GET /me.
type MeController struct{}

// NewMeController crea el controller de perfil.
func NewMeController() *MeController {
	return &MeController{}
}

// Me devuelve el usuario autenticado detrás del bearer token.
// Requiere RequireAuth antes en la cadena.
func (c *MeController) Me(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUser(r.Context())
	if user == nil {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewUserResponse(user))
}
