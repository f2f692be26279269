// Package auth contiene los controllers HTTP del flujo de autenticación.
package auth

import (
	authsvc "github.com/aromera/passport/internal/auth"
	"github.com/aromera/passport/internal/domain/repository"
)

// Controllers agrupa los controllers del flujo de autenticación.
type Controllers struct {
	Register *RegisterController
	Login    *LoginController
	Google   *GoogleController
	Me       *MeController
	Sessions *SessionsController
}

// NewControllers construye todos los controllers sobre el mismo servicio.
// sessions puede ser nil si el session store está deshabilitado.
func NewControllers(svc *authsvc.Service, sessions repository.SessionRepository) *Controllers {
	return &Controllers{
		Register: NewRegisterController(svc),
		Login:    NewLoginController(svc),
		Google:   NewGoogleController(svc),
		Me:       NewMeController(),
		Sessions: NewSessionsController(sessions),
	}
}
