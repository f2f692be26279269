package google

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidExternalToken es la falla genérica de verificación. Cualquier
// detalle del error subyacente queda en los logs, nunca en este valor.
var ErrInvalidExternalToken = errors.New("invalid google token")

// ClockSkewError es la única falla que deliberadamente expone detalle
// operativo: incluye la hora UTC del servidor para que quien integra pueda
// diagnosticar relojes desincronizados sin mirar nuestros logs.
type ClockSkewError struct {
	ServerTime time.Time
}

func (e *ClockSkewError) Error() string {
	return fmt.Sprintf(
		"invalid google token: token used too early or expired; check that your machine and server clocks are synchronized (server time UTC: %s)",
		e.ServerTime.Format(time.RFC3339),
	)
}

// isClockSkew clasifica si la causa de verificación es un problema de reloj:
// token todavía no válido, ya expirado, o cualquier falla del claim exp.
// Primero los sentinels enumerados de jwt/v5; el match por substring queda
// como fallback para causas que llegan como texto plano.
// TODO: eliminar el fallback por substring cuando todas las ramas de
// verificación retornen errores enumerados.
func isClockSkew(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, jwtv5.ErrTokenExpired) ||
		errors.Is(err, jwtv5.ErrTokenUsedBeforeIssued) ||
		errors.Is(err, jwtv5.ErrTokenNotValidYet) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "used too early") || strings.Contains(msg, "exp claim")
}
