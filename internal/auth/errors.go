package auth

import "errors"

var (
	// ErrNoMatch es el resultado único de una autenticación por credenciales
	// fallida. Email desconocido, cuenta solo-federación y password incorrecto
	// retornan exactamente este valor: el caller no puede distinguir el caso
	// y por lo tanto tampoco puede enumerar cuentas.
	ErrNoMatch = errors.New("no match")

	// ErrUnauthorized es el resultado único de una resolución de sesión
	// fallida, sea cual sea la causa (token inválido, expirado, sin subject,
	// o subject que no resuelve a un usuario).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrMissingFields indica campos obligatorios vacíos en el registro.
	ErrMissingFields = errors.New("missing required fields")
)
