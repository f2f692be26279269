// Package errors define la respuesta de error estándar de la API y el
// mapeo desde los errores de dominio. Las fallas de autenticación colapsan
// a respuestas uniformes: el cliente nunca sabe cuál verificación falló.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/aromera/passport/internal/auth"
	"github.com/aromera/passport/internal/domain/repository"
	"github.com/aromera/passport/internal/identity/google"
)

var (
	ErrInvalidJSON         = &HTTPError{Code: "invalid_json", Message: "Invalid JSON format", Status: http.StatusBadRequest}
	ErrBadRequest          = &HTTPError{Code: "bad_request", Message: "Bad request", Status: http.StatusBadRequest}
	ErrInvalidCredentials  = &HTTPError{Code: "invalid_credentials", Message: "Incorrect email or password", Status: http.StatusUnauthorized}
	ErrUnauthorized        = &HTTPError{Code: "unauthorized", Message: "Could not validate credentials", Status: http.StatusUnauthorized}
	ErrInvalidGoogleToken  = &HTTPError{Code: "invalid_google_token", Message: "Invalid Google token", Status: http.StatusUnauthorized}
	ErrEmailTaken          = &HTTPError{Code: "email_taken", Message: "Email already registered", Status: http.StatusConflict}
	ErrMethodNotAllowed    = &HTTPError{Code: "method_not_allowed", Message: "Method not allowed", Status: http.StatusMethodNotAllowed}
	ErrNotFound            = &HTTPError{Code: "not_found", Message: "Not found", Status: http.StatusNotFound}
	ErrInternalServerError = &HTTPError{Code: "internal_error", Message: "Internal server error", Status: http.StatusInternalServerError}
)

// HTTPError es el error estándar de la API.
type HTTPError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Status  int    `json:"-"`
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

// WithDetail devuelve una copia del error con detalle específico.
func (e *HTTPError) WithDetail(detail string) *HTTPError {
	return &HTTPError{Code: e.Code, Message: e.Message, Detail: detail, Status: e.Status}
}

// FromDomain traduce un error de dominio a su respuesta HTTP.
// *google.ClockSkewError es el único error de verificación que expone
// detalle operativo (la hora UTC del servidor) para diagnosticar desfase
// de reloj; todo el resto responde mensajes genéricos.
func FromDomain(err error) *HTTPError {
	var skew *google.ClockSkewError
	switch {
	case stderrors.Is(err, auth.ErrMissingFields):
		return ErrBadRequest.WithDetail("email and password are required")
	case stderrors.Is(err, auth.ErrNoMatch):
		return ErrInvalidCredentials
	case stderrors.Is(err, auth.ErrUnauthorized):
		return ErrUnauthorized
	case stderrors.As(err, &skew):
		return ErrInvalidGoogleToken.WithDetail(skew.Error())
	case stderrors.Is(err, google.ErrInvalidExternalToken):
		return ErrInvalidGoogleToken
	case stderrors.Is(err, repository.ErrConflict):
		return ErrEmailTaken
	case stderrors.Is(err, repository.ErrInvalidInput):
		return ErrBadRequest
	default:
		return ErrInternalServerError
	}
}

// WriteError escribe el error en el response writer.
func WriteError(w http.ResponseWriter, err error) {
	var httpErr *HTTPError
	if !stderrors.As(err, &httpErr) {
		httpErr = FromDomain(err)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(httpErr.Status)
	_ = json.NewEncoder(w).Encode(httpErr)
}
