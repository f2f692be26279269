// Package token implementa el codec de bearer tokens propios del servicio:
// JWTs firmados con secreto compartido, claims sub+exp, TTL configurable.
package token

import (
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/aromera/passport/internal/observability/logger"
)

// ErrInvalidToken es el único error que Validate retorna al caller.
// Firma rota, token expirado, malformado o sin subject colapsan acá a
// propósito: distinguir causas hacia afuera habilita oracle attacks.
// La causa concreta se loguea server-side.
var ErrInvalidToken = errors.New("invalid token")

// signingMethods mapea el identificador de algoritmo de configuración al
// método de firma HMAC correspondiente.
var signingMethods = map[string]*jwtv5.SigningMethodHMAC{
	"HS256": jwtv5.SigningMethodHS256,
	"HS384": jwtv5.SigningMethodHS384,
	"HS512": jwtv5.SigningMethodHS512,
}

// Codec emite y valida bearer tokens. Inmutable después de construido;
// seguro para uso concurrente.
type Codec struct {
	secret     []byte
	method     *jwtv5.SigningMethodHMAC
	methodName string
	defaultTTL time.Duration
}

// New construye un Codec desde la configuración de firma.
// Secreto vacío, algoritmo desconocido o TTL no positivo son errores de
// configuración: el proceso no debe arrancar con un codec inválido.
func New(secret, algorithm string, defaultTTL time.Duration) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("token: signing secret is required")
	}
	method, ok := signingMethods[algorithm]
	if !ok {
		return nil, fmt.Errorf("token: unsupported signing algorithm %q", algorithm)
	}
	if defaultTTL <= 0 {
		return nil, fmt.Errorf("token: default ttl must be positive, got %s", defaultTTL)
	}
	return &Codec{
		secret:     []byte(secret),
		method:     method,
		methodName: algorithm,
		defaultTTL: defaultTTL,
	}, nil
}

// Issue firma un token con el TTL por defecto.
func (c *Codec) Issue(subject string, extra map[string]any) (string, time.Time, error) {
	return c.IssueWithTTL(subject, extra, c.defaultTTL)
}

// IssueWithTTL firma un token con claims sub + iat + exp, con
// exp = now(UTC) + ttl. El ttl se usa tal cual: un ttl cero o negativo
// produce un token ya expirado. Los extra claims se mezclan pero nunca
// pisan sub/exp/iat.
func (c *Codec) IssueWithTTL(subject string, extra map[string]any, ttl time.Duration) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, fmt.Errorf("token: subject is required")
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)

	claims := jwtv5.MapClaims{}
	for k, v := range extra {
		claims[k] = v
	}
	claims["sub"] = subject
	claims["iat"] = now.Unix()
	claims["exp"] = exp.Unix()

	tk := jwtv5.NewWithClaims(c.method, claims)
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Validate verifica firma y expiración y retorna el subject.
// Solo se acepta el algoritmo configurado; exp se evalúa en UTC sin leeway.
func (c *Codec) Validate(tokenString string) (string, error) {
	keyfunc := func(t *jwtv5.Token) (any, error) {
		return c.secret, nil
	}

	tok, err := jwtv5.Parse(tokenString, keyfunc,
		jwtv5.WithValidMethods([]string{c.methodName}),
		jwtv5.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid {
		logger.Named("token").Debug("token validation failed", logger.Err(err))
		return "", ErrInvalidToken
	}

	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	// Firma válida pero sin subject sigue siendo un token inválido.
	sub, _ := claims["sub"].(string)
	if sub == "" {
		logger.Named("token").Debug("token missing subject claim")
		return "", ErrInvalidToken
	}
	return sub, nil
}

// DefaultTTL expone el TTL por defecto (para ExpiresIn en responses).
func (c *Codec) DefaultTTL() time.Duration {
	return c.defaultTTL
}
