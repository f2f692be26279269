// Package google verifica ID tokens emitidos por Google contra sus claves
// públicas (JWKS), con cache read-mostly de claves y clasificación de fallas
// por clock skew.
package google

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/aromera/passport/internal/observability/logger"
)

const (
	defaultDiscoveryURL = "https://accounts.google.com/.well-known/openid-configuration"

	// Las claves de Google rotan poco; el discovery casi nunca cambia.
	discoveryTTL = 24 * time.Hour
	jwksTTL      = 1 * time.Hour

	httpTimeout = 10 * time.Second
)

// Claims son los claims verificados del ID token.
type Claims struct {
	Sub           string
	Email         string
	EmailVerified bool
	Name          string
	GivenName     string
	FamilyName    string
	Picture       string
	Locale        string
	Raw           jwtv5.MapClaims
}

// Verifier valida ID tokens de Google. Seguro para uso concurrente:
// los caches internos son read-mostly con refresh single-writer.
type Verifier struct {
	// Audience es el client_id esperado en el claim aud cuando el caller
	// no pasa uno explícito. Vacío = no chequear audience.
	Audience string

	discoveryURL string
	http         *http.Client

	mu     sync.RWMutex
	disc   *discoveryDoc
	discAt time.Time

	keys     *jwks
	keysAt   time.Time
	keysETag string

	sf singleflight.Group
}

// NewVerifier crea un Verifier para la audience dada (client_id de Google).
func NewVerifier(audience string) *Verifier {
	return &Verifier{
		Audience:     audience,
		discoveryURL: defaultDiscoveryURL,
		http:         &http.Client{Timeout: httpTimeout},
	}
}

// Verify valida firma, issuer, audience y ventana temporal del ID token.
// La causa completa de una falla se loguea server-side; hacia el caller solo
// salen ErrInvalidExternalToken o, para problemas de reloj, *ClockSkewError
// con la hora UTC del servidor.
func (v *Verifier) Verify(ctx context.Context, idToken, audience string) (*Claims, error) {
	if audience == "" {
		audience = v.Audience
	}
	claims, err := v.verify(ctx, idToken, audience)
	if err != nil {
		logger.From(ctx).Warn("google token verification failed",
			logger.Component("identity.google"),
			logger.Op("Verify"),
			logger.Err(err),
		)
		if isClockSkew(err) {
			return nil, &ClockSkewError{ServerTime: time.Now().UTC()}
		}
		return nil, ErrInvalidExternalToken
	}
	return claims, nil
}

// verify hace la verificación real y retorna errores con causa; Verify los
// colapsa a la taxonomía pública.
func (v *Verifier) verify(ctx context.Context, idToken, audience string) (*Claims, error) {
	var header struct {
		Alg string `json:"alg"`
		Kid string `json:"kid"`
	}
	parts := strings.Split(idToken, ".")
	if len(parts) != 3 {
		return nil, errors.New("bad jwt format")
	}
	hb, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(hb, &header); err != nil {
		return nil, err
	}
	if header.Alg != "RS256" {
		return nil, fmt.Errorf("unexpected alg: %s", header.Alg)
	}

	key, err := v.rsaKeyForKid(ctx, header.Kid)
	if err != nil {
		return nil, fmt.Errorf("resolve signing key: %w", err)
	}

	tok, err := jwtv5.Parse(idToken,
		func(t *jwtv5.Token) (any, error) { return key, nil },
		jwtv5.WithValidMethods([]string{"RS256"}),
		jwtv5.WithIssuedAt(),
	)
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, errors.New("invalid id_token")
	}

	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, errors.New("claims type")
	}

	iss, _ := claims["iss"].(string)
	if iss != "https://accounts.google.com" && iss != "accounts.google.com" {
		return nil, fmt.Errorf("bad iss: %s", iss)
	}

	if audience != "" {
		audOK := false
		switch a := claims["aud"].(type) {
		case string:
			audOK = a == audience
		case []any:
			for _, x := range a {
				if s, _ := x.(string); s == audience {
					audOK = true
					break
				}
			}
		}
		if !audOK {
			return nil, errors.New("bad aud")
		}
	}

	return &Claims{
		Raw:           claims,
		Sub:           strClaim(claims, "sub"),
		Email:         strClaim(claims, "email"),
		EmailVerified: boolClaim(claims, "email_verified"),
		Name:          strClaim(claims, "name"),
		GivenName:     strClaim(claims, "given_name"),
		FamilyName:    strClaim(claims, "family_name"),
		Picture:       strClaim(claims, "picture"),
		Locale:        strClaim(claims, "locale"),
	}, nil
}

func strClaim(m jwtv5.MapClaims, k string) string {
	s, _ := m[k].(string)
	return s
}

func boolClaim(m jwtv5.MapClaims, k string) bool {
	b, _ := m[k].(bool)
	return b
}
