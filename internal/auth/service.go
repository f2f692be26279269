// Package auth orquesta las primitivas del core: autenticación por
// credenciales, resolución de sesión desde bearer tokens y login federado.
// No tiene estado mutable propio; todas las operaciones son seguras en
// concurrencia.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/aromera/passport/internal/domain/repository"
	"github.com/aromera/passport/internal/identity/google"
	"github.com/aromera/passport/internal/observability/logger"
	"github.com/aromera/passport/internal/security/password"
	"github.com/aromera/passport/internal/token"
)

// ExternalVerifier valida un identity token de un provider externo.
// *google.Verifier lo implementa; los tests inyectan fakes.
type ExternalVerifier interface {
	Verify(ctx context.Context, idToken, audience string) (*google.Claims, error)
}

// Deps contiene las dependencias del servicio. Users y Codec son
// obligatorios; Sessions y Google solo si se usa login federado.
type Deps struct {
	Users    repository.UserRepository
	Sessions repository.SessionRepository
	Codec    *token.Codec
	Google   ExternalVerifier
	Hashing  password.Params
}

// Service expone las operaciones de autenticación.
type Service struct {
	deps Deps
}

// New crea el servicio de autenticación.
func New(deps Deps) *Service {
	if deps.Hashing.Cost == 0 {
		deps.Hashing = password.Default
	}
	return &Service{deps: deps}
}

// LoginResult es el resultado de un login exitoso (password o federado).
type LoginResult struct {
	User        *repository.User
	AccessToken string
	ExpiresAt   time.Time
}

// Register crea un usuario con credencial de password local.
// Email duplicado retorna repository.ErrConflict.
func (s *Service) Register(ctx context.Context, email, plainPassword, fullName string) (*repository.User, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("auth"), logger.Op("Register"))

	email = strings.TrimSpace(email)
	if email == "" || plainPassword == "" {
		return nil, ErrMissingFields
	}

	hash, err := password.Hash(s.deps.Hashing, plainPassword)
	if err != nil {
		log.Error("password hash failed", logger.Err(err))
		return nil, err
	}

	user, err := s.deps.Users.Create(ctx, repository.CreateUserInput{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Provider:     "email",
	})
	if err != nil {
		log.Debug("user create failed", logger.Err(err))
		return nil, err
	}

	log.Info("user registered", logger.UserID(user.ID))
	return user, nil
}

// Authenticate decide si un login por email/password es válido.
// Las tres fallas posibles (email desconocido, cuenta sin password local,
// password incorrecto) colapsan a ErrNoMatch.
func (s *Service) Authenticate(ctx context.Context, email, plainPassword string) (*repository.User, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("auth"), logger.Op("Authenticate"))

	user, err := s.deps.Users.GetByEmail(ctx, email)
	if err != nil {
		log.Debug("user lookup failed", logger.Err(err))
		return nil, ErrNoMatch
	}
	if !user.HasPassword() {
		// Cuenta creada vía federación: el login por password no aplica.
		log.Debug("federation-only account", logger.UserID(user.ID))
		return nil, ErrNoMatch
	}
	if !password.Verify(plainPassword, *user.PasswordHash) {
		log.Debug("password check failed", logger.UserID(user.ID))
		return nil, ErrNoMatch
	}
	return user, nil
}

// Login autentica credenciales y emite un bearer token con el email como
// subject.
func (s *Service) Login(ctx context.Context, email, plainPassword string) (*LoginResult, error) {
	user, err := s.Authenticate(ctx, email, plainPassword)
	if err != nil {
		return nil, err
	}
	signed, exp, err := s.deps.Codec.Issue(user.Email, nil)
	if err != nil {
		logger.From(ctx).Error("token issue failed", logger.Component("auth"), logger.Err(err))
		return nil, err
	}
	logger.From(ctx).Info("login successful",
		logger.Component("auth"), logger.UserID(user.ID), logger.Provider(user.Provider))
	return &LoginResult{User: user, AccessToken: signed, ExpiresAt: exp}, nil
}

// LoginGoogle verifica un ID token de Google, busca (o crea en el primer
// login) el usuario federado, persiste side-data de la sesión si hay session
// store, y emite un bearer token propio.
// Los errores del verifier (ErrInvalidExternalToken, *ClockSkewError) se
// propagan tal cual: la capa HTTP decide cómo exponerlos.
func (s *Service) LoginGoogle(ctx context.Context, idToken string) (*LoginResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("auth"), logger.Op("LoginGoogle"))

	if s.deps.Google == nil {
		// Provider deshabilitado por config
		return nil, google.ErrInvalidExternalToken
	}

	claims, err := s.deps.Google.Verify(ctx, idToken, "")
	if err != nil {
		return nil, err
	}
	if claims.Email == "" {
		log.Warn("google token without email claim")
		return nil, google.ErrInvalidExternalToken
	}

	user, err := s.deps.Users.GetByEmail(ctx, claims.Email)
	if repository.IsNotFound(err) {
		user, err = s.deps.Users.Create(ctx, repository.CreateUserInput{
			Email:    claims.Email,
			FullName: claims.Name,
			Provider: "google",
		})
		if err == nil {
			log.Info("federated user created", logger.UserID(user.ID))
		}
	}
	if err != nil {
		log.Error("federated user lookup/create failed", logger.Err(err))
		return nil, err
	}

	// Side-data del login federado: best effort, no bloquea el login.
	if s.deps.Sessions != nil {
		data := map[string]any{
			"provider": "google",
			"sub":      claims.Sub,
			"email":    claims.Email,
			"name":     claims.Name,
			"picture":  claims.Picture,
		}
		if _, err := s.deps.Sessions.Put(ctx, user.ID, data); err != nil {
			log.Warn("session side-data persist failed", logger.Err(err))
		}
	}

	signed, exp, err := s.deps.Codec.Issue(user.Email, nil)
	if err != nil {
		log.Error("token issue failed", logger.Err(err))
		return nil, err
	}
	log.Info("federated login successful", logger.UserID(user.ID), logger.Provider("google"))
	return &LoginResult{User: user, AccessToken: signed, ExpiresAt: exp}, nil
}

// Resolve recupera el usuario autenticado detrás de un bearer token.
// Toda falla (token inválido/expirado/sin subject, o subject que no existe)
// retorna el mismo ErrUnauthorized.
func (s *Service) Resolve(ctx context.Context, bearer string) (*repository.User, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("auth"), logger.Op("Resolve"))

	subject, err := s.deps.Codec.Validate(bearer)
	if err != nil {
		log.Debug("token validation failed", logger.Err(err))
		return nil, ErrUnauthorized
	}
	user, err := s.deps.Users.GetByEmail(ctx, subject)
	if err != nil {
		log.Debug("subject lookup failed", logger.Err(err))
		return nil, ErrUnauthorized
	}
	return user, nil
}
