// Package memory implementa los repositorios en memoria.
// Útil para desarrollo y testing; no persiste nada.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aromera/passport/internal/domain/repository"
)

// Store implementa UserRepository y SessionRepository en memoria.
type Store struct {
	mu       sync.RWMutex
	byEmail  map[string]*repository.User
	sessions []repository.Session
}

// New crea un Store vacío.
func New() *Store {
	return &Store{byEmail: make(map[string]*repository.User)}
}

// Users expone el repositorio de usuarios.
func (s *Store) Users() repository.UserRepository { return (*userRepo)(s) }

// Sessions expone el repositorio de sesiones.
func (s *Store) Sessions() repository.SessionRepository { return (*sessionRepo)(s) }

type userRepo Store

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *userRepo) Create(ctx context.Context, input repository.CreateUserInput) (*repository.User, error) {
	if input.Email == "" {
		return nil, repository.ErrInvalidInput
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[input.Email]; exists {
		return nil, repository.ErrConflict
	}
	provider := input.Provider
	if provider == "" {
		provider = "email"
	}
	u := &repository.User{
		ID:        uuid.NewString(),
		Email:     input.Email,
		FullName:  input.FullName,
		IsActive:  true,
		Provider:  provider,
		CreatedAt: time.Now().UTC(),
	}
	if input.PasswordHash != "" {
		h := input.PasswordHash
		u.PasswordHash = &h
	}
	r.byEmail[input.Email] = u
	cp := *u
	return &cp, nil
}

type sessionRepo Store

func (r *sessionRepo) Put(ctx context.Context, userID string, data map[string]any) (*repository.Session, error) {
	if userID == "" {
		return nil, repository.ErrInvalidInput
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	sess := repository.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
	r.sessions = append(r.sessions, sess)
	cp := sess
	return &cp, nil
}

// SessionsByUser retorna las sesiones de un usuario (solo para tests/debug).
func (s *Store) SessionsByUser(userID string) []repository.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []repository.Session
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			out = append(out, sess)
		}
	}
	return out
}
