// Package redis implementa el SessionRepository sobre un cache.Client,
// para deployments que guardan el side-data de logins federados fuera de
// la base relacional.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aromera/passport/internal/cache"
	"github.com/aromera/passport/internal/domain/repository"
)

// SessionStore persiste sesiones como JSON bajo session:<user_id>:<id>.
type SessionStore struct {
	cache cache.Client
	ttl   time.Duration // 0 = sin expiración
}

// NewSessionStore crea el store. ttl=0 mantiene los registros sin expirar.
func NewSessionStore(c cache.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{cache: c, ttl: ttl}
}

func (s *SessionStore) Put(ctx context.Context, userID string, data map[string]any) (*repository.Session, error) {
	if userID == "" {
		return nil, repository.ErrInvalidInput
	}
	sess := repository.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(map[string]any{
		"id":         sess.ID,
		"user_id":    sess.UserID,
		"data":       sess.Data,
		"created_at": sess.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("redis: marshal session: %w", err)
	}
	key := fmt.Sprintf("session:%s:%s", userID, sess.ID)
	if err := s.cache.Set(ctx, key, string(payload), s.ttl); err != nil {
		return nil, fmt.Errorf("redis: put session: %w", err)
	}
	return &sess, nil
}
