// Package store elige el backend de persistencia según configuración y
// entrega los repositorios de dominio ya construidos.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aromera/passport/internal/config"
	"github.com/aromera/passport/internal/domain/repository"
	"github.com/aromera/passport/internal/observability/logger"
	"github.com/aromera/passport/internal/store/memory"
	"github.com/aromera/passport/internal/store/pg"
)

// Store agrupa los repositorios del backend elegido.
type Store struct {
	Users    repository.UserRepository
	Sessions repository.SessionRepository

	// Ping verifica la conexión al backend (nil para memory).
	Ping func(ctx context.Context) error

	pool    *pgxpool.Pool
	closeFn func()
}

// Pool expone el pool de postgres para métricas (nil para memory).
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// New construye el backend indicado por cfg.Storage.Driver.
// memory es el default y no requiere infraestructura.
func New(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.Storage.Driver {
	case "memory":
		m := memory.New()
		return &Store{Users: m.Users(), Sessions: m.Sessions()}, nil

	case "postgres":
		var lifetime time.Duration
		if cfg.Storage.Postgres.ConnMaxLifetime != "" {
			// ya validado en config.Load
			lifetime, _ = time.ParseDuration(cfg.Storage.Postgres.ConnMaxLifetime)
		}
		p, err := pg.New(ctx, cfg.Storage.DSN, pg.Tuning{
			MaxConns:        cfg.Storage.Postgres.MaxConns,
			MinConns:        cfg.Storage.Postgres.MinConns,
			ConnMaxLifetime: lifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("store: postgres: %w", err)
		}
		logger.L().Info("postgres store ready", logger.Component("store"))
		return &Store{
			Users:    p.Users(),
			Sessions: p.Sessions(),
			Ping:     p.Pool().Ping,
			pool:     p.Pool(),
			closeFn:  p.Close,
		}, nil

	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Storage.Driver)
	}
}

// Close libera los recursos del backend (no-op para memory).
func (s *Store) Close() {
	if s.closeFn != nil {
		s.closeFn()
	}
}
