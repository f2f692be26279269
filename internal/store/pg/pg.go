// Package pg implementa los repositorios sobre PostgreSQL usando pgx.
// Las tablas (users, sessions) se administran fuera de este servicio.
package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aromera/passport/internal/domain/repository"
)

// Tuning son los parámetros opcionales del pool. Cero = default de pgx.
type Tuning struct {
	MaxConns        int
	MinConns        int
	ConnMaxLifetime time.Duration
}

// Store agrupa los repositorios pg sobre un pool compartido.
type Store struct{ pool *pgxpool.Pool }

// New abre el pool y verifica la conexión.
func New(ctx context.Context, dsn string, tuning Tuning) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if tuning.MaxConns > 0 {
		pcfg.MaxConns = int32(tuning.MaxConns)
	}
	if tuning.MinConns > 0 {
		pcfg.MinConns = int32(tuning.MinConns)
	}
	if tuning.ConnMaxLifetime > 0 {
		pcfg.MaxConnLifetime = tuning.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Pool expone el pool interno (metrics, health checks).
func (s *Store) Pool() *pgxpool.Pool {
	if s == nil {
		return nil
	}
	return s.pool
}

// Close cierra el pool subyacente (idempotente).
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// Users expone el repositorio de usuarios.
func (s *Store) Users() repository.UserRepository { return &userRepo{pool: s.pool} }

// Sessions expone el repositorio de sesiones.
func (s *Store) Sessions() repository.SessionRepository { return &sessionRepo{pool: s.pool} }

type userRepo struct{ pool *pgxpool.Pool }

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	const query = `
		SELECT id, email, password_hash, COALESCE(full_name, ''), is_active, provider, created_at
		FROM users
		WHERE email = $1
		LIMIT 1
	`
	var u repository.User
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.IsActive, &u.Provider, &u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: get user by email: %w", err)
	}
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, input repository.CreateUserInput) (*repository.User, error) {
	if input.Email == "" {
		return nil, repository.ErrInvalidInput
	}
	provider := input.Provider
	if provider == "" {
		provider = "email"
	}
	var hash *string
	if input.PasswordHash != "" {
		hash = &input.PasswordHash
	}

	const query = `
		INSERT INTO users (id, email, password_hash, full_name, is_active, provider, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), TRUE, $5, now())
		RETURNING id, email, password_hash, COALESCE(full_name, ''), is_active, provider, created_at
	`
	var u repository.User
	err := r.pool.QueryRow(ctx, query, uuid.NewString(), input.Email, hash, input.FullName, provider).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.IsActive, &u.Provider, &u.CreatedAt,
	)
	if isUniqueViolation(err) {
		return nil, repository.ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("pg: create user: %w", err)
	}
	return &u, nil
}

type sessionRepo struct{ pool *pgxpool.Pool }

func (r *sessionRepo) Put(ctx context.Context, userID string, data map[string]any) (*repository.Session, error) {
	if userID == "" {
		return nil, repository.ErrInvalidInput
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("pg: marshal session data: %w", err)
	}

	const query = `
		INSERT INTO sessions (id, user_id, session_data, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING id, user_id, created_at
	`
	sess := repository.Session{Data: data}
	err = r.pool.QueryRow(ctx, query, uuid.NewString(), userID, payload).Scan(
		&sess.ID, &sess.UserID, &sess.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("pg: put session: %w", err)
	}
	return &sess, nil
}

// isUniqueViolation detecta el código 23505 (unique_violation) de Postgres.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
