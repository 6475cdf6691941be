package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/media-service/internal/domain"
)

// SessionRepository persists login sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type sessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository returns a Postgres-backed implementation.
func NewSessionRepository(pool *pgxpool.Pool) SessionRepository {
	return &sessionRepository{pool: pool}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	const query = `
        INSERT INTO sessions (id, user_id, user_agent, ip, expires_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		session.ID,
		session.UserID,
		session.UserAgent,
		session.IP,
		session.ExpiresAt,
	).Scan(&session.CreatedAt)
}

func (r *sessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	const query = `
        SELECT id, user_id, user_agent, ip, expires_at, created_at
        FROM sessions WHERE id=$1`

	var session domain.Session
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&session.ID,
		&session.UserID,
		&session.UserAgent,
		&session.IP,
		&session.ExpiresAt,
		&session.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *sessionRepository) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE user_id=$1`, userID)
	return err
}

func (r *sessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
