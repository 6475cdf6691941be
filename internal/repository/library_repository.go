package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/media-service/internal/domain"
)

// LibraryRepository persists per-user saved items and likes.
type LibraryRepository interface {
	Add(ctx context.Context, entry *domain.LibraryEntry) error
	Remove(ctx context.Context, userID, mediaID string) error
	SetLiked(ctx context.Context, userID, mediaID string, liked bool) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.LibraryEntry, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
}

type libraryRepository struct {
	pool *pgxpool.Pool
}

// NewLibraryRepository instantiates repository.
func NewLibraryRepository(pool *pgxpool.Pool) LibraryRepository {
	return &libraryRepository{pool: pool}
}

// Add inserts the entry; the (user_id, media_id) unique constraint turns
// duplicate adds into a CONFLICT at the translation layer.
func (r *libraryRepository) Add(ctx context.Context, entry *domain.LibraryEntry) error {
	const query = `
        INSERT INTO library_entries (user_id, media_id, liked)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		entry.UserID,
		entry.MediaID,
		entry.Liked,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *libraryRepository) Remove(ctx context.Context, userID, mediaID string) error {
	cmd, err := r.pool.Exec(ctx,
		`DELETE FROM library_entries WHERE user_id=$1 AND media_id=$2`, userID, mediaID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *libraryRepository) SetLiked(ctx context.Context, userID, mediaID string, liked bool) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE library_entries SET liked=$1 WHERE user_id=$2 AND media_id=$3`, liked, userID, mediaID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *libraryRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.LibraryEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const query = `
        SELECT id, user_id, media_id, liked, created_at
        FROM library_entries WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.LibraryEntry
	for rows.Next() {
		var entry domain.LibraryEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.MediaID,
			&entry.Liked,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *libraryRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM library_entries WHERE user_id=$1`, userID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
