package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/media-service/internal/domain"
)

// MediaFilter captures catalog search parameters.
type MediaFilter struct {
	Kind          *domain.MediaKind
	AuthorID      *string
	Tag           *string
	SearchTerm    *string
	PublishedOnly bool
	Limit         int
	Offset        int
}

// MediaRepository encapsulates catalog persistence.
type MediaRepository interface {
	Create(ctx context.Context, item *domain.MediaItem) error
	Update(ctx context.Context, item *domain.MediaItem) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.MediaItem, error)
	GetBySlug(ctx context.Context, slug string) (*domain.MediaItem, error)
	List(ctx context.Context, filter MediaFilter) ([]domain.MediaItem, error)
	Count(ctx context.Context, filter MediaFilter) (int64, error)
	SetPublished(ctx context.Context, id string, published bool, at *time.Time) error
}

type mediaRepository struct {
	pool *pgxpool.Pool
}

// NewMediaRepository instantiates repository.
func NewMediaRepository(pool *pgxpool.Pool) MediaRepository {
	return &mediaRepository{pool: pool}
}

const mediaColumns = `id, kind, title, slug, description, author_id, tier, price_cents,
               stream_url, tags, published, published_at, created_at, updated_at`

func (r *mediaRepository) Create(ctx context.Context, item *domain.MediaItem) error {
	const query = `
        INSERT INTO media_items (kind, title, slug, description, author_id, tier, price_cents, stream_url, tags, published)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		item.Kind,
		item.Title,
		item.Slug,
		item.Description,
		item.AuthorID,
		item.Tier,
		item.PriceCents,
		item.StreamURL,
		item.Tags,
		item.Published,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
}

func (r *mediaRepository) Update(ctx context.Context, item *domain.MediaItem) error {
	const query = `
        UPDATE media_items SET kind=$1, title=$2, slug=$3, description=$4, tier=$5, price_cents=$6,
            stream_url=$7, tags=$8, updated_at=NOW()
        WHERE id=$9`
	cmd, err := r.pool.Exec(ctx, query,
		item.Kind,
		item.Title,
		item.Slug,
		item.Description,
		item.Tier,
		item.PriceCents,
		item.StreamURL,
		item.Tags,
		item.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *mediaRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM media_items WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *mediaRepository) GetByID(ctx context.Context, id string) (*domain.MediaItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM media_items WHERE id=$1`, mediaColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *mediaRepository) GetBySlug(ctx context.Context, slug string) (*domain.MediaItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM media_items WHERE slug=$1`, mediaColumns)
	return r.fetchSingle(ctx, query, slug)
}

func (r *mediaRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.MediaItem, error) {
	var item domain.MediaItem
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&item.ID,
		&item.Kind,
		&item.Title,
		&item.Slug,
		&item.Description,
		&item.AuthorID,
		&item.Tier,
		&item.PriceCents,
		&item.StreamURL,
		&item.Tags,
		&item.Published,
		&item.PublishedAt,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &item, nil
}

func buildMediaWhere(filter MediaFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Kind != nil {
		args = append(args, *filter.Kind)
		clauses = append(clauses, fmt.Sprintf("kind=$%d", len(args)))
	}
	if filter.AuthorID != nil {
		args = append(args, *filter.AuthorID)
		clauses = append(clauses, fmt.Sprintf("author_id=$%d", len(args)))
	}
	if filter.Tag != nil && strings.TrimSpace(*filter.Tag) != "" {
		args = append(args, *filter.Tag)
		clauses = append(clauses, fmt.Sprintf("$%d = ANY(tags)", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}
	if filter.PublishedOnly {
		clauses = append(clauses, "published = TRUE")
	}

	return strings.Join(clauses, " AND "), args
}

func (r *mediaRepository) List(ctx context.Context, filter MediaFilter) ([]domain.MediaItem, error) {
	where, args := buildMediaWhere(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM media_items WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		mediaColumns, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMediaItems(rows)
}

// Count returns the total for the same where clause as List, independent of
// limit/offset, so paginated envelopes report the full matching size.
func (r *mediaRepository) Count(ctx context.Context, filter MediaFilter) (int64, error) {
	where, args := buildMediaWhere(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM media_items WHERE %s`, where)

	var total int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *mediaRepository) SetPublished(ctx context.Context, id string, published bool, at *time.Time) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE media_items SET published=$1, published_at=$2, updated_at=NOW() WHERE id=$3`,
		published, at, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanMediaItems(rows pgx.Rows) ([]domain.MediaItem, error) {
	var result []domain.MediaItem
	for rows.Next() {
		var item domain.MediaItem
		if err := rows.Scan(
			&item.ID,
			&item.Kind,
			&item.Title,
			&item.Slug,
			&item.Description,
			&item.AuthorID,
			&item.Tier,
			&item.PriceCents,
			&item.StreamURL,
			&item.Tags,
			&item.Published,
			&item.PublishedAt,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}
