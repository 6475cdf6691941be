package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/media-service/internal/domain"
)

// OrderRepository persists checkout records.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
}

type orderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository instantiates repository.
func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &orderRepository{pool: pool}
}

// Create inserts the order and its items in one transaction.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const orderQuery = `
        INSERT INTO orders (user_id, status, total_cents, provider_ref)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, orderQuery,
		order.UserID,
		order.Status,
		order.TotalCents,
		order.ProviderRef,
	).Scan(&order.ID, &order.CreatedAt); err != nil {
		return err
	}

	const itemQuery = `
        INSERT INTO order_items (order_id, media_id, title, price_cents)
        VALUES ($1, $2, $3, $4)
        RETURNING id`
	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		if err := tx.QueryRow(ctx, itemQuery,
			item.OrderID,
			item.MediaID,
			item.Title,
			item.PriceCents,
		).Scan(&item.ID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	const query = `
        SELECT id, user_id, status, total_cents, provider_ref, created_at
        FROM orders WHERE id=$1`

	var order domain.Order
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&order.ID,
		&order.UserID,
		&order.Status,
		&order.TotalCents,
		&order.ProviderRef,
		&order.CreatedAt,
	); err != nil {
		return nil, err
	}

	items, err := r.listItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const query = `
        SELECT id, user_id, status, total_cents, provider_ref, created_at
        FROM orders WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.Status,
			&order.TotalCents,
			&order.ProviderRef,
			&order.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		items, err := r.listItems(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Items = items
	}
	return result, nil
}

func (r *orderRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE user_id=$1`, userID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *orderRepository) listItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	const query = `
        SELECT id, order_id, media_id, title, price_cents
        FROM order_items WHERE order_id=$1`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.MediaID,
			&item.Title,
			&item.PriceCents,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
