package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/media-service/internal/domain"
)

// PermissionRepository persists direct and role-inherited permission grants.
type PermissionRepository interface {
	GrantUser(ctx context.Context, grant *domain.PermissionGrant) error
	RevokeUser(ctx context.Context, userID, resource, action string) error
	ListForUser(ctx context.Context, userID string) ([]domain.PermissionGrant, error)
	HasPermission(ctx context.Context, userID string, role domain.Role, resource, action string) (bool, error)
}

type permissionRepository struct {
	pool *pgxpool.Pool
}

// NewPermissionRepository returns a Postgres-backed implementation.
func NewPermissionRepository(pool *pgxpool.Pool) PermissionRepository {
	return &permissionRepository{pool: pool}
}

func (r *permissionRepository) GrantUser(ctx context.Context, grant *domain.PermissionGrant) error {
	const query = `
        INSERT INTO user_permissions (user_id, resource, action, expires_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id, resource, action) DO UPDATE SET expires_at=EXCLUDED.expires_at
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		grant.UserID,
		grant.Resource,
		grant.Action,
		grant.ExpiresAt,
	).Scan(&grant.ID, &grant.CreatedAt)
}

func (r *permissionRepository) RevokeUser(ctx context.Context, userID, resource, action string) error {
	cmd, err := r.pool.Exec(ctx,
		`DELETE FROM user_permissions WHERE user_id=$1 AND resource=$2 AND action=$3`,
		userID, resource, action)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *permissionRepository) ListForUser(ctx context.Context, userID string) ([]domain.PermissionGrant, error) {
	const query = `
        SELECT id, user_id, resource, action, expires_at, created_at
        FROM user_permissions WHERE user_id=$1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.PermissionGrant
	for rows.Next() {
		var grant domain.PermissionGrant
		if err := rows.Scan(
			&grant.ID,
			&grant.UserID,
			&grant.Resource,
			&grant.Action,
			&grant.ExpiresAt,
			&grant.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, grant)
	}
	return result, rows.Err()
}

// HasPermission reports whether a direct grant or a role-inherited grant
// covers the resource/action pair. Expired grants never satisfy the check.
func (r *permissionRepository) HasPermission(ctx context.Context, userID string, role domain.Role, resource, action string) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM user_permissions
            WHERE user_id=$1 AND resource=$3 AND action=$4
              AND (expires_at IS NULL OR expires_at > NOW())
        ) OR EXISTS (
            SELECT 1 FROM role_permissions
            WHERE role=$2 AND resource=$3 AND action=$4
              AND (expires_at IS NULL OR expires_at > NOW())
        )`

	var allowed bool
	if err := r.pool.QueryRow(ctx, query, userID, role, resource, action).Scan(&allowed); err != nil {
		return false, err
	}
	return allowed, nil
}
