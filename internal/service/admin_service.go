package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/media-service/internal/domain"
	"github.com/spec-kit/media-service/internal/repository"
	util "github.com/spec-kit/media-service/pkg/util/errorutil"
)

// AdminService backs the dashboard's user and permission management.
type AdminService struct {
	users       repository.UserRepository
	permissions repository.PermissionRepository
	sessions    repository.SessionRepository
}

// NewAdminService builds the service.
func NewAdminService(users repository.UserRepository, permissions repository.PermissionRepository, sessions repository.SessionRepository) *AdminService {
	return &AdminService{users: users, permissions: permissions, sessions: sessions}
}

// ListUsers returns a page of accounts plus the filter-scoped total.
func (s *AdminService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]domain.User, int64, error) {
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.users.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// UpdateRole changes an account's role and revokes its sessions so the new
// role takes effect on the next login.
func (s *AdminService) UpdateRole(ctx context.Context, userID string, role domain.Role) error {
	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return util.NewNotFound("user")
		}
		return err
	}
	return s.sessions.DeleteByUser(ctx, userID)
}

// GrantPermission gives a user a resource/action grant, optionally expiring.
func (s *AdminService) GrantPermission(ctx context.Context, userID, resource, action string, expiresAt *time.Time) (*domain.PermissionGrant, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("user")
		}
		return nil, err
	}

	grant := &domain.PermissionGrant{
		UserID:    &userID,
		Resource:  resource,
		Action:    action,
		ExpiresAt: expiresAt,
	}
	if err := s.permissions.GrantUser(ctx, grant); err != nil {
		return nil, err
	}
	return grant, nil
}

// RevokePermission removes a direct grant.
func (s *AdminService) RevokePermission(ctx context.Context, userID, resource, action string) error {
	if err := s.permissions.RevokeUser(ctx, userID, resource, action); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return util.NewNotFound("permission grant")
		}
		return err
	}
	return nil
}

// ListPermissions returns a user's direct grants.
func (s *AdminService) ListPermissions(ctx context.Context, userID string) ([]domain.PermissionGrant, error) {
	return s.permissions.ListForUser(ctx, userID)
}
