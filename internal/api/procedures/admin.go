package procedures

import (
	"context"
	"net/http"
	"time"

	"github.com/spec-kit/media-service/internal/domain"
	"github.com/spec-kit/media-service/internal/procedure"
	"github.com/spec-kit/media-service/internal/repository"
	"github.com/spec-kit/media-service/internal/validation"
)

// GrantResponse is the public permission grant shape.
type GrantResponse struct {
	ID        string     `json:"id"`
	Resource  string     `json:"resource"`
	Action    string     `json:"action"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func grantResponse(grant *domain.PermissionGrant) GrantResponse {
	return GrantResponse{
		ID:        grant.ID,
		Resource:  grant.Resource,
		Action:    grant.Action,
		ExpiresAt: grant.ExpiresAt,
		CreatedAt: grant.CreatedAt,
	}
}

// AdminListUsersInput payload for admin.users.list.
type AdminListUsersInput struct {
	Role   string `json:"role"`
	Search string `json:"search"`
	procedure.PageParams
}

func (in *AdminListUsersInput) Validate() error {
	issues := validation.New()
	issues.OneOf("role", in.Role, string(domain.RoleUser), string(domain.RoleAdmin))
	return issues.Err()
}

// AdminUpdateRoleInput payload for admin.users.updateRole.
type AdminUpdateRoleInput struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func (in *AdminUpdateRoleInput) Validate() error {
	issues := validation.New()
	issues.Require("user_id", in.UserID)
	issues.Require("role", in.Role)
	issues.OneOf("role", in.Role, string(domain.RoleUser), string(domain.RoleAdmin))
	return issues.Err()
}

// AdminGrantInput payload for admin.permissions.grant.
type AdminGrantInput struct {
	UserID    string     `json:"user_id"`
	Resource  string     `json:"resource"`
	Action    string     `json:"action"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (in *AdminGrantInput) Validate() error {
	issues := validation.New()
	issues.Require("user_id", in.UserID)
	issues.Require("resource", in.Resource)
	issues.Require("action", in.Action)
	if in.ExpiresAt != nil && in.ExpiresAt.Before(time.Now()) {
		issues.Add("expires_at", "must be in the future")
	}
	return issues.Err()
}

// AdminRevokeInput payload for admin.permissions.revoke.
type AdminRevokeInput struct {
	UserID   string `json:"user_id"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

func (in *AdminRevokeInput) Validate() error {
	issues := validation.New()
	issues.Require("user_id", in.UserID)
	issues.Require("resource", in.Resource)
	issues.Require("action", in.Action)
	return issues.Err()
}

// AdminListGrantsInput payload for admin.permissions.list.
type AdminListGrantsInput struct {
	UserID string `json:"user_id"`
}

func (in *AdminListGrantsInput) Validate() error {
	issues := validation.New()
	issues.Require("user_id", in.UserID)
	return issues.Err()
}

func registerAdmin(router *procedure.Router, deps Dependencies) {
	adminOnly := []procedure.Guard{
		procedure.WithAuth(deps.Resolver),
		procedure.RequireAdmin(),
	}

	router.Register(&procedure.Procedure{
		Name:   "admin.users.list",
		Guards: adminOnly,
		Input:  func() any { return &AdminListUsersInput{} },
		Handler: func(ctx context.Context, call procedure.Call, input any) (any, error) {
			in := input.(*AdminListUsersInput)
			params := in.PageParams.Normalize()

			filter := repository.UserFilter{
				Limit:  params.Limit,
				Offset: params.Offset(),
			}
			if in.Role != "" {
				role := domain.Role(in.Role)
				filter.Role = &role
			}
			if in.Search != "" {
				filter.SearchTerm = &in.Search
			}

			users, total, err := deps.Admin.ListUsers(ctx, filter)
			if err != nil {
				return nil, err
			}
			responses := make([]UserResponse, 0, len(users))
			for i := range users {
				responses = append(responses, userResponse(&users[i]))
			}
			return procedure.NewPage(responses, params.Page, params.Limit, total), nil
		},
	})

	router.Register(&procedure.Procedure{
		Name:           "admin.users.updateRole",
		Guards:         adminOnly,
		Input:          func() any { return &AdminUpdateRoleInput{} },
		SuccessMessage: "role updated",
		Handler: func(ctx context.Context, call procedure.Call, input any) (any, error) {
			in := input.(*AdminUpdateRoleInput)
			return nil, deps.Admin.UpdateRole(ctx, in.UserID, domain.Role(in.Role))
		},
	})

	router.Register(&procedure.Procedure{
		Name:          "admin.permissions.grant",
		Guards:        adminOnly,
		Input:         func() any { return &AdminGrantInput{} },
		SuccessStatus: http.StatusCreated,
		Handler: func(ctx context.Context, call procedure.Call, input any) (any, error) {
			in := input.(*AdminGrantInput)
			grant, err := deps.Admin.GrantPermission(ctx, in.UserID, in.Resource, in.Action, in.ExpiresAt)
			if err != nil {
				return nil, err
			}
			return grantResponse(grant), nil
		},
	})

	router.Register(&procedure.Procedure{
		Name:           "admin.permissions.revoke",
		Guards:         adminOnly,
		Input:          func() any { return &AdminRevokeInput{} },
		SuccessMessage: "revoked",
		Handler: func(ctx context.Context, call procedure.Call, input any) (any, error) {
			in := input.(*AdminRevokeInput)
			return nil, deps.Admin.RevokePermission(ctx, in.UserID, in.Resource, in.Action)
		},
	})

	// Grant inspection is available to admins and to holders of an
	// explicit permissions:read grant.
	router.Register(&procedure.Procedure{
		Name: "admin.permissions.list",
		Guards: []procedure.Guard{
			procedure.WithAuth(deps.Resolver),
			procedure.RequirePermission(deps.Permissions, "permissions", "read"),
		},
		Input: func() any { return &AdminListGrantsInput{} },
		Handler: func(ctx context.Context, call procedure.Call, input any) (any, error) {
			in := input.(*AdminListGrantsInput)
			grants, err := deps.Admin.ListPermissions(ctx, in.UserID)
			if err != nil {
				return nil, err
			}
			responses := make([]GrantResponse, 0, len(grants))
			for i := range grants {
				responses = append(responses, grantResponse(&grants[i]))
			}
			return responses, nil
		},
	})
}
