package procedures

import (
	"context"
	"net/http"
	"time"

	"github.com/spec-kit/media-service/internal/domain"
	"github.com/spec-kit/media-service/internal/procedure"
	"github.com/spec-kit/media-service/internal/validation"
)

// UserResponse is the public account shape.
type UserResponse struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	Role               string `json:"role"`
	SubscriptionStatus string `json:"subscription_status"`
	EmailVerified      bool   `json:"email_verified"`
}

func userResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:                 user.ID,
		Name:               user.Name,
		Email:              user.Email,
		Role:               string(user.Role),
		SubscriptionStatus: string(user.SubscriptionStatus),
		EmailVerified:      user.EmailVerified,
	}
}

// AuthResponse carries the session token alongside the account.
type AuthResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// RegisterInput payload for account.register.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in *RegisterInput) Validate() error {
	issues := validation.New()
	issues.Require("name", in.Name)
	issues.MaxLen("name", in.Name, 120)
	issues.Require("email", in.Email)
	issues.Require("password", in.Password)
	issues.MinLen("password", in.Password, 8)
	return issues.Err()
}

// LoginInput payload for account.login.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in *LoginInput) Validate() error {
	issues := validation.New()
	issues.Require("email", in.Email)
	issues.Require("password", in.Password)
	return issues.Err()
}

// ChangePasswordInput payload for account.changePassword.
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (in *ChangePasswordInput) Validate() error {
	issues := validation.New()
	issues.Require("current_password", in.CurrentPassword)
	issues.Require("new_password", in.NewPassword)
	issues.MinLen("new_password", in.NewPassword, 8)
	return issues.Err()
}

func registerAccount(router *procedure.Router, deps Dependencies) {
	router.Register(&procedure.Procedure{
		Name:          "account.register",
		Guards:        []procedure.Guard{procedure.RateLimit(deps.Limiter, "register")},
		Input:         func() any { return &RegisterInput{} },
		SuccessStatus: http.StatusCreated,
		Handler: func(ctx context.Context, call procedure.Call, input any) (any, error) {
			in := input.(*RegisterInput)
			result, err := deps.Accounts.Register(ctx, in.Name, in.Email, in.Password, call.UserAgent(), call.RemoteIP())
			if err != nil {
				return nil, err
			}
			return AuthResponse{
				User:      userResponse(result.User),
				Token:     result.Token,
				ExpiresAt: result.ExpiresAt,
			}, nil
		},
	})

	router.Register(&procedure.Procedure{
		Name:   "account.login",
		Guards: []procedure.Guard{procedure.RateLimit(deps.Limiter, "login")},
		Input:  func() any { return &LoginInput{} },
		Handler: func(ctx context.Context, call procedure.Call, input any) (any, error) {
			in := input.(*LoginInput)
			result, err := deps.Accounts.Login(ctx, in.Email, in.Password, call.UserAgent(), call.RemoteIP())
			if err != nil {
				return nil, err
			}
			return AuthResponse{
				User:      userResponse(result.User),
				Token:     result.Token,
				ExpiresAt: result.ExpiresAt,
			}, nil
		},
	})

	router.Register(&procedure.Procedure{
		Name:           "account.logout",
		Guards:         []procedure.Guard{procedure.WithAuth(deps.Resolver)},
		SuccessMessage: "logged out",
		Handler: func(ctx context.Context, call procedure.Call, _ any) (any, error) {
			return nil, deps.Accounts.Logout(ctx, call.Session().ID)
		},
	})

	router.Register(&procedure.Procedure{
		Name:   "account.me",
		Guards: []procedure.Guard{procedure.WithAuth(deps.Resolver)},
		Handler: func(ctx context.Context, call procedure.Call, _ any) (any, error) {
			return userResponse(call.User()), nil
		},
	})

	router.Register(&procedure.Procedure{
		Name:           "account.changePassword",
		Guards:         []procedure.Guard{procedure.WithAuth(deps.Resolver)},
		Input:          func() any { return &ChangePasswordInput{} },
		SuccessMessage: "password changed",
		Handler: func(ctx context.Context, call procedure.Call, input any) (any, error) {
			in := input.(*ChangePasswordInput)
			return nil, deps.Accounts.ChangePassword(ctx, call.User().ID, in.CurrentPassword, in.NewPassword)
		},
	})
}
