package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/media-service/internal/auth"
	"github.com/spec-kit/media-service/internal/config"
	"github.com/spec-kit/media-service/internal/domain"
	"github.com/spec-kit/media-service/internal/events"
	"github.com/spec-kit/media-service/internal/repository"
	util "github.com/spec-kit/media-service/pkg/util/errorutil"
)

// AccountService coordinates registration, login, and session lifecycle.
type AccountService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	bcryptCost int
}

// AccountDependencies encapsulates repo requirements for the account service.
type AccountDependencies struct {
	UserRepo    repository.UserRepository
	SessionRepo repository.SessionRepository
	Dispatcher  events.Dispatcher
}

// NewAccountService builds the service.
func NewAccountService(cfg config.Config, deps AccountDependencies) *AccountService {
	return &AccountService{
		users:      deps.UserRepo,
		sessions:   deps.SessionRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL()),
		dispatcher: deps.Dispatcher,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// AuthResult bundles a user with their freshly issued session token.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Register creates a new account on the free tier and issues a session.
// A duplicate email surfaces as CONFLICT through the unique constraint.
func (s *AccountService) Register(ctx context.Context, name, email, password, userAgent, ip string) (*AuthResult, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:               name,
		Email:              email,
		PasswordHash:       hash,
		Role:               domain.RoleUser,
		SubscriptionStatus: domain.TierFree,
		Status:             domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	result, err := s.issueSession(ctx, user, userAgent, ip)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventUserRegistered, user.ID, events.UserRegisteredPayload{
		Email: user.Email,
		Name:  user.Name,
	})
	return result, nil
}

// Login authenticates by email and password and issues a session.
func (s *AccountService) Login(ctx context.Context, email, password, userAgent, ip string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if user.Status != domain.UserStatusActive {
		return nil, util.NewUnauthorized("account suspended")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, util.NewUnauthorized("invalid credentials")
	}
	return s.issueSession(ctx, user, userAgent, ip)
}

// Logout revokes the session behind the token; the JWT dies with the row.
func (s *AccountService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	return nil
}

// ChangePassword verifies the current password before updating the hash and
// revokes every other session for the account.
func (s *AccountService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return util.NewUnauthorized("invalid credentials")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	return s.sessions.DeleteByUser(ctx, userID)
}

func (s *AccountService) issueSession(ctx context.Context, user *domain.User, userAgent, ip string) (*AuthResult, error) {
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: time.Now().Add(s.tokenMgr.TTL()),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokenMgr.GenerateToken(session.ID, user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AccountService) publish(ctx context.Context, eventType events.EventType, userID string, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

// TokenManager exposes the underlying token manager for the session resolver.
func (s *AccountService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
