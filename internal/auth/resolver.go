package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/media-service/internal/domain"
	"github.com/spec-kit/media-service/internal/repository"
)

// Principal is a resolved session: the account plus the session record it
// was issued under.
type Principal struct {
	User    *domain.User
	Session *domain.Session
}

// Resolver turns a bearer token into a Principal. Absence of a valid
// session is (nil, nil); a non-nil error means the lookup itself failed.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*Principal, error)
}

// SessionResolver resolves tokens against the session and user stores.
// Every call hits the database; authorization is never cached across calls.
type SessionResolver struct {
	tokens   *TokenManager
	sessions repository.SessionRepository
	users    repository.UserRepository
}

// NewSessionResolver constructs the resolver.
func NewSessionResolver(tokens *TokenManager, sessions repository.SessionRepository, users repository.UserRepository) *SessionResolver {
	return &SessionResolver{tokens: tokens, sessions: sessions, users: users}
}

// Resolve looks up the session behind the token. Missing, malformed,
// expired, or revoked tokens all resolve to (nil, nil); only a failing
// lookup propagates an error.
func (r *SessionResolver) Resolve(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, nil
	}

	claims, err := r.tokens.ParseToken(token)
	if err != nil {
		return nil, nil
	}

	session, err := r.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if session.Expired(time.Now()) || session.UserID != claims.UserID {
		return nil, nil
	}

	user, err := r.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if user.Status != domain.UserStatusActive {
		return nil, nil
	}

	return &Principal{User: user, Session: session}, nil
}
