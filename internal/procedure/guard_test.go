package procedure

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/media-service/internal/auth"
	"github.com/spec-kit/media-service/internal/domain"
	util "github.com/spec-kit/media-service/pkg/util/errorutil"
)

type fakeResolver struct {
	principal *auth.Principal
	err       error
}

func (f *fakeResolver) Resolve(ctx context.Context, token string) (*auth.Principal, error) {
	if f.err != nil {
		return nil, f.err
	}
	if token == "" {
		return nil, nil
	}
	return f.principal, nil
}

type fakePermissionStore struct {
	grants map[string]bool
	err    error
	calls  int
}

func (f *fakePermissionStore) HasPermission(ctx context.Context, userID string, role domain.Role, resource, action string) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.grants[resource+":"+action], nil
}

type fakeLimiter struct {
	allowed bool
	err     error
	lastKey string
}

func (f *fakeLimiter) Allow(ctx context.Context, key string) (bool, error) {
	f.lastKey = key
	if f.err != nil {
		return true, f.err
	}
	return f.allowed, nil
}

func principalFor(role domain.Role, tier domain.SubscriptionTier) *auth.Principal {
	return &auth.Principal{
		User: &domain.User{
			ID:                 "user-1",
			Role:               role,
			SubscriptionStatus: tier,
			Status:             domain.UserStatusActive,
		},
		Session: &domain.Session{ID: "session-1", UserID: "user-1"},
	}
}

func authedCall(role domain.Role, tier domain.SubscriptionTier) Call {
	return newCall(Request{Name: "test.op", Token: "token"}).WithPrincipal(principalFor(role, tier))
}

func requireAppError(t *testing.T, err error, code util.Code, status int) *util.AppError {
	t.Helper()
	var appErr *util.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
	assert.Equal(t, status, appErr.Status)
	return appErr
}

func TestWithAuth(t *testing.T) {
	t.Run("no token fails unauthorized", func(t *testing.T) {
		guard := WithAuth(&fakeResolver{principal: principalFor(domain.RoleUser, domain.TierFree)})

		_, err := guard(context.Background(), newCall(Request{Name: "test.op"}))
		requireAppError(t, err, util.CodeUnauthorized, http.StatusUnauthorized)
	})

	t.Run("valid token attaches principal", func(t *testing.T) {
		guard := WithAuth(&fakeResolver{principal: principalFor(domain.RoleUser, domain.TierFree)})

		call, err := guard(context.Background(), newCall(Request{Name: "test.op", Token: "token"}))
		require.NoError(t, err)
		assert.True(t, call.Authenticated())
		assert.Equal(t, "user-1", call.User().ID)
		assert.Equal(t, "session-1", call.Session().ID)
	})

	t.Run("resolver failure propagates", func(t *testing.T) {
		lookupErr := errors.New("session store down")
		guard := WithAuth(&fakeResolver{err: lookupErr})

		_, err := guard(context.Background(), newCall(Request{Name: "test.op", Token: "token"}))
		assert.ErrorIs(t, err, lookupErr)
	})

	t.Run("original call stays untouched", func(t *testing.T) {
		guard := WithAuth(&fakeResolver{principal: principalFor(domain.RoleUser, domain.TierFree)})
		original := newCall(Request{Name: "test.op", Token: "token"})

		augmented, err := guard(context.Background(), original)
		require.NoError(t, err)
		assert.True(t, augmented.Authenticated())
		assert.False(t, original.Authenticated())
	})
}

func TestWithOptionalAuth(t *testing.T) {
	guard := WithOptionalAuth(&fakeResolver{principal: principalFor(domain.RoleAdmin, domain.TierPro)})

	call, err := guard(context.Background(), newCall(Request{Name: "test.op"}))
	require.NoError(t, err)
	assert.False(t, call.Authenticated())

	call, err = guard(context.Background(), newCall(Request{Name: "test.op", Token: "token"}))
	require.NoError(t, err)
	assert.True(t, call.Authenticated())
}

func TestRequireRoles(t *testing.T) {
	guard := RequireRoles(domain.RoleAdmin)

	t.Run("unauthenticated fails unauthorized", func(t *testing.T) {
		_, err := guard(context.Background(), newCall(Request{Name: "test.op"}))
		requireAppError(t, err, util.CodeUnauthorized, http.StatusUnauthorized)
	})

	t.Run("wrong role fails forbidden", func(t *testing.T) {
		_, err := guard(context.Background(), authedCall(domain.RoleUser, domain.TierFree))
		requireAppError(t, err, util.CodeForbidden, http.StatusForbidden)
	})

	t.Run("matching role proceeds", func(t *testing.T) {
		_, err := guard(context.Background(), authedCall(domain.RoleAdmin, domain.TierFree))
		assert.NoError(t, err)
	})
}

func TestRequireSubscription(t *testing.T) {
	guard := RequireSubscription(domain.TierPro)

	t.Run("free tier carries upgrade hint", func(t *testing.T) {
		_, err := guard(context.Background(), authedCall(domain.RoleUser, domain.TierFree))
		appErr := requireAppError(t, err, util.CodeSubscriptionRequired, http.StatusForbidden)
		assert.Equal(t, "pro", appErr.Data["required"])
		assert.Equal(t, true, appErr.Data["upgrade"])
	})

	t.Run("matching tier proceeds", func(t *testing.T) {
		_, err := guard(context.Background(), authedCall(domain.RoleUser, domain.TierPro))
		assert.NoError(t, err)
	})

	t.Run("any of several tiers suffices", func(t *testing.T) {
		multi := RequireSubscription(domain.TierBasic, domain.TierPro)
		_, err := multi(context.Background(), authedCall(domain.RoleUser, domain.TierBasic))
		assert.NoError(t, err)
	})
}

func TestRequirePermission(t *testing.T) {
	t.Run("granted proceeds", func(t *testing.T) {
		store := &fakePermissionStore{grants: map[string]bool{"media:create": true}}
		guard := RequirePermission(store, "media", "create")

		_, err := guard(context.Background(), authedCall(domain.RoleUser, domain.TierFree))
		assert.NoError(t, err)
		assert.Equal(t, 1, store.calls)
	})

	t.Run("missing grant fails forbidden", func(t *testing.T) {
		store := &fakePermissionStore{grants: map[string]bool{}}
		guard := RequirePermission(store, "media", "create")

		_, err := guard(context.Background(), authedCall(domain.RoleUser, domain.TierFree))
		requireAppError(t, err, util.CodeForbidden, http.StatusForbidden)
	})

	t.Run("store failure propagates", func(t *testing.T) {
		lookupErr := errors.New("permission lookup failed")
		guard := RequirePermission(&fakePermissionStore{err: lookupErr}, "media", "create")

		_, err := guard(context.Background(), authedCall(domain.RoleUser, domain.TierFree))
		assert.ErrorIs(t, err, lookupErr)
	})
}

// expiringPermissionStore honors grant expiry the way the SQL lookup does.
type expiringPermissionStore struct {
	grants map[string]*time.Time
}

func (s *expiringPermissionStore) HasPermission(ctx context.Context, userID string, role domain.Role, resource, action string) (bool, error) {
	expiresAt, ok := s.grants[resource+":"+action]
	if !ok {
		return false, nil
	}
	return expiresAt == nil || expiresAt.After(time.Now()), nil
}

func TestRequirePermissionExpiry(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	store := &expiringPermissionStore{grants: map[string]*time.Time{
		"media:create": nil,
		"media:update": &future,
		"media:delete": &past,
	}}

	tests := []struct {
		name    string
		action  string
		allowed bool
	}{
		{"no expiry satisfies", "create", true},
		{"future expiry satisfies", "update", true},
		{"past expiry does not satisfy", "delete", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard := RequirePermission(store, "media", tt.action)
			_, err := guard(context.Background(), authedCall(domain.RoleUser, domain.TierFree))
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				requireAppError(t, err, util.CodeForbidden, http.StatusForbidden)
			}
		})
	}
}

func TestRequireAnyPolicy(t *testing.T) {
	req := Requirement{
		Mode:       PolicyAny,
		Roles:      []domain.Role{domain.RoleAdmin},
		Permission: &PermissionRef{Resource: "media", Action: "create"},
	}

	t.Run("admin passes without permission lookup", func(t *testing.T) {
		store := &fakePermissionStore{}
		guard := Require(&fakeResolver{principal: principalFor(domain.RoleAdmin, domain.TierFree)}, store, req)

		_, err := guard(context.Background(), newCall(Request{Name: "test.op", Token: "token"}))
		require.NoError(t, err)
		assert.Equal(t, 0, store.calls)
	})

	t.Run("non-admin with grant passes", func(t *testing.T) {
		store := &fakePermissionStore{grants: map[string]bool{"media:create": true}}
		guard := Require(&fakeResolver{principal: principalFor(domain.RoleUser, domain.TierFree)}, store, req)

		_, err := guard(context.Background(), newCall(Request{Name: "test.op", Token: "token"}))
		assert.NoError(t, err)
	})

	t.Run("non-admin without grant fails forbidden", func(t *testing.T) {
		store := &fakePermissionStore{grants: map[string]bool{}}
		guard := Require(&fakeResolver{principal: principalFor(domain.RoleUser, domain.TierFree)}, store, req)

		_, err := guard(context.Background(), newCall(Request{Name: "test.op", Token: "token"}))
		requireAppError(t, err, util.CodeForbidden, http.StatusForbidden)
	})

	t.Run("anonymous fails unauthorized", func(t *testing.T) {
		guard := Require(&fakeResolver{}, &fakePermissionStore{}, req)

		_, err := guard(context.Background(), newCall(Request{Name: "test.op"}))
		requireAppError(t, err, util.CodeUnauthorized, http.StatusUnauthorized)
	})
}

func TestRequireAllPolicy(t *testing.T) {
	req := Requirement{
		Mode:  PolicyAll,
		Roles: []domain.Role{domain.RoleUser},
		Tiers: []domain.SubscriptionTier{domain.TierPro},
	}

	t.Run("all checks pass", func(t *testing.T) {
		guard := Require(&fakeResolver{principal: principalFor(domain.RoleUser, domain.TierPro)}, &fakePermissionStore{}, req)

		_, err := guard(context.Background(), newCall(Request{Name: "test.op", Token: "token"}))
		assert.NoError(t, err)
	})

	t.Run("tier failure carries upgrade hint", func(t *testing.T) {
		guard := Require(&fakeResolver{principal: principalFor(domain.RoleUser, domain.TierFree)}, &fakePermissionStore{}, req)

		_, err := guard(context.Background(), newCall(Request{Name: "test.op", Token: "token"}))
		appErr := requireAppError(t, err, util.CodeSubscriptionRequired, http.StatusForbidden)
		assert.Equal(t, "pro", appErr.Data["required"])
	})

	t.Run("role failure fails forbidden", func(t *testing.T) {
		adminOnly := Requirement{Mode: PolicyAll, Roles: []domain.Role{domain.RoleAdmin}}
		guard := Require(&fakeResolver{principal: principalFor(domain.RoleUser, domain.TierPro)}, &fakePermissionStore{}, adminOnly)

		_, err := guard(context.Background(), newCall(Request{Name: "test.op", Token: "token"}))
		requireAppError(t, err, util.CodeForbidden, http.StatusForbidden)
	})
}

func TestRequireNoChecksAdmitsAuthenticated(t *testing.T) {
	guard := Require(&fakeResolver{principal: principalFor(domain.RoleUser, domain.TierFree)}, &fakePermissionStore{}, Requirement{Mode: PolicyAll})

	call, err := guard(context.Background(), newCall(Request{Name: "test.op", Token: "token"}))
	require.NoError(t, err)
	assert.True(t, call.Authenticated())
}

func TestRequireKeepsExistingPrincipal(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("must not resolve again")}
	guard := Require(resolver, &fakePermissionStore{}, Requirement{Mode: PolicyAll, Roles: []domain.Role{domain.RoleAdmin}})

	_, err := guard(context.Background(), authedCall(domain.RoleAdmin, domain.TierFree))
	assert.NoError(t, err)
}

func TestRateLimit(t *testing.T) {
	t.Run("allowed proceeds", func(t *testing.T) {
		limiter := &fakeLimiter{allowed: true}
		guard := RateLimit(limiter, "login")

		_, err := guard(context.Background(), newCall(Request{Name: "account.login", RemoteIP: "10.0.0.7"}))
		require.NoError(t, err)
		assert.Equal(t, "login:10.0.0.7", limiter.lastKey)
	})

	t.Run("breach fails rate limited", func(t *testing.T) {
		guard := RateLimit(&fakeLimiter{allowed: false}, "login")

		_, err := guard(context.Background(), newCall(Request{Name: "account.login", RemoteIP: "10.0.0.7"}))
		requireAppError(t, err, util.CodeRateLimited, http.StatusTooManyRequests)
	})

	t.Run("backend failure fails open", func(t *testing.T) {
		guard := RateLimit(&fakeLimiter{err: errors.New("redis down")}, "login")

		_, err := guard(context.Background(), newCall(Request{Name: "account.login", RemoteIP: "10.0.0.7"}))
		assert.NoError(t, err)
	})

	t.Run("nil limiter disables the guard", func(t *testing.T) {
		guard := RateLimit(nil, "login")

		_, err := guard(context.Background(), newCall(Request{Name: "account.login", RemoteIP: "10.0.0.7"}))
		assert.NoError(t, err)
	})
}
