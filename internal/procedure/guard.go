package procedure

import (
	"context"

	"github.com/spec-kit/media-service/internal/auth"
	"github.com/spec-kit/media-service/internal/domain"
	util "github.com/spec-kit/media-service/pkg/util/errorutil"
)

// Guard is one authorization step. A guard either returns the (possibly
// augmented) call for the rest of the chain, or an error that stops the
// dispatch before the handler runs.
type Guard func(ctx context.Context, call Call) (Call, error)

// PermissionStore answers resource/action permission checks for a user,
// considering both direct and role-inherited grants and their expiry.
type PermissionStore interface {
	HasPermission(ctx context.Context, userID string, role domain.Role, resource, action string) (bool, error)
}

// RateLimiter answers whether one more hit is allowed under the key.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// WithAuth resolves the session and attaches it to the call. Absent or
// invalid sessions stop the chain with UNAUTHORIZED.
func WithAuth(resolver auth.Resolver) Guard {
	return func(ctx context.Context, call Call) (Call, error) {
		principal, err := resolver.Resolve(ctx, call.Token())
		if err != nil {
			return call, err
		}
		if principal == nil {
			return call, util.NewUnauthorized("authentication required")
		}
		return call.WithPrincipal(principal), nil
	}
}

// WithOptionalAuth attaches a principal when the token resolves but lets
// anonymous calls through. Handlers use it for endpoints whose response
// widens for privileged viewers.
func WithOptionalAuth(resolver auth.Resolver) Guard {
	return func(ctx context.Context, call Call) (Call, error) {
		principal, err := resolver.Resolve(ctx, call.Token())
		if err != nil {
			return call, err
		}
		if principal == nil {
			return call, nil
		}
		return call.WithPrincipal(principal), nil
	}
}

// RequireRoles allows only the listed roles. It expects WithAuth earlier in
// the chain; an unauthenticated call fails with UNAUTHORIZED.
func RequireRoles(roles ...domain.Role) Guard {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(ctx context.Context, call Call) (Call, error) {
		if !call.Authenticated() {
			return call, util.NewUnauthorized("authentication required")
		}
		if len(allowed) == 0 {
			return call, nil
		}
		if _, ok := allowed[call.User().Role]; !ok {
			return call, util.NewForbidden("insufficient role")
		}
		return call, nil
	}
}

// RequireAdmin is RequireRoles fixed to the admin role.
func RequireAdmin() Guard {
	return RequireRoles(domain.RoleAdmin)
}

// RequireSubscription allows only the listed tiers. This is a policy check
// over the already-resolved principal; it never re-resolves the session.
// The failure carries the lowest satisfying tier so clients can route to
// the upgrade flow.
func RequireSubscription(tiers ...domain.SubscriptionTier) Guard {
	allowed := make(map[domain.SubscriptionTier]struct{}, len(tiers))
	for _, tier := range tiers {
		allowed[tier] = struct{}{}
	}

	return func(ctx context.Context, call Call) (Call, error) {
		if !call.Authenticated() {
			return call, util.NewUnauthorized("authentication required")
		}
		if len(allowed) == 0 {
			return call, nil
		}
		if _, ok := allowed[call.User().SubscriptionStatus]; !ok {
			return call, util.NewSubscriptionRequired(string(tiers[0]))
		}
		return call, nil
	}
}

// RequirePermission checks a direct or role-inherited grant for the
// resource/action pair. Expired grants never satisfy the check.
func RequirePermission(store PermissionStore, resource, action string) Guard {
	return func(ctx context.Context, call Call) (Call, error) {
		if !call.Authenticated() {
			return call, util.NewUnauthorized("authentication required")
		}
		user := call.User()
		allowed, err := store.HasPermission(ctx, user.ID, user.Role, resource, action)
		if err != nil {
			return call, err
		}
		if !allowed {
			return call, util.NewForbidden("permission denied")
		}
		return call, nil
	}
}

// PolicyMode selects how a Requirement combines its checks.
type PolicyMode string

const (
	// PolicyAll passes only when every declared check passes.
	PolicyAll PolicyMode = "all"
	// PolicyAny passes as soon as one declared check passes.
	PolicyAny PolicyMode = "any"
)

// PermissionRef names a resource/action pair inside a Requirement.
type PermissionRef struct {
	Resource string
	Action   string
}

// Requirement is a declarative authorization policy. The combination
// semantics are an explicit property of the value, not an artifact of guard
// ordering: PolicyAny means any satisfied check admits the caller.
type Requirement struct {
	Mode       PolicyMode
	Roles      []domain.Role
	Permission *PermissionRef
	Tiers      []domain.SubscriptionTier
}

// Require evaluates a Requirement. Unlike the single-purpose guards it
// resolves the session itself when no principal is attached yet, so it can
// stand alone at the head of a chain. An unauthenticated caller always
// fails with UNAUTHORIZED; a requirement with no checks admits any
// authenticated caller.
func Require(resolver auth.Resolver, store PermissionStore, req Requirement) Guard {
	return func(ctx context.Context, call Call) (Call, error) {
		if !call.Authenticated() {
			principal, err := resolver.Resolve(ctx, call.Token())
			if err != nil {
				return call, err
			}
			if principal == nil {
				return call, util.NewUnauthorized("authentication required")
			}
			call = call.WithPrincipal(principal)
		}

		user := call.User()
		checks := 0
		passed := 0

		if len(req.Roles) > 0 {
			checks++
			for _, role := range req.Roles {
				if user.Role == role {
					passed++
					break
				}
			}
			if req.Mode == PolicyAny && passed > 0 {
				return call, nil
			}
		}

		if req.Permission != nil {
			checks++
			allowed, err := store.HasPermission(ctx, user.ID, user.Role, req.Permission.Resource, req.Permission.Action)
			if err != nil {
				return call, err
			}
			if allowed {
				passed++
				if req.Mode == PolicyAny {
					return call, nil
				}
			}
		}

		if len(req.Tiers) > 0 {
			checks++
			satisfied := false
			for _, tier := range req.Tiers {
				if user.SubscriptionStatus == tier {
					satisfied = true
					break
				}
			}
			if satisfied {
				passed++
				if req.Mode == PolicyAny {
					return call, nil
				}
			} else if req.Mode == PolicyAll {
				return call, util.NewSubscriptionRequired(string(req.Tiers[0]))
			}
		}

		if checks == 0 {
			return call, nil
		}
		if req.Mode == PolicyAny {
			return call, util.NewForbidden("access denied")
		}
		if passed < checks {
			return call, util.NewForbidden("access denied")
		}
		return call, nil
	}
}

// RateLimit applies a fixed-window limit keyed by scope and caller address.
// A failing limiter backend fails open; availability outranks strictness
// for this guard.
func RateLimit(limiter RateLimiter, scope string) Guard {
	return func(ctx context.Context, call Call) (Call, error) {
		if limiter == nil {
			return call, nil
		}
		allowed, err := limiter.Allow(ctx, scope+":"+call.RemoteIP())
		if err != nil {
			return call, nil
		}
		if !allowed {
			return call, util.NewRateLimited("too many requests")
		}
		return call, nil
	}
}
