package procedure

import (
	"encoding/json"

	"github.com/spec-kit/media-service/internal/auth"
	"github.com/spec-kit/media-service/internal/domain"
)

// Request is one inbound procedure invocation as handed over by the
// transport layer.
type Request struct {
	Name      string
	Token     string
	RemoteIP  string
	UserAgent string
	Payload   json.RawMessage
}

// Call carries per-dispatch state through the guard chain. It is passed by
// value and never mutated in place; guards that add state return an
// augmented copy, so nothing leaks between concurrent dispatches.
type Call struct {
	name      string
	token     string
	remoteIP  string
	userAgent string
	principal *auth.Principal
}

func newCall(req Request) Call {
	return Call{name: req.Name, token: req.Token, remoteIP: req.RemoteIP, userAgent: req.UserAgent}
}

// Name returns the dotted procedure name being dispatched.
func (c Call) Name() string {
	return c.name
}

// Token returns the raw bearer token, which may be empty.
func (c Call) Token() string {
	return c.token
}

// RemoteIP returns the caller address reported by the transport.
func (c Call) RemoteIP() string {
	return c.remoteIP
}

// UserAgent returns the caller's user agent string.
func (c Call) UserAgent() string {
	return c.userAgent
}

// Principal returns the resolved session, or nil before WithAuth ran.
func (c Call) Principal() *auth.Principal {
	return c.principal
}

// User is a convenience accessor for the authenticated account.
func (c Call) User() *domain.User {
	if c.principal == nil {
		return nil
	}
	return c.principal.User
}

// Session is a convenience accessor for the session record.
func (c Call) Session() *domain.Session {
	if c.principal == nil {
		return nil
	}
	return c.principal.Session
}

// Authenticated reports whether a principal has been attached.
func (c Call) Authenticated() bool {
	return c.principal != nil && c.principal.User != nil
}

// WithPrincipal returns a copy of the call carrying the principal.
func (c Call) WithPrincipal(principal *auth.Principal) Call {
	c.principal = principal
	return c
}
