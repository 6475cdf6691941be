package procedure

import (
	"context"
	"fmt"
	"sort"

	util "github.com/spec-kit/media-service/pkg/util/errorutil"
)

// Router maps dotted procedure names to procedures. Registration happens at
// startup; after Seal the set is immutable and safe for concurrent dispatch.
type Router struct {
	procedures map[string]*Procedure
	sealed     bool
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{procedures: make(map[string]*Procedure)}
}

// Register adds a procedure. Composition mistakes are programmer errors, so
// they panic at startup rather than surfacing per-call.
func (r *Router) Register(p *Procedure) {
	if r.sealed {
		panic("procedure: register after seal")
	}
	if p == nil || p.Name == "" {
		panic("procedure: unnamed procedure")
	}
	if p.Handler == nil {
		panic(fmt.Sprintf("procedure: %s has no handler", p.Name))
	}
	if _, exists := r.procedures[p.Name]; exists {
		panic(fmt.Sprintf("procedure: duplicate name %s", p.Name))
	}
	r.procedures[p.Name] = p
}

// Seal freezes the registry.
func (r *Router) Seal() {
	r.sealed = true
}

// Names returns all registered procedure names, sorted.
func (r *Router) Names() []string {
	names := make([]string, 0, len(r.procedures))
	for name := range r.procedures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs one call: guards in declared order, then input validation,
// then the handler, and wraps the result. Every failure returns as an error
// for the boundary to translate exactly once.
func (r *Router) Dispatch(ctx context.Context, req Request) (*Envelope, error) {
	p, ok := r.procedures[req.Name]
	if !ok {
		return nil, util.NewNotFound("procedure")
	}

	call := newCall(req)
	for _, guard := range p.Guards {
		var err error
		call, err = guard(ctx, call)
		if err != nil {
			return nil, err
		}
	}

	input, err := p.decodeInput(req.Payload)
	if err != nil {
		return nil, err
	}

	data, err := p.Handler(ctx, call, input)
	if err != nil {
		return nil, err
	}

	return &Envelope{
		Status:  p.successStatus(),
		Message: p.successMessage(),
		Data:    data,
	}, nil
}
