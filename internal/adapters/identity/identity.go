// Package identity resolves request user parameters to canonical user
// ids and enforces who may look at whose data.
package identity

import (
	"context"
	"strings"
	"sync"

	"github.com/okian/ascent/internal/domain/fault"
)

// Supported id types for the userId request parameter.
const (
	TypeID = "ID"
	// TypeDN resolves a certificate distinguished name alias.
	TypeDN = "DN"
)

type ctxKey struct{}

// Caller is the authenticated principal attached to a request context.
type Caller struct {
	UserID string
	// Elevated permits reading other users' data.
	Elevated bool
}

// WithCaller attaches the authenticated caller to a context.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// CallerFrom extracts the authenticated caller from a context.
func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(ctxKey{}).(Caller)
	return c, ok
}

// Resolver turns (requestedUserID, idType) pairs into canonical user ids.
type Resolver struct {
	mu      sync.RWMutex
	aliases map[string]string // DN -> canonical user id
}

// NewResolver constructs a Resolver with an empty alias table.
func NewResolver() *Resolver {
	return &Resolver{aliases: make(map[string]string)}
}

// RegisterAlias maps a distinguished name to a canonical user id.
func (r *Resolver) RegisterAlias(dn, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[strings.ToLower(dn)] = userID
}

// Resolve returns the canonical user id a request is about. An empty
// requested id means the caller themselves. Asking about another user
// requires the caller's elevated flag; without it the request fails with
// fault.ErrAuthorization regardless of whether the target exists.
func (r *Resolver) Resolve(ctx context.Context, requestedUserID, idType string) (string, error) {
	const op = "identity.resolve"

	caller, ok := CallerFrom(ctx)
	if !ok {
		return "", fault.Wrap(op, fault.ErrAuthorization)
	}
	if requestedUserID == "" {
		return caller.UserID, nil
	}

	target := requestedUserID
	switch strings.ToUpper(idType) {
	case "", TypeID:
	case TypeDN:
		r.mu.RLock()
		canonical, found := r.aliases[strings.ToLower(requestedUserID)]
		r.mu.RUnlock()
		if !found {
			return "", fault.Wrap(op, fault.NotFound("user alias", requestedUserID))
		}
		target = canonical
	default:
		return "", fault.Wrap(op, fault.Validation("unknown idType "+idType))
	}

	if target != caller.UserID && !caller.Elevated {
		return "", fault.Wrap(op, fault.ErrAuthorization)
	}
	return target, nil
}
