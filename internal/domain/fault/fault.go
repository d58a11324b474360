// Package fault defines the error taxonomy shared across the engine.
//
// Every engine component wraps these sentinels with operation context via
// fmt.Errorf("op: %w", ...) so callers can classify failures with errors.Is
// without depending on the package that produced them. The HTTP layer maps
// each kind to a status code.
package fault

import (
	"errors"
	"fmt"
)

// Sentinel kinds for engine errors.
var (
	// ErrNotFound marks an unknown project, subject, skill, badge, or
	// catalog version. Surfaced as 404.
	ErrNotFound = errors.New("not found")

	// ErrAuthorization marks a caller that is not permitted to view
	// another user's data. Surfaced as 403.
	ErrAuthorization = errors.New("not authorized")

	// ErrValidation marks malformed request input such as a bad version
	// number or out-of-range window. Surfaced as 400.
	ErrValidation = errors.New("invalid input")

	// ErrUpstreamTimeout marks a data-fetch collaborator that exceeded its
	// budget. Retryable; surfaced as 503.
	ErrUpstreamTimeout = errors.New("upstream timeout")
)

// NotFound returns ErrNotFound annotated with the entity kind and id.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

// Validation returns ErrValidation annotated with a reason.
func Validation(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrValidation)
}

// Wrap annotates err with the operation that produced it. Returns nil for
// a nil err so call sites can wrap unconditionally.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
