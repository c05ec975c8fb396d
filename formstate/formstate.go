// Package formstate defines the contract of a form-state provider: the owner
// of the values, touched and errors documents of one form, and of the
// per-key-path validator registrations.
//
// The three documents are parallel nested structures addressed by the same
// key-paths. A provider is consumed by the form engine and is usually shared
// with the render layer, which reads values and metadata through it.
//
// See package inmemorystate for the reference implementation.
package formstate

import (
	"context"

	"github.com/vk/jsonform/keypath"
)

// Meta is the state of one key-path.
type Meta struct {
	Value   any
	Touched bool
	Error   string
}

// ValidateFunc validates one value and returns a failure message, or "" when
// the value is valid.
type ValidateFunc func(ctx context.Context, value any) (string, error)

// Commit describes one applied state transition.
type Commit struct {
	// Generation increases by one with every commit.
	Generation uint64
	// Changed lists the key-paths whose values may have changed. A nil list
	// means the whole values document was replaced.
	Changed []keypath.Path
}

// Provider is the form-state provider consumed by the engine.
//
// Implementations must notify subscribers after the lock protecting the
// documents has been released, so that listeners may call back into the
// provider.
type Provider interface {
	// GetValue returns the value at p and whether it exists.
	GetValue(ctx context.Context, p keypath.Path) (any, bool)

	// SetValue stores v at p. When shouldValidate is true the validator
	// registered at p, if any, runs afterwards.
	SetValue(ctx context.Context, p keypath.Path, v any, shouldValidate bool) error

	// GetMeta returns the value, touched flag and error at p.
	GetMeta(ctx context.Context, p keypath.Path) Meta

	// SetTouched marks p as touched or untouched.
	SetTouched(ctx context.Context, p keypath.Path, touched bool) error

	// SetError stores msg as the error of p. An empty msg clears it.
	SetError(ctx context.Context, p keypath.Path, msg string) error

	// RegisterValidator installs fn as the validator of p, replacing any
	// previous registration.
	RegisterValidator(ctx context.Context, p keypath.Path, fn ValidateFunc)

	// UnregisterValidator removes the validator of p. Results of validations
	// still running for the removed registration are discarded.
	UnregisterValidator(ctx context.Context, p keypath.Path)

	// Values returns a deep copy of the values document.
	Values(ctx context.Context) map[string]any

	// Update applies fn to the documents as one atomic transition and
	// notifies subscribers with the given changed paths.
	Update(ctx context.Context, changed []keypath.Path, fn func(d *Documents)) error

	// Subscribe registers fn to be called after every commit. The returned
	// function removes the subscription.
	Subscribe(fn func(ctx context.Context, c Commit)) (unsubscribe func())
}
