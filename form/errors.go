package form

import "errors"

var (
	// ErrWidgetNotFound is returned by Rendering when a field declares a type
	// no component is registered for.
	ErrWidgetNotFound = errors.New("widget not found")
	// ErrFieldNotFound is returned for IDs that are not part of the tree.
	ErrFieldNotFound = errors.New("field not found")
	// ErrNotBound is returned by operations that need a form-state provider
	// before one has been bound.
	ErrNotBound = errors.New("form value binding not set")
	// ErrUnbound is returned by controls of fields without a key-path of
	// their own.
	ErrUnbound = errors.New("field has no key-path")
)
