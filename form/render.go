package form

import (
	"context"
	"fmt"

	"github.com/vk/jsonform/internal/ctxlog"
	"github.com/vk/jsonform/registry"
)

// Rendering is what the render layer needs to draw one field.
type Rendering struct {
	Field Field
	// Widget is nil for fields without a type.
	Widget registry.Component
	// Wrappers are ordered outside-in.
	Wrappers []registry.Component
}

// Rendering resolves the widget and wrappers of field id. A declared type
// without a registered widget is an error; unknown wrappers are skipped.
func (s *Store) Rendering(ctx context.Context, id ID) (Rendering, error) {
	ctx = s.ctx(ctx)
	f, ok := s.Lookup(id)
	if !ok {
		return Rendering{}, fmt.Errorf("field %d: %w", id, ErrFieldNotFound)
	}

	r := Rendering{Field: f}
	if f.Type != "" {
		widget, ok := s.registry.FindWidget(f.Type)
		if !ok {
			return Rendering{}, fmt.Errorf("field %d (%s): type %q: %w", id, f.KeyPath, f.Type, ErrWidgetNotFound)
		}
		r.Widget = widget
	}

	for _, name := range f.Wrapper {
		wrapper, ok := s.registry.FindWrapper(name)
		if !ok {
			ctxlog.FromContext(ctx).Warn("Wrapper is not registered, skipping.", "field_id", id, "key_path", f.KeyPath, "wrapper", name)
			continue
		}
		r.Wrappers = append(r.Wrappers, wrapper)
	}
	return r, nil
}
