package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/vk/jsonform/field"
	"github.com/vk/jsonform/form"
	"github.com/vk/jsonform/inmemorystate"
	"github.com/vk/jsonform/internal/ctxlog"
)

// ErrValidationFailed is returned by Run when validation was requested and at
// least one field is invalid. The resolved tree is still printed.
var ErrValidationFailed = errors.New("validation failed")

// Result is the document Run prints.
type Result struct {
	FormID string            `json:"formId"`
	Fields []*ResolvedField  `json:"fields"`
	Values map[string]any    `json:"values"`
	Errors map[string]string `json:"errors,omitempty"`
}

// ResolvedField is the printed form of one field: its resolved state, its
// value and meta when it owns a leaf value, and its children.
type ResolvedField struct {
	ID       form.ID          `json:"id"`
	Name     string           `json:"name,omitempty"`
	Type     string           `json:"type,omitempty"`
	KeyPath  string           `json:"keyPath,omitempty"`
	Wrapper  []string         `json:"wrapper,omitempty"`
	IsArray  bool             `json:"isArray,omitempty"`
	Hide     bool             `json:"hide,omitempty"`
	Disabled bool             `json:"disabled,omitempty"`
	Required bool             `json:"required,omitempty"`
	Readonly bool             `json:"readonly,omitempty"`
	Props    map[string]any   `json:"props,omitempty"`
	Value    any              `json:"value,omitempty"`
	Touched  bool             `json:"touched,omitempty"`
	Error    string           `json:"error,omitempty"`
	Children []*ResolvedField `json:"children,omitempty"`
}

// Run executes the main application logic based on the provided configuration.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	fields, err := field.LoadFile(a.config.FieldsPath)
	if err != nil {
		return fmt.Errorf("failed to load fields: %w", err)
	}
	values, err := loadValues(a.config.ValuesPath)
	if err != nil {
		return fmt.Errorf("failed to load values: %w", err)
	}
	a.logger.Debug("Input loaded.", "root_fields", len(fields), "values_path", a.config.ValuesPath)

	a.state = inmemorystate.New(values)
	a.store, err = form.New(a.registry, form.WithProvider(a.state), form.WithLogger(a.logger))
	if err != nil {
		return fmt.Errorf("failed to create form: %w", err)
	}
	if err := a.store.SetFields(ctx, fields); err != nil {
		return fmt.Errorf("failed to set fields: %w", err)
	}

	if err := a.apply(ctx); err != nil {
		return err
	}

	var failures map[string]string
	if a.config.Validate {
		failures, err = a.store.Validate(ctx)
		if err != nil {
			return fmt.Errorf("validation could not run: %w", err)
		}
	}

	result := Result{
		FormID: a.store.ID().String(),
		Fields: a.resolve(ctx, a.store.RootFields()),
		Values: a.state.Values(ctx),
		Errors: failures,
	}
	enc := json.NewEncoder(a.outW)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}

	a.logger.Info("Form resolved.", "form_id", result.FormID, "invalid_fields", len(failures))
	if len(failures) > 0 {
		return fmt.Errorf("%w: %d invalid field(s)", ErrValidationFailed, len(failures))
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}

// apply runs the array operations, then the assignments.
func (a *App) apply(ctx context.Context) error {
	for _, op := range a.config.AddOps() {
		f, ok := a.store.FindByKeyPath(op.Path)
		if !ok {
			return fmt.Errorf("add %s: %w", op.Path, form.ErrFieldNotFound)
		}
		if op.Append {
			if !a.store.Append(ctx, f.ID) {
				return fmt.Errorf("append %s: operation rejected", op.Path)
			}
			continue
		}
		if !a.store.Add(ctx, f.ID, op.Index) {
			return fmt.Errorf("add %s at %d: operation rejected", op.Path, op.Index)
		}
	}
	for _, op := range a.config.RemoveOps() {
		f, ok := a.store.FindByKeyPath(op.Path)
		if !ok {
			return fmt.Errorf("remove %s: %w", op.Path, form.ErrFieldNotFound)
		}
		if !a.store.Remove(ctx, f.ID, op.Index) {
			return fmt.Errorf("remove %s at %d: operation rejected", op.Path, op.Index)
		}
	}

	assignments, err := a.config.Assignments()
	if err != nil {
		return err
	}
	for _, as := range assignments {
		if err := a.store.SetValue(ctx, as.Path, as.Value); err != nil {
			return fmt.Errorf("set %s: %w", as.Path, err)
		}
	}
	return nil
}

func (a *App) resolve(ctx context.Context, fields []form.Field) []*ResolvedField {
	out := make([]*ResolvedField, 0, len(fields))
	for _, f := range fields {
		r := &ResolvedField{
			ID:       f.ID,
			Name:     f.Name,
			Type:     f.Type,
			KeyPath:  f.KeyPath,
			Wrapper:  f.Wrapper,
			IsArray:  f.IsArray,
			Hide:     f.Hide,
			Disabled: f.Disabled,
			Required: f.Required,
			Readonly: f.Readonly,
			Props:    f.Props,
		}
		if f.Bound && f.Raw != nil && f.Raw.Array == nil && len(f.Raw.Group) == 0 {
			m := a.state.GetMeta(ctx, f.Path)
			r.Value, r.Touched, r.Error = m.Value, m.Touched, m.Error
		}
		if children, err := a.store.FieldGroup(f.ID); err == nil && len(children) > 0 {
			r.Children = a.resolve(ctx, children)
		}
		out = append(out, r)
	}
	return out
}
