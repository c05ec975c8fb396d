// Package testutil holds helpers shared by the package tests: a form store
// wired to an in-memory provider with captured log output.
package testutil

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/jsonform/field"
	"github.com/vk/jsonform/form"
	"github.com/vk/jsonform/inmemorystate"
	"github.com/vk/jsonform/internal/ctxlog"
	"github.com/vk/jsonform/keypath"
	"github.com/vk/jsonform/registry"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Context returns a context carrying a debug-level text logger writing to the
// returned buffer.
func Context(t *testing.T) (context.Context, *SafeBuffer) {
	t.Helper()
	buf := &SafeBuffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return ctxlog.WithLogger(context.Background(), logger), buf
}

// LoadFields decodes an inline JSON field tree.
func LoadFields(t *testing.T, src string) []*field.Field {
	t.Helper()
	fields, err := field.LoadJSON(strings.NewReader(src))
	require.NoError(t, err)
	return fields
}

// Harness is a store bound to an in-memory provider.
type Harness struct {
	Ctx   context.Context
	Logs  *SafeBuffer
	Store *form.Store
	State *inmemorystate.Store
}

// NewHarness builds a store over the given values, binds it and sets the
// fields decoded from fieldsJSON.
func NewHarness(t *testing.T, fieldsJSON string, values map[string]any, scopes ...registry.Config) *Harness {
	t.Helper()
	return NewHarnessWithFields(t, LoadFields(t, fieldsJSON), values, scopes...)
}

// NewHarnessWithFields is NewHarness for fields built in Go, e.g. with
// callables or inline validators.
func NewHarnessWithFields(t *testing.T, fields []*field.Field, values map[string]any, scopes ...registry.Config) *Harness {
	t.Helper()
	ctx, logs := Context(t)

	reg, err := registry.New(scopes...)
	require.NoError(t, err)

	state := inmemorystate.New(values)
	store, err := form.New(reg, form.WithProvider(state), form.WithLogger(ctxlog.FromContext(ctx)))
	require.NoError(t, err)
	require.NoError(t, store.SetFields(ctx, fields))

	return &Harness{Ctx: ctx, Logs: logs, Store: store, State: state}
}

// Field returns the field owning the key-path raw.
func (h *Harness) Field(t *testing.T, raw string) form.Field {
	t.Helper()
	f, ok := h.Store.FindByKeyPath(keypath.MustParse(raw))
	require.True(t, ok, "no field at %q", raw)
	return f
}

// Value returns the provider's value at the key-path raw.
func (h *Harness) Value(raw string) any {
	v, _ := h.State.GetValue(h.Ctx, keypath.MustParse(raw))
	return v
}

// KeyPaths returns the key-paths of fields in order.
func KeyPaths(fields []form.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.KeyPath
	}
	return out
}
