package inmemorystate

import (
	"context"
	"sort"
	"sync"

	"github.com/tiendc/go-deepcopy"
	"github.com/vk/jsonform/formstate"
	"github.com/vk/jsonform/internal/ctxlog"
	"github.com/vk/jsonform/keypath"
)

type registration struct {
	token uint64
	path  keypath.Path
	fn    formstate.ValidateFunc
}

type subscriber struct {
	id uint64
	fn func(context.Context, formstate.Commit)
}

// Store is an in-memory formstate.Provider.
type Store struct {
	mu         sync.RWMutex
	docs       formstate.Documents
	generation uint64
	validators map[string]registration
	tokens     uint64

	subsMu sync.Mutex
	subs   []subscriber
	subIDs uint64
}

var _ formstate.Provider = (*Store)(nil)

// New creates a store holding a deep copy of the initial values.
func New(initial map[string]any) *Store {
	s := &Store{validators: make(map[string]registration)}
	if initial != nil {
		s.docs.Values = clone(initial)
	}
	return s
}

// clone deep-copies a document. Documents only hold JSON-like data, which
// the copier always supports; on failure the original is shared.
func clone(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	var out map[string]any
	if err := deepcopy.Copy(&out, doc); err != nil {
		return doc
	}
	return out
}

func cloneValue(v any) any {
	switch v.(type) {
	case map[string]any, []any:
		var out any
		if err := deepcopy.Copy(&out, v); err != nil {
			return v
		}
		return out
	}
	return v
}

// GetValue returns a deep copy of the value at p.
func (s *Store) GetValue(ctx context.Context, p keypath.Path) (any, bool) {
	s.mu.RLock()
	v, ok := keypath.Get(s.docs.Values, p)
	s.mu.RUnlock()
	return cloneValue(v), ok
}

// SetValue stores v at p and optionally validates p.
func (s *Store) SetValue(ctx context.Context, p keypath.Path, v any, shouldValidate bool) error {
	v = cloneValue(v)
	if err := s.Update(ctx, []keypath.Path{p}, func(d *formstate.Documents) {
		d.Set(p, v)
	}); err != nil {
		return err
	}
	if shouldValidate {
		return s.Validate(ctx, p)
	}
	return nil
}

// SetValues replaces the whole values document.
func (s *Store) SetValues(ctx context.Context, values map[string]any) error {
	values = clone(values)
	return s.Update(ctx, nil, func(d *formstate.Documents) {
		d.Values = values
	})
}

// GetMeta returns the state of p.
func (s *Store) GetMeta(ctx context.Context, p keypath.Path) formstate.Meta {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var m formstate.Meta
	v, _ := keypath.Get(s.docs.Values, p)
	m.Value = cloneValue(v)
	if t, ok := keypath.Get(s.docs.Touched, p); ok {
		m.Touched, _ = t.(bool)
	}
	if e, ok := keypath.Get(s.docs.Errors, p); ok {
		m.Error, _ = e.(string)
	}
	return m
}

// SetTouched marks p as touched or untouched. Touched state does not notify
// value subscribers with changed paths.
func (s *Store) SetTouched(ctx context.Context, p keypath.Path, touched bool) error {
	return s.Update(ctx, []keypath.Path{}, func(d *formstate.Documents) {
		d.SetTouched(p, touched)
	})
}

// SetError stores the error of p.
func (s *Store) SetError(ctx context.Context, p keypath.Path, msg string) error {
	return s.Update(ctx, []keypath.Path{}, func(d *formstate.Documents) {
		d.SetError(p, msg)
	})
}

// Values returns a deep copy of the values document.
func (s *Store) Values(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := clone(s.docs.Values)
	if out == nil {
		out = make(map[string]any)
	}
	return out
}

// Touched returns a deep copy of the touched document.
func (s *Store) Touched(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.docs.Touched)
}

// Errors returns a deep copy of the errors document.
func (s *Store) Errors(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.docs.Errors)
}

// Generation returns the number of commits applied so far.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Update applies fn atomically and notifies subscribers afterwards.
func (s *Store) Update(ctx context.Context, changed []keypath.Path, fn func(d *formstate.Documents)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	docs := s.docs
	fn(&docs)
	s.docs = docs
	s.generation++
	commit := formstate.Commit{Generation: s.generation, Changed: changed}
	s.mu.Unlock()

	s.notify(ctx, commit)
	return nil
}

// Subscribe registers fn for commit notifications.
func (s *Store) Subscribe(fn func(context.Context, formstate.Commit)) func() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	s.subIDs++
	id := s.subIDs
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) notify(ctx context.Context, c formstate.Commit) {
	s.subsMu.Lock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.subsMu.Unlock()

	for _, sub := range subs {
		sub.fn(ctx, c)
	}
}

// RegisterValidator installs fn at p.
func (s *Store) RegisterValidator(ctx context.Context, p keypath.Path, fn formstate.ValidateFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens++
	s.validators[p.String()] = registration{token: s.tokens, path: p, fn: fn}
	ctxlog.FromContext(ctx).Debug("Validator registered.", "key_path", p.String())
}

// UnregisterValidator removes the validator at p.
func (s *Store) UnregisterValidator(ctx context.Context, p keypath.Path) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.validators[p.String()]; !ok {
		return
	}
	delete(s.validators, p.String())
	ctxlog.FromContext(ctx).Debug("Validator unregistered.", "key_path", p.String())
}

// HasValidator reports whether a validator is registered at p.
func (s *Store) HasValidator(p keypath.Path) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.validators[p.String()]
	return ok
}

// ValidatorPaths returns the registered key-paths in sorted order.
func (s *Store) ValidatorPaths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.validators))
	for k := range s.validators {
		paths = append(paths, k)
	}
	sort.Strings(paths)
	return paths
}

// Validate runs the validator registered at p, if any, and stores its result
// as the error of p.
func (s *Store) Validate(ctx context.Context, p keypath.Path) error {
	s.mu.RLock()
	reg, ok := s.validators[p.String()]
	v, _ := keypath.Get(s.docs.Values, p)
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	_, err := s.run(ctx, reg, cloneValue(v))
	return err
}

// ValidateAll runs every registered validator in key-path order and returns
// the failure messages by key-path.
func (s *Store) ValidateAll(ctx context.Context) (map[string]string, error) {
	failures := make(map[string]string)
	for _, key := range s.ValidatorPaths() {
		s.mu.RLock()
		reg, ok := s.validators[key]
		var v any
		if ok {
			v, _ = keypath.Get(s.docs.Values, reg.path)
		}
		s.mu.RUnlock()
		if !ok {
			continue
		}

		msg, err := s.run(ctx, reg, cloneValue(v))
		if err != nil {
			return failures, err
		}
		if msg != "" {
			failures[key] = msg
		}
	}
	return failures, nil
}

// run executes one registration and commits its result unless the
// registration became stale while it ran.
func (s *Store) run(ctx context.Context, reg registration, v any) (string, error) {
	msg, err := reg.fn(ctx, v)
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	current, ok := s.validators[reg.path.String()]
	s.mu.RUnlock()
	if !ok || current.token != reg.token {
		ctxlog.FromContext(ctx).Debug("Discarding stale validation result.", "key_path", reg.path.String())
		return "", nil
	}

	return msg, s.SetError(ctx, reg.path, msg)
}
