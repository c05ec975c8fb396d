package form

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/vk/jsonform/expr"
	"github.com/vk/jsonform/field"
	"github.com/vk/jsonform/formstate"
	"github.com/vk/jsonform/internal/ctxlog"
	"github.com/vk/jsonform/keypath"
	"github.com/vk/jsonform/registry"
	"github.com/vk/jsonform/validation"
)

// Change is delivered to subscribers after a transition has settled.
type Change struct {
	// Generation increases by one with every notification.
	Generation uint64
	// Affected lists, in ascending order, the fields that were created,
	// removed, moved, or whose visibility or resolved props changed.
	Affected []ID
}

// Store is the reconciliation store of one form instance. All methods are
// safe for concurrent use; transitions are serialized.
type Store struct {
	id        uuid.UUID
	logger    *slog.Logger
	registry  *registry.Registry
	resolver  *validation.Resolver
	compiler  *expr.Compiler
	maxPasses int

	mu          sync.Mutex
	provider    formstate.Provider
	unsubscribe func()
	raws        []*field.Field
	compiled    map[*field.Field]*expr.Compiled
	tree        *arena
	queue       []queuedOp
	affected    map[ID]struct{}
	generation  uint64

	// pendingMu guards the commit backlog written by the provider listener.
	pendingMu  sync.Mutex
	busy       bool
	kick       bool
	pendingAll bool
	pending    []keypath.Path

	subsMu sync.Mutex
	subs   map[uint64]func(Change)
	subIDs uint64
}

type queuedOp struct {
	name string
	run  func(ctx context.Context) error
}

// New creates a store resolving names against reg.
func New(reg *registry.Registry, opts ...Option) (*Store, error) {
	if reg == nil {
		return nil, fmt.Errorf("creating form store: registry is required")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxPasses <= 0 {
		o.maxPasses = DefaultMaxSettlePasses
	}

	compiler, err := expr.NewCompiler(o.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating form store: %w", err)
	}

	id := uuid.New()
	s := &Store{
		id:        id,
		logger:    o.logger.With("form_id", id.String()),
		registry:  reg,
		resolver:  validation.NewResolver(reg),
		compiler:  compiler,
		maxPasses: o.maxPasses,
		compiled:  make(map[*field.Field]*expr.Compiled),
		tree:      newArena(),
		affected:  make(map[ID]struct{}),
		subs:      make(map[uint64]func(Change)),
	}

	if o.provider != nil {
		if err := s.SetFormValueBinding(context.Background(), o.provider); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ID returns the instance identifier attached to the store's log records.
func (s *Store) ID() uuid.UUID {
	return s.id
}

func (s *Store) ctx(ctx context.Context) context.Context {
	return ctxlog.Ensure(ctx, s.logger)
}

// Provider returns the bound form-state provider, or nil.
func (s *Store) Provider() formstate.Provider {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.provider
}

// SetFormValueBinding binds the store to a form-state provider. Operations
// queued while the store was unbound are applied in order, then the tree is
// rebuilt against the provider's values.
func (s *Store) SetFormValueBinding(ctx context.Context, p formstate.Provider) error {
	ctx = s.ctx(ctx)
	if p == nil {
		return fmt.Errorf("binding form values: %w", ErrNotBound)
	}

	var queueErr error
	s.exclusive(ctx, func(ctx context.Context) {
		if s.unsubscribe != nil {
			s.unsubscribe()
			s.unregisterAll(ctx)
		}
		s.provider = p
		s.unsubscribe = p.Subscribe(s.onCommit)

		queue := s.queue
		s.queue = nil
		for _, op := range queue {
			ctxlog.FromContext(ctx).Debug("Flushing queued operation.", "operation", op.name)
			if err := op.run(ctx); err != nil {
				queueErr = fmt.Errorf("queued %s: %w", op.name, err)
				return
			}
		}
		s.rebuild(ctx)
	})
	return queueErr
}

// SetFields replaces the raw field tree. Expressions are compiled first; a
// compile error leaves the current tree untouched. Before a provider is
// bound the replacement is queued.
func (s *Store) SetFields(ctx context.Context, raws []*field.Field) error {
	ctx = s.ctx(ctx)

	var err error
	s.exclusive(ctx, func(ctx context.Context) {
		var compiled map[*field.Field]*expr.Compiled
		compiled, err = s.compileTree(ctx, raws)
		if err != nil {
			return
		}
		apply := func(ctx context.Context) error {
			s.raws = raws
			s.compiled = compiled
			s.rebuild(ctx)
			return nil
		}
		if s.provider == nil {
			s.queue = append(s.queue, queuedOp{name: "set fields", run: apply})
			return
		}
		err = apply(ctx)
	})
	return err
}

// SetValue writes v at the key-path p through the provider, validating the
// field registered there. Before a provider is bound the write is queued.
func (s *Store) SetValue(ctx context.Context, p keypath.Path, v any) error {
	ctx = s.ctx(ctx)

	s.mu.Lock()
	provider := s.provider
	if provider == nil {
		s.queue = append(s.queue, queuedOp{name: "set value " + p.String(), run: func(ctx context.Context) error {
			return s.provider.SetValue(ctx, p, v, false)
		}})
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	return provider.SetValue(ctx, p, v, true)
}

// Subscribe registers fn to be called after every settled transition. fn runs
// outside the store's lock and may use the read API.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	s.subIDs++
	id := s.subIDs
	s.subs[id] = fn
	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subs, id)
	}
}

// onCommit is the provider listener.
func (s *Store) onCommit(ctx context.Context, c formstate.Commit) {
	if c.Changed != nil && len(c.Changed) == 0 {
		return
	}

	s.pendingMu.Lock()
	if c.Changed == nil {
		s.pendingAll = true
	}
	s.pending = append(s.pending, c.Changed...)
	busy := s.busy
	s.pendingMu.Unlock()

	if busy {
		return
	}
	s.exclusive(s.ctx(ctx), nil)
}

// exclusive runs fn as one transition and settles the tree afterwards.
// Commits produced while it runs are absorbed into the settle loop.
func (s *Store) exclusive(ctx context.Context, fn func(ctx context.Context)) {
	s.mu.Lock()
	s.pendingMu.Lock()
	s.busy = true
	s.pendingMu.Unlock()

	if fn != nil {
		fn(ctx)
	}
	s.drain(ctx)
	change, notify := s.takeChange()
	s.mu.Unlock()

	if notify {
		s.notify(change)
	}
}

// requestPass makes the settle loop run at least once more.
func (s *Store) requestPass() {
	s.pendingMu.Lock()
	s.kick = true
	s.pendingMu.Unlock()
}

// drain runs recompute passes until no commit is pending. It clears the busy
// flag atomically with observing an empty backlog.
func (s *Store) drain(ctx context.Context) {
	passes := 0
	for {
		s.pendingMu.Lock()
		if !s.kick && !s.pendingAll && len(s.pending) == 0 {
			s.busy = false
			s.pendingMu.Unlock()
			return
		}
		changed, all := s.pending, s.pendingAll
		s.pending, s.pendingAll, s.kick = nil, false, false
		s.pendingMu.Unlock()

		if s.provider == nil {
			continue
		}
		if passes >= s.maxPasses {
			ctxlog.FromContext(ctx).Warn("Form did not settle, dropping remaining changes.",
				"passes", passes, "pending", len(changed))
			continue
		}
		passes++
		if changed == nil {
			changed = []keypath.Path{}
		}
		s.pass(ctx, changed, all)
	}
}

func (s *Store) markAffected(id ID) {
	s.affected[id] = struct{}{}
}

func (s *Store) takeChange() (Change, bool) {
	if len(s.affected) == 0 {
		return Change{}, false
	}
	ids := make([]ID, 0, len(s.affected))
	for id := range s.affected {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	s.affected = make(map[ID]struct{})
	s.generation++
	return Change{Generation: s.generation, Affected: ids}, true
}

func (s *Store) notify(c Change) {
	s.subsMu.Lock()
	ids := make([]uint64, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}
