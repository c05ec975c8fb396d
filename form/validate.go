package form

import (
	"context"
	"fmt"
	"sort"
)

// Validate runs the validator routine of every registered field in key-path
// order, stores each result as the field's error, and returns the failures
// by key-path.
func (s *Store) Validate(ctx context.Context) (map[string]string, error) {
	ctx = s.ctx(ctx)

	var (
		failures map[string]string
		err      error
	)
	s.exclusive(ctx, func(ctx context.Context) {
		if s.provider == nil {
			err = ErrNotBound
			return
		}

		var targets []*node
		s.tree.walk(func(n, _ *node) {
			if n.registered && n.routine != nil {
				targets = append(targets, n)
			}
		})
		sort.SliceStable(targets, func(i, j int) bool {
			return targets[i].path.String() < targets[j].path.String()
		})

		failures = make(map[string]string)
		for _, n := range targets {
			v, _ := s.provider.GetValue(ctx, n.path)
			msg, verr := n.routine(ctx, v)
			if verr != nil {
				err = fmt.Errorf("validating %s: %w", n.path, verr)
				return
			}
			if serr := s.provider.SetError(ctx, n.path, msg); serr != nil {
				err = serr
				return
			}
			if msg != "" {
				failures[n.path.String()] = msg
			}
		}
	})
	return failures, err
}
