package form

import (
	"log/slog"

	"github.com/vk/jsonform/expr"
	"github.com/vk/jsonform/formstate"
)

// DefaultMaxSettlePasses bounds the recompute passes of one transition.
const DefaultMaxSettlePasses = 16

type options struct {
	logger    *slog.Logger
	provider  formstate.Provider
	cacheSize int
	maxPasses int
}

// Option configures a Store.
type Option func(*options)

// WithLogger sets the logger used when the caller's context carries none.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithProvider binds a form-state provider at construction time.
func WithProvider(p formstate.Provider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithExpressionCacheSize bounds the number of parsed expressions kept.
func WithExpressionCacheSize(n int) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}

// WithMaxSettlePasses bounds the recompute passes of one transition.
func WithMaxSettlePasses(n int) Option {
	return func(o *options) {
		o.maxPasses = n
	}
}

func defaultOptions() options {
	return options{
		logger:    slog.Default(),
		cacheSize: expr.DefaultCacheSize,
		maxPasses: DefaultMaxSettlePasses,
	}
}
