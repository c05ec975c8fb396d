package expr

import (
	"context"
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/jsonform/internal/ctxlog"
	"github.com/zclconf/go-cty/cty/function"
)

const (
	// HideKey is the expression key controlling visibility.
	HideKey = "hide"
	// PropsPrefix prefixes expression keys that compute a prop.
	PropsPrefix = "props."

	// DefaultCacheSize bounds the number of parsed sources kept by a Compiler.
	DefaultCacheSize = 1024
)

// parsed is a cached parse result for one normalized source.
type parsed struct {
	syntax hclsyntax.Expression
	info   analysis
}

// Compiler turns expression maps into Compiled evaluators. Parsed sources are
// cached, evaluation results never are. A Compiler is safe for concurrent use.
type Compiler struct {
	cache *lru.Cache[string, *parsed]
	funcs map[string]function.Function
}

// NewCompiler creates a compiler whose parse cache holds up to size sources.
func NewCompiler(size int) (*Compiler, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *parsed](size)
	if err != nil {
		return nil, fmt.Errorf("creating expression cache: %w", err)
	}
	return &Compiler{cache: cache, funcs: defaultFunctions()}, nil
}

// NewScope prepares a values snapshot for evaluation.
func (c *Compiler) NewScope(values map[string]any) (*Scope, error) {
	return newScope(values, c.funcs)
}

// Compile builds the evaluators for one field. owner names the field in errors
// and logs. Keys other than `hide` and `props.<key>` are ignored with a warning.
func (c *Compiler) Compile(ctx context.Context, owner string, exprs map[string]Expression) (*Compiled, error) {
	logger := ctxlog.FromContext(ctx)
	compiled := &Compiled{owner: owner}

	keys := make([]string, 0, len(exprs))
	for k := range exprs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		e := exprs[key]
		if e.IsZero() {
			continue
		}

		switch {
		case key == HideKey:
			ev, err := c.evaluator(owner, key, key, e)
			if err != nil {
				return nil, err
			}
			compiled.Hide = ev
		case strings.HasPrefix(key, PropsPrefix):
			prop := strings.TrimPrefix(key, PropsPrefix)
			if prop == "" {
				return nil, &CompileError{Field: owner, Key: key, Source: e.String(), Reason: "empty prop name"}
			}
			ev, err := c.evaluator(owner, key, prop, e)
			if err != nil {
				return nil, err
			}
			compiled.Props = append(compiled.Props, ev)
		default:
			logger.Warn("Ignoring unsupported expression key.", "field", owner, "expression", key)
		}
	}

	return compiled, nil
}

func (c *Compiler) evaluator(owner, key, target string, e Expression) (*Evaluator, error) {
	ev := &Evaluator{owner: owner, key: key, target: target}

	switch e.resolvedKind() {
	case kindLiteral:
		ev.literal = e.Literal
		ev.static = true
	case kindFunc:
		ev.fn = e.Func
		ev.always = true
	case kindSource:
		p, err := c.parse(owner, key, e.Source)
		if err != nil {
			return nil, err
		}
		ev.source = e.Source
		ev.syntax = p.syntax
		ev.deps = p.info.deps
	}

	return ev, nil
}

// parse returns the cached parse of src, parsing and validating it on a miss.
func (c *Compiler) parse(owner, key, src string) (*parsed, error) {
	normalized := normalizeSource(src)
	if p, ok := c.cache.Get(normalized); ok {
		return p, nil
	}

	syntax, diags := hclsyntax.ParseExpression([]byte(normalized), owner, hcl.Pos{Line: 1, Column: 1, Byte: 0})
	if diags.HasErrors() {
		return nil, &CompileError{Field: owner, Key: key, Source: src, Diagnostics: diags}
	}

	info := analyze(syntax)
	if len(info.unknownRoots) > 0 {
		return nil, &CompileError{
			Field:  owner,
			Key:    key,
			Source: src,
			Reason: fmt.Sprintf("unknown variable(s) %s, only %q is in scope", strings.Join(info.unknownRoots, ", "), valuesRoot),
		}
	}
	for _, name := range info.functions {
		if _, ok := c.funcs[name]; !ok {
			return nil, &CompileError{Field: owner, Key: key, Source: src, Reason: fmt.Sprintf("unknown function %q", name)}
		}
	}

	coerceLogicalOperands(syntax)

	p := &parsed{syntax: syntax, info: info}
	c.cache.Add(normalized, p)
	return p, nil
}
