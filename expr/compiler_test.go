package expr

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/jsonform/internal/ctxlog"
	"github.com/vk/jsonform/keypath"
)

func testContext(t *testing.T) (context.Context, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return ctxlog.WithLogger(context.Background(), logger), &buf
}

func newCompiler(t *testing.T) *Compiler {
	t.Helper()
	c, err := NewCompiler(16)
	require.NoError(t, err)
	return c
}

func scope(t *testing.T, c *Compiler, values map[string]any) *Scope {
	t.Helper()
	s, err := c.NewScope(values)
	require.NoError(t, err)
	return s
}

func TestCompile_HideFromSource(t *testing.T) {
	ctx, _ := testContext(t)
	c := newCompiler(t)

	compiled, err := c.Compile(ctx, "b", map[string]Expression{HideKey: Source("values.a==''")})
	require.NoError(t, err)

	assert.True(t, compiled.EvalHide(ctx, scope(t, c, map[string]any{"a": ""})))
	assert.False(t, compiled.EvalHide(ctx, scope(t, c, map[string]any{"a": "x"})))
}

func TestCompile_HideVariants(t *testing.T) {
	ctx, _ := testContext(t)
	c := newCompiler(t)
	s := scope(t, c, map[string]any{"n": float64(3), "s": "txt", "flag": true})

	testCases := []struct {
		name     string
		expr     Expression
		expected bool
	}{
		{name: "absent", expr: Expression{}, expected: false},
		{name: "literal true", expr: Literal(true), expected: true},
		{name: "literal false", expr: Literal(false), expected: false},
		{name: "number comparison", expr: Source("values.n > 2"), expected: true},
		{name: "strict equality spelling", expr: Source("values.s === 'txt'"), expected: true},
		{name: "strict inequality spelling", expr: Source("values.s !== 'txt'"), expected: false},
		{name: "boolean connectives", expr: Source("values.flag && !(values.n < 1)"), expected: true},
		{name: "non boolean result is coerced", expr: Source("values.s"), expected: true},
		{name: "function call", expr: Source(`strlen(values.s) == 3 && contains(["txt"], values.s)`), expected: true},
		{name: "callable", expr: Callable(func(v map[string]any) (any, error) { return v["flag"], nil }), expected: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			compiled, err := c.Compile(ctx, "f", map[string]Expression{HideKey: tc.expr})
			require.NoError(t, err)
			assert.Equal(t, tc.expected, compiled.EvalHide(ctx, s))
		})
	}
}

func TestCompile_Props(t *testing.T) {
	ctx, _ := testContext(t)
	c := newCompiler(t)

	compiled, err := c.Compile(ctx, "f", map[string]Expression{
		"props.label":    Source(`upper(values.name)`),
		"props.disabled": Source(`values.locked == true`),
		"props.static":   Literal("fixed"),
		"props.items":    Source(`[for x in values.list: x if x != ""]`),
	})
	require.NoError(t, err)
	require.Len(t, compiled.Props, 4)

	props := compiled.EvalProps(ctx, scope(t, c, map[string]any{
		"name":   "bob",
		"locked": true,
		"list":   []any{"a", "", "b"},
	}))

	assert.Equal(t, "BOB", props["label"])
	assert.Equal(t, true, props["disabled"])
	assert.Equal(t, "fixed", props["static"])
	assert.Equal(t, []any{"a", "b"}, props["items"])
}

func TestCompile_MalformedSourceFailsLoudly(t *testing.T) {
	ctx, _ := testContext(t)
	c := newCompiler(t)

	testCases := []struct {
		name string
		src  string
	}{
		{name: "syntax error", src: "values.a ==="},
		{name: "unterminated quote", src: "values.a == 'x"},
		{name: "unknown variable", src: "field.a == 1"},
		{name: "unknown function", src: "exec(values.a)"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Compile(ctx, "user.email", map[string]Expression{HideKey: Source(tc.src)})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedExpression)

			var ce *CompileError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, "user.email", ce.Field)
			assert.Equal(t, tc.src, ce.Source)
			assert.Contains(t, err.Error(), "user.email")
		})
	}

	_, err := c.Compile(ctx, "f", map[string]Expression{"props.": Source("1")})
	assert.ErrorIs(t, err, ErrMalformedExpression)
}

func TestCompile_UnknownKeyIsIgnored(t *testing.T) {
	ctx, logs := testContext(t)
	c := newCompiler(t)

	compiled, err := c.Compile(ctx, "f", map[string]Expression{"label": Source("values.a")})
	require.NoError(t, err)
	assert.True(t, compiled.IsEmpty())
	assert.Contains(t, logs.String(), "Ignoring unsupported expression key")
}

func TestEval_RuntimeFailureFallsBack(t *testing.T) {
	ctx, logs := testContext(t)
	c := newCompiler(t)

	compiled, err := c.Compile(ctx, "f", map[string]Expression{
		HideKey:       Source("upper(values.missing) == 'X'"),
		"props.label": Source("values.missing.deeper"),
		"props.ok":    Source("1 + 1"),
		"props.boom": Callable(func(map[string]any) (any, error) {
			panic("boom")
		}),
	})
	require.NoError(t, err)

	s := scope(t, c, map[string]any{})
	assert.False(t, compiled.EvalHide(ctx, s))

	props := compiled.EvalProps(ctx, s)
	assert.Equal(t, map[string]any{"ok": float64(2)}, props)
	assert.Contains(t, logs.String(), "Hide expression failed")
	assert.Contains(t, logs.String(), "Prop expression failed")
}

func TestCompiled_DependsOn(t *testing.T) {
	ctx, _ := testContext(t)
	c := newCompiler(t)

	compiled, err := c.Compile(ctx, "f", map[string]Expression{
		HideKey:       Source("values.a.b == 1"),
		"props.label": Source("values.list[0]"),
		"props.const": Literal("x"),
	})
	require.NoError(t, err)

	assert.True(t, compiled.DependsOn(nil))
	assert.True(t, compiled.DependsOn([]keypath.Path{keypath.MustParse("a")}))
	assert.True(t, compiled.DependsOn([]keypath.Path{keypath.MustParse("a.b.c")}))
	assert.True(t, compiled.DependsOn([]keypath.Path{keypath.MustParse("list[0].x")}))
	assert.False(t, compiled.DependsOn([]keypath.Path{keypath.MustParse("list[1]")}))
	assert.False(t, compiled.DependsOn([]keypath.Path{keypath.MustParse("other")}))

	callable, err := c.Compile(ctx, "g", map[string]Expression{HideKey: Callable(func(map[string]any) (any, error) { return false, nil })})
	require.NoError(t, err)
	assert.True(t, callable.DependsOn([]keypath.Path{keypath.MustParse("anything")}))
}

func TestCompiler_CachesParsedSource(t *testing.T) {
	ctx, _ := testContext(t)
	c := newCompiler(t)

	first, err := c.Compile(ctx, "a", map[string]Expression{HideKey: Source("values.x == 'y'")})
	require.NoError(t, err)
	second, err := c.Compile(ctx, "b", map[string]Expression{HideKey: Source(`values.x == "y"`)})
	require.NoError(t, err)

	assert.Same(t, first.Hide.syntax, second.Hide.syntax, "equivalent sources share one parse")
	assert.Equal(t, 1, c.cache.Len())
}

func TestEval_MissingKeysReadAsNull(t *testing.T) {
	ctx, logs := testContext(t)
	c := newCompiler(t)

	compiled, err := c.Compile(ctx, "f", map[string]Expression{
		HideKey:         Source("values.flag != true"),
		"props.absent":  Source("values.obj.missing == null"),
		"props.through": Source("values.gone.deeper"),
		"props.index":   Source("values.list[3]"),
	})
	require.NoError(t, err)

	values := map[string]any{"obj": map[string]any{"a": "x"}, "list": []any{"only"}}
	s := scope(t, c, values)
	assert.True(t, compiled.EvalHide(ctx, s))
	assert.Equal(t, map[string]any{"absent": true}, compiled.EvalProps(ctx, s))
	assert.Equal(t, map[string]any{"obj": map[string]any{"a": "x"}, "list": []any{"only"}}, values, "snapshot is not modified")
	assert.Contains(t, logs.String(), "Prop expression failed")

	s = scope(t, c, map[string]any{"flag": true})
	assert.False(t, compiled.EvalHide(ctx, s))
}

func TestEval_LogicalOperatorsCoerceOperands(t *testing.T) {
	ctx, logs := testContext(t)
	c := newCompiler(t)
	values := map[string]any{
		"empty": "", "text": "x", "other": "y",
		"zero": float64(0), "num": float64(2),
		"obj": map[string]any{}, "list": []any{},
	}
	s := scope(t, c, values)

	testCases := []struct {
		name     string
		src      string
		expected bool
	}{
		{name: "not unset", src: "!values.agree", expected: true},
		{name: "not null", src: "!null", expected: true},
		{name: "not empty string", src: "!values.empty", expected: true},
		{name: "not string", src: "!values.text", expected: false},
		{name: "not zero", src: "!values.zero", expected: true},
		{name: "not number", src: "!values.num", expected: false},
		{name: "not object", src: "!values.obj", expected: false},
		{name: "double negation", src: "!!values.text", expected: true},
		{name: "and strings", src: "values.text && values.other", expected: true},
		{name: "and unset", src: "values.text && values.agree", expected: false},
		{name: "and numbers", src: "values.num && values.zero", expected: false},
		{name: "or unset and string", src: "values.agree || values.text", expected: true},
		{name: "or empty and zero", src: "values.empty || values.zero", expected: false},
		{name: "nested in condition", src: "(values.agree || values.num) ? true : false", expected: true},
		{name: "explicit call", src: "truthy(values.list)", expected: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			compiled, err := c.Compile(ctx, "f", map[string]Expression{HideKey: Source(tc.src)})
			require.NoError(t, err)
			assert.Equal(t, tc.expected, compiled.EvalHide(ctx, s))
		})
	}
	assert.NotContains(t, logs.String(), "Hide expression failed")
}

func TestCompile_CachedOperandsAreCoercedOnce(t *testing.T) {
	ctx, _ := testContext(t)
	c := newCompiler(t)

	first, err := c.Compile(ctx, "a", map[string]Expression{HideKey: Source("!values.x")})
	require.NoError(t, err)
	second, err := c.Compile(ctx, "b", map[string]Expression{HideKey: Source("!values.x")})
	require.NoError(t, err)
	require.Same(t, first.Hide.syntax, second.Hide.syntax)

	assert.True(t, second.EvalHide(ctx, scope(t, c, map[string]any{})))
	assert.False(t, second.EvalHide(ctx, scope(t, c, map[string]any{"x": "set"})))
}
