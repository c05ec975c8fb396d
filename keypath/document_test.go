package keypath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	doc := map[string]any{
		"a": map[string]any{"b": "x"},
		"l": []any{"1", map[string]any{"c": true}},
	}

	v, ok := Get(doc, MustParse("a.b"))
	require.True(t, ok)
	assert.Equal(t, "x", v)

	v, ok = Get(doc, MustParse("l[1].c"))
	require.True(t, ok)
	assert.Equal(t, true, v)

	_, ok = Get(doc, MustParse("l[5]"))
	assert.False(t, ok)

	_, ok = Get(doc, MustParse("a.b.c"))
	assert.False(t, ok)
}

func TestSet_CopyOnWrite(t *testing.T) {
	orig := map[string]any{"a": map[string]any{"b": "x"}, "keep": []any{"k"}}

	out := Set(orig, MustParse("a.b"), "y")
	v, _ := Get(out, MustParse("a.b"))
	assert.Equal(t, "y", v)

	old, _ := Get(orig, MustParse("a.b"))
	assert.Equal(t, "x", old, "original document must stay untouched")
}

func TestSet_CreatesContainers(t *testing.T) {
	out := Set(map[string]any{}, MustParse("l[1].name"), "n")

	list, ok := Get(out, MustParse("l"))
	require.True(t, ok)
	require.IsType(t, []any{}, list)
	assert.Len(t, list, 2)
	assert.Nil(t, list.([]any)[0])

	v, _ := Get(out, MustParse("l[1].name"))
	assert.Equal(t, "n", v)
}

func TestDelete(t *testing.T) {
	doc := map[string]any{"a": "1", "l": []any{"x", "y"}}

	out := Delete(doc, MustParse("a"))
	_, ok := Get(out, MustParse("a"))
	assert.False(t, ok)

	out = Delete(out, MustParse("l[0]"))
	assert.Equal(t, []any{nil, "y"}, out.(map[string]any)["l"])

	same := Delete(doc, MustParse("missing.path"))
	assert.Equal(t, doc, same)
	assert.Equal(t, "1", doc["a"])
}

func TestInsertAndRemoveAt(t *testing.T) {
	doc := map[string]any{"a": []any{"1", "2"}}
	p := MustParse("a")

	out := Insert(doc, p, 1, "")
	assert.Equal(t, []any{"1", "", "2"}, out.(map[string]any)["a"])
	assert.Equal(t, []any{"1", "2"}, doc["a"])

	back := RemoveAt(out, p, 1)
	assert.Equal(t, doc, back)

	created := Insert(map[string]any{}, p, 0, "v")
	assert.Equal(t, []any{"v"}, created.(map[string]any)["a"])

	unchanged := RemoveAt(doc, p, 7)
	assert.Equal(t, doc, unchanged)

	assert.Equal(t, 2, Len(doc, p))
	assert.Equal(t, -1, Len(doc, MustParse("nope")))
}
