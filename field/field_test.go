package field

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/jsonform/expr"
)

func TestLoadJSON(t *testing.T) {
	src := `[
	  {"name": "name", "type": "input", "props": {"required": true},
	   "validators": ["required", ["minLength", {"min": 2}], {"name": "pattern", "options": {"regex": "^a"}}]},
	  {"name": "email", "type": "input", "expressions": {"hide": "!values.name"}},
	  {"name": "tags", "type": "list", "array": {"type": "input"}}
	]`

	fields, err := LoadJSON(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, fields, 3)

	name := fields[0]
	assert.Equal(t, "input", name.Type)
	assert.Equal(t, true, name.Props["required"])
	require.Len(t, name.Validators, 3)
	assert.Equal(t, Named("required"), name.Validators[0])
	assert.Equal(t, "minLength", name.Validators[1].Name)
	assert.Equal(t, map[string]any{"min": float64(2)}, name.Validators[1].Options)
	assert.Equal(t, "pattern", name.Validators[2].Name)

	assert.Equal(t, expr.Source("!values.name"), fields[1].Expressions["hide"])

	require.NotNil(t, fields[2].Array)
	assert.Equal(t, "input", fields[2].Array.Type)
}

func TestLoadJSON_SingleObject(t *testing.T) {
	fields, err := LoadJSON(strings.NewReader(`{"name": "a", "group": [{"name": "b"}]}`))
	require.NoError(t, err)
	require.Len(t, fields, 1)
	require.Len(t, fields[0].Group, 1)
	assert.Equal(t, "b", fields[0].Group[0].Name)
}

func TestLoadJSON_Errors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
	}{
		{name: "malformed", src: `[{"name": }]`},
		{name: "empty validator name", src: `[{"validators": [""]}]`},
		{name: "oversized tuple", src: `[{"validators": [["a", 1, 2]]}]`},
		{name: "validator object without name", src: `[{"validators": [{"options": 1}]}]`},
		{name: "numeric validator", src: `[{"validators": [3]}]`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadJSON(strings.NewReader(tc.src))
			assert.Error(t, err)
		})
	}
}

func TestLoadYAML(t *testing.T) {
	src := `
- name: address
  group:
    - name: city
      validators:
        - required
        - [maxLength, {max: 10}]
- name: note
  expressions:
    hide: 'values.address.city == "x"'
    props.disabled: true
`
	fields, err := LoadYAML(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, fields, 2)

	city := fields[0].Group[0]
	assert.Equal(t, "city", city.Name)
	require.Len(t, city.Validators, 2)
	assert.Equal(t, "maxLength", city.Validators[1].Name)
	assert.Equal(t, map[string]any{"max": 10}, city.Validators[1].Options)

	note := fields[1]
	assert.Equal(t, expr.Source(`values.address.city == "x"`), note.Expressions["hide"])
	assert.Equal(t, expr.Literal(true), note.Expressions["props.disabled"])
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "form.yaml")
	jsonPath := filepath.Join(dir, "form.json")
	require.NoError(t, os.WriteFile(yamlPath, []byte("name: a\n"), 0o600))
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"name": "b"}]`), 0o600))

	fields, err := LoadFile(yamlPath)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "a", fields[0].Name)

	fields, err = LoadFile(jsonPath)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "b", fields[0].Name)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestValidatorDecl_MarshalJSON(t *testing.T) {
	data, err := Named("required").MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `"required"`, string(data))

	data, err = NamedWithOptions("min", map[string]any{"min": 1}).MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "min", "options": {"min": 1}}`, string(data))

	inline := Inline(func(context.Context, any, *Field, any) (bool, error) { return false, nil }, "bad")
	_, err = inline.MarshalJSON()
	assert.Error(t, err)
}

func TestDefaultValue(t *testing.T) {
	assert.Equal(t, []any{}, (&Field{Array: &Field{}}).DefaultValue())
	assert.Equal(t, map[string]any{}, (&Field{Group: []*Field{}}).DefaultValue())
	assert.Equal(t, "", (&Field{Type: "input"}).DefaultValue())
}

func TestFingerprint(t *testing.T) {
	base := func() *Field {
		return &Field{
			Name:        "a",
			Type:        "input",
			Props:       map[string]any{"label": "A"},
			Expressions: map[string]expr.Expression{"hide": expr.Source("values.b")},
			Validators:  []ValidatorDecl{Named("required")},
		}
	}

	assert.Equal(t, Fingerprint(base()), Fingerprint(base()), "equal content must hash equally")

	changed := base()
	changed.Props["label"] = "B"
	assert.NotEqual(t, Fingerprint(base()), Fingerprint(changed))

	withChild := base()
	withChild.Group = []*Field{{Name: "x"}}
	assert.NotEqual(t, Fingerprint(base()), Fingerprint(withChild))

	// child content does not affect the parent's fingerprint
	otherChild := base()
	otherChild.Group = []*Field{{Name: "y"}}
	assert.Equal(t, Fingerprint(withChild), Fingerprint(otherChild))

	assert.Zero(t, Fingerprint(nil))
}

func TestWalk(t *testing.T) {
	tree := []*Field{
		{Name: "a", Group: []*Field{{Name: "b"}, {Name: "c", Array: &Field{Name: "d"}}}},
		{Name: "e"},
	}

	var visited []string
	Walk(tree, func(f *Field, depth int) {
		visited = append(visited, strings.Repeat(">", depth)+f.Name)
	})
	assert.Equal(t, []string{"a", ">b", ">c", ">>d", "e"}, visited)
}
