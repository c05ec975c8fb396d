package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/jsonform/keypath"
)

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "minimal", cfg: Config{FieldsPath: "form.json"}},
		{name: "missing fields path", cfg: Config{}, wantErr: "FieldsPath is a required"},
		{name: "bad log format", cfg: Config{FieldsPath: "f", LogFormat: "xml"}, wantErr: "invalid log format"},
		{name: "bad log level", cfg: Config{FieldsPath: "f", LogLevel: "trace"}, wantErr: "invalid log level"},
		{name: "set without value", cfg: Config{FieldsPath: "f", Set: []string{"a"}}, wantErr: "expected key=value"},
		{name: "set with bad key", cfg: Config{FieldsPath: "f", Set: []string{"a..b=1"}}, wantErr: "invalid --set"},
		{name: "remove without index", cfg: Config{FieldsPath: "f", Remove: []string{"a"}}, wantErr: "expected key.path@index"},
		{name: "add with bad index", cfg: Config{FieldsPath: "f", Add: []string{"a@x"}}, wantErr: "non-negative integer"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := NewConfig(tc.cfg)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.cfg, *cfg)
		})
	}
}

func TestConfig_Operations(t *testing.T) {
	cfg, err := NewConfig(Config{
		FieldsPath: "form.json",
		Set:        []string{"a.b=1", `c={"x": [true]}`, "d=plain text", "e="},
		Add:        []string{"items", "items[0].tags@2"},
		Remove:     []string{"items@1"},
	})
	require.NoError(t, err)

	assignments, err := cfg.Assignments()
	require.NoError(t, err)
	assert.Equal(t, []Assignment{
		{Path: keypath.MustParse("a.b"), Value: float64(1)},
		{Path: keypath.MustParse("c"), Value: map[string]any{"x": []any{true}}},
		{Path: keypath.MustParse("d"), Value: "plain text"},
		{Path: keypath.MustParse("e"), Value: ""},
	}, assignments)

	assert.Equal(t, []ArrayOp{
		{Path: keypath.MustParse("items"), Append: true},
		{Path: keypath.MustParse("items[0].tags"), Index: 2},
	}, cfg.AddOps())
	assert.Equal(t, []ArrayOp{{Path: keypath.MustParse("items"), Index: 1}}, cfg.RemoveOps())
}

func TestLoadValues(t *testing.T) {
	fromJSON, err := loadValues(writeFile(t, "v.json", `{"n": 2, "list": [{"a": "x"}]}`))
	require.NoError(t, err)
	fromYAML, err := loadValues(writeFile(t, "v.yml", "n: 2\nlist:\n  - a: x\n"))
	require.NoError(t, err)
	assert.Equal(t, fromJSON, fromYAML)
	assert.Equal(t, float64(2), fromYAML["n"])

	empty, err := loadValues(writeFile(t, "v.json", "  \n"))
	require.NoError(t, err)
	assert.Empty(t, empty)

	none, err := loadValues("")
	require.NoError(t, err)
	assert.NotNil(t, none)

	_, err = loadValues(writeFile(t, "v.json", `[1]`))
	require.Error(t, err)
}
