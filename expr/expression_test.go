package expr

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestExpression_DecodeJSON(t *testing.T) {
	var exprs map[string]Expression
	require.NoError(t, json.Unmarshal([]byte(`{"hide":"values.a == ''","props.max":3,"props.on":true}`), &exprs))

	assert.Equal(t, Source("values.a == ''"), exprs["hide"])
	assert.Equal(t, Literal(float64(3)), exprs["props.max"])
	assert.Equal(t, Literal(true), exprs["props.on"])
}

func TestExpression_DecodeYAML(t *testing.T) {
	var exprs map[string]Expression
	require.NoError(t, yaml.Unmarshal([]byte("hide: values.a == ''\nprops.on: false\n"), &exprs))

	assert.Equal(t, Source("values.a == ''"), exprs["hide"])
	assert.Equal(t, Literal(false), exprs["props.on"])
}

func TestExpression_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(map[string]Expression{"hide": Source("values.a"), "props.n": Literal(1)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"hide":"values.a","props.n":1}`, string(out))

	_, err = json.Marshal(Callable(func(map[string]any) (any, error) { return nil, nil }))
	assert.Error(t, err)
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(""))
	assert.False(t, Truthy(float64(0)))
	assert.False(t, Truthy(false))
	assert.True(t, Truthy("0"))
	assert.True(t, Truthy(map[string]any{}))
	assert.True(t, Truthy([]any{}))
	assert.True(t, Truthy(1))
}
