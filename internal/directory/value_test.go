package directory

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueUnmarshal(t *testing.T) {
	t.Parallel()

	var v Value
	require.NoError(t, json.Unmarshal([]byte(`{"name":"OIP","count":3,"active":true,"tags":["a","b"],"gone":null}`), &v))

	require.Equal(t, KindMap, v.Kind)
	assert.Equal(t, "OIP", v.FieldText("name"))
	assert.Equal(t, "3", v.FieldText("count"))

	active, ok := v.Field("active")
	require.True(t, ok)
	assert.Equal(t, KindBool, active.Kind)
	assert.True(t, active.Bool)

	tags, ok := v.Field("tags")
	require.True(t, ok)
	require.Equal(t, KindList, tags.Kind)
	require.Len(t, tags.List, 2)

	gone, ok := v.Field("gone")
	require.True(t, ok)
	assert.Equal(t, KindNull, gone.Kind)
}

func TestValueMarshalDeterministic(t *testing.T) {
	t.Parallel()

	var v Value
	require.NoError(t, json.Unmarshal([]byte(`{"zeta":1,"alpha":{"b":2,"a":1},"mid":["x"]}`), &v))

	first, err := json.Marshal(v)
	require.NoError(t, err)
	for range 10 {
		again, err := json.Marshal(v)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
	assert.Equal(t, `{"alpha":{"a":1,"b":2},"mid":["x"],"zeta":1}`, string(first))
}

func TestValueFieldOnNonMap(t *testing.T) {
	t.Parallel()

	v := Value{Kind: KindString, Str: "plain"}
	_, ok := v.Field("anything")
	assert.False(t, ok)
	assert.Equal(t, "", v.FieldText("anything"))
}

func TestTextNumbersShortestForm(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "42", Value{Kind: KindNumber, Num: 42}.Text())
	assert.Equal(t, "2.5", Value{Kind: KindNumber, Num: 2.5}.Text())
	assert.Equal(t, "", Value{Kind: KindBool, Bool: true}.Text())
}

func TestWalkStringsDeterministicOrder(t *testing.T) {
	t.Parallel()

	var v Value
	require.NoError(t, json.Unmarshal([]byte(`{"b":"second","a":"first","list":["third","fourth"]}`), &v))

	var got []string
	WalkStrings(v, func(s string) { got = append(got, s) })
	assert.Equal(t, []string{"first", "second", "third", "fourth"}, got)
}
