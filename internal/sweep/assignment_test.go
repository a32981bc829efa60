package sweep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestFormatValue(t *testing.T) {
	testCases := []struct {
		in   cty.Value
		want string
	}{
		{cty.NumberIntVal(10), "10"},
		{cty.NumberFloatVal(2.5), "2.5"},
		{cty.NumberFloatVal(-0.05), "-0.05"},
		{cty.NumberFloatVal(0.1), "0.1"},
		{cty.StringVal("fast"), "fast"},
		{cty.True, "true"},
		{cty.NullVal(cty.Number), "null"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, FormatValue(tc.in))
	}
}

func TestAssignment_Accessors(t *testing.T) {
	a := NewAssignment([]string{"b", "a"}, []cty.Value{cty.NumberIntVal(1), cty.StringVal("x")})

	assert.Equal(t, 2, a.Len())
	assert.Equal(t, []string{"b", "a"}, a.Names())
	assert.Equal(t, "b=1 a=x", a.String())

	v, ok := a.Get("a")
	require.True(t, ok)
	assert.Equal(t, "x", v.AsString())
	_, ok = a.Get("missing")
	assert.False(t, ok)

	var names []string
	for name := range a.All() {
		names = append(names, name)
	}
	assert.Equal(t, []string{"b", "a"}, names)

	obj := a.Object()
	assert.True(t, obj.GetAttr("b").RawEquals(cty.NumberIntVal(1)))

	assert.True(t, a.Equal(NewAssignment([]string{"b", "a"}, []cty.Value{cty.NumberIntVal(1), cty.StringVal("x")})))
	assert.False(t, a.Equal(NewAssignment([]string{"a", "b"}, []cty.Value{cty.StringVal("x"), cty.NumberIntVal(1)})))
}

func TestNewAssignment_PanicsOnLengthMismatch(t *testing.T) {
	assert.Panics(t, func() {
		NewAssignment([]string{"a"}, nil)
	})
}
