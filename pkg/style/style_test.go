package style

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignatureOrderInsensitive(t *testing.T) {
	a := Make(P("ColumnLimit", IntValue(80)), P("UseTab", StrValue("Never")))
	b := Make(P("UseTab", StrValue("Never")), P("ColumnLimit", IntValue(80)))

	assert.Equal(t, a.Signature(), b.Signature())
	assert.True(t, a.Equal(b))
}

func TestSignatureDistinguishesValues(t *testing.T) {
	a := Make(P("ColumnLimit", IntValue(80)))
	b := Make(P("ColumnLimit", IntValue(100)))

	assert.NotEqual(t, a.Signature(), b.Signature())
}

func TestSetPreservesInsertionPosition(t *testing.T) {
	s := Make(P("A", IntValue(1)), P("B", IntValue(2)))
	s = s.Set("A", IntValue(99))

	require.Equal(t, []string{"A", "B"}, s.Names())
	v, ok := s.Get("A")
	require.True(t, ok)
	assert.Equal(t, int64(99), v.Int)
}

func TestWithoutRemovesKey(t *testing.T) {
	s := Make(P("A", IntValue(1)), P("B", IntValue(2)))
	s = s.Without("A")

	_, ok := s.Get("A")
	assert.False(t, ok)
	assert.Equal(t, []string{"B"}, s.Names())
}

func TestTypeconvNormalizesBoolAndInt(t *testing.T) {
	v, err := Typeconv("true")
	require.NoError(t, err)
	assert.Equal(t, KindBool, v.Kind)
	assert.True(t, v.Bool)

	v, err = Typeconv("42")
	require.NoError(t, err)
	assert.Equal(t, KindInt, v.Kind)
	assert.Equal(t, int64(42), v.Int)

	v, err = Typeconv("Attach")
	require.NoError(t, err)
	assert.Equal(t, KindString, v.Kind)
	assert.Equal(t, "Attach", v.Str)
}

func TestImmutableMutationsDoNotAliasOriginal(t *testing.T) {
	base := Make(P("A", IntValue(1)))
	derived := base.Set("B", IntValue(2))

	assert.Equal(t, 1, base.Len())
	assert.Equal(t, 2, derived.Len())
}
