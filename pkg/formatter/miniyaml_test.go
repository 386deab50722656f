package formatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jihwankim/styleinfer/pkg/style"
)

func TestParseFlowStyleFlatValues(t *testing.T) {
	s, err := ParseFlowStyle("{ BasedOnStyle: LLVM, ColumnLimit: 80, UseTab: false }")
	require.NoError(t, err)

	v, ok := s.Get("BasedOnStyle")
	require.True(t, ok)
	assert.Equal(t, "LLVM", v.Str)

	v, ok = s.Get("ColumnLimit")
	require.True(t, ok)
	assert.Equal(t, int64(80), v.Int)

	v, ok = s.Get("UseTab")
	require.True(t, ok)
	assert.Equal(t, style.KindBool, v.Kind)
	assert.False(t, v.Bool)
}

func TestParseFlowStyleNested(t *testing.T) {
	s, err := ParseFlowStyle("{ BreakBeforeBraces: Custom, BraceWrapping: { AfterFunction: true, AfterClass: false } }")
	require.NoError(t, err)

	v, ok := s.Get("BraceWrapping")
	require.True(t, ok)
	require.Equal(t, style.KindStyle, v.Kind)

	inner, ok := v.Style.Get("AfterFunction")
	require.True(t, ok)
	assert.True(t, inner.Bool)
}

func TestParseFlowStyleRejectsMissingBrace(t *testing.T) {
	_, err := ParseFlowStyle("BasedOnStyle: LLVM")
	assert.Error(t, err)
}

func TestParseBlockStyleFlatAndNested(t *testing.T) {
	text := "---\n" +
		"Language: Cpp\n" +
		"ColumnLimit: 100\n" +
		"BraceWrapping:\n" +
		"  AfterFunction: true\n" +
		"  AfterClass:    false\n" +
		"UseTab: Never\n"

	s, err := ParseBlockStyle(text)
	require.NoError(t, err)

	v, ok := s.Get("ColumnLimit")
	require.True(t, ok)
	assert.Equal(t, int64(100), v.Int)

	v, ok = s.Get("BraceWrapping")
	require.True(t, ok)
	require.Equal(t, style.KindStyle, v.Kind)
	inner, ok := v.Style.Get("AfterFunction")
	require.True(t, ok)
	assert.True(t, inner.Bool)
	inner, ok = v.Style.Get("AfterClass")
	require.True(t, ok)
	assert.False(t, inner.Bool)

	v, ok = s.Get("UseTab")
	require.True(t, ok)
	assert.Equal(t, "Never", v.Str)
}

func TestParseBlockStyleSkipsDocumentMarkers(t *testing.T) {
	text := "---\nColumnLimit: 80\n...\n"

	s, err := ParseBlockStyle(text)
	require.NoError(t, err)

	v, ok := s.Get("ColumnLimit")
	require.True(t, ok)
	assert.Equal(t, int64(80), v.Int)
}

func TestParseBlockStyleInlineList(t *testing.T) {
	text := "ForEachMacros:   [ foreach, Q_FOREACH, BOOST_FOREACH ]\n"

	s, err := ParseBlockStyle(text)
	require.NoError(t, err)

	v, ok := s.Get("ForEachMacros")
	require.True(t, ok)
	assert.Equal(t, "foreach, Q_FOREACH, BOOST_FOREACH", v.Str)
}

func TestSerializeFlowRoundTripsThroughParseFlowStyle(t *testing.T) {
	original := style.Make(
		style.P("BasedOnStyle", style.StrValue("LLVM")),
		style.P("ColumnLimit", style.IntValue(90)),
		style.P("BraceWrapping", style.StyleValue(style.Make(style.P("AfterFunction", style.BoolValue(true))))),
	)

	flow := serializeFlow(original)
	parsed, err := ParseFlowStyle(flow)
	require.NoError(t, err)

	assert.True(t, original.Equal(parsed))
}
