package formatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jihwankim/styleinfer/pkg/style"
)

func TestVariantsForBoolReturnsBothValues(t *testing.T) {
	c := NewClangFormatter()
	opt := style.Option{Name: "SortIncludes", Type: style.TypeBool}

	variants := c.VariantsFor(opt)

	require.Len(t, variants, 2)
	v0, _ := variants[0].Get("SortIncludes")
	v1, _ := variants[1].Get("SortIncludes")
	assert.NotEqual(t, v0.Bool, v1.Bool)
}

func TestVariantsForEnumReturnsEachConfig(t *testing.T) {
	c := NewClangFormatter()
	opt := style.Option{Name: "BreakBeforeBraces", Type: style.TypeEnum, Configs: []string{"Attach", "Linux"}}

	variants := c.VariantsFor(opt)

	require.Len(t, variants, 2)
}

// TestVariantsForUseTabProducesTabWidthProduct exercises the real
// clang-format UseTab enum and its interdependency with TabWidth (spec
// §4.5, §8-S1): Never stands alone, and each of the remaining two values
// is paired with every width 1-8, for 1 + 8 + 8 = 17 variants total.
func TestVariantsForUseTabProducesTabWidthProduct(t *testing.T) {
	c := NewClangFormatter()
	opt := style.Option{Name: "UseTab", Type: style.TypeEnum, Configs: []string{"Never", "ForIndentation", "Always"}}

	variants := c.VariantsFor(opt)
	require.Len(t, variants, 17)

	var neverCount, forIndentCount, alwaysCount int
	widthsSeenForIndent := map[int64]bool{}
	widthsSeenAlways := map[int64]bool{}
	for _, v := range variants {
		useTab, _ := v.Get("UseTab")
		tabWidth, hasWidth := v.Get("TabWidth")
		switch useTab.Str {
		case "Never":
			neverCount++
			assert.False(t, hasWidth)
		case "ForIndentation":
			forIndentCount++
			require.True(t, hasWidth)
			widthsSeenForIndent[tabWidth.Int] = true
		case "Always":
			alwaysCount++
			require.True(t, hasWidth)
			widthsSeenAlways[tabWidth.Int] = true
		}
	}

	assert.Equal(t, 1, neverCount)
	assert.Equal(t, 8, forIndentCount)
	assert.Equal(t, 8, alwaysCount)
	for w := int64(1); w <= 8; w++ {
		assert.True(t, widthsSeenForIndent[w])
		assert.True(t, widthsSeenAlways[w])
	}
}

func TestVariantsForColumnLimitIncludesZeroAndRange(t *testing.T) {
	c := NewClangFormatter()
	opt := style.Option{Name: "ColumnLimit", Type: style.TypeUnsigned}

	variants := c.VariantsFor(opt)

	seen := map[int64]bool{}
	for _, v := range variants {
		val, _ := v.Get("ColumnLimit")
		seen[val.Int] = true
	}
	assert.True(t, seen[0])
	assert.True(t, seen[80])
	assert.True(t, seen[120])
	assert.False(t, seen[121])
}

func TestVariantsForIgnoredOptionIsEmpty(t *testing.T) {
	c := NewClangFormatter()
	opt := style.Option{Name: "Language", Type: style.TypeEnum, Configs: []string{"Cpp", "Java"}}

	assert.Empty(t, c.VariantsFor(opt))
}

func TestSerializeProducesClangFormatDocument(t *testing.T) {
	c := NewClangFormatter()
	s := style.Make(style.P("BasedOnStyle", style.StrValue("LLVM")), style.P("ColumnLimit", style.IntValue(100)))

	out, err := c.Serialize(s)
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "---")
	assert.Contains(t, text, "BasedOnStyle: LLVM")
	assert.Contains(t, text, "ColumnLimit: 100")
}

func TestValidResultRejectsNonZeroExit(t *testing.T) {
	c := NewClangFormatter()
	job := Job{Source: []byte("int x;")}

	_, valid := c.ValidResult(job, InvocationResult{ExitCode: 1, Stdout: []byte("int x;")})
	assert.False(t, valid)
}

func TestValidResultRejectsEmptyStdoutForNonEmptyInput(t *testing.T) {
	c := NewClangFormatter()
	job := Job{Source: []byte("int x;")}

	_, valid := c.ValidResult(job, InvocationResult{ExitCode: 0})
	assert.False(t, valid)
}

func TestValidResultAcceptsCleanOutput(t *testing.T) {
	c := NewClangFormatter()
	job := Job{Source: []byte("int x;")}

	out, valid := c.ValidResult(job, InvocationResult{ExitCode: 0, Stdout: []byte("int x;\n")})
	assert.True(t, valid)
	assert.Equal(t, "int x;\n", string(out))
}

func TestDetectsInvalidCmdlineRecognizesUnknownOption(t *testing.T) {
	c := NewClangFormatter()

	assert.True(t, c.DetectsInvalidCmdline(InvocationResult{Stderr: []byte("unknown option NotAReal Option")}))
	assert.False(t, c.DetectsInvalidCmdline(InvocationResult{Stderr: []byte("")}))
}

func TestContainsMajorStyleRecognizesKnownNames(t *testing.T) {
	c := NewClangFormatter()

	assert.True(t, c.ContainsMajorStyle(style.Make(style.P("BasedOnStyle", style.StrValue("Google")))))
	assert.False(t, c.ContainsMajorStyle(style.Make(style.P("ColumnLimit", style.IntValue(80)))))
}

func TestComplexityCountsNestedOptions(t *testing.T) {
	c := NewClangFormatter()
	flat := style.Make(style.P("ColumnLimit", style.IntValue(80)))
	nested := style.Make(
		style.P("ColumnLimit", style.IntValue(80)),
		style.P("BraceWrapping", style.StyleValue(style.Make(style.P("AfterFunction", style.BoolValue(true))))),
	)

	assert.Equal(t, 1, c.Complexity(flat))
	assert.Equal(t, 3, c.Complexity(nested)) // ColumnLimit + BraceWrapping + AfterFunction
}

func TestArgvForStyleUsesInlineFlowForSmallStyles(t *testing.T) {
	c := NewClangFormatter()
	s := style.Make(style.P("BasedOnStyle", style.StrValue("LLVM")))

	argv, cleanup, err := c.ArgvForStyle("clang-format", s, "foo.cpp")
	require.NoError(t, err)
	defer cleanup()

	require.Len(t, argv, 2)
	assert.Contains(t, argv[0], "-style=")
	assert.Contains(t, argv[0], "BasedOnStyle: LLVM")
	assert.Equal(t, "-assume-filename=foo.cpp", argv[1])
}
