package formatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jihwankim/styleinfer/pkg/style"
)

func TestParseEvolutionProducesMonotonicVersionList(t *testing.T) {
	ops, err := parseEvolution(clangFormatEvolution)
	require.NoError(t, err)
	require.NotEmpty(t, ops)

	versions, schemas := schemaAtVersions(ops)
	require.Equal(t, len(versions), len(schemas))
	assert.Greater(t, len(versions), 1)
	for i := 1; i < len(versions); i++ {
		assert.False(t, versionLess(versions[i], versions[i-1]), "version %q follows %q", versions[i], versions[i-1])
	}
}

func TestSchemaGrowsAcrossVersionsAsOptionsAreAdded(t *testing.T) {
	ops, err := parseEvolution(clangFormatEvolution)
	require.NoError(t, err)
	_, schemas := schemaAtVersions(ops)

	assert.Less(t, schemas[0].Len(), schemas[len(schemas)-1].Len())
}

func TestRemovedOptionDisappearsFromLaterSchema(t *testing.T) {
	ops, err := parseEvolution(clangFormatEvolution)
	require.NoError(t, err)
	versions, schemas := schemaAtVersions(ops)

	// AlignEscapedNewlinesLeft is added in the very first Clang 3.5 block
	// and replaced by AlignEscapedNewlines under Clang 5.
	var before, after *int
	for i, v := range versions {
		if v == "4.0" && before == nil {
			idx := i
			before = &idx
		}
		if v == "5" {
			idx := i
			after = &idx
		}
	}
	require.NotNil(t, before)
	require.NotNil(t, after)

	_, hadIt := schemas[*before].Option("AlignEscapedNewlinesLeft")
	_, stillHasIt := schemas[*after].Option("AlignEscapedNewlinesLeft")
	assert.True(t, hadIt)
	assert.False(t, stillHasIt)
}

// TestFirstClangBlockMatchesOriginalEvolutionScenario replays the history up
// through the last block still labeled Clang 3.5 and checks it against the
// BasedOnStyle/ColumnLimit/BreakBeforeBraces scenario the option-history
// grammar describes: a schema replayed from the embedded data's earliest
// release must carry a style's foundational knobs from the very first
// block, not just by the time later releases are reached.
func TestFirstClangBlockMatchesOriginalEvolutionScenario(t *testing.T) {
	ops, err := parseEvolution(clangFormatEvolution)
	require.NoError(t, err)
	versions, schemas := schemaAtVersions(ops)

	var lastV35 *int
	for i, v := range versions {
		if v == "3.5" {
			idx := i
			lastV35 = &idx
		}
	}
	require.NotNil(t, lastV35)
	schema := schemas[*lastV35]

	basedOnStyle, ok := schema.Option("BasedOnStyle")
	require.True(t, ok)
	assert.Equal(t, style.TypeEnum, basedOnStyle.Type)
	assert.Contains(t, basedOnStyle.Configs, "LLVM")
	assert.Contains(t, basedOnStyle.Configs, "Google")
	assert.Contains(t, basedOnStyle.Configs, "Chromium")
	assert.Contains(t, basedOnStyle.Configs, "Mozilla")
	assert.Contains(t, basedOnStyle.Configs, "WebKit")

	columnLimit, ok := schema.Option("ColumnLimit")
	require.True(t, ok)
	assert.Equal(t, style.TypeUnsigned, columnLimit.Type)

	breakBeforeBraces, ok := schema.Option("BreakBeforeBraces")
	require.True(t, ok)
	assert.Equal(t, style.TypeEnum, breakBeforeBraces.Type)
	assert.Contains(t, breakBeforeBraces.Configs, "Attach")
	assert.Contains(t, breakBeforeBraces.Configs, "Linux")
	assert.Contains(t, breakBeforeBraces.Configs, "Stroustrup")
	assert.Contains(t, breakBeforeBraces.Configs, "Allman")
}

func TestBestMatchingSchemaPicksHighestIntersection(t *testing.T) {
	// ColumnLimit, IndentWidth and TabWidth are all present from the first
	// Clang 3.5 block onward, so every snapshot matches all three and the
	// earliest one wins the tiebreak.
	version, schema, err := BestMatchingSchema([]string{"ColumnLimit", "IndentWidth", "TabWidth"})
	require.NoError(t, err)
	assert.NotEmpty(t, version)
	_, ok := schema.Option("ColumnLimit")
	assert.True(t, ok)
}

func TestBestMatchingSchemaAddsUnknownLiveOptionsAsBool(t *testing.T) {
	_, schema, err := BestMatchingSchema([]string{"ColumnLimit", "SomeBrandNewOption"})
	require.NoError(t, err)

	opt, ok := schema.Option("SomeBrandNewOption")
	require.True(t, ok)
	assert.Equal(t, style.TypeBool, opt.Type)
}

func TestVersionLessOrdersDottedVersions(t *testing.T) {
	assert.True(t, versionLess("3.7", "3.9"))
	assert.True(t, versionLess("9", "10"))
	assert.False(t, versionLess("10", "9"))
}
