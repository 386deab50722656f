package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jihwankim/styleinfer/pkg/style"
)

func TestRunResilientProducesAttemptMatchingReference(t *testing.T) {
	inputs := []InputFile{
		{
			Path:             "a.txt",
			Content:          []byte("hello\n"),
			ReferencePath:    "a.txt",
			ReferenceContent: []byte("HELLO\n"),
		},
	}

	best, err := RunResilient(context.Background(), upperAdapter{}, newTestDispatcher(), "sh", inputs, testConfig(), style.Style{})
	require.NoError(t, err)
	require.NotNil(t, best)

	v, ok := best.Style.Get("Upper")
	require.True(t, ok)
	assert.True(t, v.Bool)
	assert.Equal(t, 0, best.Distance.Diff.Primary)
}

func TestReformatVariantsUsesFormatterDefaults(t *testing.T) {
	inputs := []InputFile{
		{Path: "a.txt", Content: []byte("hello\n")},
		{Path: "b.txt", Content: []byte("world\n")},
	}

	variants, err := reformatVariants(context.Background(), upperAdapter{}, newTestDispatcher(), "sh", inputs, testConfig().Timeout)
	require.NoError(t, err)
	require.Len(t, variants, 2)

	// upperAdapter's empty style runs "cat", so the default-style variant
	// is byte-identical to the original input.
	assert.Equal(t, []byte("hello\n"), variants[0].ReferenceContent)
	assert.Equal(t, []byte("world\n"), variants[1].ReferenceContent)
	assert.Equal(t, "a.txt", variants[0].Path)
	assert.Equal(t, "b.txt", variants[1].Path)
}

func TestRunResilientWeightsVariantDistanceIntoSelection(t *testing.T) {
	// A reference that's already uppercase but a variant target that's
	// lowercase: with VariantsFactor heavily weighted, the search should
	// still prefer Upper=true since it is strictly better on the primary
	// (unweighted) reference distance and VariantTargets only breaks ties
	// among otherwise-equal candidates, never overrides a worse primary
	// match.
	inputs := []InputFile{
		{
			Path:             "a.txt",
			Content:          []byte("hi\n"),
			ReferencePath:    "a.txt",
			ReferenceContent: []byte("HI\n"),
		},
	}

	cfg := testConfig()
	cfg.SourceFactor = 1.0
	cfg.VariantsFactor = 10.0

	best, err := RunResilient(context.Background(), upperAdapter{}, newTestDispatcher(), "sh", inputs, cfg, style.Style{})
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, 0, best.Distance.Diff.Primary)
}
