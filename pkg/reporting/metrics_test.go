package reporting

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/jihwankim/styleinfer/pkg/diffdist"
	"github.com/jihwankim/styleinfer/pkg/search"
)

func TestMetricsRecordsRoundsAndCandidates(t *testing.T) {
	m := NewMetrics()

	m.RoundStarted(1)
	m.CandidateEvaluated(false)
	m.CandidateEvaluated(true)
	m.RoundCompleted(1, 2, 1, search.Distance{Diff: diffdist.Distance{Primary: 3, Secondary: 1}})

	assert.Equal(t, float64(1), testutil.ToFloat64(m.roundsTotal))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.candidatesTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.cacheHitsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.acceptedTotal))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.bestPrimary))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.bestSecondary))
}

func TestMetricsRegistryGatherSucceeds(t *testing.T) {
	m := NewMetrics()
	m.RoundStarted(1)

	families, err := m.Registry().Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)
}
