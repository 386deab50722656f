package reporting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jihwankim/styleinfer/pkg/diffdist"
	"github.com/jihwankim/styleinfer/pkg/search"
)

func TestProgressReporterRecordsRounds(t *testing.T) {
	pr := NewProgressReporter(FormatJSON, newTestLogger(), "run-1", "normal")

	pr.RoundStarted(1)
	pr.CandidateEvaluated(false)
	pr.CandidateEvaluated(true)
	pr.RoundCompleted(1, 2, 1, search.Distance{Diff: diffdist.Distance{Primary: 5, Secondary: 1}})

	pr.RoundStarted(2)
	pr.CandidateEvaluated(true)
	pr.RoundCompleted(2, 1, 1, search.Distance{Diff: diffdist.Distance{Primary: 0}})

	require.Len(t, pr.rounds, 2)
	assert.Equal(t, 5, pr.rounds[0].BestPrimary)
	assert.Equal(t, 0, pr.rounds[1].BestPrimary)
	assert.Equal(t, 3, pr.candidatesEvaluated)
	assert.Equal(t, 2, pr.cacheHits)
}

func TestProgressReporterFinalizeBuildsReport(t *testing.T) {
	pr := NewProgressReporter(FormatJSON, newTestLogger(), "run-2", "resilient")
	pr.RoundStarted(1)
	pr.CandidateEvaluated(false)
	pr.RoundCompleted(1, 1, 1, search.Distance{Diff: diffdist.Distance{Primary: 0}})

	report := pr.Finalize("clang-format", "cpp", []string{"a.cpp"}, StatusCompleted, 0, 0, "BasedOnStyle=LLVM", nil)

	assert.Equal(t, "run-2", report.RunID)
	assert.Equal(t, "resilient", report.Mode)
	assert.True(t, report.Success)
	assert.Equal(t, 1, report.RoundsRun)
	assert.Equal(t, 1, report.CandidatesAccepted)
	assert.Empty(t, report.Error)
}

func TestProgressReporterFinalizeRecordsFailure(t *testing.T) {
	pr := NewProgressReporter(FormatJSON, newTestLogger(), "run-3", "normal")
	report := pr.Finalize("clang-format", "cpp", nil, StatusFailed, 0, 0, "", assertError{})

	assert.False(t, report.Success)
	assert.Equal(t, "boom", report.Error)
}

type assertError struct{}

func (assertError) Error() string { return "boom" }
