package reporting

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *Logger {
	return NewLogger(LoggerConfig{Level: LogLevelError, Format: LogFormatJSON})
}

func newTestStorage(t *testing.T, keepLastN int) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "reports"), keepLastN, newTestLogger())
	require.NoError(t, err)
	return s
}

func sampleReport(runID string, start time.Time) *RunReport {
	return &RunReport{
		RunID:              runID,
		Mode:                "normal",
		Formatter:           "clang-format",
		Language:            "cpp",
		InputFiles:          []string{"a.cpp"},
		StartTime:           start,
		Duration:            "1.5s",
		Status:              StatusCompleted,
		Success:             true,
		RoundsRun:           2,
		CandidatesTotal:     10,
		CandidatesAccepted:  3,
		CacheHits:           4,
		CacheMisses:         6,
		BestStylePrimary:    0,
		BestStyleSecondary:  0,
		BestStyleText:       "BasedOnStyle=LLVM",
	}
}

func TestStorageSaveAndLoadReport(t *testing.T) {
	s := newTestStorage(t, 0)
	report := sampleReport("run-1", time.Now())

	path, err := s.SaveReport(report)
	require.NoError(t, err)
	assert.FileExists(t, path)

	loaded, err := s.LoadReport(path)
	require.NoError(t, err)
	assert.Equal(t, report.RunID, loaded.RunID)
	assert.Equal(t, report.BestStyleText, loaded.BestStyleText)
}

func TestStorageListReportsNewestFirst(t *testing.T) {
	s := newTestStorage(t, 0)
	older := sampleReport("run-old", time.Now().Add(-time.Hour))
	newer := sampleReport("run-new", time.Now())

	_, err := s.SaveReport(older)
	require.NoError(t, err)
	_, err = s.SaveReport(newer)
	require.NoError(t, err)

	summaries, err := s.ListReports()
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "run-new", summaries[0].RunID)
	assert.Equal(t, "run-old", summaries[1].RunID)
}

func TestStorageFindReportByRunID(t *testing.T) {
	s := newTestStorage(t, 0)
	_, err := s.SaveReport(sampleReport("run-target", time.Now()))
	require.NoError(t, err)

	found, err := s.FindReportByRunID("run-target")
	require.NoError(t, err)
	assert.Equal(t, "run-target", found.RunID)

	_, err = s.FindReportByRunID("does-not-exist")
	assert.Error(t, err)
}

func TestStorageCleanupKeepsOnlyLastN(t *testing.T) {
	s := newTestStorage(t, 2)

	base := time.Now()
	for i := 0; i < 4; i++ {
		_, err := s.SaveReport(sampleReport(
			"run-"+string(rune('a'+i)),
			base.Add(time.Duration(i)*time.Minute),
		))
		require.NoError(t, err)
	}

	summaries, err := s.ListReports()
	require.NoError(t, err)
	assert.Len(t, summaries, 2)
	// The two most recently started runs should survive cleanup.
	assert.Equal(t, "run-d", summaries[0].RunID)
	assert.Equal(t, "run-c", summaries[1].RunID)
}
