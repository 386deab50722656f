package reporting

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jihwankim/styleinfer/pkg/search"
)

// OutputFormat selects how ProgressReporter renders round-by-round updates.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// ProgressReporter prints one inference run's round-by-round progress and
// implements search.Hooks directly, so a caller hands it straight to
// search.Config.Hooks (or wraps it in search.MultiHooks alongside a Metrics
// recorder) without an adapter layer in between.
type ProgressReporter struct {
	format OutputFormat
	logger *Logger

	runID     string
	mode      string
	startTime time.Time

	candidatesEvaluated int
	cacheHits           int
	rounds              []RoundSummary
	lastRoundStart      time.Time
}

// NewProgressReporter creates a reporter for one run, identified by runID
// and mode (the Config.Metric/Additive combination the caller resolved into
// a human-facing mode name).
func NewProgressReporter(format OutputFormat, logger *Logger, runID, mode string) *ProgressReporter {
	return &ProgressReporter{
		format:    format,
		logger:    logger,
		runID:     runID,
		mode:      mode,
		startTime: time.Now(),
	}
}

// RoundStarted implements search.Hooks.
func (pr *ProgressReporter) RoundStarted(round int) {
	pr.lastRoundStart = time.Now()
	if pr.format == FormatJSON {
		pr.printJSON(map[string]interface{}{
			"event": "round_started",
			"round": round,
		})
		return
	}
	pr.logger.Debug("round started", "run_id", pr.runID, "round", round)
}

// RoundCompleted implements search.Hooks: it records the round for later
// persistence and prints a one-line progress update.
func (pr *ProgressReporter) RoundCompleted(round, candidates, accepted int, best search.Distance) {
	elapsed := time.Since(pr.lastRoundStart)
	summary := RoundSummary{
		Round:         round,
		Candidates:    candidates,
		Accepted:      accepted,
		BestPrimary:   best.Diff.Primary,
		BestSecondary: best.Diff.Secondary,
		Elapsed:       elapsed.Round(time.Millisecond).String(),
		Timestamp:     time.Now(),
	}
	pr.rounds = append(pr.rounds, summary)

	switch pr.format {
	case FormatJSON:
		pr.printJSON(map[string]interface{}{
			"event":   "round_completed",
			"summary": summary,
		})
	default:
		fmt.Printf("[round %d] %d candidates, %d accepted, best=(%d,%d) in %s\n",
			round, candidates, accepted, best.Diff.Primary, best.Diff.Secondary, summary.Elapsed)
	}
}

// CandidateEvaluated implements search.Hooks, tallying cache hits for the
// final report's CacheHits/CacheMisses fields.
func (pr *ProgressReporter) CandidateEvaluated(cacheHit bool) {
	pr.candidatesEvaluated++
	if cacheHit {
		pr.cacheHits++
	}
}

// Finalize builds the completed RunReport from everything this reporter has
// observed, given the run's final measured outcome.
func (pr *ProgressReporter) Finalize(formatterExe, language string, inputFiles []string, status RunStatus, bestPrimary, bestSecondary int, bestStyleText string, runErr error) *RunReport {
	report := &RunReport{
		RunID:               pr.runID,
		Mode:                pr.mode,
		Formatter:            formatterExe,
		Language:             language,
		InputFiles:           inputFiles,
		StartTime:            pr.startTime,
		Duration:             time.Since(pr.startTime).Round(time.Millisecond).String(),
		Status:               status,
		Success:              status == StatusCompleted,
		RoundsRun:            len(pr.rounds),
		CandidatesTotal:      pr.candidatesEvaluated,
		CacheHits:            pr.cacheHits,
		CacheMisses:          pr.candidatesEvaluated - pr.cacheHits,
		BestStylePrimary:     bestPrimary,
		BestStyleSecondary:   bestSecondary,
		BestStyleText:        bestStyleText,
		Rounds:               pr.rounds,
	}
	if runErr != nil {
		report.Error = runErr.Error()
	}

	accepted := 0
	for _, r := range pr.rounds {
		accepted += r.Accepted
	}
	report.CandidatesAccepted = accepted

	if pr.format == FormatJSON {
		pr.printJSON(map[string]interface{}{"event": "run_completed", "report": report})
	} else {
		pr.printTextSummary(report)
	}
	return report
}

func (pr *ProgressReporter) printJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		pr.logger.Error("failed to marshal progress event", "error", err)
		return
	}
	fmt.Println(string(data))
}

func (pr *ProgressReporter) printTextSummary(report *RunReport) {
	status := "SUCCESS"
	if !report.Success {
		status = "FAILED"
	}
	if report.Status == StatusStopped {
		status = "STOPPED"
	}

	fmt.Printf("\n[run %s] %s\n", report.RunID, status)
	fmt.Printf("  mode:      %s\n", report.Mode)
	fmt.Printf("  formatter: %s\n", report.Formatter)
	fmt.Printf("  duration:  %s\n", report.Duration)
	fmt.Printf("  rounds:    %d\n", report.RoundsRun)
	fmt.Printf("  cache:     %d hits, %d misses\n", report.CacheHits, report.CacheMisses)
	fmt.Printf("  best:      (%d, %d)\n", report.BestStylePrimary, report.BestStyleSecondary)
	if report.Error != "" {
		fmt.Printf("  error:     %s\n", report.Error)
	}
	fmt.Println()
}
