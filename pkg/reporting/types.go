package reporting

import "time"

// RunStatus is the terminal (or current) disposition of one inference run.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
	StatusStopped   RunStatus = "stopped"
)

// RoundSummary is one round's outcome, the unit ProgressReporter.RoundCompleted
// records for the run report and prints (spec §4.6's round-by-round loop, §6's
// "Persisted state").
type RoundSummary struct {
	Round         int       `json:"round"`
	Candidates    int       `json:"candidates"`
	Accepted      int       `json:"accepted"`
	BestPrimary   int       `json:"best_primary"`
	BestSecondary int       `json:"best_secondary"`
	Elapsed       string    `json:"elapsed"`
	Timestamp     time.Time `json:"timestamp"`
}

// RunReport is the full record of one completed (or failed) inference run,
// persisted to disk via Storage and re-loadable for `--list`/`--show`-style
// inspection (spec §6).
type RunReport struct {
	RunID      string    `json:"run_id"`
	Mode       string    `json:"mode"`
	Formatter  string    `json:"formatter"`
	Language   string    `json:"language"`
	InputFiles []string  `json:"input_files"`
	StartTime  time.Time `json:"start_time"`
	Duration   string    `json:"duration"`
	Status     RunStatus `json:"status"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`

	RoundsRun          int `json:"rounds_run"`
	CandidatesTotal    int `json:"candidates_total"`
	CandidatesAccepted int `json:"candidates_accepted"`
	CacheHits          int `json:"cache_hits"`
	CacheMisses        int `json:"cache_misses"`

	BestStylePrimary   int    `json:"best_style_primary"`
	BestStyleSecondary int    `json:"best_style_secondary"`
	BestStyleText      string `json:"best_style_text"`

	Rounds []RoundSummary `json:"rounds"`
}

// ReportSummary is the compact record ListReports returns, so a caller can
// enumerate past runs without loading every full RunReport from disk.
type ReportSummary struct {
	RunID     string    `json:"run_id"`
	Mode      string    `json:"mode"`
	Formatter string    `json:"formatter"`
	StartTime time.Time `json:"start_time"`
	Duration  string    `json:"duration"`
	Status    RunStatus `json:"status"`
	Success   bool      `json:"success"`
	Filepath  string    `json:"filepath"`
}

// LiveRunState is a snapshot of a run that is still in progress; nothing in
// this package fills or prints it. It is kept separate from RunReport since
// it carries transient
// fields (Elapsed, CandidatesEvaluated-so-far) that have no place in a
// finished record.
type LiveRunState struct {
	RunID               string
	Mode                string
	StartTime           time.Time
	Elapsed             time.Duration
	Round               int
	CandidatesEvaluated int
	CacheHits           int
	BestPrimary         int
	BestSecondary       int
}
