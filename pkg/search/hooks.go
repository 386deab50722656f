package search

// Hooks lets a caller observe one run's progress without the engine
// depending on any particular reporting or metrics backend — the "global
// mutable state... encapsulated as an explicit context object" design note
// (spec §9) applied to progress reporting rather than to verbosity flags.
// All methods must tolerate being called from the engine's single
// controller goroutine only; Hooks is never invoked concurrently.
type Hooks interface {
	// RoundStarted fires once per outer round, before derivations are
	// generated.
	RoundStarted(round int)
	// RoundCompleted fires after a round's candidates have all been
	// evaluated, reporting how many were generated, how many survived the
	// acceptance policy, and the best distance known after the round.
	RoundCompleted(round int, candidates, accepted int, best Distance)
	// CandidateEvaluated fires once per formatting job dispatched while
	// evaluating a round's candidates, reporting whether it was served
	// from cache.
	CandidateEvaluated(cacheHit bool)
}

// NoopHooks implements Hooks with no-op methods, the default when a caller
// supplies none.
type NoopHooks struct{}

func (NoopHooks) RoundStarted(int)                         {}
func (NoopHooks) RoundCompleted(int, int, int, Distance)    {}
func (NoopHooks) CandidateEvaluated(bool)                   {}

// hooks returns e.cfg.Hooks, or NoopHooks{} if the caller supplied none, so
// engine code never needs a nil check.
func (e *Engine) hooks() Hooks {
	if e.cfg.Hooks == nil {
		return NoopHooks{}
	}
	return e.cfg.Hooks
}

// MultiHooks fans one set of engine events out to several Hooks
// implementations, so a run can feed both a human-facing ProgressReporter and
// a prometheus-backed Metrics recorder without the engine knowing either
// exists.
type MultiHooks []Hooks

func (m MultiHooks) RoundStarted(round int) {
	for _, h := range m {
		h.RoundStarted(round)
	}
}

func (m MultiHooks) RoundCompleted(round, candidates, accepted int, best Distance) {
	for _, h := range m {
		h.RoundCompleted(round, candidates, accepted, best)
	}
}

func (m MultiHooks) CandidateEvaluated(cacheHit bool) {
	for _, h := range m {
		h.CandidateEvaluated(cacheHit)
	}
}
