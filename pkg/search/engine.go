package search

import (
	"container/heap"
	"context"
	"fmt"
	"time"

	"github.com/jihwankim/styleinfer/pkg/cache"
	"github.com/jihwankim/styleinfer/pkg/diffdist"
	"github.com/jihwankim/styleinfer/pkg/dispatcher"
	"github.com/jihwankim/styleinfer/pkg/formatter"
	"github.com/jihwankim/styleinfer/pkg/runner"
	"github.com/jihwankim/styleinfer/pkg/style"
)

// InputFile is one source file under test, paired with the reference
// output the search measures distance against.
type InputFile struct {
	Path             string
	Content          []byte
	ReferencePath    string
	ReferenceContent []byte
}

// Config parameterizes one Engine.Run pass. Modes (minimize/maximize/
// maxdiff/resilient/stylediff) are expressed by the caller choosing Metric
// and Additive rather than as a mode enum the engine branches on
// internally (spec §4.6).
type Config struct {
	Metric          diffdist.Metric
	Additive        bool // false for stylediff's value-altering passes
	MaxRounds       int  // -1 = unlimited
	AcceptFromRound int
	IgnoreOptions   map[string]bool
	DiffTool        diffdist.ToolKind
	Timeout         time.Duration

	// VariantTargets, when non-empty, are extra (path, content) pairs a
	// candidate's output is also diffed against: resilient mode's
	// default-style reformat of each input (spec §4.6). Index i of
	// VariantTargets pairs with input file i; an entry with a nil
	// ReferenceContent is skipped.
	VariantTargets []InputFile
	// SourceFactor and VariantsFactor weight, respectively, the ordinary
	// reference distance and the VariantTargets distance when both are
	// present. Zero defaults to 1.0 for whichever factor is unset, so a
	// caller that never touches resilient mode sees unweighted behavior.
	SourceFactor   float64
	VariantsFactor float64
	Hooks          Hooks
}

// Engine drives one style-search run to completion.
type Engine struct {
	adapter    formatter.Adapter
	dispatcher *dispatcher.Dispatcher
	exe        string
	inputs     []InputFile
	cfg        Config
	identity   *cache.IdentityCache
	diffTool   diffdist.Tool

	schema                *style.StyleDef
	globalWorseOptions    map[string]int
	invalidCmdlineOptions map[string]bool
	finishedStyles        map[string]bool
	visitedSignatures     map[string]bool
	ordinal               int
}

func NewEngine(adapter formatter.Adapter, disp *dispatcher.Dispatcher, exe string, inputs []InputFile, cfg Config) *Engine {
	if cfg.IgnoreOptions == nil {
		cfg.IgnoreOptions = map[string]bool{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = runner.DefaultTimeout
	}
	if cfg.Metric == "" {
		cfg.Metric = diffdist.MetricMinDiff
	}
	if cfg.SourceFactor == 0 {
		cfg.SourceFactor = 1.0
	}
	if cfg.VariantsFactor == 0 {
		cfg.VariantsFactor = 1.0
	}
	return &Engine{
		adapter:               adapter,
		dispatcher:            disp,
		exe:                   exe,
		inputs:                inputs,
		cfg:                   cfg,
		identity:              cache.NewIdentityCache(),
		globalWorseOptions:    map[string]int{},
		invalidCmdlineOptions: map[string]bool{},
		finishedStyles:        map[string]bool{},
		visitedSignatures:     map[string]bool{},
	}
}

// Run executes the round-based state machine described in spec §4.6 and
// returns the best attempt found.
func (e *Engine) Run(ctx context.Context, startStyle style.Style) (*Attempt, error) {
	schema, err := e.adapter.RegisterSchema(ctx, e.exe)
	if err != nil {
		return nil, fmt.Errorf("search: registering schema: %w", err)
	}
	e.schema = schema

	tool, err := diffdist.NewTool(e.cfg.DiffTool)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if err := diffdist.Validate(ctx, tool); err != nil {
		return nil, fmt.Errorf("search: diff tool failed validation: %w", err)
	}
	e.diffTool = tool

	h := &Heap{}
	heap.Init(h)

	if err := e.measureAndSeed(ctx, h, []style.Style{startStyle}); err != nil {
		return nil, err
	}
	if h.Len() == 0 {
		return nil, fmt.Errorf("search: the files could not be reformatted at all")
	}

	round := 1
	for {
		if e.cfg.MaxRounds >= 0 && round > e.cfg.MaxRounds {
			break
		}

		best := (*h)[0]
		prevDistance := best.Distance

		if err := e.runRound(ctx, h, best, round); err != nil {
			return nil, err
		}

		newBest := (*h)[0]
		if !newBest.Distance.Equal(prevDistance) {
			round++
			continue
		}

		e.finishedStyles[newBest.Style.Signature()] = true
		nested := e.adapter.NestedDerivations(newBest.Style)
		if len(nested) == 0 {
			break
		}

		*h = Heap{}
		heap.Init(h)
		if err := e.measureAndSeed(ctx, h, nested); err != nil {
			return nil, err
		}
		if h.Len() == 0 {
			break
		}
		round++
	}

	return (*h)[0], nil
}

// measureAndSeed measures each of seeds independently (no derivation) and
// pushes the resulting attempts onto h, used for round 0 and for
// reseeding a nested round.
func (e *Engine) measureAndSeed(ctx context.Context, h *Heap, seeds []style.Style) error {
	candidates := make([]candidateInfo, len(seeds))
	for i, s := range seeds {
		candidates[i] = candidateInfo{style: s}
	}

	attempts, _, err := e.evaluateCandidates(ctx, candidates)
	if err != nil {
		return err
	}
	for _, a := range attempts {
		heap.Push(h, a)
	}
	return nil
}

// runRound generates derivations from best, evaluates the survivors, and
// pushes every accepted attempt onto h (spec §4.6, round k >= 1).
func (e *Engine) runRound(ctx context.Context, h *Heap, best *Attempt, round int) error {
	e.hooks().RoundStarted(round)

	candidates := e.deriveCandidates(ctx, best, round)
	if len(candidates) == 0 {
		e.hooks().RoundCompleted(round, 0, 0, best.Distance)
		return nil
	}

	attempts, groupOutcomes, err := e.evaluateCandidates(ctx, candidates)
	if err != nil {
		return err
	}

	accepted := 0
	bestDistance := best.Distance
	for i, a := range attempts {
		if a == nil {
			continue
		}
		improved := a.Distance.StrictlyBetter(best.Distance)
		if !improved {
			e.globalWorseOptions[candidates[i].groupSig]++
		}
		if round >= e.cfg.AcceptFromRound && !improved {
			continue
		}
		heap.Push(h, a)
		accepted++
		if a.Distance.Less(bestDistance) {
			bestDistance = a.Distance
		}
	}

	for groupSig, unknown := range groupOutcomes {
		if unknown {
			e.invalidCmdlineOptions[groupSig] = true
		}
	}

	e.hooks().RoundCompleted(round, len(candidates), accepted, bestDistance)
	return nil
}

// candidateInfo is one style under evaluation together with the option
// group (single-variant signature) that produced it, used for
// blacklisting and worse-option tracking.
type candidateInfo struct {
	style    style.Style
	groupSig string
}

// deriveCandidates generates and prunes round k's derivations from best,
// per spec §4.6.
func (e *Engine) deriveCandidates(ctx context.Context, best *Attempt, round int) []candidateInfo {
	var effective style.Style
	if es, err := e.adapter.EffectiveStyle(ctx, e.exe, best.Style); err == nil {
		effective = es
	}

	var candidates []candidateInfo

	for _, opt := range e.schema.Options() {
		if e.cfg.IgnoreOptions[opt.Name] {
			continue
		}

		for _, variant := range e.adapter.VariantsFor(opt) {
			groupSig := variant.Signature()

			if e.invalidCmdlineOptions[groupSig] {
				continue
			}
			if e.globalWorseOptions[groupSig] > 0 {
				continue
			}
			if e.cfg.Additive {
				if _, present := best.Style.Get(opt.Name); present {
					continue
				}
				if round == 1 && e.adapter.PreferBaseStyle() && !e.adapter.ContainsMajorStyle(variant) {
					continue
				}
			}
			if !effective.Empty() && style.ContainsAll(variant, effective, true) {
				continue
			}

			merged := style.Merge(best.Style, variant)
			sig := merged.Signature()
			if e.visitedSignatures[sig] {
				continue
			}
			e.visitedSignatures[sig] = true

			candidates = append(candidates, candidateInfo{style: merged, groupSig: groupSig})
		}
	}

	return candidates
}

// jobMeta tracks which (candidate, input file) a dispatcher job belongs to.
type jobMeta struct {
	candidateIdx int
	fileIdx      int
	cleanup      func()
}

// evaluateCandidates formats every input file under every candidate style
// in one dispatcher batch, classifies each candidate's result set, and
// returns one Attempt per still-valid candidate (nil entries mark
// discarded candidates) plus, per group signature, whether that group was
// rejected specifically for an "unknown option" error.
func (e *Engine) evaluateCandidates(ctx context.Context, candidates []candidateInfo) ([]*Attempt, map[string]bool, error) {
	groupUnknown := map[string]bool{}
	if len(candidates) == 0 || len(e.inputs) == 0 {
		return nil, groupUnknown, nil
	}

	var jobs []dispatcher.Job
	var metas []jobMeta
	candidateAlive := make([]bool, len(candidates))
	for i := range candidateAlive {
		candidateAlive[i] = true
	}

	exeID, idErr := e.identity.Get(e.exe, "")
	_ = idErr // on an identity lookup failure the keys below fall back to style signature plus input path, without file content

	for ci, c := range candidates {
		for fi, in := range e.inputs {
			argv, cleanup, err := e.adapter.ArgvForStyle(e.exe, c.style, in.Path)
			if err != nil {
				candidateAlive[ci] = false
				continue
			}
			key := exeID.Digest() + ":" + c.style.Signature() + ":" + in.Path
			if idErr == nil {
				key = cache.DeriveKey(exeID, argv, []cache.DepFile{{Path: in.Path, Content: in.Content}})
			}
			jobs = append(jobs, dispatcher.Job{
				CacheKey: key,
				Exe:      e.exe,
				Argv:     argv,
				Stdin:    in.Content,
				Timeout:  e.cfg.Timeout,
			})
			metas = append(metas, jobMeta{candidateIdx: ci, fileIdx: fi, cleanup: cleanup})
		}
	}

	results, err := e.dispatcher.Run(ctx, jobs)
	if err != nil {
		return nil, groupUnknown, fmt.Errorf("search: dispatching formatting jobs: %w", err)
	}

	outputs := make([][][]byte, len(candidates))
	for i := range outputs {
		outputs[i] = make([][]byte, len(e.inputs))
	}

	for idx, res := range results {
		m := metas[idx]
		if m.cleanup != nil {
			m.cleanup()
		}
		e.hooks().CandidateEvaluated(res.CacheHit)
		if !candidateAlive[m.candidateIdx] {
			continue
		}

		invocation := formatter.InvocationResult{ExitCode: res.ExitCode, Stdout: res.Stdout, Stderr: res.Stderr, OSError: res.OSError}
		job := formatter.Job{Style: candidates[m.candidateIdx].style, Filename: e.inputs[m.fileIdx].Path, Source: e.inputs[m.fileIdx].Content}

		output, valid := e.adapter.ValidResult(job, invocation)
		if !valid {
			candidateAlive[m.candidateIdx] = false
			if e.adapter.DetectsInvalidCmdline(invocation) {
				groupUnknown[candidates[m.candidateIdx].groupSig] = true
			}
			continue
		}
		outputs[m.candidateIdx][m.fileIdx] = output
	}

	attempts := make([]*Attempt, len(candidates))
	for ci, c := range candidates {
		if !candidateAlive[ci] {
			continue
		}

		var total diffdist.Distance
		for fi, in := range e.inputs {
			d, err := diffdist.ComputeWithTool(ctx, e.cfg.Metric, e.diffTool, in.ReferenceContent, outputs[ci][fi])
			if err != nil {
				candidateAlive[ci] = false
				break
			}
			total = diffdist.Add(total, d)
		}
		if !candidateAlive[ci] {
			continue
		}
		total = diffdist.Scale(total, e.cfg.SourceFactor)

		var variant diffdist.Distance
		for fi := range e.inputs {
			if fi >= len(e.cfg.VariantTargets) || e.cfg.VariantTargets[fi].ReferenceContent == nil {
				continue
			}
			d, err := diffdist.ComputeWithTool(ctx, e.cfg.Metric, e.diffTool, e.cfg.VariantTargets[fi].ReferenceContent, outputs[ci][fi])
			if err != nil {
				candidateAlive[ci] = false
				break
			}
			variant = diffdist.Add(variant, d)
		}
		if !candidateAlive[ci] {
			continue
		}
		variant = diffdist.Scale(variant, e.cfg.VariantsFactor)

		complexity := e.adapter.Complexity(c.style)
		penalty := e.adapter.ExtraPenalty(c.style, complexity)

		e.ordinal++
		attempts[ci] = &Attempt{
			Style: c.style,
			Distance: Distance{
				Diff:       total,
				Variant:    variant,
				Complexity: penalty.Complexity,
				Penalty:    penalty.Penalty,
				Ordinal:    e.ordinal,
			},
		}
	}

	return attempts, groupUnknown, nil
}
