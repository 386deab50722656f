package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jihwankim/styleinfer/pkg/dispatcher"
	"github.com/jihwankim/styleinfer/pkg/formatter"
	"github.com/jihwankim/styleinfer/pkg/style"
)

// RunResilient drives the three-phase resilient mode (spec §4.6, Glossary
// "Resilient mode"): phase A finds the ordinary best style; that style is
// then used to produce a "maximally changed" reformat of each input
// (whatstyle.py's create_variant_files). Phase B reruns the search against
// the original references with that reformat folded into the distance
// vector as an extra, weighted target, so the winning style is less
// sensitive to inputs that don't already match the codebase's prevailing
// style.
//
// The "maximally changed" variant is produced by reformatting under the
// formatter's bare defaults (an empty style) rather than by a further
// search for a true worst case: whatstyle.py's own variant search is
// itself a bounded local search, and re-running one here would roughly
// double phase A's cost for a variant that only needs to be "clearly
// different", not optimal. This simplification is recorded in DESIGN.md.
func RunResilient(ctx context.Context, adapter formatter.Adapter, disp *dispatcher.Dispatcher, exe string, inputs []InputFile, cfg Config, startStyle style.Style) (*Attempt, error) {
	phaseA := cfg
	phaseA.VariantTargets = nil
	engineA := NewEngine(adapter, disp, exe, inputs, phaseA)

	bestA, err := engineA.Run(ctx, startStyle)
	if err != nil {
		return nil, fmt.Errorf("search: resilient phase A: %w", err)
	}

	variants, err := reformatVariants(ctx, adapter, disp, exe, inputs, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("search: resilient variant generation: %w", err)
	}

	phaseB := cfg
	phaseB.VariantTargets = variants
	engineB := NewEngine(adapter, disp, exe, inputs, phaseB)

	bestB, err := engineB.Run(ctx, bestA.Style)
	if err != nil {
		return nil, fmt.Errorf("search: resilient phase B: %w", err)
	}
	return bestB, nil
}

// reformatVariants reformats every input once under the formatter's bare
// defaults (the empty style) and returns one InputFile per input whose
// ReferenceContent is that reformat — the extra target evaluateCandidates
// diffs each phase-B candidate against, in addition to the input's own
// reference.
func reformatVariants(ctx context.Context, adapter formatter.Adapter, disp *dispatcher.Dispatcher, exe string, inputs []InputFile, timeout time.Duration) ([]InputFile, error) {
	empty := style.Style{}

	var jobs []dispatcher.Job
	var cleanups []func()
	for _, in := range inputs {
		argv, cleanup, err := adapter.ArgvForStyle(exe, empty, in.Path)
		if err != nil {
			return nil, err
		}
		cleanups = append(cleanups, cleanup)
		sum := sha256.Sum256(in.Content)
		jobs = append(jobs, dispatcher.Job{
			CacheKey: "resilient-variant:" + exe + ":" + in.Path + ":" + hex.EncodeToString(sum[:]),
			Exe:      exe,
			Argv:     argv,
			Stdin:    in.Content,
			Timeout:  timeout,
		})
	}
	defer func() {
		for _, c := range cleanups {
			if c != nil {
				c()
			}
		}
	}()

	results, err := disp.Run(ctx, jobs)
	if err != nil {
		return nil, err
	}

	variants := make([]InputFile, len(inputs))
	for i, in := range inputs {
		invocation := formatter.InvocationResult{
			ExitCode: results[i].ExitCode,
			Stdout:   results[i].Stdout,
			Stderr:   results[i].Stderr,
			OSError:  results[i].OSError,
		}
		job := formatter.Job{Style: empty, Filename: in.Path, Source: in.Content}
		output, valid := adapter.ValidResult(job, invocation)
		if !valid {
			// A formatter that rejects its own default style on this input
			// contributes no variant target rather than aborting the run;
			// the phase-B distance for this file simply has no variant
			// component.
			variants[i] = InputFile{Path: in.Path}
			continue
		}
		variants[i] = InputFile{Path: in.Path, ReferenceContent: output}
	}
	return variants, nil
}
