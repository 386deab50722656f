package search

import (
	"context"
	"fmt"

	"github.com/jihwankim/styleinfer/pkg/dispatcher"
	"github.com/jihwankim/styleinfer/pkg/formatter"
	"github.com/jihwankim/styleinfer/pkg/style"
)

// StyleDiffResult is the outcome of RunStyleDiff: the style options unique
// to each side's own self-consistency search, as produced by the style
// algebra's symmetric Diff (spec §4.7).
type StyleDiffResult struct {
	SourceStyle    style.Style
	ReferenceStyle style.Style
	UniqueToSource style.Style
	UniqueToRef    style.Style
}

// RunStyleDiff implements stylediff mode (spec §4.6, Glossary "Additive
// search"): given a (source, reference) pair interpreted as "already
// formatted one way" vs "formatted the desired way", it runs a
// non-additive, value-altering search twice — once treating source as its
// own reference, once treating reference as its own reference — so each
// search converges on the style that best explains how that file is
// already laid out. The two resulting styles' symmetric difference is the
// set of option changes that would turn source's style into reference's.
func RunStyleDiff(ctx context.Context, adapter formatter.Adapter, disp *dispatcher.Dispatcher, exe string, path string, source, reference []byte, startStyle style.Style, cfg Config) (*StyleDiffResult, error) {
	nonAdditive := cfg
	nonAdditive.Additive = false

	sourceInputs := []InputFile{{Path: path, Content: source, ReferencePath: path, ReferenceContent: source}}
	refInputs := []InputFile{{Path: path, Content: reference, ReferencePath: path, ReferenceContent: reference}}

	sourceEngine := NewEngine(adapter, disp, exe, sourceInputs, nonAdditive)
	bestSource, err := sourceEngine.Run(ctx, startStyle)
	if err != nil {
		return nil, fmt.Errorf("search: stylediff source side: %w", err)
	}

	refEngine := NewEngine(adapter, disp, exe, refInputs, nonAdditive)
	bestRef, err := refEngine.Run(ctx, startStyle)
	if err != nil {
		return nil, fmt.Errorf("search: stylediff reference side: %w", err)
	}

	uniqueToSource, uniqueToRef := style.Diff(bestSource.Style, bestRef.Style)
	return &StyleDiffResult{
		SourceStyle:    bestSource.Style,
		ReferenceStyle: bestRef.Style,
		UniqueToSource: uniqueToSource,
		UniqueToRef:    uniqueToRef,
	}, nil
}
