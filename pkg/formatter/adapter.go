// Package formatter defines the capability set a code-formatter adapter
// implements and ships one concrete adapter for the clang-format family.
// It is grounded on whatstyle.py's CodeFormatter base class (lines
// 1242-1400 of the original) and its ClangFormatter subclass (lines
// 1590-2216), translated from inheritance onto a Go interface.
package formatter

import (
	"context"

	"github.com/jihwankim/styleinfer/pkg/style"
)

// Job is one formatter invocation request: a style to apply and the source
// bytes to reformat.
type Job struct {
	Style    style.Style
	Filename string
	Source   []byte
}

// InvocationResult is the subprocess outcome an Adapter is asked to
// classify; it mirrors runner.Result's shape without importing that
// package, so formatter stays usable against cached as well as freshly run
// results.
type InvocationResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	OSError  string
}

// Penalty expresses the complexity/penalty pair ExtraPenalty returns: a
// candidate's adjusted complexity score and the penalty added to its
// distance to discourage unnecessarily elaborate styles (spec §4.5).
type Penalty struct {
	Complexity int
	Penalty    int
}

// Adapter is the capability set the search engine drives a formatter
// through. Every method is pure or subprocess-bound; apart from
// RegisterSchema, which records the schema on the adapter, none of them
// mutate shared state, so once the schema is registered one Adapter value
// can be shared across dispatcher workers.
type Adapter interface {
	// Language this adapter's formatter handles, used by registry.go to
	// pick an adapter from a source file's extension.
	Language() string

	// RegisterSchema populates the adapter's option schema by querying the
	// live formatter (dump-config or help-text parse) or, failing that,
	// falling back to an embedded option history.
	RegisterSchema(ctx context.Context, exe string) (*style.StyleDef, error)

	// VariantsFor enumerates candidate assignments for one schema option.
	// Where another option is interdependent with it, a variant may also set
	// that option (the clang-format adapter pairs UseTab with TabWidth);
	// NestedDerivations covers the option-unlocks-option case.
	VariantsFor(opt style.Option) []style.Style

	// ArgvForStyle produces the argv that runs the formatter against
	// standard input under the given style, writing a temporary config file
	// first if the formatter cannot take style on the command line.
	ArgvForStyle(exe string, s style.Style, filename string) (argv []string, cleanup func(), err error)

	// Serialize renders a style as the formatter's on-disk config format.
	Serialize(s style.Style) ([]byte, error)

	// ValidResult classifies a subprocess outcome. When the formatter is
	// known to signal "unchanged" with empty stdout, ValidResult returns the
	// original source as the effective output instead.
	ValidResult(job Job, res InvocationResult) (output []byte, valid bool)

	// DetectsInvalidCmdline recognizes "unknown option" failures so the
	// engine can blacklist the offending option group.
	DetectsInvalidCmdline(res InvocationResult) bool

	// EffectiveStyle asks the formatter what values it actually uses given
	// a partial style, used to detect options whose addition changes
	// nothing.
	EffectiveStyle(ctx context.Context, exe string, s style.Style) (style.Style, error)

	// Complexity scores how elaborate a style is; higher discourages
	// selection when two candidates tie on diff distance.
	Complexity(s style.Style) int

	// ExtraPenalty adjusts Complexity for styles whose numeric values are
	// disproportionately large, or that forgo a well-known combination for
	// an equally-scoring bespoke one.
	ExtraPenalty(s style.Style, complexity int) Penalty

	// ContainsMajorStyle reports whether group names one of the formatter's
	// "based-on" macro styles (e.g. "LLVM", "Google").
	ContainsMajorStyle(group style.Style) bool

	// PreferBaseStyle reports whether round 1 of the search should be
	// restricted to selecting a macro style.
	PreferBaseStyle() bool

	// NestedDerivations returns styles that unlock a previously
	// unreachable nested option from s, consulted when round-by-round
	// improvement has stalled.
	NestedDerivations(s style.Style) []style.Style
}
