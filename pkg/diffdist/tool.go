package diffdist

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jihwankim/styleinfer/pkg/runner"
)

// ToolKind names the mechanism used to produce the unified diff text that
// Compute's hunk scanner parses.
type ToolKind string

const (
	ToolBuiltin        ToolKind = "builtin"         // github.com/pmezard/go-difflib, in-process
	ToolExternalDiff   ToolKind = "external-diff"   // shells out to `diff -u0`
	ToolExternalGit    ToolKind = "external-gitdiff" // shells out to `git diff --no-index -U0`
)

// Tool produces a zero-context unified diff between two byte slices. The
// builtin implementation wraps unifiedDiffZeroContext and is what Compute
// uses; Tool exists so an external diff/gitdiff binary can stand in for it
// when selected.
type Tool interface {
	Kind() ToolKind
	UnifiedDiff(ctx context.Context, reference, candidate []byte) (string, error)
}

type builtinTool struct{}

func (builtinTool) Kind() ToolKind { return ToolBuiltin }

func (builtinTool) UnifiedDiff(_ context.Context, reference, candidate []byte) (string, error) {
	return unifiedDiffZeroContext(splitLines(reference), splitLines(candidate))
}

type externalTool struct {
	kind ToolKind
	exe  string
	argv func(refPath, candPath string) []string
}

func (t externalTool) Kind() ToolKind { return t.kind }

func (t externalTool) UnifiedDiff(ctx context.Context, reference, candidate []byte) (string, error) {
	refFile, err := writeTempFile("reference-*", reference)
	if err != nil {
		return "", err
	}
	defer removeTempFile(refFile)

	candFile, err := writeTempFile("candidate-*", candidate)
	if err != nil {
		return "", err
	}
	defer removeTempFile(candFile)

	res := runner.Run(ctx, t.exe, t.argv(refFile, candFile), nil, 10*time.Second)
	if res.OSError != "" {
		return "", fmt.Errorf("diffdist: running %s: %s", t.exe, res.OSError)
	}
	// Both `diff` and `git diff` exit 1 when inputs differ; that is not a
	// failure, it is the expected case whenever candidate != reference.
	if res.ExitCode > 1 {
		return "", fmt.Errorf("diffdist: %s exited %d: %s", t.exe, res.ExitCode, res.Stderr)
	}
	return string(res.Stdout), nil
}

// NewTool constructs the diff backend named by kind.
func NewTool(kind ToolKind) (Tool, error) {
	switch kind {
	case ToolBuiltin, "":
		return builtinTool{}, nil
	case ToolExternalDiff:
		return externalTool{
			kind: kind,
			exe:  "diff",
			argv: func(ref, cand string) []string { return []string{"-u0", ref, cand} },
		}, nil
	case ToolExternalGit:
		return externalTool{
			kind: kind,
			exe:  "git",
			argv: func(ref, cand string) []string { return []string{"diff", "--no-index", "-U0", ref, cand} },
		}, nil
	default:
		return nil, fmt.Errorf("diffdist: unknown diff tool %q", kind)
	}
}

// validationReference and its two modifications are deliberately small and
// stable, so Validate can assert the exact hunk-derived distance a
// conforming diff tool must produce.
const (
	validationReference = "alpha\nbeta\ngamma\ndelta\n"
	// Single line changed in place: one hunk, one addition, one deletion.
	validationOneLineChange = "alpha\nBETA\ngamma\ndelta\n"
	// Two separate single-line changes: two hunks.
	validationTwoLineChanges = "ALPHA\nbeta\ngamma\nDELTA\n"
)

// Validate exercises tool against fixed inputs with a known expected shape
// and rejects a tool whose output the hunk scanner cannot interpret
// correctly (spec §4.4: "a non-conforming tool is rejected").
func Validate(ctx context.Context, tool Tool) error {
	ref := []byte(validationReference)

	oneChange, err := tool.UnifiedDiff(ctx, ref, []byte(validationOneLineChange))
	if err != nil {
		return fmt.Errorf("diffdist: validating %s: %w", tool.Kind(), err)
	}
	adds, dels, hunkdiffs := scanHunks(oneChange)
	if adds != 1 || dels != 1 || hunkdiffs != 0 {
		return fmt.Errorf("diffdist: %s failed single-change validation: additions=%d deletions=%d hunkdiffs=%d",
			tool.Kind(), adds, dels, hunkdiffs)
	}

	twoChanges, err := tool.UnifiedDiff(ctx, ref, []byte(validationTwoLineChanges))
	if err != nil {
		return fmt.Errorf("diffdist: validating %s: %w", tool.Kind(), err)
	}
	adds, dels, hunkdiffs = scanHunks(twoChanges)
	if adds != 2 || dels != 2 || hunkdiffs != 0 {
		return fmt.Errorf("diffdist: %s failed two-change validation: additions=%d deletions=%d hunkdiffs=%d",
			tool.Kind(), adds, dels, hunkdiffs)
	}

	return nil
}

func writeTempFile(pattern string, content []byte) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return "", err
	}
	return f.Name(), f.Close()
}

func removeTempFile(path string) {
	_ = os.Remove(path)
}
