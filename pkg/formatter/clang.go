package formatter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jihwankim/styleinfer/pkg/runner"
	"github.com/jihwankim/styleinfer/pkg/style"
)

// majorStyles are the "based-on" macro styles the clang-format family
// ships; selecting one in round 1 gives the search a strong starting point
// before any individual option is varied (spec §4.5).
var majorStyles = []string{"LLVM", "Google", "Chromium", "Mozilla", "WebKit", "Microsoft", "GNU"}

// ClangFormatter adapts the search engine to clang-format and its
// derivatives (e.g. clang-format family forks that accept the same
// -style=<yaml-flow> command line). Grounded on whatstyle.py's
// ClangFormatter (original lines 1590-2216).
type ClangFormatter struct {
	schema *style.StyleDef
}

func NewClangFormatter() *ClangFormatter {
	return &ClangFormatter{}
}

func (c *ClangFormatter) Language() string { return "cpp" }

// RegisterSchema tries, in order: `-style=LLVM -dump-config` (gives the
// full live option set), then falls back to the embedded option history if
// the live query fails outright.
func (c *ClangFormatter) RegisterSchema(ctx context.Context, exe string) (*style.StyleDef, error) {
	res := runner.Run(ctx, exe, []string{"-style=LLVM", "-dump-config"}, nil, runner.DefaultTimeout)
	if res.OSError != "" || res.ExitCode != 0 || len(res.Stdout) == 0 {
		_, schema, err := BestMatchingSchema(nil)
		if err != nil {
			return nil, fmt.Errorf("formatter: dump-config failed (%s) and no fallback schema available: %w", res.OSError, err)
		}
		c.schema = schema
		return schema, nil
	}

	dumped, err := ParseBlockStyle(string(res.Stdout))
	if err != nil {
		return nil, fmt.Errorf("formatter: parsing dump-config output: %w", err)
	}

	_, schema, err := BestMatchingSchema(dumped.Names())
	if err != nil {
		return nil, err
	}

	// Options the live dump reports with a nested value that the embedded
	// history doesn't yet know about get a TypeNested placeholder so
	// VariantsFor can still recurse into them.
	for _, name := range dumped.Names() {
		v, _ := dumped.Get(name)
		if v.Kind != style.KindStyle {
			continue
		}
		if opt, ok := schema.Option(name); !ok || opt.Type != style.TypeNested {
			nestedSchema := style.NewStyleDef()
			for _, inner := range v.Style.Names() {
				nestedSchema.Add(style.Option{Name: inner, Type: style.TypeBool})
			}
			schema.Add(style.Option{Name: name, Type: style.TypeNested, Nested: nestedSchema})
		}
	}

	c.schema = schema
	return schema, nil
}

// ignoreOptions are pass-through defaults whose variation never changes
// observable output and whose search cost isn't worth paying.
var ignoreOptions = map[string]bool{
	"Language":      true,
	"DisableFormat": true,
}

func (c *ClangFormatter) VariantsFor(opt style.Option) []style.Style {
	if ignoreOptions[opt.Name] {
		return nil
	}

	switch opt.Type {
	case style.TypeBool:
		return []style.Style{
			style.Make(style.P(opt.Name, style.BoolValue(true))),
			style.Make(style.P(opt.Name, style.BoolValue(false))),
		}
	case style.TypeEnum:
		if opt.Name == "UseTab" {
			return useTabVariants(opt)
		}
		variants := make([]style.Style, 0, len(opt.Configs))
		for _, v := range opt.Configs {
			variants = append(variants, style.Make(style.P(opt.Name, style.StrValue(v))))
		}
		return variants
	case style.TypeInt, style.TypeUnsigned:
		return numericVariants(opt.Name)
	case style.TypeString:
		// Free-form strings (e.g. CommentPragmas) have no enumerable
		// variant set; the engine leaves them at the formatter default.
		return nil
	case style.TypeNested:
		if opt.Nested == nil {
			return nil
		}
		var variants []style.Style
		for _, inner := range opt.Nested.Options() {
			for _, iv := range c.VariantsFor(inner) {
				variants = append(variants, style.Make(style.P(opt.Name, style.StyleValue(iv))))
			}
		}
		return variants
	default:
		return nil
	}
}

// useTabVariants enumerates UseTab the way whatstyle.py's ClangFormatter
// does: UseTab and TabWidth are interdependent, so varying UseTab alone
// without also varying TabWidth under each tab-using value would leave
// TabWidth pinned at whatever default the search happened to start from
// (spec §4.5, §8-S1). "Never" needs no accompanying tab width and stands
// alone; every other configured value is paired with each width 1-8,
// giving the exact 17-variant case for clang-format's three-value enum:
// Never (1) + ForIndentation×{1..8} (8) + Always×{1..8} (8).
func useTabVariants(opt style.Option) []style.Style {
	var variants []style.Style
	for _, v := range opt.Configs {
		if v == "Never" {
			variants = append(variants, style.Make(style.P(opt.Name, style.StrValue(v))))
			continue
		}
		for w := int64(1); w <= 8; w++ {
			variants = append(variants, style.Make(
				style.P(opt.Name, style.StrValue(v)),
				style.P("TabWidth", style.IntValue(w)),
			))
		}
	}
	return variants
}

// numericVariants returns the hand-picked candidate set for the few
// unbounded numeric options the search actually benefits from exploring
// (spec §4.5); any other numeric option gets a small generic range.
func numericVariants(name string) []style.Style {
	var values []int64
	switch name {
	case "ColumnLimit":
		values = append(values, 0)
		for v := 79; v <= 120; v++ {
			values = append(values, int64(v))
		}
	case "TabWidth":
		for v := 1; v <= 8; v++ {
			values = append(values, int64(v))
		}
	case "IndentWidth", "ContinuationIndentWidth", "AccessModifierOffset":
		for v := 0; v <= 8; v++ {
			values = append(values, int64(v))
		}
	default:
		for v := 0; v <= 4; v++ {
			values = append(values, int64(v))
		}
	}

	variants := make([]style.Style, 0, len(values))
	for _, v := range values {
		variants = append(variants, style.Make(style.P(name, style.IntValue(v))))
	}
	return variants
}

// ArgvForStyle passes the style inline via -style=<yaml-flow> whenever its
// serialized form is short enough for a command line; very large styles
// (deeply nested brace-wrapping groups) are written to a digest-named
// temporary file instead, since some shells and exec() implementations cap
// argv length.
const inlineStyleLimit = 4000

func (c *ClangFormatter) ArgvForStyle(exe string, s style.Style, filename string) (argv []string, cleanup func(), err error) {
	serialized, err := c.Serialize(s)
	if err != nil {
		return nil, nil, err
	}

	noop := func() {}

	if len(serialized) <= inlineStyleLimit {
		flow := serializeFlow(s)
		return []string{"-style=" + flow, "-assume-filename=" + assumeFilename(filename)}, noop, nil
	}

	sum := sha256.Sum256(serialized)
	path := filepath.Join(os.TempDir(), "styleinfer-cfg-"+hex.EncodeToString(sum[:8])+".clang-format")
	if err := os.WriteFile(path, serialized, 0644); err != nil {
		return nil, nil, fmt.Errorf("formatter: writing temp config: %w", err)
	}
	cleanup = func() { os.Remove(path) }
	return []string{"-style=file:" + path, "-assume-filename=" + assumeFilename(filename)}, cleanup, nil
}

func assumeFilename(filename string) string {
	if filename == "" {
		return "input.cpp"
	}
	return filename
}

// Serialize renders style as a `.clang-format` YAML document.
func (c *ClangFormatter) Serialize(s style.Style) ([]byte, error) {
	var b strings.Builder
	b.WriteString("---\n")
	writeBlockStyle(&b, s, 0)
	b.WriteString("...\n")
	return []byte(b.String()), nil
}

func writeBlockStyle(b *strings.Builder, s style.Style, indent int) {
	pad := strings.Repeat("  ", indent)
	for _, p := range s.Items() {
		if p.Value.Kind == style.KindStyle {
			fmt.Fprintf(b, "%s%s:\n", pad, p.Name)
			writeBlockStyle(b, p.Value.Style, indent+1)
			continue
		}
		fmt.Fprintf(b, "%s%s: %s\n", pad, p.Name, p.Value.Text())
	}
}

// serializeFlow renders style as the "{ Key: value, ... }" form the
// command line accepts, the inverse of ParseFlowStyle.
func serializeFlow(s style.Style) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, p := range s.Items() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "%s: ", p.Name)
		if p.Value.Kind == style.KindStyle {
			b.WriteString(serializeFlow(p.Value.Style))
		} else {
			b.WriteString(p.Value.Text())
		}
	}
	b.WriteByte('}')
	return b.String()
}

// knownUnchangedOnEmptyOutput is false for clang-format: when its effective
// style leaves the source untouched it still writes the full source back
// to stdout, so an empty stdout for non-empty stdin is always an error
// condition rather than a silent "no changes" signal. Kept as a named
// constant so a derivative formatter's adapter can override the behavior
// without touching ValidResult's logic.
const knownUnchangedOnEmptyOutput = false

func (c *ClangFormatter) ValidResult(job Job, res InvocationResult) ([]byte, bool) {
	if res.OSError != "" {
		return nil, false
	}
	if res.ExitCode != 0 {
		return nil, false
	}
	if len(res.Stdout) == 0 && len(job.Source) > 0 {
		if knownUnchangedOnEmptyOutput {
			return job.Source, true
		}
		return nil, false
	}
	if fatalStderr(res.Stderr) {
		return nil, false
	}
	return res.Stdout, true
}

// fatalStderr distinguishes clang-format's routine warnings (e.g. about a
// suppressed include) from errors that invalidate the result outright.
func fatalStderr(stderr []byte) bool {
	if len(stderr) == 0 {
		return false
	}
	text := string(stderr)
	return strings.Contains(text, "error:") || strings.Contains(text, "Error reading")
}

func (c *ClangFormatter) DetectsInvalidCmdline(res InvocationResult) bool {
	text := string(res.Stderr)
	return strings.Contains(text, "unknown option") ||
		strings.Contains(text, "invalid") && strings.Contains(text, "option") ||
		strings.Contains(text, "unknown key")
}

func (c *ClangFormatter) EffectiveStyle(ctx context.Context, exe string, s style.Style) (style.Style, error) {
	flow := serializeFlow(s)
	res := runner.Run(ctx, exe, []string{"-style=" + flow, "-dump-config"}, nil, runner.DefaultTimeout)
	if res.OSError != "" || res.ExitCode != 0 {
		return style.Style{}, fmt.Errorf("formatter: effective-style query failed: exit=%d os_error=%s stderr=%s",
			res.ExitCode, res.OSError, res.Stderr)
	}
	return ParseBlockStyle(string(res.Stdout))
}

// Complexity counts the number of explicit option assignments in the
// style, recursing into nested groups; a style with more knobs set
// is more complex regardless of the values chosen.
func (c *ClangFormatter) Complexity(s style.Style) int {
	n := 0
	for _, p := range s.Items() {
		n++
		if p.Value.Kind == style.KindStyle {
			n += c.Complexity(p.Value.Style)
		}
	}
	return n
}

// ExtraPenalty adds a penalty for styles that set a top-level numeric
// option above 200 (one point per full 200), expressing a preference for
// modest, commonly-seen values over large bespoke ones when two styles
// otherwise tie on diff distance. The complexity is returned unchanged.
func (c *ClangFormatter) ExtraPenalty(s style.Style, complexity int) Penalty {
	penalty := 0
	for _, p := range s.Items() {
		if p.Value.Kind != style.KindInt {
			continue
		}
		if p.Value.Int > 200 {
			penalty += int(p.Value.Int) / 200
		}
	}
	return Penalty{Complexity: complexity, Penalty: penalty}
}

func (c *ClangFormatter) ContainsMajorStyle(group style.Style) bool {
	v, ok := group.Get("BasedOnStyle")
	if !ok || v.Kind != style.KindString {
		return false
	}
	for _, name := range majorStyles {
		if strings.EqualFold(v.Str, name) {
			return true
		}
	}
	return false
}

func (c *ClangFormatter) PreferBaseStyle() bool { return true }

// NestedDerivations enumerates the handful of clang-format options known to
// unlock a nested option group when set to a particular value: setting
// BreakBeforeBraces to "Custom" unlocks BraceWrapping's sub-options.
func (c *ClangFormatter) NestedDerivations(s style.Style) []style.Style {
	var derivations []style.Style

	if v, ok := s.Get("BreakBeforeBraces"); !ok || v.Str != "Custom" {
		if c.schema != nil {
			if _, hasWrapping := c.schema.Option("BraceWrapping"); hasWrapping {
				derivations = append(derivations, s.Set("BreakBeforeBraces", style.StrValue("Custom")))
			}
		}
	}

	return derivations
}
