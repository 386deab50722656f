package search

import (
	"context"
	"time"

	"github.com/jihwankim/styleinfer/pkg/dispatcher"
	"github.com/jihwankim/styleinfer/pkg/formatter"
	"github.com/jihwankim/styleinfer/pkg/style"
)

// upperAdapter is a minimal, real-subprocess-backed formatter.Adapter used
// to exercise Engine without depending on clang-format being installed: its
// one schema option, "Upper", drives a genuine `sh -c` invocation (`tr a-z
// A-Z` vs `cat`), so the search observably converges toward whichever
// setting matches a test's reference bytes.
type upperAdapter struct{}

func (upperAdapter) Language() string { return "test" }

func (upperAdapter) RegisterSchema(ctx context.Context, exe string) (*style.StyleDef, error) {
	d := style.NewStyleDef()
	d.Add(style.Option{Name: "Upper", Type: style.TypeBool})
	return d, nil
}

func (upperAdapter) VariantsFor(opt style.Option) []style.Style {
	if opt.Type != style.TypeBool {
		return nil
	}
	return []style.Style{
		style.Make(style.P(opt.Name, style.BoolValue(true))),
		style.Make(style.P(opt.Name, style.BoolValue(false))),
	}
}

func (upperAdapter) ArgvForStyle(exe string, s style.Style, filename string) ([]string, func(), error) {
	noop := func() {}
	if v, ok := s.Get("Upper"); ok && v.Kind == style.KindBool && v.Bool {
		return []string{"-c", "tr a-z A-Z"}, noop, nil
	}
	return []string{"-c", "cat"}, noop, nil
}

func (upperAdapter) Serialize(s style.Style) ([]byte, error) {
	return []byte(s.Signature()), nil
}

func (upperAdapter) ValidResult(job formatter.Job, res formatter.InvocationResult) ([]byte, bool) {
	if res.OSError != "" || res.ExitCode != 0 {
		return nil, false
	}
	return res.Stdout, true
}

func (upperAdapter) DetectsInvalidCmdline(res formatter.InvocationResult) bool { return false }

func (upperAdapter) EffectiveStyle(ctx context.Context, exe string, s style.Style) (style.Style, error) {
	return s, nil
}

func (upperAdapter) Complexity(s style.Style) int { return s.Len() }

func (upperAdapter) ExtraPenalty(s style.Style, complexity int) formatter.Penalty {
	return formatter.Penalty{Complexity: complexity}
}

func (upperAdapter) ContainsMajorStyle(group style.Style) bool { return false }

func (upperAdapter) PreferBaseStyle() bool { return false }

func (upperAdapter) NestedDerivations(s style.Style) []style.Style { return nil }

func newTestDispatcher() *dispatcher.Dispatcher {
	return dispatcher.New(dispatcher.ModeOff, nil)
}

func testConfig() Config {
	return Config{
		Additive:        true,
		MaxRounds:       5,
		AcceptFromRound: 3,
		Timeout:         5 * time.Second,
	}
}
