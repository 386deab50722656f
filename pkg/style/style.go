package style

import (
	"sort"
	"strings"
)

// Style is an ordered mapping from option name to Value. The empty Style
// means "use formatter defaults". Styles are value-typed: every mutating
// operation in this package returns a new Style rather than modifying one
// in place, so a Style already pushed onto the search engine's priority
// queue can never be changed out from under it.
type Style struct {
	order []string
	byName map[string]Value
}

// Make builds a Style from an ordered list of (name, value) pairs.
func Make(pairs ...Pair) Style {
	s := Style{byName: make(map[string]Value, len(pairs))}
	for _, p := range pairs {
		s = s.Set(p.Name, p.Value)
	}
	return s
}

// Pair is one option assignment, used to build a Style via Make.
type Pair struct {
	Name  string
	Value Value
}

// P is shorthand for constructing a Pair.
func P(name string, v Value) Pair { return Pair{Name: name, Value: v} }

// Empty reports whether the style has no assignments.
func (s Style) Empty() bool { return len(s.order) == 0 }

// Len reports the number of top-level option assignments.
func (s Style) Len() int { return len(s.order) }

// Get returns the value assigned to name, if any.
func (s Style) Get(name string) (Value, bool) {
	v, ok := s.byName[name]
	return v, ok
}

// Names returns the option names in insertion order.
func (s Style) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Set returns a new Style with name bound to v, preserving the original
// insertion position of name if it already existed.
func (s Style) Set(name string, v Value) Style {
	out := Style{byName: make(map[string]Value, len(s.byName)+1)}
	out.order = append(out.order, s.order...)
	for k, val := range s.byName {
		out.byName[k] = val
	}
	if _, exists := out.byName[name]; !exists {
		out.order = append(out.order, name)
	}
	out.byName[name] = v
	return out
}

// Without returns a new Style with name removed, if present.
func (s Style) Without(name string) Style {
	if _, ok := s.byName[name]; !ok {
		return s
	}
	out := Style{byName: make(map[string]Value, len(s.byName))}
	for _, n := range s.order {
		if n == name {
			continue
		}
		out.order = append(out.order, n)
		out.byName[n] = s.byName[n]
	}
	return out
}

// Items returns the (name, value) pairs in insertion order.
func (s Style) Items() []Pair {
	out := make([]Pair, 0, len(s.order))
	for _, n := range s.order {
		out = append(out, Pair{Name: n, Value: s.byName[n]})
	}
	return out
}

// Signature returns the canonical, order-insensitive string form used as
// the search engine's de-duplication key: two styles with the same option
// set and the same values produce the same signature regardless of
// insertion order, including at nested levels (spec §3).
func (s Style) Signature() string {
	names := make([]string, 0, len(s.byName))
	for n := range s.byName {
		names = append(names, n)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, n := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(n)
		b.WriteByte('=')
		b.WriteString(s.byName[n].Text())
	}
	return b.String()
}

// Equal reports whether two styles have identical signatures.
func (s Style) Equal(o Style) bool { return s.Signature() == o.Signature() }

// Copy returns a Style with the same contents; since Style is already
// immutable by convention, this is provided for call sites that want an
// explicit defensive copy (e.g. before handing a Style to code that might
// not honor the convention).
func (s Style) Copy() Style {
	out := Style{byName: make(map[string]Value, len(s.byName))}
	out.order = append(out.order, s.order...)
	for k, v := range s.byName {
		out.byName[k] = v
	}
	return out
}
