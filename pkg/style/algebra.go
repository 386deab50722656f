package style

// Merge deep-updates parent with group: values in group override same-named
// values in parent, recursing into nested styles. Both arguments are left
// untouched; the result is a new Style (spec §4.7).
func Merge(parent, group Style) Style {
	out := parent.Copy()
	for _, p := range group.Items() {
		if existing, ok := out.Get(p.Name); ok &&
			existing.Kind == KindStyle && p.Value.Kind == KindStyle {
			p.Value = StyleValue(Merge(existing.Style, p.Value.Style))
		}
		out = out.Set(p.Name, p.Value)
	}
	return out
}

// Diff returns the deep symmetric difference between a and b: for every key
// path present in either style with a differing (or one-sided) value, the
// uniqueToA style carries a's value at that path and uniqueToB carries b's.
// Shared, identical key paths are omitted from both (spec §4.7).
func Diff(a, b Style) (uniqueToA, uniqueToB Style) {
	uniqueToA = Style{byName: map[string]Value{}}
	uniqueToB = Style{byName: map[string]Value{}}

	seen := map[string]bool{}
	for _, name := range a.Names() {
		seen[name] = true
		av, _ := a.Get(name)
		bv, bok := b.Get(name)
		if !bok {
			uniqueToA = uniqueToA.Set(name, av)
			continue
		}
		if av.Kind == KindStyle && bv.Kind == KindStyle {
			da, db := Diff(av.Style, bv.Style)
			if !da.Empty() || !db.Empty() {
				uniqueToA = uniqueToA.Set(name, StyleValue(da))
				uniqueToB = uniqueToB.Set(name, StyleValue(db))
			}
			continue
		}
		if !av.Equal(bv) {
			uniqueToA = uniqueToA.Set(name, av)
			uniqueToB = uniqueToB.Set(name, bv)
		}
	}
	for _, name := range b.Names() {
		if seen[name] {
			continue
		}
		bv, _ := b.Get(name)
		uniqueToB = uniqueToB.Set(name, bv)
	}
	return uniqueToA, uniqueToB
}

// ContainsAll reports whether every option in group is present in parent.
// When matchValues is true, the values must also match (recursively for
// nested styles); otherwise only the key paths are compared (spec §4.7).
func ContainsAll(group, parent Style, matchValues bool) bool {
	for _, p := range group.Items() {
		pv, ok := parent.Get(p.Name)
		if !ok {
			return false
		}
		if !matchValues {
			continue
		}
		if p.Value.Kind == KindStyle && pv.Kind == KindStyle {
			if !ContainsAll(p.Value.Style, pv.Style, true) {
				return false
			}
			continue
		}
		if !p.Value.Equal(pv) {
			return false
		}
	}
	return true
}

// SortedStyle renders style with optionName-matching-baseOption first,
// matching the human-facing ordering CodeFormatter.sorted_style produces
// for formatters that organize options under a "based-on" macro style.
func SortedStyle(s Style, isBaseOption func(name string) bool) Style {
	out := Style{byName: map[string]Value{}}
	items := s.Items()
	for _, p := range items {
		if isBaseOption != nil && isBaseOption(p.Name) {
			out = out.Set(p.Name, p.Value)
		}
	}
	for _, p := range items {
		if isBaseOption == nil || !isBaseOption(p.Name) {
			out = out.Set(p.Name, p.Value)
		}
	}
	return out
}
