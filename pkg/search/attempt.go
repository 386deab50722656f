// Package search implements the round-based local search that walks the
// style-option space toward a configuration whose formatter output best
// matches a set of reference files. It is grounded on whatstyle.py's
// find_best_style (original lines 5690-5876) and gather_attempts (lines
// 5938-6003), translated from Python's heapq onto container/heap.
package search

import (
	"github.com/jihwankim/styleinfer/pkg/diffdist"
	"github.com/jihwankim/styleinfer/pkg/style"
)

// sentinelPrimary is pushed as an attempt's distance before it has been
// measured, so it always sorts worse than any measured attempt without
// needing a separate "unmeasured" flag.
const sentinelPrimary = 1 << 30

// Distance is the full ordering key for one attempt: the diff-distance
// pair, an optional variant-diff pair (populated only in resilient mode;
// zero otherwise so it never perturbs ordinary ordering), then formatter
// complexity and penalty, then the attempt's submission ordinal as the
// final, reproducible tiebreaker (spec §3's distance vector, §4.6, §5's
// "attempt-ordinal tiebreaker ensures reproducible winner selection").
type Distance struct {
	Diff       diffdist.Distance
	Variant    diffdist.Distance
	Complexity int
	Penalty    int
	Ordinal    int
}

// Sentinel returns the "not yet measured" distance for a freshly pushed
// attempt, stamped with ordinal so two sentinels still order deterministically.
func Sentinel(ordinal int) Distance {
	return Distance{Diff: diffdist.Distance{Primary: sentinelPrimary}, Ordinal: ordinal}
}

// Less reports whether d represents a strictly better attempt than o.
func (d Distance) Less(o Distance) bool {
	if d.Diff.Primary != o.Diff.Primary {
		return d.Diff.Primary < o.Diff.Primary
	}
	if d.Diff.Secondary != o.Diff.Secondary {
		return d.Diff.Secondary < o.Diff.Secondary
	}
	if d.Variant.Primary != o.Variant.Primary {
		return d.Variant.Primary < o.Variant.Primary
	}
	if d.Variant.Secondary != o.Variant.Secondary {
		return d.Variant.Secondary < o.Variant.Secondary
	}
	if d.Complexity != o.Complexity {
		return d.Complexity < o.Complexity
	}
	if d.Penalty != o.Penalty {
		return d.Penalty < o.Penalty
	}
	return d.Ordinal < o.Ordinal
}

// Equal reports whether d and o would compare as the same quality,
// ignoring the ordinal tiebreaker: used to detect "no improvement this
// round" for termination (spec §4.6).
func (d Distance) Equal(o Distance) bool {
	return d.Diff == o.Diff && d.Variant == o.Variant && d.Complexity == o.Complexity && d.Penalty == o.Penalty
}

// StrictlyBetter reports whether d improves on o strictly, ignoring the
// ordinal tiebreaker: the acceptance policy (spec §4.6, §9) needs "did this
// candidate actually improve its parent", not "does it win a tiebreak".
func (d Distance) StrictlyBetter(o Distance) bool {
	return !d.Equal(o) && d.Less(o)
}

// Attempt is one candidate style together with its measured (or sentinel)
// distance.
type Attempt struct {
	Style    style.Style
	Distance Distance
	index    int // heap.Interface bookkeeping
}

// Heap is a min-heap of *Attempt ordered by Distance, so the current best
// attempt is always heap[0].
type Heap []*Attempt

func (h Heap) Len() int            { return len(h) }
func (h Heap) Less(i, j int) bool  { return h[i].Distance.Less(h[j].Distance) }
func (h Heap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *Heap) Push(x interface{}) {
	a := x.(*Attempt)
	a.index = len(*h)
	*h = append(*h, a)
}

func (h *Heap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}
