package search

import (
	"container/heap"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jihwankim/styleinfer/pkg/diffdist"
)

func TestDistanceLessOrdersByDiffFirst(t *testing.T) {
	better := Distance{Diff: diffdist.Distance{Primary: 1}}
	worse := Distance{Diff: diffdist.Distance{Primary: 2}}
	assert.True(t, better.Less(worse))
	assert.False(t, worse.Less(better))
}

func TestDistanceLessFallsBackToVariantThenComplexityThenPenaltyThenOrdinal(t *testing.T) {
	base := Distance{Diff: diffdist.Distance{Primary: 1}}

	variantBetter := base
	variantBetter.Variant = diffdist.Distance{Primary: 1}
	variantWorse := base
	variantWorse.Variant = diffdist.Distance{Primary: 2}
	assert.True(t, variantBetter.Less(variantWorse))

	complexityBetter := base
	complexityBetter.Complexity = 1
	complexityWorse := base
	complexityWorse.Complexity = 2
	assert.True(t, complexityBetter.Less(complexityWorse))

	penaltyBetter := base
	penaltyBetter.Penalty = 1
	penaltyWorse := base
	penaltyWorse.Penalty = 2
	assert.True(t, penaltyBetter.Less(penaltyWorse))

	ordinalBetter := base
	ordinalBetter.Ordinal = 1
	ordinalWorse := base
	ordinalWorse.Ordinal = 2
	assert.True(t, ordinalBetter.Less(ordinalWorse))
}

func TestDistanceEqualIgnoresOrdinal(t *testing.T) {
	a := Distance{Diff: diffdist.Distance{Primary: 5}, Ordinal: 1}
	b := Distance{Diff: diffdist.Distance{Primary: 5}, Ordinal: 99}
	assert.True(t, a.Equal(b))
}

func TestDistanceStrictlyBetter(t *testing.T) {
	better := Distance{Diff: diffdist.Distance{Primary: 1}, Ordinal: 5}
	worse := Distance{Diff: diffdist.Distance{Primary: 2}, Ordinal: 1}
	same := Distance{Diff: diffdist.Distance{Primary: 2}, Ordinal: 77}

	assert.True(t, better.StrictlyBetter(worse))
	assert.False(t, worse.StrictlyBetter(better))
	// Equal distances never count as "strictly better" even when their
	// ordinals differ, since StrictlyBetter ignores the tiebreaker.
	assert.False(t, worse.StrictlyBetter(same))
	assert.False(t, same.StrictlyBetter(worse))
}

func TestHeapOrdersByDistanceAscending(t *testing.T) {
	h := &Heap{}
	heap.Init(h)

	heap.Push(h, &Attempt{Distance: Distance{Diff: diffdist.Distance{Primary: 3}}})
	heap.Push(h, &Attempt{Distance: Distance{Diff: diffdist.Distance{Primary: 1}}})
	heap.Push(h, &Attempt{Distance: Distance{Diff: diffdist.Distance{Primary: 2}}})

	var order []int
	for h.Len() > 0 {
		a := heap.Pop(h).(*Attempt)
		order = append(order, a.Distance.Diff.Primary)
	}
	assert.Equal(t, []int{1, 2, 3}, order)
}
