package collage

import (
	"math/rand"
	"time"

	"k8s.io/klog/v2"
)

// SpacePlan is the outcome of clearing room in a row: which slot indices to
// remove, where the replacement is inserted, and how many columns came free.
type SpacePlan struct {
	Remove   []int
	InsertAt int
	Freed    int
}

// MakeSpace frees at least needed columns around the target slot, expanding
// alternately left and right until enough adjacent width has accumulated or
// both row edges are reached.
func MakeSpace(row *Row, target, needed int) (SpacePlan, error) {
	plan := SpacePlan{Remove: []int{target}, Freed: row.Slots[target].Span}
	left := target - 1
	right := target + 1

	for plan.Freed < needed {
		grew := false
		if left >= 0 {
			plan.Remove = append([]int{left}, plan.Remove...)
			plan.Freed += row.Slots[left].Span
			left--
			grew = true
		}
		if plan.Freed < needed && right < len(row.Slots) {
			plan.Remove = append(plan.Remove, right)
			plan.Freed += row.Slots[right].Span
			right++
			grew = true
		}
		if !grew {
			return SpacePlan{}, ErrInsufficientSpace
		}
	}

	plan.InsertAt = left + 1
	return plan, nil
}

// FillRemaining fills leftover column budget after an insertion by drawing
// photos sized to fit. When exactly one column is left, a stacked landscape
// pair stands in for a portrait with probability stackedProb, or always when
// portraits are exhausted and two landscapes remain. A short row is an
// accepted outcome when the pool runs dry, not an error.
func FillRemaining(pool *Pool, displayed []*Photo, remaining int, cellRatio float64, matchProb, stackedProb float64, now time.Time, rng *rand.Rand) []*Slot {
	slots := []*Slot{}

	for remaining > 0 {
		if remaining == 1 {
			forced := pool.Count(Portrait) == 0 && pool.Count(Landscape) >= 2
			if forced || (pool.Count(Landscape) >= 2 && rng.Float64() < stackedProb) {
				top, _ := pool.WithdrawRandom(Landscape, rng)
				bottom, _ := pool.WithdrawRandom(Landscape, rng)
				slots = append(slots, NewStackedSlot(top, bottom, now))
				remaining--
				continue
			}
		}

		span := 1
		if remaining >= 2 && pool.Count(Landscape) > 0 && rng.Float64() < wideSlotBias {
			span = 2
		}

		ph, err := SelectForContainer(pool, displayed, float64(span)*cellRatio, false, matchProb, rng)
		if err != nil {
			klog.V(1).Infof("fill stopped with %d columns left: %v", remaining, err)
			break
		}

		slots = append(slots, NewSlot(ph, span, now))
		remaining -= span
	}

	return slots
}

// ApplyPlan rebuilds a row's slot list with the planned removals replaced by
// the new slots. Evicted photos are discarded, never returned to the pool.
func ApplyPlan(row *Row, plan SpacePlan, replacement []*Slot) {
	removed := map[int]bool{}
	for _, i := range plan.Remove {
		removed[i] = true
	}

	out := []*Slot{}
	for i, s := range row.Slots {
		if i == plan.InsertAt {
			out = append(out, replacement...)
		}
		if removed[i] {
			continue
		}
		out = append(out, s)
	}
	if plan.InsertAt >= len(row.Slots) {
		out = append(out, replacement...)
	}

	row.Slots = out
}
