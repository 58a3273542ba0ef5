package collage

import (
	"math/rand"
	"time"
)

// replaceWeightFloor keeps freshly-eligible slots from getting a zero weight
// in the roulette draw.
const replaceWeightFloor = time.Second

// SelectReplacement picks which slot in the row to evict next. Only slots
// displayed at least minDisplay ago are eligible (firstCycle bypasses the
// age requirement so the opening frame can start rotating immediately).
// Among eligible slots a cumulative-weight draw is made, weighted by time
// on screen, so stale photos leave roughly in proportion to their age.
// Returns ErrNoEligibleSlot when nothing qualifies; the caller skips the
// cycle.
func SelectReplacement(row *Row, now time.Time, minDisplay time.Duration, firstCycle bool, rng *rand.Rand) (int, error) {
	type candidate struct {
		index  int
		weight time.Duration
	}

	eligible := []candidate{}
	var total time.Duration

	for i, s := range row.Slots {
		if s.DisplayedAt.IsZero() {
			continue
		}
		age := now.Sub(s.DisplayedAt)
		if age < minDisplay && !firstCycle {
			continue
		}
		w := age
		if w < replaceWeightFloor {
			w = replaceWeightFloor
		}
		eligible = append(eligible, candidate{index: i, weight: w})
		total += w
	}

	if len(eligible) == 0 {
		return 0, ErrNoEligibleSlot
	}

	pick := time.Duration(rng.Int63n(int64(total)))
	for _, c := range eligible {
		if pick < c.weight {
			return c.index, nil
		}
		pick -= c.weight
	}
	return eligible[len(eligible)-1].index, nil
}
