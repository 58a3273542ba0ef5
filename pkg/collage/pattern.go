package collage

import (
	"math/rand"
	"strings"
)

// wideSlotBias is how often a 2-column slot is preferred when the remaining
// photo counts allow either width.
const wideSlotBias = 0.6

// patternRetries bounds how many times a row pattern is regenerated while
// trying to differ from the previous row.
const patternRetries = 3

// GenerateRowPattern builds a sequence of slot widths (1 or 2) summing to
// totalColumns, constrained by how many landscape and portrait photos are
// available. A width-1 slot consumes one portrait and a width-2 slot one
// landscape; when a single trailing column is left and portraits are gone,
// two landscapes stand in for it (stacked vertically). The pattern may come
// up short when neither width is satisfiable from the remaining counts.
//
// When avoid is non-empty, with probability differProb the pattern is
// regenerated a few times until its signature differs from avoid, keeping
// adjacent rows from looking identical too often.
func GenerateRowPattern(totalColumns, landscapes, portraits int, avoid string, differProb float64, rng *rand.Rand) []int {
	widths := rowPattern(totalColumns, landscapes, portraits, rng)
	if avoid == "" || PatternSignature(widths) != avoid {
		return widths
	}
	if rng.Float64() >= differProb {
		return widths
	}

	for i := 0; i < patternRetries; i++ {
		widths = rowPattern(totalColumns, landscapes, portraits, rng)
		if PatternSignature(widths) != avoid {
			break
		}
	}
	return widths
}

func rowPattern(totalColumns, landscapes, portraits int, rng *rand.Rand) []int {
	widths := []int{}
	remaining := totalColumns

	for remaining > 0 {
		if remaining == 1 {
			switch {
			case portraits > 0:
				portraits--
			case landscapes >= 2:
				landscapes -= 2
			default:
				return widths
			}
			widths = append(widths, 1)
			remaining--
			continue
		}

		wide := landscapes > 0
		narrow := portraits > 0

		var w int
		switch {
		case wide && narrow:
			w = 1
			if rng.Float64() < wideSlotBias {
				w = 2
			}
		case wide:
			w = 2
		case narrow:
			w = 1
		default:
			return widths
		}

		if w == 2 {
			landscapes--
		} else {
			portraits--
		}

		widths = append(widths, w)
		remaining -= w
	}

	return widths
}

// PatternSignature flattens a width sequence into a comparable string:
// 'L' per 2-column slot, 'P' per 1-column slot.
func PatternSignature(widths []int) string {
	var sb strings.Builder
	for _, w := range widths {
		if w == 2 {
			sb.WriteByte('L')
		} else {
			sb.WriteByte('P')
		}
	}
	return sb.String()
}
