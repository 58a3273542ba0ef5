package collage

import "time"

// SlotState is a presentation hint passed to the rendering layer; this
// package never paints anything itself.
type SlotState string

const (
	SlotEntering SlotState = "entering"
	SlotShowing  SlotState = "showing"
	SlotEvicting SlotState = "evicting"
)

// Slot is one placement position in a row, spanning one or more columns.
// It holds either a single photo or, for a 1-column slot, a vertically
// stacked pair of landscapes.
type Slot struct {
	Span        int
	DisplayedAt time.Time
	State       SlotState

	Photo   *Photo
	Stacked [2]*Photo
}

// IsStacked reports whether the slot holds a stacked landscape pair.
func (s *Slot) IsStacked() bool {
	return s.Stacked[0] != nil && s.Stacked[1] != nil
}

// Photos returns the photo(s) occupying the slot.
func (s *Slot) Photos() []*Photo {
	if s.IsStacked() {
		return []*Photo{s.Stacked[0], s.Stacked[1]}
	}
	if s.Photo == nil {
		return nil
	}
	return []*Photo{s.Photo}
}

// NewSlot places a single photo over the given span.
func NewSlot(ph *Photo, span int, now time.Time) *Slot {
	return &Slot{Span: span, Photo: ph, DisplayedAt: now, State: SlotEntering}
}

// NewStackedSlot places two landscapes in a single column.
func NewStackedSlot(top, bottom *Photo, now time.Time) *Slot {
	return &Slot{Span: 1, Stacked: [2]*Photo{top, bottom}, DisplayedAt: now, State: SlotEntering}
}

// Row is an ordered sequence of slots whose spans sum to the grid's total
// column count.
type Row struct {
	Slots []*Slot
}

// SpanSum totals the column spans of all slots.
func (r *Row) SpanSum() int {
	sum := 0
	for _, s := range r.Slots {
		sum += s.Span
	}
	return sum
}

// Photos returns every photo currently placed in the row.
func (r *Row) Photos() []*Photo {
	ps := []*Photo{}
	for _, s := range r.Slots {
		ps = append(ps, s.Photos()...)
	}
	return ps
}

// Frame is the full two-row grid.
type Frame struct {
	Rows         [2]*Row
	TotalColumns int
}

// Photos returns every photo currently on screen.
func (f *Frame) Photos() []*Photo {
	ps := []*Photo{}
	for _, r := range f.Rows {
		if r != nil {
			ps = append(ps, r.Photos()...)
		}
	}
	return ps
}

// ColumnsForViewport picks the grid width: wide viewports get 5 columns,
// squarer ones 4.
func ColumnsForViewport(width, height int) int {
	if height > 0 && float64(width)/float64(height) >= 1.6 {
		return 5
	}
	return 4
}
