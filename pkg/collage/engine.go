package collage

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/neybar/pi-slide-show-sub000/pkg/source"
)

// Renderer receives model changes; translating them into pixels is someone
// else's job.
type Renderer interface {
	// Reveal shows a complete frame: the initial display and every
	// collection switchover.
	Reveal(f *Frame)

	// Swap replaces slots in one row. Removed slots carry the evicting
	// state, inserted ones the entering state.
	Swap(row int, removed []*Slot, inserted []*Slot)

	// Upgraded reports that a displayed photo reached a higher quality.
	Upgraded(ph *Photo)
}

// NopRenderer discards all events.
type NopRenderer struct{}

func (NopRenderer) Reveal(*Frame)              {}
func (NopRenderer) Swap(int, []*Slot, []*Slot) {}
func (NopRenderer) Upgraded(*Photo)            {}

// Engine owns the pool, the frame, and every timer. All mutable state is
// confined to the Run loop; background fetches report back over channels.
type Engine struct {
	cfg      *Config
	coll     source.Collection
	assets   source.Fetcher
	renderer Renderer

	rng *rand.Rand
	now func() time.Time

	pool       *Pool
	frame      *Frame
	firstCycle bool

	paused atomic.Bool

	// Transition machinery.
	state          TransitionState
	pending        []*Photo
	transitions    int
	attempt        uuid.UUID
	prefetchCancel context.CancelFunc

	prefetchCh   chan prefetchResult
	upgradeCh    chan []upgradeOutcome
	upgradeQueue chan []*Photo
	reloadCh     chan struct{}
}

// New wires an engine. A nil renderer is replaced with a no-op one.
func New(cfg *Config, coll source.Collection, assets source.Fetcher, r Renderer) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if r == nil {
		r = NopRenderer{}
	}

	return &Engine{
		cfg:      cfg,
		coll:     coll,
		assets:   assets,
		renderer: r,

		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,

		pool:       NewPool(),
		firstCycle: true,

		prefetchCh:   make(chan prefetchResult, 1),
		upgradeCh:    make(chan []upgradeOutcome, 4),
		upgradeQueue: make(chan []*Photo, 8),
		reloadCh:     make(chan struct{}, 1),
	}
}

// State reports the transition state. Only safe from the Run goroutine or
// while the engine is stopped.
func (e *Engine) State() TransitionState { return e.state }

// Frame returns the current frame under the same ownership rules as State.
func (e *Engine) Frame() *Frame { return e.frame }

// RequestReload asks the engine to prefetch a fresh collection ahead of
// schedule, e.g. because the photo directory changed. Safe from any
// goroutine; coalesces when a request is already queued.
func (e *Engine) RequestReload() {
	select {
	case e.reloadCh <- struct{}{}:
	default:
	}
}

// Run performs the initial display and then drives swap cycles, quality
// upgrades, and collection transitions until the context ends.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.initialDisplay(ctx); err != nil {
		return fmt.Errorf("initial display: %w", err)
	}

	go e.upgradeWorker(ctx)
	e.queueUpgrade(e.frame.Photos())

	swap := time.NewTicker(e.cfg.SwapInterval)
	defer swap.Stop()

	boundary := time.NewTimer(e.cfg.CollectionInterval)
	defer boundary.Stop()

	lead := time.NewTimer(e.prefetchDelay())
	defer lead.Stop()

	for {
		select {
		case <-ctx.Done():
			if e.prefetchCancel != nil {
				e.prefetchCancel()
			}
			return ctx.Err()

		case <-swap.C:
			if e.state == Transitioning {
				continue
			}
			e.swapCycle()

		case <-lead.C:
			e.startPrefetch(ctx)

		case <-e.reloadCh:
			e.startPrefetch(ctx)

		case res := <-e.prefetchCh:
			e.finishPrefetch(res)

		case <-boundary.C:
			e.boundary(ctx)
			boundary.Reset(e.cfg.CollectionInterval)
			lead.Reset(e.prefetchDelay())

		case outcomes := <-e.upgradeCh:
			e.applyUpgrades(outcomes)
		}
	}
}

func (e *Engine) prefetchDelay() time.Duration {
	d := e.cfg.CollectionInterval - e.cfg.PrefetchLeadTime
	if d < time.Second {
		d = time.Second
	}
	return d
}

// initialDisplay fetches the first collection, builds the frame, and
// resolves every slot's initial-quality asset before revealing anything, so
// the opening frame is never partially empty.
func (e *Engine) initialDisplay(ctx context.Context) error {
	photos, err := e.fetchCollection(ctx, false)
	if err != nil {
		return err
	}
	if len(photos) == 0 {
		return fmt.Errorf("collection is empty")
	}

	e.pool.Replace(photos)
	e.frame = e.buildFrame()

	e.loadInBatches(ctx, e.frame.Photos(), QualityInitial, e.applyUpgrades)
	if err := ctx.Err(); err != nil {
		return err
	}

	e.renderer.Reveal(e.frame)
	klog.Infof("revealed %d-column frame with %d photos, %d pooled",
		e.frame.TotalColumns, len(e.frame.Photos()), e.pool.Len())
	return nil
}

// queueUpgrade schedules a background upgrade of the given photos to final
// quality. Drops the request if the queue is full; the photos will be
// picked up by a later cycle or replaced anyway.
func (e *Engine) queueUpgrade(photos []*Photo) {
	if len(photos) == 0 {
		return
	}
	select {
	case e.upgradeQueue <- photos:
	default:
		klog.V(1).Infof("upgrade queue full, dropping %d photos", len(photos))
	}
}

// cellRatio is the aspect ratio of a single grid cell: one column wide, one
// half-viewport tall.
func (e *Engine) cellRatio() float64 {
	rowHeight := float64(e.cfg.ViewportHeight) / 2
	if rowHeight <= 0 || e.frame == nil {
		return 1
	}
	return (float64(e.cfg.ViewportWidth) / float64(e.frame.TotalColumns)) / rowHeight
}

// buildFrame lays out both rows from the pool. Row patterns avoid repeating
// the previous row's signature.
func (e *Engine) buildFrame() *Frame {
	cols := ColumnsForViewport(e.cfg.ViewportWidth, e.cfg.ViewportHeight)
	f := &Frame{TotalColumns: cols}

	displayed := []*Photo{}
	avoid := ""
	for i := range f.Rows {
		row, sig := e.buildRow(cols, avoid, displayed)
		f.Rows[i] = row
		avoid = sig
		displayed = append(displayed, row.Photos()...)
	}

	e.firstCycle = true
	return f
}

// buildRow materializes one row: a generated width pattern, then one photo
// draw per slot. The row may come up short if the pool runs dry.
func (e *Engine) buildRow(cols int, avoid string, displayed []*Photo) (*Row, string) {
	pattern := GenerateRowPattern(cols, e.pool.Count(Landscape), e.pool.Count(Portrait),
		avoid, e.cfg.InterRowDifferProbability, e.rng)

	rowHeight := float64(e.cfg.ViewportHeight) / 2
	cellRatio := 1.0
	if rowHeight > 0 {
		cellRatio = (float64(e.cfg.ViewportWidth) / float64(cols)) / rowHeight
	}

	now := e.now()
	row := &Row{}
	used := []int{}

	for _, w := range pattern {
		slot := e.materializeSlot(w, cellRatio, displayed, now)
		if slot == nil {
			break
		}
		row.Slots = append(row.Slots, slot)
		displayed = append(displayed, slot.Photos()...)
		used = append(used, w)
	}

	return row, PatternSignature(used)
}

// materializeSlot draws the photo(s) for one slot of the given width. A
// 1-column slot becomes a stacked landscape pair when portraits are gone or
// the stacked coin lands.
func (e *Engine) materializeSlot(width int, cellRatio float64, displayed []*Photo, now time.Time) *Slot {
	if width == 1 {
		forced := e.pool.Count(Portrait) == 0 && e.pool.Count(Landscape) >= 2
		if forced || (e.pool.Count(Landscape) >= 2 && e.rng.Float64() < e.cfg.StackedLandscapesProbability) {
			top, _ := e.pool.WithdrawRandom(Landscape, e.rng)
			bottom, _ := e.pool.WithdrawRandom(Landscape, e.rng)
			return NewStackedSlot(top, bottom, now)
		}
	}

	ph, err := SelectForContainer(e.pool, displayed, float64(width)*cellRatio, false,
		e.cfg.OrientationMatchProbability, e.rng)
	if err != nil {
		klog.V(1).Infof("no photo for %d-column slot: %v", width, err)
		return nil
	}
	return NewSlot(ph, width, now)
}

// swapCycle evicts one aged slot and fills the freed columns. Every failure
// along the way is a skipped cycle, retried on the next tick.
func (e *Engine) swapCycle() {
	rowIdx := e.rng.Intn(len(e.frame.Rows))
	row := e.frame.Rows[rowIdx]
	now := e.now()

	target, err := SelectReplacement(row, now, e.cfg.MinDisplayTime, e.firstCycle, e.rng)
	if err != nil {
		klog.V(2).Infof("row %d: %v", rowIdx, err)
		return
	}
	e.firstCycle = false

	displayed := e.frame.Photos()
	incoming, needed := e.pickIncoming(row.Slots[target].Span, displayed)
	if incoming == nil {
		klog.V(1).Infof("row %d: nothing to swap in", rowIdx)
		return
	}

	plan, err := MakeSpace(row, target, needed)
	if err != nil {
		// Put the candidate back; it was never displayed.
		e.pool.Admit(incoming)
		klog.V(1).Infof("row %d: %v", rowIdx, err)
		return
	}

	replacement := []*Slot{NewSlot(incoming, needed, now)}
	replacement = append(replacement, FillRemaining(e.pool, displayed, plan.Freed-needed,
		e.cellRatio(), e.cfg.OrientationMatchProbability, e.cfg.StackedLandscapesProbability,
		now, e.rng)...)

	removed := make([]*Slot, 0, len(plan.Remove))
	for _, i := range plan.Remove {
		row.Slots[i].State = SlotEvicting
		removed = append(removed, row.Slots[i])
	}

	ApplyPlan(row, plan, replacement)
	e.renderer.Swap(rowIdx, removed, replacement)

	inserted := []*Photo{}
	for _, s := range replacement {
		inserted = append(inserted, s.Photos()...)
	}
	e.queueUpgrade(inserted)

	klog.V(1).Infof("row %d: swapped %d slots for %d (%d columns)",
		rowIdx, len(removed), len(replacement), plan.Freed)
}

// pickIncoming chooses the replacement photo and its span. Panoramas get a
// turn with a configured probability when the pool holds one; otherwise the
// draw targets the evicted slot's shape, and the photo's own orientation
// decides the new span.
func (e *Engine) pickIncoming(targetSpan int, displayed []*Photo) (*Photo, int) {
	if e.rng.Float64() < e.cfg.PanoramaUseProbability {
		if ph, ok := e.pool.WithdrawRandom(Panorama, e.rng); ok {
			cols := PanoramaColumns(ph.Ratio, e.frame.TotalColumns,
				e.cfg.ViewportWidth, e.cfg.ViewportHeight)
			return ph, cols
		}
	}

	ph, err := SelectForContainer(e.pool, displayed, float64(targetSpan)*e.cellRatio(),
		false, e.cfg.OrientationMatchProbability, e.rng)
	if err != nil {
		if !errors.Is(err, ErrPoolExhausted) {
			klog.Warningf("selection failed: %v", err)
		}
		return nil, 0
	}

	span := 1
	if ph.Orientation != Portrait {
		span = 2
	}
	if span > e.frame.TotalColumns-1 {
		span = e.frame.TotalColumns - 1
	}
	return ph, span
}
