package collage

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/neybar/pi-slide-show-sub000/pkg/source"
)

type fakeCollection struct {
	mu      sync.Mutex
	entries []source.Entry
	err     error
}

func (f *fakeCollection) List(ctx context.Context) ([]source.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]source.Entry{}, f.entries...), nil
}

func (f *fakeCollection) set(entries []source.Entry, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = entries
	f.err = err
}

type fakeFetcher struct {
	mu   sync.Mutex
	fail map[string]bool
	got  []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, ref string, size string) (*source.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, ref+"@"+size)
	if f.fail[ref] {
		return nil, fmt.Errorf("fetch %s: boom", ref)
	}
	return &source.Asset{Path: ref, Width: 640, Height: 480}, nil
}

type countingRenderer struct {
	mu       sync.Mutex
	reveals  int
	swaps    int
	upgrades int
}

func (r *countingRenderer) Reveal(*Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reveals++
}

func (r *countingRenderer) Swap(int, []*Slot, []*Slot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.swaps++
}

func (r *countingRenderer) Upgraded(*Photo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upgrades++
}

// mixedEntries builds portraits, landscapes, and panoramas with distinct
// file refs.
func mixedEntries(portraits, landscapes, panoramas int) []source.Entry {
	entries := []source.Entry{}
	for i := 0; i < portraits; i++ {
		entries = append(entries, source.Entry{
			FileRef: fmt.Sprintf("portrait-%d.jpg", i), Width: 800, Height: 1200, EXIFOrientation: 1,
		})
	}
	for i := 0; i < landscapes; i++ {
		entries = append(entries, source.Entry{
			FileRef: fmt.Sprintf("landscape-%d.jpg", i), Width: 1200, Height: 800, EXIFOrientation: 1,
		})
	}
	for i := 0; i < panoramas; i++ {
		entries = append(entries, source.Entry{
			FileRef: fmt.Sprintf("pano-%d.jpg", i), Width: 3000, Height: 1000, EXIFOrientation: 1,
		})
	}
	return entries
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.SwapInterval = 10 * time.Millisecond
	cfg.MinDisplayTime = 45 * time.Second
	cfg.CollectionInterval = time.Hour
	cfg.PrefetchLeadTime = time.Minute
	cfg.UpgradeBatchSize = 2
	cfg.UpgradeBatchDelay = 0
	cfg.PrefetchMemoryThresholdMB = 0 // gate off for tests
	return cfg
}

func newTestEngine(t *testing.T, entries []source.Entry, cfg *Config) *Engine {
	t.Helper()
	e := New(cfg, &fakeCollection{entries: entries}, &fakeFetcher{}, nil)
	e.rng = rand.New(rand.NewSource(11))
	return e
}

func TestInitialDisplayBuildsFullRows(t *testing.T) {
	e := newTestEngine(t, mixedEntries(10, 10, 2), testConfig())

	if err := e.initialDisplay(context.Background()); err != nil {
		t.Fatalf("initialDisplay: %v", err)
	}

	f := e.frame
	if f.TotalColumns != 5 {
		t.Fatalf("TotalColumns = %d, want 5 for a 16:9 viewport", f.TotalColumns)
	}
	for i, row := range f.Rows {
		if got := row.SpanSum(); got != f.TotalColumns {
			t.Errorf("row %d span sum = %d, want %d", i, got, f.TotalColumns)
		}
	}

	// Every displayed photo resolved its first asset before reveal.
	for _, ph := range f.Photos() {
		if ph.Quality != QualityInitial {
			t.Errorf("%s revealed at quality %s, want initial", ph.Path, ph.Quality)
		}
	}
}

func TestRowsAvoidSharedPhotos(t *testing.T) {
	e := newTestEngine(t, mixedEntries(10, 10, 0), testConfig())
	if err := e.initialDisplay(context.Background()); err != nil {
		t.Fatalf("initialDisplay: %v", err)
	}

	seen := map[*Photo]bool{}
	for _, ph := range e.frame.Photos() {
		if seen[ph] {
			t.Fatalf("photo %s placed twice", ph.Path)
		}
		seen[ph] = true
	}
}

func TestSwapCycleKeepsSpanInvariant(t *testing.T) {
	e := newTestEngine(t, mixedEntries(20, 20, 4), testConfig())
	if err := e.initialDisplay(context.Background()); err != nil {
		t.Fatalf("initialDisplay: %v", err)
	}

	// Advance the clock each cycle so freshly placed slots age past the
	// minimum display time before the next swap.
	base := time.Now()
	tick := 0
	e.now = func() time.Time {
		tick++
		return base.Add(time.Hour + time.Duration(tick)*time.Minute)
	}

	for i := 0; i < 60; i++ {
		e.swapCycle()
		for r, row := range e.frame.Rows {
			if got := row.SpanSum(); got != e.frame.TotalColumns {
				t.Fatalf("cycle %d row %d: span sum = %d, want %d",
					i, r, got, e.frame.TotalColumns)
			}
		}
	}
}

func TestSwapCycleDiscardsEvicted(t *testing.T) {
	e := newTestEngine(t, mixedEntries(15, 15, 0), testConfig())
	if err := e.initialDisplay(context.Background()); err != nil {
		t.Fatalf("initialDisplay: %v", err)
	}

	base := time.Now()
	tick := 0
	e.now = func() time.Time {
		tick++
		return base.Add(time.Hour + time.Duration(tick)*time.Minute)
	}

	before := e.pool.Len() + len(e.frame.Photos())
	for i := 0; i < 20; i++ {
		e.swapCycle()
	}
	after := e.pool.Len() + len(e.frame.Photos())

	if after > before {
		t.Fatalf("photo population grew from %d to %d; evicted photos must be discarded", before, after)
	}
}

func TestSwapCycleSkipsWhenNothingEligible(t *testing.T) {
	r := &countingRenderer{}
	e := newTestEngine(t, mixedEntries(10, 10, 0), testConfig())
	e.renderer = r

	if err := e.initialDisplay(context.Background()); err != nil {
		t.Fatalf("initialDisplay: %v", err)
	}

	// Spend the one-time first-cycle bypass.
	e.firstCycle = false

	e.swapCycle()
	if r.swaps != 0 {
		t.Fatalf("fresh frame allowed %d swaps before MinDisplayTime", r.swaps)
	}
}

func TestRunRevealsAndStops(t *testing.T) {
	r := &countingRenderer{}
	e := newTestEngine(t, mixedEntries(10, 10, 0), testConfig())
	e.renderer = r

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for {
		r.mu.Lock()
		revealed := r.reveals > 0
		r.mu.Unlock()
		if revealed {
			break
		}
		select {
		case <-deadline:
			t.Fatal("engine never revealed a frame")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}
