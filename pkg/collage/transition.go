package collage

import (
	"context"
	"fmt"
	"runtime"

	"github.com/google/uuid"
	"k8s.io/klog/v2"
)

// TransitionState tracks the prefetch/switchover lifecycle of the next
// collection.
type TransitionState int

const (
	Idle TransitionState = iota
	Prefetching
	Ready
	Transitioning
	Failed
)

func (s TransitionState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Prefetching:
		return "prefetching"
	case Ready:
		return "ready"
	case Transitioning:
		return "transitioning"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// prefetchResult is what a background collection fetch sends home.
type prefetchResult struct {
	attempt uuid.UUID
	photos  []*Photo
	err     error
}

// startPrefetch kicks off a background fetch of the next collection. A new
// attempt supersedes any still-in-flight one: the old context is cancelled
// and its result, if it arrives anyway, is discarded by attempt ID. The
// fetch is skipped entirely under memory pressure.
func (e *Engine) startPrefetch(ctx context.Context) {
	if e.state == Transitioning {
		return
	}

	if e.memoryPressure() {
		klog.Warningf("skipping prefetch: heap above %d MB", e.cfg.PrefetchMemoryThresholdMB)
		e.state = Idle
		return
	}

	if e.prefetchCancel != nil {
		e.prefetchCancel()
	}

	fctx, cancel := context.WithCancel(ctx)
	e.prefetchCancel = cancel

	attempt := uuid.New()
	e.attempt = attempt
	e.state = Prefetching
	klog.V(1).Infof("prefetching next collection (attempt %s)", attempt)

	go func() {
		photos, err := e.fetchCollection(fctx, true)
		select {
		case e.prefetchCh <- prefetchResult{attempt: attempt, photos: photos, err: err}:
		case <-ctx.Done():
		}
	}()
}

// finishPrefetch applies a completed fetch on the engine loop. Results from
// superseded attempts are discarded, never merged.
func (e *Engine) finishPrefetch(res prefetchResult) {
	if res.attempt != e.attempt {
		klog.V(1).Infof("discarding superseded prefetch %s", res.attempt)
		return
	}

	if res.err != nil {
		klog.Warningf("prefetch failed: %v", res.err)
		e.state = Failed
		e.pending = nil
		return
	}

	e.pending = res.photos
	e.state = Ready
	klog.Infof("next collection ready: %d photos", len(res.photos))
}

// boundary handles the scheduled collection switchover. A Ready buffer is
// swapped in wholesale; anything else falls back to a hard reload. Every
// ForceReloadInterval successful transitions the hard reload runs anyway,
// bounding long-run resource growth.
func (e *Engine) boundary(ctx context.Context) {
	force := e.cfg.ForceReloadInterval > 0 &&
		e.transitions > 0 &&
		e.transitions%e.cfg.ForceReloadInterval == 0

	switch {
	case force:
		klog.Infof("forcing reload after %d transitions", e.transitions)
		e.hardReload(ctx)
	case e.state == Ready:
		e.transition()
	default:
		klog.Warningf("collection not ready at boundary (state %s), reloading", e.state)
		e.hardReload(ctx)
	}

	if e.prefetchCancel != nil {
		e.prefetchCancel()
		e.prefetchCancel = nil
	}
	e.pending = nil
	if e.state != Failed {
		e.state = Idle
	}
}

// transition replaces the pool and both rows from the buffered collection.
// Upgrades are paused around the swap so a stale fetch can't race the bulk
// replacement; the swap timer never fires mid-transition because the whole
// switchover runs on the engine loop.
func (e *Engine) transition() {
	e.state = Transitioning
	e.Pause()
	defer e.Resume()

	e.pool.Replace(e.pending)
	e.pending = nil
	e.frame = e.buildFrame()
	e.transitions++

	e.renderer.Reveal(e.frame)
	e.queueUpgrade(e.frame.Photos())
	klog.Infof("transition %d complete: %d photos pooled", e.transitions, e.pool.Len())
}

// hardReload refetches the collection synchronously and rebuilds from
// scratch. On failure the current frame stays up and the next boundary
// tries again.
func (e *Engine) hardReload(ctx context.Context) {
	photos, err := e.fetchCollection(ctx, false)
	if err != nil {
		klog.Errorf("reload failed, keeping current frame: %v", err)
		e.state = Failed
		return
	}

	e.Pause()
	defer e.Resume()

	e.pool.Replace(photos)
	e.frame = e.buildFrame()
	e.transitions = 0
	e.state = Idle

	e.renderer.Reveal(e.frame)
	e.queueUpgrade(e.frame.Photos())
	klog.Infof("hard reload complete: %d photos pooled", e.pool.Len())
}

// fetchCollection lists the collection and builds descriptors. When
// validate is set, a well-formed but undersized collection is an error:
// transitioning to a near-empty pool would starve the rotation.
func (e *Engine) fetchCollection(ctx context.Context, validate bool) ([]*Photo, error) {
	entries, err := e.coll.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collection: %w", err)
	}

	if validate && len(entries) < e.cfg.MinPhotosForTransition {
		return nil, fmt.Errorf("%w: %d < %d", ErrCollectionTooSmall, len(entries), e.cfg.MinPhotosForTransition)
	}

	photos := make([]*Photo, 0, len(entries))
	for _, en := range entries {
		w, h := en.DisplayDims()
		photos = append(photos, NewPhoto(en.FileRef, w, h, e.cfg.PanoramaAspectThreshold))
	}
	return photos, nil
}

// memoryPressure reports whether the heap already exceeds the prefetch
// threshold. A zero threshold disables the gate.
func (e *Engine) memoryPressure() bool {
	if e.cfg.PrefetchMemoryThresholdMB <= 0 {
		return false
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapInuse/(1024*1024) >= uint64(e.cfg.PrefetchMemoryThresholdMB)
}
