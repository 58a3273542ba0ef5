package collage

import (
	"context"
	"sync"
	"time"

	"k8s.io/klog/v2"

	"github.com/neybar/pi-slide-show-sub000/pkg/source"
)

// ShouldSkipUpgrade reports whether a photo already sits at or above the
// target quality. Upgrades are monotonic: a photo never moves down the
// ladder, and the original asset outranks both sized variants.
func ShouldSkipUpgrade(current, target Quality) bool {
	return current >= target
}

// upgradeOutcome is one settled fetch from an upgrade batch.
type upgradeOutcome struct {
	photo  *Photo
	target Quality
	asset  *source.Asset
	err    error
}

// pauseRecheck is how often a blocked upgrade worker re-reads the pause flag.
const pauseRecheck = 500 * time.Millisecond

// loadInBatches fetches the target quality for the given photos in
// fixed-size sequential batches. Within a batch all fetches run
// concurrently and the batch settles only once every member has finished;
// one failed member never aborts the rest. While the pause flag is up no
// new batch starts, though fetches already in flight are left to finish.
// Each settled batch is handed to deliver.
func (e *Engine) loadInBatches(ctx context.Context, photos []*Photo, target Quality, deliver func([]upgradeOutcome)) {
	size := e.cfg.UpgradeBatchSize
	if size <= 0 {
		size = 1
	}

	for start := 0; start < len(photos); start += size {
		for e.paused.Load() {
			select {
			case <-ctx.Done():
				return
			case <-time.After(pauseRecheck):
			}
		}
		if ctx.Err() != nil {
			return
		}

		end := min(start+size, len(photos))
		deliver(e.loadBatch(ctx, photos[start:end], target))

		if end < len(photos) && e.cfg.UpgradeBatchDelay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(e.cfg.UpgradeBatchDelay):
			}
		}
	}
}

// loadBatch issues one batch of concurrent fetches and waits for all of
// them to settle.
func (e *Engine) loadBatch(ctx context.Context, photos []*Photo, target Quality) []upgradeOutcome {
	outcomes := make([]upgradeOutcome, len(photos))
	var wg sync.WaitGroup

	for i, ph := range photos {
		if ShouldSkipUpgrade(ph.Quality, target) {
			outcomes[i] = upgradeOutcome{photo: ph, target: target}
			continue
		}

		wg.Add(1)
		go func(i int, ph *Photo) {
			defer wg.Done()
			a, err := e.assets.Fetch(ctx, ph.Path, e.cfg.QualityLabel(target))
			outcomes[i] = upgradeOutcome{photo: ph, target: target, asset: a, err: err}
		}(i, ph)
	}

	wg.Wait()
	return outcomes
}

// applyUpgrades folds settled fetches back into engine state. The skip
// condition is re-checked here, at application time, so a photo replaced or
// already upgraded while its fetch was in flight is simply dropped.
func (e *Engine) applyUpgrades(outcomes []upgradeOutcome) {
	onScreen := map[*Photo]bool{}
	for _, ph := range e.frame.Photos() {
		onScreen[ph] = true
	}

	for _, o := range outcomes {
		if o.err != nil {
			klog.V(1).Infof("upgrade of %s to %s failed: %v", o.photo.Path, o.target, o.err)
			continue
		}
		if ShouldSkipUpgrade(o.photo.Quality, o.target) {
			continue
		}
		if !onScreen[o.photo] {
			klog.V(2).Infof("%s left the screen before its %s upgrade landed", o.photo.Path, o.target)
			continue
		}

		o.photo.Quality = o.target
		e.renderer.Upgraded(o.photo)
	}
}

// upgradeWorker serializes upgrade runs: one queued photo set at a time,
// each processed batch-by-batch.
func (e *Engine) upgradeWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case photos := <-e.upgradeQueue:
			e.loadInBatches(ctx, photos, QualityFinal, func(outcomes []upgradeOutcome) {
				select {
				case e.upgradeCh <- outcomes:
				case <-ctx.Done():
				}
			})
		}
	}
}

// Pause stops new upgrade batches from being scheduled. In-flight fetches
// are not cancelled; their results are gated at application time.
func (e *Engine) Pause() { e.paused.Store(true) }

// Resume lets upgrade batches flow again.
func (e *Engine) Resume() { e.paused.Store(false) }
