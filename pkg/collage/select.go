package collage

import (
	"math/rand"

	"k8s.io/klog/v2"
)

// SelectForContainer withdraws one photo for a container of the given aspect
// ratio. With probability matchProb (and unless forceRandom), the bucket
// matching the container's shape is preferred, falling back to the other
// bucket when empty. Otherwise one photo is drawn uniformly from the union
// of the portrait and landscape buckets. When both buckets are empty an
// already-displayed photo is cloned; failing that, ErrPoolExhausted.
func SelectForContainer(pool *Pool, displayed []*Photo, containerRatio float64, forceRandom bool, matchProb float64, rng *rand.Rand) (*Photo, error) {
	matching := Landscape
	if containerRatio < 1 {
		matching = Portrait
	}
	other := Portrait
	if matching == Portrait {
		other = Landscape
	}

	if !forceRandom && rng.Float64() < matchProb {
		if ph, ok := pool.WithdrawRandom(matching, rng); ok {
			return ph, nil
		}
		if ph, ok := pool.WithdrawRandom(other, rng); ok {
			klog.V(2).Infof("%s bucket empty, using %s", matching, other)
			return ph, nil
		}
		return CloneFallback(displayed, matching, rng)
	}

	// Uniform draw over both buckets, weighted by their sizes.
	total := pool.Count(Portrait) + pool.Count(Landscape)
	if total == 0 {
		return CloneFallback(displayed, matching, rng)
	}

	o := Landscape
	if rng.Intn(total) < pool.Count(Portrait) {
		o = Portrait
	}
	ph, _ := pool.WithdrawRandom(o, rng)
	return ph, nil
}
