package collage

import (
	"math/rand"

	"k8s.io/klog/v2"
)

// Pool holds photos that are not currently on screen, bucketed by
// orientation. It is not goroutine-safe: the engine loop owns it.
type Pool struct {
	buckets map[Orientation][]*Photo
}

func NewPool() *Pool {
	return &Pool{buckets: map[Orientation][]*Photo{}}
}

// Admit classifies a photo by its orientation and inserts it.
func (p *Pool) Admit(ph *Photo) {
	p.buckets[ph.Orientation] = append(p.buckets[ph.Orientation], ph)
}

// WithdrawRandom removes and returns one photo from the given bucket,
// uniformly at random. ok is false when the bucket is empty.
func (p *Pool) WithdrawRandom(o Orientation, rng *rand.Rand) (*Photo, bool) {
	b := p.buckets[o]
	if len(b) == 0 {
		return nil, false
	}

	i := rng.Intn(len(b))
	ph := b[i]
	b[i] = b[len(b)-1]
	p.buckets[o] = b[:len(b)-1]
	return ph, true
}

// Count reports how many photos sit in one bucket.
func (p *Pool) Count(o Orientation) int {
	return len(p.buckets[o])
}

// Len reports the total number of pooled photos.
func (p *Pool) Len() int {
	return len(p.buckets[Portrait]) + len(p.buckets[Landscape]) + len(p.buckets[Panorama])
}

// Replace discards all buckets and admits a fresh set of photos. Only the
// transition path uses this.
func (p *Pool) Replace(photos []*Photo) {
	p.buckets = map[Orientation][]*Photo{}
	for _, ph := range photos {
		p.Admit(ph)
	}
}

// CloneFallback duplicates an already-displayed photo when the pool has
// nothing left. A photo matching the preferred orientation is chosen when
// one is displayed; otherwise any displayed photo will do. This is the only
// way a photo is ever shown twice.
func CloneFallback(displayed []*Photo, preferred Orientation, rng *rand.Rand) (*Photo, error) {
	if len(displayed) == 0 {
		return nil, ErrPoolExhausted
	}

	matches := []*Photo{}
	for _, ph := range displayed {
		if ph.Orientation == preferred {
			matches = append(matches, ph)
		}
	}

	candidates := matches
	if len(candidates) == 0 {
		candidates = displayed
	}

	ph := candidates[rng.Intn(len(candidates))].Clone()
	klog.V(1).Infof("pool empty, cloning displayed photo %s", ph.Path)
	return ph, nil
}
