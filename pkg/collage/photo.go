// Package collage decides which photo occupies which position in a two-row
// grid, how wide that position is, when to swap it out, and how to move to a
// fresh collection without a visible hiccup.
package collage

import (
	"github.com/google/uuid"
)

// Orientation is the geometric shape class of a photo, derived purely from
// its pixel aspect ratio. It is unrelated to the EXIF orientation tag.
type Orientation int

const (
	Portrait Orientation = iota
	Landscape
	Panorama
)

func (o Orientation) String() string {
	switch o {
	case Portrait:
		return "portrait"
	case Landscape:
		return "landscape"
	case Panorama:
		return "panorama"
	}
	return "unknown"
}

// Quality is a rung on the image quality ladder. A fresh descriptor has
// nothing fetched yet; it first shows at QualityInitial and is upgraded in
// the background. QualityOriginal is the untouched source asset and outranks
// both sized variants.
type Quality int

const (
	QualityNone Quality = iota
	QualityInitial
	QualityFinal
	QualityOriginal
)

func (q Quality) String() string {
	switch q {
	case QualityNone:
		return "none"
	case QualityInitial:
		return "initial"
	case QualityFinal:
		return "final"
	case QualityOriginal:
		return "original"
	}
	return "unknown"
}

// Photo describes one displayable image. Exactly one container owns a photo
// at a time: a pool bucket or an on-screen slot, never both.
type Photo struct {
	ID     uuid.UUID
	Path   string
	Width  int
	Height int

	Ratio       float64
	Orientation Orientation
	Quality     Quality
}

// NewPhoto builds a descriptor from pixel dimensions, classifying its
// orientation against the panorama threshold.
func NewPhoto(path string, width, height int, panoramaThreshold float64) *Photo {
	ratio := 0.0
	if height > 0 {
		ratio = float64(width) / float64(height)
	}

	return &Photo{
		ID:          uuid.New(),
		Path:        path,
		Width:       width,
		Height:      height,
		Ratio:       ratio,
		Orientation: ClassifyOrientation(ratio, panoramaThreshold),
		Quality:     QualityNone,
	}
}

// ClassifyOrientation maps an aspect ratio to an orientation class.
func ClassifyOrientation(ratio float64, panoramaThreshold float64) Orientation {
	switch {
	case ratio > panoramaThreshold:
		return Panorama
	case ratio >= 1:
		return Landscape
	default:
		return Portrait
	}
}

// Clone returns an independent copy with a fresh identity. Used when the
// pool is exhausted and an already-displayed photo must be shown twice.
func (p *Photo) Clone() *Photo {
	c := *p
	c.ID = uuid.New()
	return &c
}
