// Package source provides the collaborators the collage engine consumes:
// collection listings (which photos exist) and asset fetches (bytes and
// dimensions at a requested size).
package source

import "context"

// Entry is one photo in a fetched collection. EXIFOrientation is the raw
// camera tag (1-8); it says how the pixels are rotated, not whether the
// photo is portrait or landscape in the geometric sense.
type Entry struct {
	FileRef         string `json:"file"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	EXIFOrientation int    `json:"orientation"`
}

// DisplayDims returns the width and height as displayed: EXIF orientations
// 5-8 rotate the image a quarter turn, swapping the axes.
func (e Entry) DisplayDims() (int, int) {
	if e.EXIFOrientation >= 5 && e.EXIFOrientation <= 8 {
		return e.Height, e.Width
	}
	return e.Width, e.Height
}

// Collection lists the photos available for display.
type Collection interface {
	List(ctx context.Context) ([]Entry, error)
}

// Asset is a fetched image at some quality.
type Asset struct {
	Path   string
	Data   []byte
	Width  int
	Height int
}

// Fetcher resolves a file reference and a size label to image data.
type Fetcher interface {
	Fetch(ctx context.Context, ref string, size string) (*Asset, error)
}
