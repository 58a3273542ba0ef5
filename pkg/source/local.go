package source

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"github.com/barasher/go-exiftool"
	"github.com/karrick/godirwalk"
	"github.com/otiai10/copy"
	"k8s.io/klog/v2"

	_ "image/jpeg"
	_ "image/png"
)

// DirSource lists photos from a local directory tree.
type DirSource struct {
	Root string
}

// List walks the root and extracts per-photo dimensions and the EXIF
// orientation tag. Unreadable files are logged and skipped.
func (d *DirSource) List(ctx context.Context) ([]Entry, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("exiftool: %w", err)
	}
	defer et.Close()

	entries := []Entry{}

	err = godirwalk.Walk(d.Root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if err := ctx.Err(); err != nil {
				return err
			}

			if filepath.Base(path)[0] == '.' {
				return godirwalk.SkipThis
			}
			if de.IsDir() || !isImage(path) {
				return nil
			}

			e, err := readEntry(path, et)
			if err != nil {
				klog.Warningf("skipping %s: %v", path, err)
				return nil
			}

			e.FileRef, err = filepath.Rel(d.Root, path)
			if err != nil {
				return err
			}

			klog.V(2).Infof("found %s (%dx%d, orientation %d)", e.FileRef, e.Width, e.Height, e.EXIFOrientation)
			entries = append(entries, e)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", d.Root, err)
	}

	klog.Infof("listed %d photos under %s", len(entries), d.Root)
	return entries, nil
}

func isImage(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

func readEntry(path string, et *exiftool.Exiftool) (Entry, error) {
	fis := et.ExtractMetadata(path)
	fi := fis[0]
	e := Entry{EXIFOrientation: 1}

	if fi.Err != nil {
		return e, fmt.Errorf("extract fail for %q: %w", path, fi.Err)
	}

	h, err := fi.GetInt("ImageHeight")
	if err != nil {
		return e, fmt.Errorf("get ImageHeight: %w", err)
	}

	w, err := fi.GetInt("ImageWidth")
	if err != nil {
		return e, fmt.Errorf("get ImageWidth: %w", err)
	}

	e.Width = int(w)
	e.Height = int(h)

	o, err := fi.GetInt("Orientation")
	if err != nil {
		klog.V(1).Infof("no orientation tag for %s: %v", path, err)
	} else if o >= 1 && o <= 8 {
		e.EXIFOrientation = int(o)
	}

	return e, nil
}

// SizeOpts pins one size label to resize bounds and JPEG quality.
type SizeOpts struct {
	X       int
	Y       int
	Quality int
}

// DefaultSizes covers the engine's quality ladder: a quick "album" variant
// for first display and a sharper "view" variant for the upgrade pass.
var DefaultSizes = map[string]SizeOpts{
	"album": {Y: 640, Quality: 85},
	"view":  {X: 2048, Quality: 85},
}

// DirFetcher serves sized variants of local originals, keeping them in an
// on-disk cache so a Pi only resizes each photo once per size.
type DirFetcher struct {
	Root     string
	CacheDir string
	Sizes    map[string]SizeOpts
}

// Fetch returns the variant of ref at the given size label, generating and
// caching it on first use. The "original" label copies the source file into
// the cache untouched.
func (d *DirFetcher) Fetch(ctx context.Context, ref string, size string) (*Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src := filepath.Join(d.Root, ref)

	if size == "original" {
		return d.fetchOriginal(src, ref)
	}

	sizes := d.Sizes
	if sizes == nil {
		sizes = DefaultSizes
	}
	opts, ok := sizes[size]
	if !ok {
		return nil, fmt.Errorf("unknown size label %q", size)
	}

	dest := d.variantPath(ref, size)
	if a, err := readCached(dest, src); err == nil {
		return a, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}

	img, err := imgio.Open(src)
	if err != nil {
		return nil, fmt.Errorf("imgio.Open: %w", err)
	}

	x, y, err := fitBounds(img, opts)
	if err != nil {
		return nil, err
	}

	rimg := transform.Resize(img, x, y, transform.Lanczos)
	if err := imgio.Save(dest, rimg, imgio.JPEGEncoder(opts.Quality)); err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	klog.V(1).Infof("created %s variant of %s (%dx%d)", size, ref, x, y)
	return &Asset{Path: dest, Data: data, Width: rimg.Bounds().Dx(), Height: rimg.Bounds().Dy()}, nil
}

func (d *DirFetcher) fetchOriginal(src, ref string) (*Asset, error) {
	dest := d.variantPath(ref, "original")
	if a, err := readCached(dest, src); err == nil {
		return a, nil
	}

	if err := copy.Copy(src, dest); err != nil {
		return nil, fmt.Errorf("copy: %w", err)
	}

	a, err := readCached(dest, src)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// variantPath keys cache entries by size label; extensions collapse to jpg
// since every generated variant is JPEG-encoded.
func (d *DirFetcher) variantPath(ref, size string) string {
	ext := filepath.Ext(ref)
	base := strings.TrimSuffix(ref, ext)
	if size == "original" {
		return filepath.Join(d.CacheDir, size, ref)
	}
	return filepath.Join(d.CacheDir, size, base+".jpg")
}

// readCached returns the cached variant unless the source is newer.
func readCached(dest, src string) (*Asset, error) {
	dst, err := os.Stat(dest)
	if err != nil {
		return nil, err
	}

	sst, err := os.Stat(src)
	if err == nil && sst.ModTime().After(dst.ModTime()) {
		return nil, fmt.Errorf("%s is stale", dest)
	}

	f, err := os.Open(dest)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ic, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", dest, err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		return nil, err
	}

	return &Asset{Path: dest, Data: data, Width: ic.Width, Height: ic.Height}, nil
}

func fitBounds(img image.Image, opts SizeOpts) (int, int, error) {
	dx := img.Bounds().Dx()
	dy := img.Bounds().Dy()
	if dx == 0 || dy == 0 {
		return 0, 0, fmt.Errorf("degenerate image bounds %dx%d", dx, dy)
	}

	x := opts.X
	y := opts.Y
	if x == 0 {
		x = int(float64(dx) / (float64(dy) / float64(opts.Y)))
	}
	if y == 0 {
		y = int(float64(dy) / (float64(dx) / float64(opts.X)))
	}
	return x, y, nil
}
