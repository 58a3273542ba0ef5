package source

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeTestImage(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{G: 128, A: 255})
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func TestDirFetcherResizesAndCaches(t *testing.T) {
	root := t.TempDir()
	cache := t.TempDir()
	writeTestImage(t, filepath.Join(root, "big.png"), 400, 200)

	d := &DirFetcher{
		Root:     root,
		CacheDir: cache,
		Sizes:    map[string]SizeOpts{"album": {Y: 100, Quality: 85}},
	}

	a, err := d.Fetch(context.Background(), "big.png", "album")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if a.Height != 100 || a.Width != 200 {
		t.Fatalf("variant dims = %dx%d, want 200x100", a.Width, a.Height)
	}
	if filepath.Ext(a.Path) != ".jpg" {
		t.Fatalf("variant path = %s, want a .jpg", a.Path)
	}

	// Second fetch comes from cache with identical dimensions.
	b, err := d.Fetch(context.Background(), "big.png", "album")
	if err != nil {
		t.Fatalf("cached Fetch: %v", err)
	}
	if b.Width != a.Width || b.Height != a.Height {
		t.Fatalf("cached dims %dx%d differ from %dx%d", b.Width, b.Height, a.Width, a.Height)
	}
}

func TestDirFetcherOriginal(t *testing.T) {
	root := t.TempDir()
	cache := t.TempDir()
	writeTestImage(t, filepath.Join(root, "orig.png"), 64, 48)

	d := &DirFetcher{Root: root, CacheDir: cache}

	a, err := d.Fetch(context.Background(), "orig.png", "original")
	if err != nil {
		t.Fatalf("Fetch original: %v", err)
	}
	if a.Width != 64 || a.Height != 48 {
		t.Fatalf("original dims = %dx%d, want 64x48", a.Width, a.Height)
	}

	src, err := os.ReadFile(filepath.Join(root, "orig.png"))
	if err != nil {
		t.Fatalf("read source: %v", err)
	}
	if len(a.Data) != len(src) {
		t.Fatalf("original asset has %d bytes, source has %d", len(a.Data), len(src))
	}
}

func TestDirFetcherUnknownSize(t *testing.T) {
	d := &DirFetcher{Root: t.TempDir(), CacheDir: t.TempDir()}
	if _, err := d.Fetch(context.Background(), "x.png", "billboard"); err == nil {
		t.Fatal("unknown size label must fail")
	}
}

func TestVariantPath(t *testing.T) {
	d := &DirFetcher{CacheDir: "/cache"}

	tests := []struct {
		ref, size string
		want      string
	}{
		{"trip/a.png", "album", "/cache/album/trip/a.jpg"},
		{"b.jpg", "view", "/cache/view/b.jpg"},
		{"trip/a.png", "original", "/cache/original/trip/a.png"},
	}
	for _, tc := range tests {
		if got := d.variantPath(tc.ref, tc.size); got != tc.want {
			t.Errorf("variantPath(%q, %q) = %q, want %q", tc.ref, tc.size, got, tc.want)
		}
	}
}

func TestIsImage(t *testing.T) {
	for path, want := range map[string]bool{
		"a.jpg": true, "b.JPG": true, "c.jpeg": true, "d.png": true,
		"e.txt": false, "f.mov": false, "noext": false,
	} {
		if got := isImage(path); got != want {
			t.Errorf("isImage(%q) = %v, want %v", path, got, want)
		}
	}
}
