package collage

import "testing"

func TestPanoramaColumns(t *testing.T) {
	tests := []struct {
		name   string
		ratio  float64
		cols   int
		vw, vh int
		want   int
	}{
		{name: "3.0 ratio on 5-column 1080p", ratio: 3.0, cols: 5, vw: 1920, vh: 1080, want: 4},
		{name: "modest panorama", ratio: 2.1, cols: 5, vw: 1920, vh: 1080, want: 3},
		{name: "extreme ratio clamps below full row", ratio: 20.0, cols: 4, vw: 1920, vh: 1080, want: 3},
		{name: "narrow ratio still spans two", ratio: 1.0, cols: 5, vw: 1920, vh: 1080, want: 2},
		{name: "degenerate viewport", ratio: 3.0, cols: 5, vw: 1920, vh: 0, want: 4},
		{name: "degenerate viewport small grid", ratio: 3.0, cols: 3, vw: 0, vh: 0, want: 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := PanoramaColumns(tc.ratio, tc.cols, tc.vw, tc.vh)
			if got != tc.want {
				t.Errorf("PanoramaColumns(%v, %d, %d, %d) = %d, want %d",
					tc.ratio, tc.cols, tc.vw, tc.vh, got, tc.want)
			}
		})
	}
}

func TestPanoramaColumnsAlwaysInBounds(t *testing.T) {
	for cols := 4; cols <= 5; cols++ {
		for ratio := 0.5; ratio < 12; ratio += 0.25 {
			got := PanoramaColumns(ratio, cols, 1920, 1080)
			if got < 2 || got > cols-1 {
				t.Fatalf("PanoramaColumns(%v, %d, 1920, 1080) = %d, outside [2, %d]",
					ratio, cols, got, cols-1)
			}
		}
	}
}
