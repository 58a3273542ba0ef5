package collage

import "math"

// PanoramaColumns computes the column span for a panorama. The viewport is
// split into two stacked rows, so a cell's aspect ratio is one column's width
// over half the viewport height; the panorama needs enough cells side by side
// to cover its own ratio. The result always spans at least 2 columns (a
// panorama is inherently wide) and never the full row, so at least one more
// slot fits beside it.
func PanoramaColumns(imageRatio float64, totalColumns, viewportWidth, viewportHeight int) int {
	rowHeight := float64(viewportHeight) / 2
	if rowHeight <= 0 {
		return max(2, totalColumns-1)
	}

	cellRatio := (float64(viewportWidth) / float64(totalColumns)) / rowHeight
	needed := int(math.Ceil(imageRatio / cellRatio))

	if needed < 2 {
		needed = 2
	}
	if needed > totalColumns-1 {
		needed = totalColumns - 1
	}
	return needed
}
