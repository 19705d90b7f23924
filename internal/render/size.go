package render

import "github.com/gridworks/sheetkit/internal/sheets"

// Default pixel sizes applied when the metadata carries no explicit
// entry for a row or column index.
const (
	defaultRowHeightPx = 21
	defaultColWidthPx  = 100
)

// rowHeights maps sparse row metadata onto a dense per-row height array.
func rowHeights(meta []sheets.DimensionProperties, n int) []int {
	return densePixels(meta, n, defaultRowHeightPx)
}

// colWidths maps sparse column metadata onto a dense per-column width array.
func colWidths(meta []sheets.DimensionProperties, n int) []int {
	return densePixels(meta, n, defaultColWidthPx)
}

func densePixels(meta []sheets.DimensionProperties, n, def int) []int {
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = def
		if i < len(meta) && meta[i].PixelSize != nil {
			out[i] = *meta[i].PixelSize
		}
	}
	return out
}
