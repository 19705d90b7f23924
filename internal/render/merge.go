package render

import "github.com/gridworks/sheetkit/internal/sheets"

// span carries the rowspan/colspan of a merge anchor.
type span struct {
	rows int
	cols int
}

// mergePlan records, for every grid position, whether it is suppressed
// by a merge region and whether it anchors one.
type mergePlan struct {
	suppressed [][]bool
	anchors    [][]*span
}

// planMerges computes the anchor/suppressed grids for an R×C grid.
// Regions with any bound outside the grid are skipped, not errors.
// Overlapping regions are undefined upstream; the last region applied
// wins any contested cell, so iteration order is kept as input order.
func planMerges(rows, cols int, regions []sheets.GridRange) *mergePlan {
	p := &mergePlan{
		suppressed: make([][]bool, rows),
		anchors:    make([][]*span, rows),
	}
	for r := 0; r < rows; r++ {
		p.suppressed[r] = make([]bool, cols)
		p.anchors[r] = make([]*span, cols)
	}

	for _, reg := range regions {
		if reg.StartRowIndex < 0 || reg.StartColumnIndex < 0 ||
			reg.EndRowIndex > rows || reg.EndColumnIndex > cols ||
			reg.EndRowIndex <= reg.StartRowIndex || reg.EndColumnIndex <= reg.StartColumnIndex {
			continue
		}

		for r := reg.StartRowIndex; r < reg.EndRowIndex; r++ {
			for c := reg.StartColumnIndex; c < reg.EndColumnIndex; c++ {
				if r == reg.StartRowIndex && c == reg.StartColumnIndex {
					p.anchors[r][c] = &span{
						rows: reg.EndRowIndex - reg.StartRowIndex,
						cols: reg.EndColumnIndex - reg.StartColumnIndex,
					}
					p.suppressed[r][c] = false
				} else {
					p.suppressed[r][c] = true
					p.anchors[r][c] = nil
				}
			}
		}
	}

	return p
}
