package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/gridworks/sheetkit/internal/sheets"
)

// Table converts a fetched snapshot into an inline-styled HTML table
// suitable for embedding in an email body. ok is false when there is
// nothing to render (empty grid), so the caller can substitute alternate
// content instead of emitting an empty table element.
func Table(snap *sheets.Snapshot) (string, bool) {
	grid, rows, cols, ok := snap.Grid()
	if !ok {
		return "", false
	}

	plan := planMerges(rows, cols, snap.MergeRegions())
	heights := rowHeights(grid.RowMetadata, rows)
	widths := colWidths(grid.ColumnMetadata, cols)

	var b strings.Builder
	b.WriteString(`<table style="border-collapse:collapse;">`)

	for r := 0; r < rows; r++ {
		fmt.Fprintf(&b, `<tr style="height:%dpx;">`, heights[r])
		for c := 0; c < cols; c++ {
			if plan.suppressed[r][c] {
				continue
			}

			// Rows shorter than the grid width read as empty cells.
			var cell sheets.CellData
			if c < len(grid.RowData[r].Values) {
				cell = grid.RowData[r].Values[c]
			}

			b.WriteString(`<td style="`)
			b.WriteString(cellCSS(cell.EffectiveFormat))
			fmt.Fprintf(&b, `width:%dpx;"`, widths[c])
			if a := plan.anchors[r][c]; a != nil {
				if a.rows > 1 {
					fmt.Fprintf(&b, ` rowspan="%d"`, a.rows)
				}
				if a.cols > 1 {
					fmt.Fprintf(&b, ` colspan="%d"`, a.cols)
				}
			}
			b.WriteString(">")
			b.WriteString(cellContent(cell))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}

	b.WriteString("</table>")
	return b.String(), true
}

// cellContent escapes the display value and wraps it in a link when the
// cell carries a hyperlink. The link inherits the cell's text color and
// is underlined.
func cellContent(cell sheets.CellData) string {
	content := html.EscapeString(cell.DisplayValue())
	if cell.Hyperlink != "" {
		content = fmt.Sprintf(`<a href="%s" style="color:inherit;text-decoration:underline;">%s</a>`,
			html.EscapeString(cell.Hyperlink), content)
	}
	return content
}
