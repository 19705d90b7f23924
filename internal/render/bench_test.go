package render

import (
	"fmt"
	"testing"

	"github.com/gridworks/sheetkit/internal/sheets"
)

// benchSnapshot builds a rows x cols grid with formatted cells to
// exercise the styling path, not just the bare table skeleton.
func benchSnapshot(rows, cols int) *sheets.Snapshot {
	grid := make([][]sheets.CellData, rows)
	for r := 0; r < rows; r++ {
		grid[r] = make([]sheets.CellData, cols)
		for c := 0; c < cols; c++ {
			cell := textCell(fmt.Sprintf("r%dc%d", r, c))
			if r == 0 {
				cell.EffectiveFormat = &sheets.CellFormat{
					TextFormat: &sheets.TextFormat{Bold: true},
				}
			}
			grid[r][c] = cell
		}
	}
	return snapshotOf(grid, nil)
}

func BenchmarkTableSmall(b *testing.B) {
	snap := benchSnapshot(10, 5)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok := Table(snap); !ok {
			b.Fatal("expected a table")
		}
	}
}

func BenchmarkTableLarge(b *testing.B) {
	snap := benchSnapshot(500, 20)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok := Table(snap); !ok {
			b.Fatal("expected a table")
		}
	}
}

func BenchmarkTableMerged(b *testing.B) {
	snap := benchSnapshot(100, 10)
	snap.Sheets[0].Merges = []sheets.GridRange{
		{StartRowIndex: 0, EndRowIndex: 1, StartColumnIndex: 0, EndColumnIndex: 10},
		{StartRowIndex: 5, EndRowIndex: 10, StartColumnIndex: 2, EndColumnIndex: 4},
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok := Table(snap); !ok {
			b.Fatal("expected a table")
		}
	}
}
