// Package export writes fetched spreadsheet snapshots to local .xlsx files.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/gridworks/sheetkit/internal/sheets"
)

// WriteXLSX writes every sheet of the snapshot to an .xlsx workbook at
// path. Cell values are the display values; merge regions, explicit column
// widths, and bold text carry over.
func WriteXLSX(snap *sheets.Snapshot, path string) error {
	if snap == nil || len(snap.Sheets) == 0 {
		return fmt.Errorf("snapshot has no sheets to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("could not register style: %w", err)
	}

	for i, sheet := range snap.Sheets {
		name := sheet.Properties.Title
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}

		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return fmt.Errorf("could not rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return fmt.Errorf("could not create sheet %q: %w", name, err)
			}
		}

		if err := writeSheet(f, name, &sheet, bold); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("could not save %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, name string, sheet *sheets.Sheet, boldStyle int) error {
	if len(sheet.Data) == 0 {
		return nil
	}
	grid := sheet.Data[0]

	for rowIdx, row := range grid.RowData {
		for colIdx, cell := range row.Values {
			value := cell.DisplayValue()
			if value == "" {
				continue
			}
			cellName, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return fmt.Errorf("invalid cell coordinates: %w", err)
			}
			if err := f.SetCellValue(name, cellName, value); err != nil {
				return fmt.Errorf("could not set cell %s: %w", cellName, err)
			}
			if tf := textFormat(cell); tf != nil && tf.Bold {
				if err := f.SetCellStyle(name, cellName, cellName, boldStyle); err != nil {
					return fmt.Errorf("could not style cell %s: %w", cellName, err)
				}
			}
		}
	}

	// Explicit column widths: the API reports pixels, excelize wants
	// character units. 7 px per unit approximates the default font.
	for colIdx, dim := range grid.ColumnMetadata {
		if dim.PixelSize == nil {
			continue
		}
		colName, err := excelize.ColumnNumberToName(colIdx + 1)
		if err != nil {
			return err
		}
		width := float64(*dim.PixelSize) / 7.0
		if err := f.SetColWidth(name, colName, colName, width); err != nil {
			return fmt.Errorf("could not size column %s: %w", colName, err)
		}
	}

	for _, m := range sheet.Merges {
		start, err := excelize.CoordinatesToCellName(m.StartColumnIndex+1, m.StartRowIndex+1)
		if err != nil {
			return err
		}
		end, err := excelize.CoordinatesToCellName(m.EndColumnIndex, m.EndRowIndex)
		if err != nil {
			return err
		}
		if err := f.MergeCell(name, start, end); err != nil {
			return fmt.Errorf("could not merge %s:%s: %w", start, end, err)
		}
	}
	return nil
}

func textFormat(cell sheets.CellData) *sheets.TextFormat {
	if cell.EffectiveFormat == nil {
		return nil
	}
	return cell.EffectiveFormat.TextFormat
}
