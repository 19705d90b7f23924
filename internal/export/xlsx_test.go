package export

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/gridworks/sheetkit/internal/sheets"
)

func textCell(s string) sheets.CellData {
	return sheets.CellData{FormattedValue: s}
}

func snapshotOf(title string, rows [][]sheets.CellData) *sheets.Snapshot {
	rowData := make([]sheets.RowData, len(rows))
	for i, r := range rows {
		rowData[i] = sheets.RowData{Values: r}
	}
	return &sheets.Snapshot{Sheets: []sheets.Sheet{{
		Properties: sheets.SheetProperties{Title: title},
		Data:       []sheets.GridData{{RowData: rowData}},
	}}}
}

func TestWriteXLSXRoundTrip(t *testing.T) {
	snap := snapshotOf("Leads", [][]sheets.CellData{
		{textCell("Name"), textCell("Email")},
		{textCell("Ana"), textCell("ana@example.com")},
	})
	path := filepath.Join(t.TempDir(), "leads.xlsx")

	if err := WriteXLSX(snap, path); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	if name := f.GetSheetName(0); name != "Leads" {
		t.Errorf("sheet name = %q", name)
	}
	got, err := f.GetCellValue("Leads", "B2")
	if err != nil || got != "ana@example.com" {
		t.Errorf("B2 = %q, %v", got, err)
	}
}

func TestWriteXLSXMerges(t *testing.T) {
	snap := snapshotOf("Report", [][]sheets.CellData{
		{textCell("Title"), textCell("")},
		{textCell("a"), textCell("b")},
	})
	snap.Sheets[0].Merges = []sheets.GridRange{
		{StartRowIndex: 0, EndRowIndex: 1, StartColumnIndex: 0, EndColumnIndex: 2},
	}
	path := filepath.Join(t.TempDir(), "report.xlsx")

	if err := WriteXLSX(snap, path); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	merges, err := f.GetMergeCells("Report")
	if err != nil {
		t.Fatalf("GetMergeCells: %v", err)
	}
	if len(merges) != 1 {
		t.Fatalf("got %d merges", len(merges))
	}
	if merges[0].GetStartAxis() != "A1" || merges[0].GetEndAxis() != "B1" {
		t.Errorf("merge = %s:%s", merges[0].GetStartAxis(), merges[0].GetEndAxis())
	}
}

func TestWriteXLSXEmptySnapshot(t *testing.T) {
	if err := WriteXLSX(&sheets.Snapshot{}, filepath.Join(t.TempDir(), "x.xlsx")); err == nil {
		t.Fatal("expected error for empty snapshot")
	}
}
