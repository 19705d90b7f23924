package render

import (
	"strings"
	"testing"

	"github.com/gridworks/sheetkit/internal/sheets"
)

// snapshotOf builds a snapshot from a rectangular grid of cells.
func snapshotOf(cells [][]sheets.CellData, merges []sheets.GridRange) *sheets.Snapshot {
	rows := make([]sheets.RowData, len(cells))
	for i, row := range cells {
		rows[i] = sheets.RowData{Values: row}
	}
	return &sheets.Snapshot{
		Sheets: []sheets.Sheet{{
			Data:   []sheets.GridData{{RowData: rows}},
			Merges: merges,
		}},
	}
}

func textCell(v string) sheets.CellData {
	return sheets.CellData{FormattedValue: v}
}

func TestEmptyGridProducesNoTable(t *testing.T) {
	cases := []*sheets.Snapshot{
		{},
		snapshotOf(nil, nil),
		snapshotOf([][]sheets.CellData{{}}, nil),
	}
	for i, snap := range cases {
		out, ok := Table(snap)
		if ok {
			t.Errorf("case %d: expected no table, got %q", i, out)
		}
		if out != "" {
			t.Errorf("case %d: expected empty string, got %q", i, out)
		}
	}
}

func TestDefaultSizing(t *testing.T) {
	snap := snapshotOf([][]sheets.CellData{
		{textCell("a"), textCell("b")},
		{textCell("c"), textCell("d")},
	}, nil)

	out, ok := Table(snap)
	if !ok {
		t.Fatal("expected a table")
	}
	if !strings.Contains(out, `height:21px;`) {
		t.Error("expected default row height 21px")
	}
	if !strings.Contains(out, `width:100px;`) {
		t.Error("expected default column width 100px")
	}
}

func TestExplicitSizingOverridesDefault(t *testing.T) {
	h, w := 35, 240
	snap := snapshotOf([][]sheets.CellData{{textCell("a")}}, nil)
	snap.Sheets[0].Data[0].RowMetadata = []sheets.DimensionProperties{{PixelSize: &h}}
	snap.Sheets[0].Data[0].ColumnMetadata = []sheets.DimensionProperties{{PixelSize: &w}}

	out, _ := Table(snap)
	if !strings.Contains(out, `height:35px;`) {
		t.Error("expected explicit row height 35px")
	}
	if !strings.Contains(out, `width:240px;`) {
		t.Error("expected explicit column width 240px")
	}
}

func TestMergeSuppression(t *testing.T) {
	// 3x3 grid with a 2x2 merge anchored at (0,0).
	grid := [][]sheets.CellData{
		{textCell("A"), textCell("B"), textCell("C")},
		{textCell("D"), textCell("E"), textCell("F")},
		{textCell("G"), textCell("H"), textCell("I")},
	}
	merges := []sheets.GridRange{{StartRowIndex: 0, EndRowIndex: 2, StartColumnIndex: 0, EndColumnIndex: 2}}

	out, ok := Table(snapshotOf(grid, merges))
	if !ok {
		t.Fatal("expected a table")
	}
	if !strings.Contains(out, `rowspan="2"`) || !strings.Contains(out, `colspan="2"`) {
		t.Error("expected anchor cell with rowspan/colspan 2")
	}
	// Suppressed cells emit nothing.
	for _, v := range []string{">B<", ">D<", ">E<"} {
		if strings.Contains(out, v) {
			t.Errorf("suppressed cell content %s leaked into output", v)
		}
	}
	// Cells outside the region survive.
	for _, v := range []string{">A<", ">C<", ">F<", ">G<", ">H<", ">I<"} {
		if !strings.Contains(out, v) {
			t.Errorf("expected cell content %s in output", v)
		}
	}
	// Exactly one anchor: one rowspan attribute total.
	if strings.Count(out, "rowspan=") != 1 {
		t.Errorf("expected exactly one rowspan, got %d", strings.Count(out, "rowspan="))
	}
}

func TestOutOfBoundsMergeIgnored(t *testing.T) {
	grid := [][]sheets.CellData{
		{textCell("A"), textCell("B")},
		{textCell("C"), textCell("D")},
	}
	merges := []sheets.GridRange{
		{StartRowIndex: 0, EndRowIndex: 5, StartColumnIndex: 0, EndColumnIndex: 2},
		{StartRowIndex: -1, EndRowIndex: 1, StartColumnIndex: 0, EndColumnIndex: 1},
	}

	out, ok := Table(snapshotOf(grid, merges))
	if !ok {
		t.Fatal("expected a table")
	}
	if strings.Contains(out, "rowspan") || strings.Contains(out, "colspan") {
		t.Error("out-of-bounds merges must not produce anchors")
	}
	for _, v := range []string{">A<", ">B<", ">C<", ">D<"} {
		if !strings.Contains(out, v) {
			t.Errorf("expected cell content %s in output", v)
		}
	}
}

func TestOverlappingMergesLastWins(t *testing.T) {
	// Both regions claim (1,1); the second is applied last and keeps
	// its anchor at (1,1).
	grid := [][]sheets.CellData{
		{textCell("A"), textCell("B"), textCell("C")},
		{textCell("D"), textCell("E"), textCell("F")},
		{textCell("G"), textCell("H"), textCell("I")},
	}
	_ = grid
	merges := []sheets.GridRange{
		{StartRowIndex: 0, EndRowIndex: 2, StartColumnIndex: 0, EndColumnIndex: 2},
		{StartRowIndex: 1, EndRowIndex: 3, StartColumnIndex: 1, EndColumnIndex: 3},
	}

	plan := planMerges(3, 3, merges)
	if plan.anchors[1][1] == nil {
		t.Fatal("expected later region's anchor at (1,1) to win")
	}
	if plan.suppressed[1][1] {
		t.Error("anchor cell must not stay suppressed")
	}
	if plan.anchors[0][0] == nil {
		t.Error("earlier region's anchor at (0,0) is uncontested and stays")
	}
}

func TestHyperlinkWrapping(t *testing.T) {
	cell := sheets.CellData{FormattedValue: "Total", Hyperlink: "https://x"}
	out, ok := Table(snapshotOf([][]sheets.CellData{{cell}}, nil))
	if !ok {
		t.Fatal("expected a table")
	}
	if !strings.Contains(out, `<a href="https://x"`) {
		t.Errorf("expected href to the literal target, got: %s", out)
	}
	if !strings.Contains(out, `>Total</a>`) {
		t.Errorf("expected link text Total, got: %s", out)
	}
	if !strings.Contains(out, "text-decoration:underline") {
		t.Error("expected underlined link")
	}
}

func TestContentEscaping(t *testing.T) {
	out, _ := Table(snapshotOf([][]sheets.CellData{{textCell(`<b>&"5"</b>`)}}, nil))
	if strings.Contains(out, "<b>") {
		t.Error("cell content must be escaped")
	}
	if !strings.Contains(out, "&lt;b&gt;") {
		t.Errorf("expected escaped markup in output, got: %s", out)
	}
}

func TestEndToEndTwoByTwo(t *testing.T) {
	grid := [][]sheets.CellData{
		{textCell("A"), {FormattedValue: "B", Hyperlink: "https://x"}},
		{textCell(""), {FormattedValue: "D", EffectiveFormat: &sheets.CellFormat{TextFormat: &sheets.TextFormat{Bold: true}}}},
	}

	out, ok := Table(snapshotOf(grid, nil))
	if !ok {
		t.Fatal("expected a table")
	}

	if strings.Count(out, "<tr") != 2 {
		t.Errorf("expected 2 rows, got %d", strings.Count(out, "<tr"))
	}
	if strings.Count(out, "<td") != 4 {
		t.Errorf("expected 4 cells, got %d", strings.Count(out, "<td"))
	}
	if !strings.Contains(out, ">A<") {
		t.Error("expected plain cell A")
	}
	if !strings.Contains(out, `<a href="https://x"`) || !strings.Contains(out, ">B</a>") {
		t.Error("expected linked cell B")
	}
	boldIdx := strings.Index(out, "font-weight:bold")
	dIdx := strings.Index(out, ">D<")
	if boldIdx == -1 || dIdx == -1 || boldIdx > dIdx {
		t.Error("expected bold style on the D cell")
	}
	if strings.Contains(out, "rowspan") || strings.Contains(out, "colspan") {
		t.Error("no span attributes may appear without merges")
	}
}

func TestShortRowPadsEmptyCells(t *testing.T) {
	// Second row has fewer cells than the grid width.
	snap := snapshotOf([][]sheets.CellData{
		{textCell("a"), textCell("b"), textCell("c")},
		{textCell("d")},
	}, nil)

	out, ok := Table(snap)
	if !ok {
		t.Fatal("expected a table")
	}
	if strings.Count(out, "<td") != 6 {
		t.Errorf("expected 6 cells with padding, got %d", strings.Count(out, "<td"))
	}
}

func TestDisplayValueFallback(t *testing.T) {
	n := 42.5
	s := "hello"
	b := true
	cases := []struct {
		cell sheets.CellData
		want string
	}{
		{sheets.CellData{FormattedValue: "$1,200.00"}, "$1,200.00"},
		{sheets.CellData{EffectiveValue: &sheets.ExtendedValue{NumberValue: &n}}, "42.5"},
		{sheets.CellData{EffectiveValue: &sheets.ExtendedValue{StringValue: &s}}, "hello"},
		{sheets.CellData{EffectiveValue: &sheets.ExtendedValue{BoolValue: &b}}, "TRUE"},
		{sheets.CellData{}, ""},
	}
	for i, tc := range cases {
		if got := tc.cell.DisplayValue(); got != tc.want {
			t.Errorf("case %d: expected %q, got %q", i, tc.want, got)
		}
	}
}
