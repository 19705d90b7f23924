package sheets

import "fmt"

// Snapshot is a one-time fetched rectangular slice of spreadsheet data:
// values, effective formats, merge regions, and row/column pixel sizing.
// Every optional field in the API payload stays optional here; callers
// that need a default apply it themselves.
type Snapshot struct {
	Sheets []Sheet `json:"sheets"`
}

// Sheet holds one worksheet's fetched data.
type Sheet struct {
	Properties SheetProperties `json:"properties"`
	Data       []GridData      `json:"data"`
	Merges     []GridRange     `json:"merges"`
}

// SheetProperties identifies a worksheet.
type SheetProperties struct {
	SheetID int    `json:"sheetId"`
	Title   string `json:"title"`
}

// GridData is the cell grid for one fetched range.
type GridData struct {
	RowData        []RowData             `json:"rowData"`
	RowMetadata    []DimensionProperties `json:"rowMetadata"`
	ColumnMetadata []DimensionProperties `json:"columnMetadata"`
}

// RowData is one row of cells. Rows may be shorter than the grid width;
// missing trailing cells are treated as empty.
type RowData struct {
	Values []CellData `json:"values"`
}

// CellData is a single cell: its value, optional hyperlink, and the
// fully resolved visual format.
type CellData struct {
	EffectiveValue  *ExtendedValue `json:"effectiveValue,omitempty"`
	FormattedValue  string         `json:"formattedValue,omitempty"`
	Hyperlink       string         `json:"hyperlink,omitempty"`
	EffectiveFormat *CellFormat    `json:"effectiveFormat,omitempty"`
}

// DisplayValue returns the cell's formatted display string, falling back
// to the underlying typed value when no formatted string is present.
func (c CellData) DisplayValue() string {
	if c.FormattedValue != "" {
		return c.FormattedValue
	}
	if c.EffectiveValue == nil {
		return ""
	}
	v := c.EffectiveValue
	switch {
	case v.StringValue != nil:
		return *v.StringValue
	case v.NumberValue != nil:
		return trimFloat(*v.NumberValue)
	case v.BoolValue != nil:
		if *v.BoolValue {
			return "TRUE"
		}
		return "FALSE"
	}
	return ""
}

func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

// ExtendedValue is the underlying typed value of a cell. Exactly one
// field is set.
type ExtendedValue struct {
	StringValue *string  `json:"stringValue,omitempty"`
	NumberValue *float64 `json:"numberValue,omitempty"`
	BoolValue   *bool    `json:"boolValue,omitempty"`
}

// CellFormat is a cell's effective (default-filled) visual style. A nil
// CellFormat means the renderer's own defaults apply.
type CellFormat struct {
	BackgroundColor     *Color      `json:"backgroundColor,omitempty"`
	Borders             *Borders    `json:"borders,omitempty"`
	TextFormat          *TextFormat `json:"textFormat,omitempty"`
	HorizontalAlignment string      `json:"horizontalAlignment,omitempty"`
	VerticalAlignment   string      `json:"verticalAlignment,omitempty"`
}

// TextFormat holds font styling for a cell.
type TextFormat struct {
	ForegroundColor *Color `json:"foregroundColor,omitempty"`
	FontFamily      string `json:"fontFamily,omitempty"`
	FontSize        int    `json:"fontSize,omitempty"`
	Bold            bool   `json:"bold,omitempty"`
	Italic          bool   `json:"italic,omitempty"`
	Underline       bool   `json:"underline,omitempty"`
	Strikethrough   bool   `json:"strikethrough,omitempty"`
}

// Borders holds the four edge borders of a cell. A nil edge means that
// edge was not specified; an edge with Style "NONE" means explicitly no
// border line.
type Borders struct {
	Top    *Border `json:"top,omitempty"`
	Bottom *Border `json:"bottom,omitempty"`
	Left   *Border `json:"left,omitempty"`
	Right  *Border `json:"right,omitempty"`
}

// Border is one cell edge: a style enum plus an optional color.
type Border struct {
	Style string `json:"style"`
	Color *Color `json:"color,omitempty"`
}

// Color is an RGB color with 0.0–1.0 float components. The API omits
// zero components, so black arrives as an empty object; a *Color that is
// nil means the color itself is unspecified, which is different from
// black.
type Color struct {
	Red   float64 `json:"red,omitempty"`
	Green float64 `json:"green,omitempty"`
	Blue  float64 `json:"blue,omitempty"`
}

// GridRange is a rectangle of cells with end-exclusive bounds, as used
// by merge regions.
type GridRange struct {
	StartRowIndex    int `json:"startRowIndex"`
	EndRowIndex      int `json:"endRowIndex"`
	StartColumnIndex int `json:"startColumnIndex"`
	EndColumnIndex   int `json:"endColumnIndex"`
}

// DimensionProperties carries per-row or per-column metadata. PixelSize
// is nil when the spreadsheet has no explicit size for that index.
type DimensionProperties struct {
	PixelSize *int `json:"pixelSize,omitempty"`
}

// Grid returns the first sheet's first grid along with its dimensions,
// or ok=false when the snapshot is structurally empty (no sheet, no row
// data, or a zero-width first row). Width is fixed by the first row;
// shorter rows are padded with empty cells by the consumer.
func (s *Snapshot) Grid() (g *GridData, rows, cols int, ok bool) {
	if s == nil || len(s.Sheets) == 0 || len(s.Sheets[0].Data) == 0 {
		return nil, 0, 0, false
	}
	g = &s.Sheets[0].Data[0]
	rows = len(g.RowData)
	if rows == 0 {
		return nil, 0, 0, false
	}
	cols = len(g.RowData[0].Values)
	if cols == 0 {
		return nil, 0, 0, false
	}
	return g, rows, cols, true
}

// MergeRegions returns the first sheet's merge regions, or nil.
func (s *Snapshot) MergeRegions() []GridRange {
	if s == nil || len(s.Sheets) == 0 {
		return nil
	}
	return s.Sheets[0].Merges
}
