package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/gridworks/sheetkit/internal/sheets"
)

// Rendering defaults used whenever the snapshot carries no explicit
// style information for a cell.
const (
	defaultBackground = "#FFFFFF"
	defaultTextColor  = "#000000"
	defaultBorder     = "1px solid #000000"
)

// hexColor converts an API color (0.0–1.0 float components) to an
// uppercase #RRGGBB string. A nil color is "unspecified", which callers
// must treat differently from black.
func hexColor(c *sheets.Color) (string, bool) {
	if c == nil {
		return "", false
	}
	return fmt.Sprintf("#%02X%02X%02X", channel(c.Red), channel(c.Green), channel(c.Blue)), true
}

func channel(f float64) int {
	v := int(math.Round(f * 255))
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// borderLines maps the API border style enum to a CSS width+style pair.
// NONE is deliberately absent: an explicit NONE edge renders no line.
var borderLines = map[string]string{
	"DOTTED":       "1px dotted",
	"DASHED":       "1px dashed",
	"SOLID":        "1px solid",
	"SOLID_MEDIUM": "2px solid",
	"SOLID_THICK":  "3px solid",
	"DOUBLE":       "3px double",
}

// borderCSS resolves one cell edge to a CSS border value, or ok=false
// when the edge draws no line.
func borderCSS(b *sheets.Border) (string, bool) {
	if b == nil {
		return "", false
	}
	line, ok := borderLines[b.Style]
	if !ok {
		return "", false
	}
	color, ok := hexColor(b.Color)
	if !ok {
		color = defaultTextColor
	}
	return line + " " + color, true
}

// resolveBackground, resolveTextColor, resolveAlignment and friends are
// the per-attribute fallback rules, kept separate so each is testable
// on its own.

func resolveBackground(f *sheets.CellFormat) string {
	if f != nil {
		if hex, ok := hexColor(f.BackgroundColor); ok {
			return hex
		}
	}
	return defaultBackground
}

func resolveTextColor(f *sheets.CellFormat) string {
	if f != nil && f.TextFormat != nil {
		if hex, ok := hexColor(f.TextFormat.ForegroundColor); ok {
			return hex
		}
	}
	return defaultTextColor
}

func resolveHAlign(f *sheets.CellFormat) string {
	if f == nil {
		return "left"
	}
	switch f.HorizontalAlignment {
	case "CENTER":
		return "center"
	case "RIGHT":
		return "right"
	default:
		return "left"
	}
}

func resolveVAlign(f *sheets.CellFormat) string {
	if f == nil {
		return "middle"
	}
	switch f.VerticalAlignment {
	case "TOP":
		return "top"
	case "BOTTOM":
		return "bottom"
	default:
		return "middle"
	}
}

// cellCSS resolves a cell's effective format into inline CSS
// declarations. A nil format yields the defaults: white background,
// black text, left/middle alignment, uniform 1px solid black border.
func cellCSS(f *sheets.CellFormat) string {
	var b strings.Builder

	b.WriteString("background-color:" + resolveBackground(f) + ";")
	b.WriteString("color:" + resolveTextColor(f) + ";")

	if f != nil && f.TextFormat != nil {
		tf := f.TextFormat
		if tf.Bold {
			b.WriteString("font-weight:bold;")
		}
		if tf.Italic {
			b.WriteString("font-style:italic;")
		}
		if deco := textDecoration(tf); deco != "" {
			b.WriteString("text-decoration:" + deco + ";")
		}
		if tf.FontSize > 0 {
			fmt.Fprintf(&b, "font-size:%dpt;", tf.FontSize)
		}
		if tf.FontFamily != "" {
			fmt.Fprintf(&b, "font-family:'%s';", tf.FontFamily)
		}
	}

	b.WriteString("text-align:" + resolveHAlign(f) + ";")
	b.WriteString("vertical-align:" + resolveVAlign(f) + ";")
	b.WriteString(bordersCSS(f))

	return b.String()
}

func textDecoration(tf *sheets.TextFormat) string {
	var parts []string
	if tf.Underline {
		parts = append(parts, "underline")
	}
	if tf.Strikethrough {
		parts = append(parts, "line-through")
	}
	return strings.Join(parts, " ")
}

// bordersCSS emits the four edge declarations. The uniform fallback
// border applies only when zero edge information is present; a single
// explicit edge (even NONE) disables it for the whole cell.
func bordersCSS(f *sheets.CellFormat) string {
	if f == nil || f.Borders == nil ||
		(f.Borders.Top == nil && f.Borders.Bottom == nil && f.Borders.Left == nil && f.Borders.Right == nil) {
		return "border:" + defaultBorder + ";"
	}

	var b strings.Builder
	edges := []struct {
		name   string
		border *sheets.Border
	}{
		{"border-top", f.Borders.Top},
		{"border-bottom", f.Borders.Bottom},
		{"border-left", f.Borders.Left},
		{"border-right", f.Borders.Right},
	}
	for _, e := range edges {
		if css, ok := borderCSS(e.border); ok {
			b.WriteString(e.name + ":" + css + ";")
		}
	}
	return b.String()
}
