package render

import (
	"strings"
	"testing"

	"github.com/gridworks/sheetkit/internal/sheets"
)

func TestHexColorRounding(t *testing.T) {
	hex, ok := hexColor(&sheets.Color{Red: 0.5, Green: 0, Blue: 1.0})
	if !ok {
		t.Fatal("expected a color")
	}
	if hex != "#8000FF" {
		t.Errorf("expected #8000FF, got %s", hex)
	}
}

func TestHexColorClamping(t *testing.T) {
	hex, _ := hexColor(&sheets.Color{Red: 1.5, Green: -0.2, Blue: 0})
	if hex != "#FF0000" {
		t.Errorf("expected clamped #FF0000, got %s", hex)
	}
}

func TestHexColorDistinguishesBlackFromUnspecified(t *testing.T) {
	if _, ok := hexColor(nil); ok {
		t.Error("nil color must read as unspecified")
	}
	hex, ok := hexColor(&sheets.Color{})
	if !ok || hex != "#000000" {
		t.Errorf("explicit black must resolve to #000000, got %s ok=%t", hex, ok)
	}
}

func TestAbsentFormatUsesDefaults(t *testing.T) {
	css := cellCSS(nil)
	for _, want := range []string{
		"background-color:#FFFFFF;",
		"color:#000000;",
		"text-align:left;",
		"vertical-align:middle;",
		"border:1px solid #000000;",
	} {
		if !strings.Contains(css, want) {
			t.Errorf("expected %q in default css, got: %s", want, css)
		}
	}
}

func TestBorderFallbackOnlyWhenAllEdgesAbsent(t *testing.T) {
	// Zero edge info: uniform fallback.
	css := cellCSS(&sheets.CellFormat{Borders: &sheets.Borders{}})
	if !strings.Contains(css, "border:1px solid #000000;") {
		t.Errorf("expected uniform fallback border, got: %s", css)
	}

	// One edge set to NONE: no fallback, NONE edge draws nothing,
	// other explicit edges render as given.
	css = cellCSS(&sheets.CellFormat{Borders: &sheets.Borders{
		Top:    &sheets.Border{Style: "NONE"},
		Bottom: &sheets.Border{Style: "SOLID_MEDIUM"},
	}})
	if strings.Contains(css, "border:1px solid #000000;") {
		t.Errorf("fallback must not apply once an edge is specified, got: %s", css)
	}
	if strings.Contains(css, "border-top") {
		t.Errorf("NONE edge must render no line, got: %s", css)
	}
	if !strings.Contains(css, "border-bottom:2px solid #000000;") {
		t.Errorf("expected medium bottom border, got: %s", css)
	}
}

func TestBorderStyleTable(t *testing.T) {
	cases := map[string]string{
		"DOTTED":       "1px dotted",
		"DASHED":       "1px dashed",
		"SOLID":        "1px solid",
		"SOLID_MEDIUM": "2px solid",
		"SOLID_THICK":  "3px solid",
		"DOUBLE":       "3px double",
	}
	for style, want := range cases {
		css, ok := borderCSS(&sheets.Border{Style: style})
		if !ok {
			t.Errorf("%s: expected a border line", style)
			continue
		}
		if !strings.HasPrefix(css, want) {
			t.Errorf("%s: expected %q, got %q", style, want, css)
		}
	}
	if _, ok := borderCSS(&sheets.Border{Style: "NONE"}); ok {
		t.Error("NONE must draw no border line")
	}
}

func TestBorderColorResolution(t *testing.T) {
	css, _ := borderCSS(&sheets.Border{Style: "SOLID", Color: &sheets.Color{Red: 1}})
	if css != "1px solid #FF0000" {
		t.Errorf("expected red solid border, got %q", css)
	}
	css, _ = borderCSS(&sheets.Border{Style: "SOLID"})
	if css != "1px solid #000000" {
		t.Errorf("expected black default border color, got %q", css)
	}
}

func TestTextStyling(t *testing.T) {
	css := cellCSS(&sheets.CellFormat{
		TextFormat: &sheets.TextFormat{
			Bold:          true,
			Italic:        true,
			Underline:     true,
			Strikethrough: true,
			FontSize:      14,
			FontFamily:    "Roboto",
		},
		HorizontalAlignment: "RIGHT",
		VerticalAlignment:   "TOP",
	})
	for _, want := range []string{
		"font-weight:bold;",
		"font-style:italic;",
		"text-decoration:underline line-through;",
		"font-size:14pt;",
		"font-family:'Roboto';",
		"text-align:right;",
		"vertical-align:top;",
	} {
		if !strings.Contains(css, want) {
			t.Errorf("expected %q in css, got: %s", want, css)
		}
	}
}
