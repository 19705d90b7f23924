// Package render converts a fetched spreadsheet snapshot into a static
// inline-styled HTML table: merge regions become rowspan/colspan
// anchors, effective formats become CSS declarations, sparse pixel
// sizing is filled with defaults.
//
// Nothing here raises an error outward. The worst outcome is "no table
// produced", which callers treat as a soft failure (for example by
// omitting the table section from a draft email).
package render

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gridworks/sheetkit/internal/sheets"
)

// SnapshotFetcher fetches one bounded rectangular range of a
// spreadsheet. *sheets.Client satisfies it.
type SnapshotFetcher interface {
	Snapshot(ctx context.Context, spreadsheetID, rangeA1 string) (*sheets.Snapshot, error)
}

// Renderer drives the fetch-then-emit pipeline. The document handle is
// an explicit argument to RenderRange rather than ambient state, so the
// renderer is testable against any fetcher.
type Renderer struct {
	Fetcher SnapshotFetcher
	Debug   bool
	Log     io.Writer // defaults to stderr
}

// NewRenderer creates a renderer over the given fetcher.
func NewRenderer(fetcher SnapshotFetcher) *Renderer {
	return &Renderer{Fetcher: fetcher}
}

// RenderRange fetches the named range and renders it. ok is false both
// when the fetch fails (logged only in debug mode) and when the range
// is structurally empty; neither is surfaced as an error, and no retry
// is attempted here.
func (r *Renderer) RenderRange(ctx context.Context, spreadsheetID, rangeA1 string) (string, bool) {
	snap, err := r.Fetcher.Snapshot(ctx, spreadsheetID, rangeA1)
	if err != nil {
		if r.Debug {
			fmt.Fprintf(r.logWriter(), "render: snapshot fetch for %s!%s failed: %s\n", spreadsheetID, rangeA1, err)
		}
		return "", false
	}
	return Table(snap)
}

func (r *Renderer) logWriter() io.Writer {
	if r.Log != nil {
		return r.Log
	}
	return os.Stderr
}
