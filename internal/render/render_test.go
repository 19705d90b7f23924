package render

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gridworks/sheetkit/internal/sheets"
)

type stubFetcher struct {
	snap *sheets.Snapshot
	err  error
}

func (s *stubFetcher) Snapshot(ctx context.Context, spreadsheetID, rangeA1 string) (*sheets.Snapshot, error) {
	return s.snap, s.err
}

func TestRenderRangeFetchFailure(t *testing.T) {
	var log strings.Builder
	r := &Renderer{Fetcher: &stubFetcher{err: errors.New("boom")}, Log: &log}

	out, ok := r.RenderRange(context.Background(), "doc", "Leads!A1:B2")
	if ok || out != "" {
		t.Errorf("fetch failure must yield no table, got %q ok=%t", out, ok)
	}
	if log.Len() != 0 {
		t.Error("nothing may be logged without the debug flag")
	}

	r.Debug = true
	r.RenderRange(context.Background(), "doc", "Leads!A1:B2")
	if !strings.Contains(log.String(), "boom") {
		t.Errorf("expected diagnostic detail in debug mode, got: %s", log.String())
	}
}

func TestRenderRangeEmptyPayload(t *testing.T) {
	var log strings.Builder
	r := &Renderer{Fetcher: &stubFetcher{snap: &sheets.Snapshot{}}, Debug: true, Log: &log}

	out, ok := r.RenderRange(context.Background(), "doc", "Leads!A1:B2")
	if ok || out != "" {
		t.Errorf("empty payload must yield no table, got %q ok=%t", out, ok)
	}
	if log.Len() != 0 {
		t.Error("an empty range is not an error and must not be logged")
	}
}

func TestRenderRangeSuccess(t *testing.T) {
	snap := snapshotOf([][]sheets.CellData{{textCell("hello")}}, nil)
	r := NewRenderer(&stubFetcher{snap: snap})

	out, ok := r.RenderRange(context.Background(), "doc", "Leads!A1")
	if !ok {
		t.Fatal("expected a table")
	}
	if !strings.Contains(out, ">hello<") {
		t.Errorf("expected cell content in output, got: %s", out)
	}
}
