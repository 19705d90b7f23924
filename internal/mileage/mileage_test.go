package mileage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gridworks/sheetkit/internal/gcal"
	"github.com/gridworks/sheetkit/internal/maps"
	"github.com/gridworks/sheetkit/internal/sheets"
)

type rewriteTransport struct {
	server *httptest.Server
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	u, _ := url.Parse(t.server.URL)
	req.URL.Scheme = u.Scheme
	req.URL.Host = u.Host
	return http.DefaultTransport.RoundTrip(req)
}

func TestEntryRow(t *testing.T) {
	e := Entry{
		Date:        time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
		Origin:      "home",
		Destination: "12 Elm St",
		Purpose:     "Site visit",
		Miles:       12.5,
	}
	row := e.Row()
	if row[0] != "2026-08-20" || row[4] != "12.5" {
		t.Errorf("row = %v", row)
	}
}

func TestAppendRejectsNonPositiveMiles(t *testing.T) {
	l := &Log{}
	if err := l.Append(context.Background(), Entry{Miles: 0}); err == nil {
		t.Fatal("expected error for zero miles")
	}
}

func TestEntriesSkipsHeaderAndBadRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"values": [][]string{
			{"Date", "Origin", "Destination", "Purpose", "Miles"},
			{"2026-08-20", "home", "12 Elm St", "Site visit", "12.5"},
			{"not-a-date", "x", "y", "z", "3"},
			{"2026-08-21", "home", "90 Oak Ave", "Delivery", "oops"},
			{"2026-07-02", "home", "depot", "Pickup", "8.0"},
		}})
	}))
	defer srv.Close()

	l := &Log{
		Client:        sheets.NewClient(&http.Client{Transport: &rewriteTransport{server: srv}}),
		SpreadsheetID: "sheet-1",
		Sheet:         "Mileage",
	}
	entries, err := l.Entries(context.Background())
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].Miles != 12.5 || entries[1].Purpose != "Pickup" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestSummarize(t *testing.T) {
	entries := []Entry{
		{Date: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), Miles: 12.5},
		{Date: time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC), Miles: 7.5},
		{Date: time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC), Miles: 8.0},
	}
	summaries := Summarize(entries, 0.67)
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries", len(summaries))
	}
	if summaries[0].Month != "2026-07" || summaries[1].Month != "2026-08" {
		t.Errorf("order = %v, %v", summaries[0].Month, summaries[1].Month)
	}
	aug := summaries[1]
	if aug.Trips != 2 || aug.Miles != 20.0 {
		t.Errorf("august = %+v", aug)
	}
	if aug.Deduction != 13.40 {
		t.Errorf("deduction = %v, want 13.40", aug.Deduction)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if got := Summarize(nil, 0.67); len(got) != 0 {
		t.Errorf("Summarize(nil) = %v", got)
	}
}

func TestPlannerFromEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"OK",
			"origin_addresses":["1 Home Rd"],
			"destination_addresses":["12 Elm St"],
			"rows":[{"elements":[{"status":"OK","distance":{"value":16093},"duration":{"value":1200}}]}]}`)
	}))
	defer srv.Close()

	mapsClient := maps.NewClient("k")
	mapsClient.HTTP = &http.Client{Transport: &rewriteTransport{server: srv}}

	p := &Planner{Maps: mapsClient, HomeBase: "1 Home Rd"}
	events := []gcal.Event{
		{Summary: "Site visit", Location: "12 Elm St", Start: time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)},
		{Summary: "Desk day"}, // no location, skipped
	}
	entries, err := p.FromEvents(context.Background(), events)
	if err != nil {
		t.Fatalf("FromEvents: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].Miles != 20.0 {
		t.Errorf("round-trip miles = %v, want 20.0", entries[0].Miles)
	}
	if entries[0].Purpose != "Site visit" {
		t.Errorf("purpose = %q", entries[0].Purpose)
	}
}

func TestPlannerRequiresHomeBase(t *testing.T) {
	p := &Planner{Maps: maps.NewClient("k")}
	if _, err := p.FromEvents(context.Background(), nil); err == nil || !strings.Contains(err.Error(), "home_base") {
		t.Fatalf("expected home-base error, got %v", err)
	}
}
