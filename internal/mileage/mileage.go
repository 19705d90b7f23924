// Package mileage maintains the trip log sheet: logging trips with driven
// distance, planning trips from calendar events, and monthly summaries.
package mileage

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/gridworks/sheetkit/internal/gcal"
	"github.com/gridworks/sheetkit/internal/maps"
	"github.com/gridworks/sheetkit/internal/sheets"
)

// Entry is one logged trip.
type Entry struct {
	Date        time.Time
	Origin      string
	Destination string
	Purpose     string
	Miles       float64
}

// Row returns the entry as a mileage-sheet row:
// Date, Origin, Destination, Purpose, Miles.
func (e Entry) Row() []string {
	return []string{
		e.Date.Format("2006-01-02"),
		e.Origin,
		e.Destination,
		e.Purpose,
		strconv.FormatFloat(e.Miles, 'f', 1, 64),
	}
}

// Log reads and appends trip entries on the mileage sheet.
type Log struct {
	Client        *sheets.Client
	SpreadsheetID string
	Sheet         string
	RatePerMile   float64
}

// Append adds one trip to the log.
func (l *Log) Append(ctx context.Context, e Entry) error {
	if e.Miles <= 0 {
		return fmt.Errorf("trip distance must be positive, got %v", e.Miles)
	}
	if e.Date.IsZero() {
		e.Date = time.Now()
	}
	if err := l.Client.AppendRow(ctx, l.SpreadsheetID, l.Sheet+"!A:E", e.Row()); err != nil {
		return fmt.Errorf("could not log trip: %w", err)
	}
	return nil
}

// Entries returns all parseable trips on the sheet. The header row and rows
// with an unparseable date or distance are skipped.
func (l *Log) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := l.Client.ReadRows(ctx, l.SpreadsheetID, l.Sheet+"!A:E")
	if err != nil {
		return nil, fmt.Errorf("could not read mileage sheet: %w", err)
	}

	var entries []Entry
	for i, row := range rows {
		if i == 0 || len(row) < 5 {
			continue
		}
		date, err := time.Parse("2006-01-02", row[0])
		if err != nil {
			continue
		}
		miles, err := strconv.ParseFloat(row[4], 64)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Date:        date,
			Origin:      row[1],
			Destination: row[2],
			Purpose:     row[3],
			Miles:       miles,
		})
	}
	return entries, nil
}

// MonthSummary aggregates the trips of one calendar month.
type MonthSummary struct {
	Month     string // "2026-08"
	Trips     int
	Miles     float64
	Deduction float64
}

// Summarize groups entries by month, oldest first, applying the per-mile
// rate to each month's total.
func Summarize(entries []Entry, ratePerMile float64) []MonthSummary {
	byMonth := make(map[string]*MonthSummary)
	for _, e := range entries {
		month := e.Date.Format("2006-01")
		s, ok := byMonth[month]
		if !ok {
			s = &MonthSummary{Month: month}
			byMonth[month] = s
		}
		s.Trips++
		s.Miles += e.Miles
	}

	summaries := make([]MonthSummary, 0, len(byMonth))
	for _, s := range byMonth {
		s.Miles = maps.RoundMiles(s.Miles)
		s.Deduction = float64(int(s.Miles*ratePerMile*100+0.5)) / 100
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Month < summaries[j].Month })
	return summaries
}

// Planner turns calendar events into round trips from the home base.
type Planner struct {
	Maps     *maps.Client
	HomeBase string
}

// FromEvents builds one round-trip entry per event that names a location.
// Distance failures for individual events abort the plan so a partial log
// doesn't go unnoticed.
func (p *Planner) FromEvents(ctx context.Context, events []gcal.Event) ([]Entry, error) {
	if p.HomeBase == "" {
		return nil, fmt.Errorf("home base address is not configured — set mileage.home_base")
	}

	var entries []Entry
	for _, ev := range gcal.WithLocation(events) {
		trip, err := p.Maps.Distance(ctx, p.HomeBase, ev.Location)
		if err != nil {
			return nil, fmt.Errorf("could not resolve distance for %q: %w", ev.Summary, err)
		}
		entries = append(entries, Entry{
			Date:        ev.Start,
			Origin:      trip.Origin,
			Destination: trip.Destination,
			Purpose:     ev.Summary,
			Miles:       maps.RoundMiles(trip.Miles * 2),
		})
	}
	return entries, nil
}
