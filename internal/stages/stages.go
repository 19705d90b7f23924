// Package stages moves spreadsheet rows between stage sheets when their
// status cell matches a configured rule.
package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/gridworks/sheetkit/internal/sheets"
)

// Rule maps a status value to the sheet rows carrying it move to.
type Rule struct {
	Name        string
	Value       string
	Destination string
}

// Move records one row movement performed by a sweep.
type Move struct {
	Row    int // 0-based row index in the source sheet
	Rule   Rule
	Values []string
}

// Mover applies stage rules to one spreadsheet.
type Mover struct {
	Client        *sheets.Client
	SpreadsheetID string
	Rules         []Rule
}

// NewMover creates a Mover over the given spreadsheet.
func NewMover(client *sheets.Client, spreadsheetID string, rules []Rule) *Mover {
	return &Mover{Client: client, SpreadsheetID: spreadsheetID, Rules: rules}
}

// Match returns the first rule whose value matches the status,
// case-insensitively and ignoring surrounding whitespace.
func (m *Mover) Match(status string) (Rule, bool) {
	status = strings.TrimSpace(status)
	for _, r := range m.Rules {
		if strings.EqualFold(r.Value, status) {
			return r, true
		}
	}
	return Rule{}, false
}

// Sweep scans the source sheet and moves every row whose status column
// matches a rule: the row is appended to the rule's destination sheet and
// deleted from the source. The first row is treated as a header and never
// moved. Returns the moves performed, in top-down source order.
func (m *Mover) Sweep(ctx context.Context, sourceSheet, statusColumn string) ([]Move, error) {
	col, err := ColumnIndex(statusColumn)
	if err != nil {
		return nil, err
	}

	rows, err := m.Client.ReadRows(ctx, m.SpreadsheetID, sourceSheet)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", sourceSheet, err)
	}

	var moves []Move
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if col >= len(row) {
			continue
		}
		rule, ok := m.Match(row[col])
		if !ok {
			continue
		}
		moves = append(moves, Move{Row: i, Rule: rule, Values: row})
	}
	if len(moves) == 0 {
		return nil, nil
	}

	sheetID, err := m.Client.SheetID(ctx, m.SpreadsheetID, sourceSheet)
	if err != nil {
		return nil, err
	}

	// Delete bottom-up so earlier deletions don't shift pending indexes.
	for i := len(moves) - 1; i >= 0; i-- {
		mv := moves[i]
		if err := m.Client.AppendRow(ctx, m.SpreadsheetID, mv.Rule.Destination, mv.Values); err != nil {
			return moves[i+1:], fmt.Errorf("could not append row %d to %s: %w", mv.Row+1, mv.Rule.Destination, err)
		}
		if err := m.Client.DeleteRows(ctx, m.SpreadsheetID, sheetID, mv.Row, mv.Row+1); err != nil {
			return moves[i+1:], fmt.Errorf("could not delete row %d from %s: %w", mv.Row+1, sourceSheet, err)
		}
	}
	return moves, nil
}

// ColumnIndex converts a column letter ("A", "C", "AA") to a 0-based index.
func ColumnIndex(column string) (int, error) {
	column = strings.ToUpper(strings.TrimSpace(column))
	if column == "" {
		return 0, fmt.Errorf("status column is required")
	}
	n := 0
	for _, r := range column {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("invalid column letter %q", column)
		}
		n = n*26 + int(r-'A') + 1
	}
	return n - 1, nil
}
