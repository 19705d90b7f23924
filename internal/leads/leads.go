// Package leads ingests new leads from contact-form notification emails and
// appends them to the leads sheet, deduplicated by email and phone.
package leads

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gridworks/sheetkit/internal/mail"
	"github.com/gridworks/sheetkit/internal/sheets"
)

// Lead is one prospective customer. MessageID identifies the inbox
// message it was parsed from, when there is one; it is never written to
// the sheet.
type Lead struct {
	Name      string
	Email     string
	Phone     string
	Company   string
	Source    string
	Notes     string
	Received  time.Time
	MessageID string
}

// Keys returns the dedupe keys a lead is known by: its lowercased email
// and its normalized phone number, whichever are present.
func (l *Lead) Keys() []string {
	var keys []string
	if l.Email != "" {
		keys = append(keys, strings.ToLower(l.Email))
	}
	if phone := NormalizePhone(l.Phone); phone != "" {
		keys = append(keys, phone)
	}
	return keys
}

// Row returns the lead as a leads-sheet row:
// Date, Name, Email, Phone, Source, Notes.
func (l *Lead) Row() []string {
	date := l.Received
	if date.IsZero() {
		date = time.Now()
	}
	notes := l.Notes
	if l.Company != "" {
		if notes != "" {
			notes = l.Company + " — " + notes
		} else {
			notes = l.Company
		}
	}
	return []string{date.Format("2006-01-02"), l.Name, l.Email, l.Phone, l.Source, notes}
}

// NormalizePhone strips formatting from a phone number and drops a leading
// US country code, so "(555) 123-4567" and "+1 555 123 4567" compare equal.
func NormalizePhone(s string) string {
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) == 11 && d[0] == '1' {
		d = d[1:]
	}
	return d
}

// ParseEmailBody extracts a lead from a contact-form notification email.
// It looks for "Label: value" lines with the usual form-field labels; the
// lead must come out with at least an email or a phone number.
func ParseEmailBody(body string) (*Lead, error) {
	lead := &Lead{}
	for _, line := range strings.Split(body, "\n") {
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(label)) {
		case "name", "full name":
			lead.Name = value
		case "email", "e-mail", "email address":
			if mail.ValidateEmail(value) {
				lead.Email = value
			}
		case "phone", "phone number", "tel":
			lead.Phone = value
		case "company", "business":
			lead.Company = value
		case "source", "referral", "how did you hear about us", "how did you hear about us?":
			lead.Source = value
		case "message", "notes", "comments", "details":
			lead.Notes = value
		}
	}

	if lead.Email == "" && NormalizePhone(lead.Phone) == "" {
		return nil, fmt.Errorf("no email or phone number found in message body")
	}
	return lead, nil
}

// Ingestor appends new leads to the leads sheet.
type Ingestor struct {
	Client        *sheets.Client
	SpreadsheetID string
	Sheet         string // leads sheet title
	Range         string // data range within the sheet, e.g. "A:F"
}

// Existing returns the dedupe keys already present on the leads sheet.
// Email lives in column C, phone in column D.
func (in *Ingestor) Existing(ctx context.Context) (map[string]bool, error) {
	rows, err := in.Client.ReadRows(ctx, in.SpreadsheetID, in.Sheet+"!"+in.Range)
	if err != nil {
		return nil, fmt.Errorf("could not read leads sheet: %w", err)
	}

	keys := make(map[string]bool)
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) > 2 && row[2] != "" {
			keys[strings.ToLower(row[2])] = true
		}
		if len(row) > 3 {
			if phone := NormalizePhone(row[3]); phone != "" {
				keys[phone] = true
			}
		}
	}
	return keys, nil
}

// Ingest appends the leads that are not already on the sheet. Returns the
// leads actually added and the count skipped as duplicates.
func (in *Ingestor) Ingest(ctx context.Context, candidates []Lead) (added []Lead, skipped int, err error) {
	existing, err := in.Existing(ctx)
	if err != nil {
		return nil, 0, err
	}

	for _, lead := range candidates {
		dup := false
		for _, key := range lead.Keys() {
			if existing[key] {
				dup = true
				break
			}
		}
		if dup {
			skipped++
			continue
		}

		if err := in.Client.AppendRow(ctx, in.SpreadsheetID, in.Sheet+"!"+in.Range, lead.Row()); err != nil {
			return added, skipped, fmt.Errorf("could not append lead %q: %w", lead.Name, err)
		}
		for _, key := range lead.Keys() {
			existing[key] = true
		}
		added = append(added, lead)
	}
	return added, skipped, nil
}
