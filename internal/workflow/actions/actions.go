// Package actions provides the built-in workflow actions, each binding one
// domain client to a step.
package actions

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gridworks/sheetkit/internal/ai"
	"github.com/gridworks/sheetkit/internal/export"
	"github.com/gridworks/sheetkit/internal/mail"
	"github.com/gridworks/sheetkit/internal/maps"
	"github.com/gridworks/sheetkit/internal/qbo"
	"github.com/gridworks/sheetkit/internal/render"
	"github.com/gridworks/sheetkit/internal/sheets"
	"github.com/gridworks/sheetkit/internal/stages"
	"github.com/gridworks/sheetkit/internal/workflow"
)

// Deps carries the clients the built-in actions run against. Nil fields
// are allowed; the corresponding actions report a configuration error if a
// workflow reaches them.
type Deps struct {
	SpreadsheetID string
	Sheets        *sheets.Client
	Renderer      *render.Renderer
	AI            ai.Provider
	Mail          *mail.Client
	Maps          *maps.Client
	QBO           *qbo.Client
	Stages        *stages.Mover
	Sender        string // signing address for AI drafts
}

// RegisterAll registers all built-in actions with the given executor.
func RegisterAll(exec *workflow.Executor, d Deps) {
	exec.RegisterAction("sheet.read", d.SheetRead)
	exec.RegisterAction("sheet.append", d.SheetAppend)
	exec.RegisterAction("render.html", d.RenderHTML)
	exec.RegisterAction("ai.draft", d.AIDraft)
	exec.RegisterAction("mail.draft", d.MailDraft)
	exec.RegisterAction("mail.send", d.MailSend)
	exec.RegisterAction("maps.distance", d.MapsDistance)
	exec.RegisterAction("stage.move", d.StageMove)
	exec.RegisterAction("qbo.estimate", d.QBOEstimate)
	exec.RegisterAction("export.xlsx", d.ExportXLSX)
}

// SheetRead reads a range and returns it as tab-separated rows.
func (d Deps) SheetRead(ctx context.Context, step workflow.Step, _ string) (string, error) {
	if d.Sheets == nil {
		return "", fmt.Errorf("sheet.read needs an authenticated spreadsheet client")
	}
	if step.Range == "" {
		return "", fmt.Errorf("sheet.read requires a 'range'")
	}

	rows, err := d.Sheets.ReadRows(ctx, d.SpreadsheetID, step.Range)
	if err != nil {
		return "", err
	}

	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = strings.Join(row, "\t")
	}
	return strings.Join(lines, "\n"), nil
}

// SheetAppend appends the input as one tab-separated row.
func (d Deps) SheetAppend(ctx context.Context, step workflow.Step, input string) (string, error) {
	if d.Sheets == nil {
		return "", fmt.Errorf("sheet.append needs an authenticated spreadsheet client")
	}
	if step.Range == "" {
		return "", fmt.Errorf("sheet.append requires a 'range'")
	}
	if input == "" {
		return "", fmt.Errorf("sheet.append has nothing to append — give it an 'input'")
	}

	row := strings.Split(input, "\t")
	if err := d.Sheets.AppendRow(ctx, d.SpreadsheetID, step.Range, row); err != nil {
		return "", err
	}
	return fmt.Sprintf("appended 1 row to %s", step.Range), nil
}

// RenderHTML renders a range as an inline HTML table. An empty or missing
// range renders to an empty output, not an error.
func (d Deps) RenderHTML(ctx context.Context, step workflow.Step, _ string) (string, error) {
	if d.Renderer == nil {
		return "", fmt.Errorf("render.html needs an authenticated spreadsheet client")
	}
	if step.Range == "" {
		return "", fmt.Errorf("render.html requires a 'range'")
	}

	html, ok := d.Renderer.RenderRange(ctx, d.SpreadsheetID, step.Range)
	if !ok {
		return "", nil
	}
	return html, nil
}

// AIDraft generates an outreach email draft for the lead described by the
// step options, with the input as free-form notes. The output carries the
// subject on its first line.
func (d Deps) AIDraft(ctx context.Context, step workflow.Step, input string) (string, error) {
	if d.AI == nil {
		return "", fmt.Errorf("ai.draft needs a configured AI provider — run: sheetkit config")
	}

	req := ai.DraftRequest{
		Name:    step.Options["name"],
		Email:   step.Options["email"],
		Company: step.Options["company"],
		Source:  step.Options["source"],
		Tone:    step.Options["tone"],
		Notes:   input,
		Sender:  d.Sender,
	}
	draft, err := ai.ComposeDraft(ctx, d.AI, req)
	if err != nil {
		return "", err
	}
	return "Subject: " + draft.Subject + "\n\n" + draft.Body, nil
}

// MailDraft saves the input as a mail draft. A "Subject:" first line in
// the input is used when the step has no subject of its own.
func (d Deps) MailDraft(ctx context.Context, step workflow.Step, input string) (string, error) {
	if d.Mail == nil {
		return "", fmt.Errorf("mail.draft needs an authenticated mail client — run: sheetkit auth login")
	}

	msg, err := outgoing(step, input)
	if err != nil {
		return "", err
	}
	draft, err := d.Mail.CreateDraft(ctx, msg)
	if err != nil {
		return "", err
	}
	return draft.ID, nil
}

// MailSend sends the input immediately.
func (d Deps) MailSend(ctx context.Context, step workflow.Step, input string) (string, error) {
	if d.Mail == nil {
		return "", fmt.Errorf("mail.send needs an authenticated mail client — run: sheetkit auth login")
	}

	msg, err := outgoing(step, input)
	if err != nil {
		return "", err
	}
	if err := d.Mail.Send(ctx, msg); err != nil {
		return "", err
	}
	return fmt.Sprintf("sent to %s", strings.Join(msg.To, ", ")), nil
}

func outgoing(step workflow.Step, input string) (mail.OutgoingMessage, error) {
	if step.To == "" {
		return mail.OutgoingMessage{}, fmt.Errorf("%s requires a 'to' address", step.Action)
	}

	subject, body := step.Subject, input
	if subject == "" {
		if first, rest, ok := strings.Cut(input, "\n"); ok && strings.HasPrefix(first, "Subject:") {
			subject = strings.TrimSpace(strings.TrimPrefix(first, "Subject:"))
			body = strings.TrimSpace(rest)
		}
	}
	if subject == "" {
		return mail.OutgoingMessage{}, fmt.Errorf("%s requires a 'subject' (or a Subject: line in its input)", step.Action)
	}

	return mail.OutgoingMessage{
		To:      splitAddresses(step.To),
		Subject: subject,
		Body:    body,
		HTML:    step.Options["html"] == "true" || looksLikeHTML(body),
	}, nil
}

func splitAddresses(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func looksLikeHTML(body string) bool {
	return strings.Contains(body, "<table") || strings.Contains(body, "<p>") || strings.Contains(body, "<html")
}

// MapsDistance resolves the driving distance between the origin and
// destination options and outputs the miles.
func (d Deps) MapsDistance(ctx context.Context, step workflow.Step, _ string) (string, error) {
	if d.Maps == nil {
		return "", fmt.Errorf("maps.distance needs a maps API key — set SHEETKIT_MAPS_API_KEY")
	}

	origin, destination := step.Options["origin"], step.Options["destination"]
	trip, err := d.Maps.Distance(ctx, origin, destination)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(trip.Miles, 'f', 1, 64), nil
}

// StageMove sweeps a source sheet, moving rows whose status matches a
// configured stage rule.
func (d Deps) StageMove(ctx context.Context, step workflow.Step, _ string) (string, error) {
	if d.Stages == nil {
		return "", fmt.Errorf("stage.move needs stage rules — add a 'stages' section to the config")
	}

	sheet := step.Options["sheet"]
	column := step.Options["column"]
	if sheet == "" || column == "" {
		return "", fmt.Errorf("stage.move requires 'sheet' and 'column' options")
	}

	moves, err := d.Stages.Sweep(ctx, sheet, column)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("moved %d rows", len(moves)), nil
}

// QBOEstimate creates an estimate for the customer option from input lines
// of the form "description<TAB>quantity<TAB>unit price".
func (d Deps) QBOEstimate(ctx context.Context, step workflow.Step, input string) (string, error) {
	if d.QBO == nil {
		return "", fmt.Errorf("qbo.estimate needs QuickBooks configuration — set quickbooks.realm_id")
	}

	customerName := step.Options["customer"]
	if customerName == "" {
		return "", fmt.Errorf("qbo.estimate requires a 'customer' option")
	}

	lines, err := parseEstimateLines(input)
	if err != nil {
		return "", err
	}

	customer, err := d.QBO.FindCustomer(ctx, customerName)
	if err != nil {
		return "", err
	}
	est, err := d.QBO.CreateEstimate(ctx, customer.ID, lines)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("estimate %s for $%.2f", est.DocNumber, est.TotalAmt), nil
}

func parseEstimateLines(input string) ([]qbo.Line, error) {
	var lines []qbo.Line
	for _, raw := range strings.Split(input, "\n") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		fields := strings.Split(raw, "\t")
		if len(fields) != 3 {
			return nil, fmt.Errorf("estimate line %q must be description<TAB>quantity<TAB>unit price", raw)
		}
		qty, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid quantity in line %q: %w", raw, err)
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid unit price in line %q: %w", raw, err)
		}
		lines = append(lines, qbo.Line{Description: strings.TrimSpace(fields[0]), Quantity: qty, UnitPrice: price})
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("no estimate lines in input")
	}
	return lines, nil
}

// ExportXLSX fetches a range snapshot and writes it to a local .xlsx file.
func (d Deps) ExportXLSX(ctx context.Context, step workflow.Step, _ string) (string, error) {
	if d.Sheets == nil {
		return "", fmt.Errorf("export.xlsx needs an authenticated spreadsheet client")
	}
	if step.Out == "" {
		return "", fmt.Errorf("export.xlsx requires an 'out' file path")
	}

	snap, err := d.Sheets.Snapshot(ctx, d.SpreadsheetID, step.Range)
	if err != nil {
		return "", err
	}
	if err := export.WriteXLSX(snap, step.Out); err != nil {
		return "", err
	}
	return step.Out, nil
}
