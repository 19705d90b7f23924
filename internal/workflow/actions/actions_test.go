package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gridworks/sheetkit/internal/ai"
	"github.com/gridworks/sheetkit/internal/mail"
	"github.com/gridworks/sheetkit/internal/render"
	"github.com/gridworks/sheetkit/internal/sheets"
	"github.com/gridworks/sheetkit/internal/workflow"
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

func newTestMail(srv *httptest.Server) *mail.Client {
	if srv == nil {
		return mail.NewClient(http.DefaultClient)
	}
	return mail.NewClient(&http.Client{Transport: &rewriteTransport{server: srv}})
}

func TestSheetReadOutputsTabSeparatedRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"values": [][]string{
			{"Name", "Email"},
			{"Ana", "ana@example.com"},
		}})
	}))
	defer srv.Close()

	d := Deps{
		SpreadsheetID: "sheet-1",
		Sheets:        sheets.NewClient(&http.Client{Transport: &rewriteTransport{server: srv}}),
	}
	out, err := d.SheetRead(context.Background(), workflow.Step{Range: "Leads!A:B"}, "")
	if err != nil {
		t.Fatalf("SheetRead: %v", err)
	}
	if out != "Name\tEmail\nAna\tana@example.com" {
		t.Errorf("output = %q", out)
	}
}

func TestSheetReadRequiresRange(t *testing.T) {
	d := Deps{Sheets: sheets.NewClient(http.DefaultClient)}
	if _, err := d.SheetRead(context.Background(), workflow.Step{}, ""); err == nil {
		t.Fatal("expected error without range")
	}
}

type failingFetcher struct{}

func (failingFetcher) Snapshot(context.Context, string, string) (*sheets.Snapshot, error) {
	return nil, fmt.Errorf("boom")
}

func TestRenderHTMLFetchFailureIsEmptyNotError(t *testing.T) {
	d := Deps{Renderer: render.NewRenderer(failingFetcher{})}
	out, err := d.RenderHTML(context.Background(), workflow.Step{Range: "A1:B2"}, "")
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	if out != "" {
		t.Errorf("output = %q, want empty", out)
	}
}

type stubProvider struct{ reply string }

func (s stubProvider) Infer(context.Context, string, []ai.Message, ai.InferOptions) (*ai.InferResult, error) {
	return &ai.InferResult{Content: s.reply, Model: "stub"}, nil
}
func (s stubProvider) Name() string { return "stub" }

func TestAIDraftCarriesSubjectLine(t *testing.T) {
	d := Deps{
		AI:     stubProvider{reply: "Subject: Quick question\n\nHi Ana"},
		Sender: "pat@gridworks.example",
	}
	step := workflow.Step{Options: map[string]string{"name": "Ana", "tone": "friendly"}}
	out, err := d.AIDraft(context.Background(), step, "met at the trade show")
	if err != nil {
		t.Fatalf("AIDraft: %v", err)
	}
	if !strings.HasPrefix(out, "Subject: Quick question\n\n") {
		t.Errorf("output = %q", out)
	}
}

func TestMailDraftParsesSubjectFromInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"draft-1","message":{"id":"m1","threadId":"t1"}}`)
	}))
	defer srv.Close()

	d := Deps{Mail: newTestMail(srv)}
	step := workflow.Step{Action: "mail.draft", To: "ana@example.com"}
	out, err := d.MailDraft(context.Background(), step, "Subject: Hello\n\nHi Ana")
	if err != nil {
		t.Fatalf("MailDraft: %v", err)
	}
	if out != "draft-1" {
		t.Errorf("output = %q", out)
	}
}

func TestMailSendRequiresSubject(t *testing.T) {
	d := Deps{Mail: newTestMail(nil)}
	step := workflow.Step{Action: "mail.send", To: "ana@example.com"}
	_, err := d.MailSend(context.Background(), step, "no subject anywhere")
	if err == nil || !strings.Contains(err.Error(), "subject") {
		t.Fatalf("expected subject error, got %v", err)
	}
}

func TestParseEstimateLines(t *testing.T) {
	lines, err := parseEstimateLines("Tear-off\t1\t1000\nGutter guards\t5\t50\n")
	if err != nil {
		t.Fatalf("parseEstimateLines: %v", err)
	}
	if len(lines) != 2 || lines[1].Amount() != 250 {
		t.Errorf("lines = %+v", lines)
	}

	if _, err := parseEstimateLines("just one field"); err == nil {
		t.Error("expected error for malformed line")
	}
	if _, err := parseEstimateLines("desc\tx\t50"); err == nil {
		t.Error("expected error for bad quantity")
	}
	if _, err := parseEstimateLines("\n\n"); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestSplitAddresses(t *testing.T) {
	got := splitAddresses("ana@example.com, bo@example.com ,")
	if len(got) != 2 || got[1] != "bo@example.com" {
		t.Errorf("splitAddresses = %v", got)
	}
}

func TestRegisterAllWiresEveryAction(t *testing.T) {
	exec := workflow.NewExecutor(false)
	RegisterAll(exec, Deps{})

	// Every built-in should be reachable: an unreachable one surfaces as
	// "unknown action" when a workflow names it.
	w := &workflow.Workflow{Name: "registry", Steps: []workflow.Step{
		{ID: "distance", Action: "maps.distance", OnFailure: "skip"},
	}}
	run, err := exec.Run(context.Background(), w)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.Contains(run.Steps[0].Error, "unknown action") {
		t.Errorf("maps.distance not registered: %v", run.Steps[0].Error)
	}
}
