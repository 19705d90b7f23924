package mail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

// rewriteTransport sends API requests to the test server instead of Google.
type rewriteTransport struct {
	server *httptest.Server
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	u, _ := url.Parse(t.server.URL)
	req.URL.Scheme = u.Scheme
	req.URL.Host = u.Host
	return http.DefaultTransport.RoundTrip(req)
}

func testClient(server *httptest.Server) *Client {
	return NewClient(&http.Client{Transport: &rewriteTransport{server: server}})
}

func TestCreateDraftEncodesMessage(t *testing.T) {
	var gotRaw string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || !strings.HasSuffix(r.URL.Path, "/drafts") {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var payload struct {
			Message struct {
				Raw string `json:"raw"`
			} `json:"message"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		gotRaw = payload.Message.Raw
		fmt.Fprint(w, `{"id":"draft-1","message":{"id":"msg-1","threadId":"thr-1"}}`)
	}))
	defer srv.Close()

	draft, err := testClient(srv).CreateDraft(context.Background(), OutgoingMessage{
		To:      []string{"ana@example.com"},
		Subject: "Quick question",
		Body:    "<p>Hi Ana</p>",
		HTML:    true,
	})
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	if draft.ID != "draft-1" {
		t.Errorf("draft ID = %q", draft.ID)
	}

	decoded, err := base64.RawURLEncoding.DecodeString(gotRaw)
	if err != nil {
		t.Fatalf("raw is not URL-safe base64: %v", err)
	}
	rfc822 := string(decoded)
	for _, want := range []string{
		"To: ana@example.com\r\n",
		"Subject: Quick question\r\n",
		"Content-Type: text/html; charset=utf-8\r\n",
		"<p>Hi Ana</p>",
	} {
		if !strings.Contains(rfc822, want) {
			t.Errorf("encoded message missing %q:\n%s", want, rfc822)
		}
	}
}

func TestCreateDraftRejectsBadRecipient(t *testing.T) {
	c := NewClient(http.DefaultClient)
	_, err := c.CreateDraft(context.Background(), OutgoingMessage{To: []string{"not-an-address"}})
	if err == nil || !strings.Contains(err.Error(), "invalid recipient") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSendDraft(t *testing.T) {
	var gotID string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/drafts/send") {
			t.Errorf("path = %q", r.URL.Path)
		}
		var payload struct {
			ID string `json:"id"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		gotID = payload.ID
		fmt.Fprint(w, `{"id":"msg-1"}`)
	}))
	defer srv.Close()

	if err := testClient(srv).SendDraft(context.Background(), "draft-1"); err != nil {
		t.Fatalf("SendDraft: %v", err)
	}
	if gotID != "draft-1" {
		t.Errorf("sent draft ID = %q", gotID)
	}
}

func TestListInbox(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/messages") {
			q := r.URL.Query().Get("q")
			for _, want := range []string{"in:inbox", "from:ana@example.com", "is:unread"} {
				if !strings.Contains(q, want) {
					t.Errorf("query missing %q: %q", want, q)
				}
			}
			fmt.Fprint(w, `{"messages":[{"id":"m1","threadId":"t1"}]}`)
			return
		}
		fmt.Fprint(w, `{"id":"m1","threadId":"t1","snippet":"hello there","labelIds":["INBOX","UNREAD"],"internalDate":"1756200000000","payload":{"headers":[{"name":"From","value":"Ana <ana@example.com>"},{"name":"Subject","value":"Re: roof"}]}}`)
	}))
	defer srv.Close()

	messages, err := testClient(srv).ListInbox(context.Background(), InboxFilter{
		From:       "ana@example.com",
		UnreadOnly: true,
	})
	if err != nil {
		t.Fatalf("ListInbox: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("got %d messages", len(messages))
	}
	m := messages[0]
	if m.Subject != "Re: roof" || m.From != "Ana <ana@example.com>" {
		t.Errorf("message = %+v", m)
	}
	if !m.Unread {
		t.Error("expected unread")
	}
	if m.Date.IsZero() {
		t.Error("date not parsed")
	}
}

func TestInboxFilterQuery(t *testing.T) {
	since := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	q := InboxFilter{Subject: "estimate", Since: since}.query()
	if !strings.Contains(q, `subject:"estimate"`) {
		t.Errorf("query = %q", q)
	}
	if !strings.Contains(q, fmt.Sprintf("after:%d", since.Unix())) {
		t.Errorf("query = %q", q)
	}
}

func TestMarkAsRead(t *testing.T) {
	var gotBody string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/messages/m1/modify") {
			t.Errorf("path = %q", r.URL.Path)
		}
		b := make([]byte, r.ContentLength)
		r.Body.Read(b)
		gotBody = string(b)
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	if err := testClient(srv).MarkAsRead(context.Background(), "m1"); err != nil {
		t.Fatalf("MarkAsRead: %v", err)
	}
	if !strings.Contains(gotBody, "UNREAD") {
		t.Errorf("body = %q", gotBody)
	}
}

func TestGetBodyDecodesTextPart(t *testing.T) {
	body := "Name: Ana Soares\nEmail: ana@example.com\n"
	encoded := base64.RawURLEncoding.EncodeToString([]byte(body))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/messages/m1") {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("format") != "full" {
			t.Errorf("format = %q", r.URL.Query().Get("format"))
		}
		fmt.Fprintf(w, `{"payload":{"mimeType":"multipart/alternative","parts":[
			{"mimeType":"text/html","body":{"data":"PGI+aHRtbDwvYj4"}},
			{"mimeType":"text/plain","body":{"data":%q}}
		]}}`, encoded)
	}))
	defer srv.Close()

	got, err := testClient(srv).GetBody(context.Background(), "m1")
	if err != nil {
		t.Fatalf("GetBody: %v", err)
	}
	if got != body {
		t.Errorf("body = %q, want %q", got, body)
	}
}

func TestGetBodyNoTextPart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"payload":{"mimeType":"multipart/mixed","parts":[]}}`)
	}))
	defer srv.Close()

	if _, err := testClient(srv).GetBody(context.Background(), "m1"); err == nil {
		t.Fatal("expected error for message without a text body")
	}
}
