// Package mail provides Gmail draft, send, and inbox operations, with an
// SMTP fallback for accounts that cannot use the Gmail API.
package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const gmailBase = "https://gmail.googleapis.com/gmail/v1/users/me"

// Client provides Gmail operations over an authenticated HTTP client.
type Client struct {
	HTTP *http.Client
}

// NewClient creates a Gmail client.
func NewClient(httpClient *http.Client) *Client {
	return &Client{HTTP: httpClient}
}

// OutgoingMessage is an email to be drafted or sent.
type OutgoingMessage struct {
	To      []string
	CC      []string
	Subject string
	Body    string
	HTML    bool
}

// Draft identifies a created Gmail draft.
type Draft struct {
	ID      string `json:"id"`
	Message struct {
		ID       string `json:"id"`
		ThreadID string `json:"threadId"`
	} `json:"message"`
}

// InboxMessage is a summary of a received email.
type InboxMessage struct {
	ID       string
	ThreadID string
	From     string
	Subject  string
	Snippet  string
	Date     time.Time
	Unread   bool
}

// InboxFilter configures which emails ListInbox retrieves.
type InboxFilter struct {
	From       string
	Subject    string
	UnreadOnly bool
	Since      time.Time
	Limit      int
}

// CreateDraft saves the message as a Gmail draft and returns its ID.
func (c *Client) CreateDraft(ctx context.Context, msg OutgoingMessage) (*Draft, error) {
	if err := msg.validate(); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"message": map[string]string{"raw": encodeRaw(msg)},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", gmailBase+"/drafts", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not create draft: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("create draft failed (%d): %s", resp.StatusCode, string(respBody))
	}

	var draft Draft
	if err := json.NewDecoder(resp.Body).Decode(&draft); err != nil {
		return nil, fmt.Errorf("could not parse draft response: %w", err)
	}
	return &draft, nil
}

// SendDraft sends a previously created draft.
func (c *Client) SendDraft(ctx context.Context, draftID string) error {
	body, err := json.Marshal(map[string]string{"id": draftID})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", gmailBase+"/drafts/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("could not send draft: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("send draft failed (%d): %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// Send sends the message immediately without creating a draft first.
func (c *Client) Send(ctx context.Context, msg OutgoingMessage) error {
	if err := msg.validate(); err != nil {
		return err
	}

	body, err := json.Marshal(map[string]string{"raw": encodeRaw(msg)})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", gmailBase+"/messages/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("could not send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("send failed (%d): %s", resp.StatusCode, string(respBody))
	}
	return nil
}

type listResponse struct {
	Messages []struct {
		ID       string `json:"id"`
		ThreadID string `json:"threadId"`
	} `json:"messages"`
}

type messageResponse struct {
	ID       string   `json:"id"`
	ThreadID string   `json:"threadId"`
	Snippet  string   `json:"snippet"`
	LabelIDs []string `json:"labelIds"`
	Payload  struct {
		Headers []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"headers"`
	} `json:"payload"`
	InternalDate string `json:"internalDate"` // epoch millis as string
}

// ListInbox returns recent inbox messages matching the filter.
func (c *Client) ListInbox(ctx context.Context, filter InboxFilter) ([]InboxMessage, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	params := url.Values{}
	params.Set("maxResults", fmt.Sprintf("%d", limit))
	params.Set("q", filter.query())

	req, err := http.NewRequestWithContext(ctx, "GET", gmailBase+"/messages?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not list inbox: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("inbox request failed (%d): %s", resp.StatusCode, string(body))
	}

	var list listResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("could not parse inbox response: %w", err)
	}

	messages := make([]InboxMessage, 0, len(list.Messages))
	for _, m := range list.Messages {
		msg, err := c.GetMessage(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *msg)
	}
	return messages, nil
}

// GetMessage retrieves the metadata of a single message.
func (c *Client) GetMessage(ctx context.Context, id string) (*InboxMessage, error) {
	endpoint := gmailBase + "/messages/" + url.PathEscape(id) + "?format=metadata&metadataHeaders=From&metadataHeaders=Subject"
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not get message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("get message failed (%d): %s", resp.StatusCode, string(body))
	}

	var raw messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("could not parse message: %w", err)
	}

	msg := InboxMessage{
		ID:       raw.ID,
		ThreadID: raw.ThreadID,
		Snippet:  raw.Snippet,
	}
	for _, h := range raw.Payload.Headers {
		switch h.Name {
		case "From":
			msg.From = h.Value
		case "Subject":
			msg.Subject = h.Value
		}
	}
	for _, l := range raw.LabelIDs {
		if l == "UNREAD" {
			msg.Unread = true
		}
	}
	if raw.InternalDate != "" {
		var millis int64
		fmt.Sscanf(raw.InternalDate, "%d", &millis)
		msg.Date = time.UnixMilli(millis).UTC()
	}
	return &msg, nil
}

type bodyPart struct {
	MimeType string `json:"mimeType"`
	Body     struct {
		Data string `json:"data"`
	} `json:"body"`
	Parts []bodyPart `json:"parts"`
}

// GetBody retrieves the plain-text body of a message, preferring the
// text/plain part of multipart messages.
func (c *Client) GetBody(ctx context.Context, id string) (string, error) {
	endpoint := gmailBase + "/messages/" + url.PathEscape(id) + "?format=full"
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("could not get message body: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("get message body failed (%d): %s", resp.StatusCode, string(body))
	}

	var raw struct {
		Payload bodyPart `json:"payload"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("could not parse message body: %w", err)
	}

	data := findPartData(raw.Payload, "text/plain")
	if data == "" {
		data = findPartData(raw.Payload, "text/")
	}
	if data == "" {
		return "", fmt.Errorf("message %s has no text body", id)
	}

	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return "", fmt.Errorf("could not decode message body: %w", err)
	}
	return string(decoded), nil
}

// findPartData walks the MIME tree for the first part whose type
// matches the given prefix and carries data.
func findPartData(p bodyPart, mimePrefix string) string {
	if strings.HasPrefix(p.MimeType, mimePrefix) && p.Body.Data != "" {
		return p.Body.Data
	}
	for _, part := range p.Parts {
		if data := findPartData(part, mimePrefix); data != "" {
			return data
		}
	}
	return ""
}

// MarkAsRead removes the UNREAD label from a message.
func (c *Client) MarkAsRead(ctx context.Context, id string) error {
	body := []byte(`{"removeLabelIds":["UNREAD"]}`)
	endpoint := gmailBase + "/messages/" + url.PathEscape(id) + "/modify"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("could not mark as read: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mark as read failed (%d): %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func (m *OutgoingMessage) validate() error {
	if len(m.To) == 0 {
		return fmt.Errorf("no recipients specified — use --to")
	}
	for _, addr := range m.To {
		if !ValidateEmail(addr) {
			return fmt.Errorf("invalid recipient email address: %q", addr)
		}
	}
	for _, addr := range m.CC {
		if !ValidateEmail(addr) {
			return fmt.Errorf("invalid CC email address: %q", addr)
		}
	}
	return nil
}

// query translates the filter into Gmail search syntax.
func (f InboxFilter) query() string {
	parts := []string{"in:inbox"}
	if f.From != "" {
		parts = append(parts, "from:"+f.From)
	}
	if f.Subject != "" {
		parts = append(parts, fmt.Sprintf("subject:%q", f.Subject))
	}
	if f.UnreadOnly {
		parts = append(parts, "is:unread")
	}
	if !f.Since.IsZero() {
		parts = append(parts, fmt.Sprintf("after:%d", f.Since.Unix()))
	}
	return strings.Join(parts, " ")
}

// encodeRaw builds the RFC 2822 message and encodes it the way the Gmail
// API expects (URL-safe base64, no padding).
func encodeRaw(msg OutgoingMessage) string {
	contentType := "text/plain; charset=utf-8"
	if msg.HTML {
		contentType = "text/html; charset=utf-8"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	if len(msg.CC) > 0 {
		fmt.Fprintf(&b, "Cc: %s\r\n", strings.Join(msg.CC, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: %s\r\n", contentType)
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	return base64.RawURLEncoding.EncodeToString([]byte(b.String()))
}

// FormatMessageDate formats a message timestamp for display.
func FormatMessageDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
