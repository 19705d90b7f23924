package ai

import (
	"context"
	"fmt"
	"strings"
)

const draftSystemPrompt = `You are writing outreach email on behalf of a small business.
Write a short, personal first-contact email to the lead described by the user.
Do not invent facts about the lead that were not provided.
Respond with a subject line on the first line in the form "Subject: ..." followed
by a blank line and then the email body. Plain text only, no markdown.`

// DraftRequest carries the lead context an email draft is generated from.
type DraftRequest struct {
	Name    string
	Email   string
	Company string
	Source  string
	Notes   string
	Tone    string // e.g. "friendly", "formal"; empty means provider default
	Sender  string // signature line, usually the configured account email
}

// Draft is a generated email draft.
type Draft struct {
	Subject string
	Body    string
	Model   string
}

// ComposeDraft asks the provider to write an outreach email for the given
// lead and splits the response into subject and body.
func ComposeDraft(ctx context.Context, p Provider, req DraftRequest) (*Draft, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("lead has no name to address")
	}

	result, err := p.Infer(ctx, draftSystemPrompt, []Message{
		{Role: "user", Content: draftPrompt(req)},
	}, InferOptions{MaxTokens: 1024})
	if err != nil {
		return nil, fmt.Errorf("could not generate draft: %w", err)
	}

	subject, body := splitDraft(result.Content)
	if body == "" {
		return nil, fmt.Errorf("provider returned an empty draft")
	}
	if subject == "" {
		subject = "Hello"
		if req.Sender != "" {
			subject = "Hello from " + req.Sender
		}
	}

	return &Draft{Subject: subject, Body: body, Model: result.Model}, nil
}

func draftPrompt(req DraftRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Lead name: %s\n", req.Name)
	if req.Company != "" {
		fmt.Fprintf(&b, "Company: %s\n", req.Company)
	}
	if req.Source != "" {
		fmt.Fprintf(&b, "How they found us: %s\n", req.Source)
	}
	if req.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", req.Notes)
	}
	if req.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s\n", req.Tone)
	}
	if req.Sender != "" {
		fmt.Fprintf(&b, "Sign off as: %s\n", req.Sender)
	}
	return b.String()
}

// splitDraft separates a "Subject: ..." first line from the body. Responses
// without a subject line are treated as body-only.
func splitDraft(text string) (subject, body string) {
	text = strings.TrimSpace(text)
	lines := strings.SplitN(text, "\n", 2)
	if strings.HasPrefix(lines[0], "Subject:") {
		subject = strings.TrimSpace(strings.TrimPrefix(lines[0], "Subject:"))
		if len(lines) == 2 {
			body = strings.TrimSpace(lines[1])
		}
		return subject, body
	}
	return "", text
}
