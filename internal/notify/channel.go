// Package notify holds the channel senders and the shared dispatch plumbing.
// Each sender resolves its own template, renders it against the event data
// and makes exactly one transport call per recipient; failures are reported
// in the Outcome and never abort sibling sends.
package notify

import (
	"context"
	"fmt"
	"strings"
)

// Send statuses.
const (
	StatusSent    = "sent"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

// Attachment is an email attachment.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Event is one notification to one recipient. It is constructed per send and
// never persisted.
type Event struct {
	Channel      string
	Recipient    string
	TemplateSlug string
	Data         map[string]string

	// Literal overrides: when Subject/Body are set the template lookup is
	// skipped entirely.
	Subject string
	Body    string

	// Fallback is sent verbatim by chat channels when no template exists.
	Fallback string

	Attachments []Attachment
}

// Outcome is the per-send result.
type Outcome struct {
	Success bool   `json:"success"`
	Status  string `json:"status"` // sent, skipped, error
	Error   string `json:"error,omitempty"`
}

func sent() Outcome {
	return Outcome{Success: true, Status: StatusSent}
}

func skipped() Outcome {
	return Outcome{Success: false, Status: StatusSkipped}
}

func failed(err error) Outcome {
	return Outcome{Success: false, Status: StatusError, Error: err.Error()}
}

// Sender is the common channel contract.
type Sender interface {
	Channel() string
	Send(ctx context.Context, ev Event) Outcome
}

// renderTemplate substitutes {{key}} placeholders from data. Declared
// variables missing from data render as empty string: after the known keys
// are replaced, any leftover placeholder is stripped.
func renderTemplate(tmpl string, data map[string]string) string {
	result := tmpl

	for k, v := range data {
		placeholder := "{{" + k + "}}"
		result = strings.ReplaceAll(result, placeholder, v)
	}

	// Remove any remaining placeholders (missing values)
	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		end += start + 2
		result = result[:start] + result[end:]
	}

	return result
}

// resolveContent returns the subject/body for ev: literal overrides win,
// then the channel template, then the verbatim fallback. ok=false means the
// send should be skipped.
func resolveContent(ctx context.Context, resolver *TemplateResolver, channel string, ev Event) (subject, body string, ok bool, err error) {
	if ev.Subject != "" || ev.Body != "" {
		return renderTemplate(ev.Subject, ev.Data), renderTemplate(ev.Body, ev.Data), true, nil
	}

	tpl, resolveErr := resolver.Resolve(ctx, channel, ev.TemplateSlug)
	if resolveErr == nil {
		return renderTemplate(tpl.Subject, ev.Data), renderTemplate(tpl.Body, ev.Data), true, nil
	}
	if !isNotFound(resolveErr) {
		return "", "", false, fmt.Errorf("resolve template %s/%s: %w", channel, ev.TemplateSlug, resolveErr)
	}

	if ev.Fallback != "" {
		return "", ev.Fallback, true, nil
	}

	return "", "", false, nil
}
