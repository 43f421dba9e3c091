package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shanehull/psxann/internal/types"
)

// DigestData is the input to the digest template.
type DigestData struct {
	Source        string
	Days          int
	Ticker        string
	GeneratedAt   time.Time
	Announcements []types.Announcement
}

// RenderedMessage is a ready-to-send email.
type RenderedMessage struct {
	Subject string
	Text    string
	HTML    string
}

// HTMLEmailRenderer renders digests as HTML emails with a plain text fallback.
type HTMLEmailRenderer struct {
	tmpl *template.Template
}

// NewHTMLEmailRenderer creates a renderer with the default digest template.
func NewHTMLEmailRenderer() *HTMLEmailRenderer {
	t := template.Must(template.New("email").Funcs(template.FuncMap{
		"snippet": Snippet,
		"impactClass": func(i types.Impact) string {
			return strings.ReplaceAll(string(i), "_", "-")
		},
		"signed": func(n int) string { return fmt.Sprintf("%+d", n) },
		"join":   strings.Join,
	}).Parse(emailHTMLTemplate))
	return &HTMLEmailRenderer{tmpl: t}
}

// Render produces an HTML email with plain text alternative.
func (r *HTMLEmailRenderer) Render(data DigestData) (*RenderedMessage, error) {
	subject := fmt.Sprintf("PSX Digest: %d notable announcements", len(data.Announcements))
	if data.Ticker != "" {
		subject = fmt.Sprintf("PSX Digest: %s - %d notable announcements", strings.ToUpper(data.Ticker), len(data.Announcements))
	}

	var htmlBuf bytes.Buffer
	if err := r.tmpl.Execute(&htmlBuf, data); err != nil {
		return nil, fmt.Errorf("failed to render HTML template: %w", err)
	}

	return &RenderedMessage{
		Subject: subject,
		Text:    renderPlainText(data),
		HTML:    htmlBuf.String(),
	}, nil
}

// renderPlainText produces a readable plain text version for email clients that don't support HTML.
func renderPlainText(data DigestData) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("PSX announcements, last %d days (source: %s)\n", data.Days, data.Source))
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	for _, a := range data.Announcements {
		sb.WriteString(fmt.Sprintf("%s - %s\n", a.Ticker, a.Title))
		sb.WriteString(fmt.Sprintf("Date: %s\n", a.PublishedRaw))
		if a.AttachmentURL != "" {
			sb.WriteString(fmt.Sprintf("URL: %s\n", a.AttachmentURL))
		}
		if a.Sentiment != nil {
			sb.WriteString(fmt.Sprintf("Sentiment: %s (%+d)\n", a.Sentiment.Impact, a.Sentiment.Score))
			if len(a.Sentiment.Signals) > 0 {
				sb.WriteString(fmt.Sprintf("Signals: %s\n", strings.Join(a.Sentiment.Signals, ", ")))
			}
		}
		if s := Snippet(a.ExtractedText); s != "" {
			sb.WriteString(strings.Repeat("-", 20) + "\n")
			sb.WriteString(s + "\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
