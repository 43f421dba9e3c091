package notify

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "gopkg.in/mail.v2"

	"github.com/shanehull/psxann/internal/sentiment"
	"github.com/shanehull/psxann/internal/types"
)

func sampleAnnouncements() []types.Announcement {
	return []types.Announcement{
		{
			Ticker:        "LUCK",
			Title:         "Financial Results <Q1>",
			PublishedRaw:  "Oct 14, 2026 3:45 PM",
			AttachmentURL: "https://dps.psx.com.pk/download/document/1.pdf",
			ExtractedText: "Final   cash dividend\nof Rs. 5",
			Sentiment:     &types.Sentiment{Score: 25, Impact: types.ImpactBullish, Signals: []string{"Final Dividend"}},
		},
		{
			Ticker:    "OGDC",
			Title:     "Board Meeting",
			Sentiment: &types.Sentiment{Impact: types.ImpactNeutral, Signals: []string{}},
		},
		{
			Ticker:    "PSO",
			Title:     "Plant shutdown",
			Sentiment: &types.Sentiment{Score: -30, Impact: types.ImpactStrongBearish, Signals: []string{"Shutdown"}},
		},
		{Ticker: "HBL", Title: "Unscored"},
	}
}

func TestNotable(t *testing.T) {
	got := Notable(sampleAnnouncements())

	require.Len(t, got, 2)
	assert.Equal(t, "LUCK", got[0].Ticker)
	assert.Equal(t, "PSO", got[1].Ticker)
}

func TestReportAnnouncements(t *testing.T) {
	var buf bytes.Buffer
	ReportAnnouncements(&buf, sampleAnnouncements(), 3, "data/psx_announcements.csv")

	out := buf.String()
	assert.Contains(t, out, "4 ANNOUNCEMENTS PROCESSED")
	assert.Contains(t, out, "Sentiment: bullish (+25)")
	assert.Contains(t, out, "Sentiment: strong_bearish (-30)")
	assert.Contains(t, out, "Final cash dividend of Rs. 5")
	assert.Contains(t, out, "3 new records saved to data/psx_announcements.csv.")
}

func TestReportAnnouncements_Empty(t *testing.T) {
	var buf bytes.Buffer
	ReportAnnouncements(&buf, nil, 0, "x.csv")
	assert.Contains(t, buf.String(), "No new announcements found.")
}

func TestReportSummary(t *testing.T) {
	var buf bytes.Buffer
	ReportSummary(&buf, sentiment.Summary{
		Ticker: "LUCK", Count: 2, Total: 45, Average: 22.5, Overall: "bullish",
		TopSignals: []string{"Final Dividend", "Profit"}, Tone: 0.25,
	})

	out := buf.String()
	assert.Contains(t, out, "LUCK SENTIMENT SUMMARY")
	assert.Contains(t, out, "Average score: 22.5")
	assert.Contains(t, out, "Title tone:    +0.250")
	assert.Contains(t, out, "Top signals:   Final Dividend, Profit")
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "a b c", Snippet(" a\n\tb  c "))

	long := strings.Repeat("é", 200)
	s := Snippet(long)
	assert.True(t, strings.HasSuffix(s, "…"))
	assert.LessOrEqual(t, len(s), snippetLength+len("…"))
	assert.True(t, strings.HasPrefix(long, strings.TrimSuffix(s, "…")))
}

func TestHTMLEmailRenderer_Render(t *testing.T) {
	data := DigestData{
		Source:        types.SourcePSX,
		Days:          7,
		GeneratedAt:   time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC),
		Announcements: Notable(sampleAnnouncements()),
	}

	msg, err := NewHTMLEmailRenderer().Render(data)
	require.NoError(t, err)

	assert.Equal(t, "PSX Digest: 2 notable announcements", msg.Subject)
	assert.Contains(t, msg.HTML, `class="badge bullish"`)
	assert.Contains(t, msg.HTML, `class="badge strong-bearish"`)
	assert.Contains(t, msg.HTML, "Financial Results &lt;Q1&gt;")
	assert.Contains(t, msg.HTML, `href="https://dps.psx.com.pk/download/document/1.pdf"`)
	assert.Contains(t, msg.HTML, "15 Oct 2026 9:30 AM")
	assert.NotContains(t, msg.HTML, "OGDC")

	assert.Contains(t, msg.Text, "LUCK - Financial Results <Q1>")
	assert.Contains(t, msg.Text, "Signals: Shutdown")
}

func TestHTMLEmailRenderer_TickerSubject(t *testing.T) {
	msg, err := NewHTMLEmailRenderer().Render(DigestData{Ticker: "luck"})
	require.NoError(t, err)
	assert.Equal(t, "PSX Digest: LUCK - 0 notable announcements", msg.Subject)
}

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	f.sent = append(f.sent, m...)
	return f.err
}

func TestEmailSender_Send(t *testing.T) {
	cfg := EmailConfig{Enabled: true, FromEmail: "bot@example.com", ToEmail: "desk@example.com"}
	msg := &RenderedMessage{Subject: "PSX Digest", Text: "plain", HTML: "<p>html</p>"}

	d := &fakeDialer{}
	s := &EmailSender{cfg: cfg, dialer: d}
	require.NoError(t, s.Send(msg))
	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"desk@example.com"}, d.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"PSX Digest"}, d.sent[0].GetHeader("Subject"))

	d.err = errors.New("535 authentication failed")
	assert.Error(t, s.Send(msg))

	disabled := &EmailSender{cfg: EmailConfig{}, dialer: d}
	assert.NoError(t, disabled.Send(msg))
	assert.Len(t, d.sent, 2)
}
