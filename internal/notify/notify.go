/*
Package notify reports run results on the console and sends an HTML digest of
notable announcements by email.
*/
package notify

import (
	"fmt"
	"io"
	"strings"

	"github.com/shanehull/psxann/internal/sentiment"
	"github.com/shanehull/psxann/internal/types"
)

const snippetLength = 240

// Notable returns the announcements whose sentiment is not neutral.
func Notable(anns []types.Announcement) []types.Announcement {
	var out []types.Announcement
	for _, a := range anns {
		if a.Sentiment != nil && a.Sentiment.Impact != types.ImpactNeutral {
			out = append(out, a)
		}
	}
	return out
}

// ReportAnnouncements prints processed announcements to w.
func ReportAnnouncements(w io.Writer, anns []types.Announcement, added int, storePath string) {
	if len(anns) == 0 {
		fmt.Fprintln(w, "\n-------------------------------------------")
		fmt.Fprintln(w, "No new announcements found.")
		fmt.Fprintln(w, "-------------------------------------------")
		return
	}

	fmt.Fprintln(w, "\n===========================================")
	fmt.Fprintf(w, "✅ %d ANNOUNCEMENTS PROCESSED\n", len(anns))
	fmt.Fprintln(w, "===========================================")

	for i, a := range anns {
		fmt.Fprintf(w, "\n--- #%d ---\n", i+1)
		fmt.Fprintf(w, "Ticker: %s\n", a.Ticker)
		fmt.Fprintf(w, "Title:  %s\n", a.Title)
		fmt.Fprintf(w, "Date:   %s\n", a.PublishedRaw)
		if a.AttachmentURL != "" {
			fmt.Fprintf(w, "URL:    %s\n", a.AttachmentURL)
		}
		if a.Sentiment != nil {
			fmt.Fprintf(w, "Sentiment: %s (%+d)\n", a.Sentiment.Impact, a.Sentiment.Score)
			if len(a.Sentiment.Signals) > 0 {
				fmt.Fprintf(w, "Signals:   %s\n", strings.Join(a.Sentiment.Signals, ", "))
			}
		}
		if s := Snippet(a.ExtractedText); s != "" {
			fmt.Fprintf(w, "Text:\n\t%s\n", s)
		}
	}

	fmt.Fprintln(w, "\n===========================================")
	fmt.Fprintf(w, "%d new records saved to %s.\n", added, storePath)
	fmt.Fprintln(w, "===========================================")
}

// ReportSummary prints a ticker summary to w.
func ReportSummary(w io.Writer, s sentiment.Summary) {
	fmt.Fprintln(w, "\n===========================================")
	fmt.Fprintf(w, "%s SENTIMENT SUMMARY\n", s.Ticker)
	fmt.Fprintln(w, "===========================================")

	if s.Count == 0 {
		fmt.Fprintln(w, "No stored announcements for this ticker.")
		return
	}

	fmt.Fprintf(w, "Announcements: %d\n", s.Count)
	fmt.Fprintf(w, "Total score:   %d\n", s.Total)
	fmt.Fprintf(w, "Average score: %.1f\n", s.Average)
	fmt.Fprintf(w, "Overall:       %s\n", s.Overall)
	fmt.Fprintf(w, "Title tone:    %+.3f\n", s.Tone)
	if len(s.TopSignals) > 0 {
		fmt.Fprintf(w, "Top signals:   %s\n", strings.Join(s.TopSignals, ", "))
	}
}

// Snippet collapses whitespace and cuts text to a short preview.
func Snippet(text string) string {
	s := strings.Join(strings.Fields(text), " ")
	if len(s) <= snippetLength {
		return s
	}
	cut := snippetLength
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut] + "…"
}
