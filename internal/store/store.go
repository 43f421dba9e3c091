/*
Package store persists scored announcements and merges new batches into the
persisted collection without duplicating attachment URLs.
*/
package store

import (
	"context"
	"strings"
	"sync"

	"github.com/shanehull/psxann/internal/types"
)

const signalSeparator = ", "

// Record is the persisted form of an announcement. PDFURL is the uniqueness
// key when non-empty; records without one are never deduplicated.
type Record struct {
	Ticker           string
	Title            string
	Date             string
	PDFURL           string
	ExtractedText    string
	SentimentScore   int
	SentimentImpact  types.Impact
	SentimentSignals string
}

type Store interface {
	Load(ctx context.Context) ([]Record, error)
	Append(ctx context.Context, records []Record) error
}

// FromAnnouncement converts a. A positive textLimit truncates the extracted
// text to that many bytes, backing off to a rune boundary.
func FromAnnouncement(a types.Announcement, textLimit int) Record {
	r := Record{
		Ticker:        a.Ticker,
		Title:         a.Title,
		Date:          a.PublishedRaw,
		PDFURL:        a.AttachmentURL,
		ExtractedText: truncate(a.ExtractedText, textLimit),
	}
	if a.Sentiment != nil {
		r.SentimentScore = a.Sentiment.Score
		r.SentimentImpact = a.Sentiment.Impact
		r.SentimentSignals = strings.Join(a.Sentiment.Signals, signalSeparator)
	}
	return r
}

// Signals splits the stored signal list.
func (r Record) Signals() []string {
	if strings.TrimSpace(r.SentimentSignals) == "" {
		return []string{}
	}
	parts := strings.Split(r.SentimentSignals, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Normalize fills defaults so every persisted row has the same shape.
func Normalize(r Record) Record {
	r.Ticker = strings.ToUpper(strings.TrimSpace(r.Ticker))
	r.PDFURL = strings.TrimSpace(r.PDFURL)
	if r.SentimentImpact == "" {
		r.SentimentImpact = types.ImpactNeutral
	}
	return r
}

// Novel returns the records of batch whose PDFURL is not in existing, in
// batch order. Duplicates inside batch are dropped too.
func Novel(existing, batch []Record) []Record {
	seen := URLs(existing)

	var out []Record
	for _, r := range batch {
		if r.PDFURL == "" {
			out = append(out, r)
			continue
		}
		if seen[r.PDFURL] {
			continue
		}
		seen[r.PDFURL] = true
		out = append(out, r)
	}
	return out
}

// URLs returns the set of non-empty attachment URLs in records.
func URLs(records []Record) map[string]bool {
	set := make(map[string]bool, len(records))
	for _, r := range records {
		if r.PDFURL != "" {
			set[r.PDFURL] = true
		}
	}
	return set
}

// Merger is the single writer of a Store.
type Merger struct {
	store Store
	mu    sync.Mutex
}

func NewMerger(s Store) *Merger {
	return &Merger{store: s}
}

// Merge appends the unseen records of batch and returns how many were added.
func (m *Merger) Merge(ctx context.Context, batch []Record) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, err := m.store.Load(ctx)
	if err != nil {
		return 0, err
	}

	normalized := make([]Record, len(batch))
	for i, r := range batch {
		normalized[i] = Normalize(r)
	}

	novel := Novel(existing, normalized)
	if len(novel) == 0 {
		return 0, nil
	}
	if err := m.store.Append(ctx, novel); err != nil {
		return 0, err
	}
	return len(novel), nil
}

// Known returns the attachment URLs already persisted.
func (m *Merger) Known(ctx context.Context) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, err := m.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return URLs(existing), nil
}

func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
