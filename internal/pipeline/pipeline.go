/*
Package pipeline wires discovery, download, text extraction, scoring and
merging into a single batch run.
*/
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/shanehull/psxann/internal/psx"
	"github.com/shanehull/psxann/internal/sarmaaya"
	"github.com/shanehull/psxann/internal/sentiment"
	"github.com/shanehull/psxann/internal/store"
	"github.com/shanehull/psxann/internal/types"
)

const DefaultWorkers = 4

type Discoverer interface {
	Discover(ctx context.Context, q psx.Query, known func(string) bool) []types.Announcement
}

type Fallback interface {
	Fetch(ctx context.Context, q sarmaaya.Query) ([]types.Announcement, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) []byte
}

type Extractor interface {
	Extract(ctx context.Context, data []byte) string
}

// Pipeline runs one batch. Discoverer and Fallback are optional; with neither
// the run discovers nothing.
type Pipeline struct {
	Discoverer Discoverer
	Fallback   Fallback
	Fetcher    Fetcher
	Extractor  Extractor
	Merger     *store.Merger
	Workers    int
	TextLimit  int
}

// Report describes a finished run. Announcements holds the newly processed
// announcements in discovery order.
type Report struct {
	Query         psx.Query
	Source        string
	Discovered    int
	Skipped       int
	Added         int
	Announcements []types.Announcement
}

func (p *Pipeline) Run(ctx context.Context, q psx.Query) (Report, error) {
	report := Report{Query: q}

	known, err := p.Merger.Known(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to load store: %w", err)
	}

	announcements, source := p.discover(ctx, q, known)
	report.Source = source
	report.Discovered = len(announcements)

	var pending []types.Announcement
	for _, a := range announcements {
		if a.AttachmentURL != "" && known[a.AttachmentURL] {
			report.Skipped++
			continue
		}
		pending = append(pending, a)
	}
	slog.Info("Announcements to process", "pending", len(pending), "skipped", report.Skipped)

	processed := p.process(ctx, pending)
	if err := ctx.Err(); err != nil {
		return report, err
	}

	records := make([]store.Record, len(processed))
	for i, a := range processed {
		records[i] = store.FromAnnouncement(a, p.TextLimit)
	}

	added, err := p.Merger.Merge(ctx, records)
	if err != nil {
		return report, fmt.Errorf("failed to merge announcements: %w", err)
	}
	report.Added = added
	report.Announcements = processed

	slog.Info("Run finished", "source", source, "discovered", report.Discovered, "added", added)
	return report, nil
}

// discover reads the listing and falls back to the API when it yields nothing.
func (p *Pipeline) discover(ctx context.Context, q psx.Query, known map[string]bool) ([]types.Announcement, string) {
	if p.Discoverer != nil {
		isKnown := func(u string) bool { return known[u] }
		if found := p.Discoverer.Discover(ctx, q, isKnown); len(found) > 0 {
			return found, types.SourcePSX
		}
		slog.Warn("Listing returned no announcements, trying fallback source")
	}

	if p.Fallback == nil || ctx.Err() != nil {
		return nil, ""
	}

	found, err := p.Fallback.Fetch(ctx, sarmaaya.Query{Ticker: q.Ticker, Days: q.Days})
	if err != nil {
		slog.Warn("Fallback source failed", "err", err)
		return nil, types.SourceSarmaaya
	}
	if q.MaxItems > 0 && len(found) > q.MaxItems {
		found = found[:q.MaxItems]
	}
	return found, types.SourceSarmaaya
}

// process fetches, extracts and scores each announcement with bounded
// concurrency. Results keep the input order.
func (p *Pipeline) process(ctx context.Context, announcements []types.Announcement) []types.Announcement {
	workers := p.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	out := make([]types.Announcement, len(announcements))
	done := make([]bool, len(announcements))

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	total := len(announcements)
	processedCount := 0
	var processedMutex sync.Mutex

	for i, ann := range announcements {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(i int, a types.Announcement) {
			defer wg.Done()
			defer func() { <-sem }()

			processedMutex.Lock()
			processedCount++
			slog.Info("Processing announcement", "n", processedCount, "total", total, "ticker", a.Ticker)
			processedMutex.Unlock()

			out[i] = p.processOne(ctx, a)
			done[i] = true
		}(i, ann)
	}
	wg.Wait()

	results := make([]types.Announcement, 0, len(out))
	for i, a := range out {
		if done[i] {
			results = append(results, a)
		}
	}
	return results
}

func (p *Pipeline) processOne(ctx context.Context, a types.Announcement) types.Announcement {
	if a.AttachmentURL != "" && p.Fetcher != nil {
		if data := p.Fetcher.Fetch(ctx, a.AttachmentURL); data != nil && p.Extractor != nil {
			a.ExtractedText = p.Extractor.Extract(ctx, data)
		}
	}
	if a.ExtractedText == "" {
		slog.Debug("No text recovered", "ticker", a.Ticker, "title", a.Title)
	}

	s := sentiment.Analyze(strings.TrimSpace(a.Title + " " + a.ExtractedText))
	a.Sentiment = &s
	return a
}
