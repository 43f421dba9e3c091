package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/shanehull/psxann/internal/config"
	"github.com/shanehull/psxann/internal/notify"
	"github.com/shanehull/psxann/internal/sentiment"
	"github.com/shanehull/psxann/internal/store"
	"github.com/shanehull/psxann/internal/types"
)

func summarize(ctx context.Context, opts config.SummaryOptions, s store.Store) error {
	records, err := s.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load store: %w", err)
	}

	notify.ReportSummary(os.Stdout, sentiment.Summarize(opts.Ticker, entriesFor(opts.Ticker, records)))
	return nil
}

func entriesFor(ticker string, records []store.Record) []sentiment.Entry {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	var entries []sentiment.Entry
	for _, r := range records {
		if strings.ToUpper(r.Ticker) != ticker {
			continue
		}
		entries = append(entries, sentiment.Entry{
			Title: r.Title,
			Sentiment: types.Sentiment{
				Score:   r.SentimentScore,
				Impact:  r.SentimentImpact,
				Signals: r.Signals(),
			},
		})
	}
	return entries
}
