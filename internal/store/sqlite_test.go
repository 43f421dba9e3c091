package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shanehull/psxann/internal/types"
)

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "announcements.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)

	ctx := context.Background()
	records := []Record{
		{
			Ticker:           "LUCK",
			Title:            "Final Cash Dividend",
			Date:             "Oct 14, 2026 3:45 PM",
			PDFURL:           "https://dps.psx.com.pk/download/document/1.pdf",
			ExtractedText:    "dividend text",
			SentimentScore:   25,
			SentimentImpact:  types.ImpactBullish,
			SentimentSignals: "Final Dividend",
		},
		{Ticker: "OGDC", Title: "No attachment", SentimentImpact: types.ImpactNeutral},
	}
	require.NoError(t, s.Append(ctx, records))

	// The unique index ignores a repeated URL even without the merger.
	require.NoError(t, s.Append(ctx, records[:1]))
	require.NoError(t, s.Append(ctx, records[1:]))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, records[0], got[0])
	assert.Equal(t, records[1], got[1])
	assert.Equal(t, records[1], got[2])
	require.NoError(t, s.Close())

	// Reopening applies no migrations and keeps the data.
	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	added, err := NewMerger(s).Merge(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
}
