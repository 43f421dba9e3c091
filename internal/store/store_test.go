package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shanehull/psxann/internal/types"
)

type memoryStore struct {
	records []Record
	loadErr error
	appends int
}

func (m *memoryStore) Load(context.Context) ([]Record, error) {
	return append([]Record(nil), m.records...), m.loadErr
}

func (m *memoryStore) Append(_ context.Context, records []Record) error {
	m.appends++
	m.records = append(m.records, records...)
	return nil
}

func rec(url, title string) Record {
	return Record{Ticker: "LUCK", Title: title, PDFURL: url}
}

func TestNovel(t *testing.T) {
	existing := []Record{rec("https://dps.psx.com.pk/download/document/1.pdf", "a"), rec("", "no attachment")}

	batch := []Record{
		rec("https://dps.psx.com.pk/download/document/1.pdf", "already stored"),
		rec("https://dps.psx.com.pk/download/document/2.pdf", "new"),
		rec("https://dps.psx.com.pk/download/document/2.pdf", "duplicate in batch"),
		rec("", "no attachment"),
	}

	got := Novel(existing, batch)

	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].Title)
	assert.Equal(t, "no attachment", got[1].Title)
}

func TestNormalize(t *testing.T) {
	got := Normalize(Record{Ticker: " luck ", PDFURL: " https://x/1.pdf "})

	assert.Equal(t, "LUCK", got.Ticker)
	assert.Equal(t, "https://x/1.pdf", got.PDFURL)
	assert.Equal(t, types.ImpactNeutral, got.SentimentImpact)
	assert.Zero(t, got.SentimentScore)
	assert.Empty(t, got.ExtractedText)
	assert.Empty(t, got.SentimentSignals)
}

func TestFromAnnouncement(t *testing.T) {
	a := types.Announcement{
		Ticker:        "LUCK",
		Title:         "Final Cash Dividend",
		PublishedRaw:  "Oct 14, 2026 3:45 PM",
		AttachmentURL: "https://dps.psx.com.pk/download/document/1.pdf",
		ExtractedText: "Déclaration of dividend",
		Sentiment: &types.Sentiment{
			Score:   40,
			Impact:  types.ImpactStrongBullish,
			Signals: []string{"Final Dividend", "Profit"},
		},
	}

	r := FromAnnouncement(a, 0)
	assert.Equal(t, Record{
		Ticker:           "LUCK",
		Title:            "Final Cash Dividend",
		Date:             "Oct 14, 2026 3:45 PM",
		PDFURL:           "https://dps.psx.com.pk/download/document/1.pdf",
		ExtractedText:    "Déclaration of dividend",
		SentimentScore:   40,
		SentimentImpact:  types.ImpactStrongBullish,
		SentimentSignals: "Final Dividend, Profit",
	}, r)
	assert.Equal(t, []string{"Final Dividend", "Profit"}, r.Signals())

	// "D" is one byte, "é" two; a limit of 2 must not split the rune.
	assert.Equal(t, "D", FromAnnouncement(a, 2).ExtractedText)
	assert.Equal(t, "Dé", FromAnnouncement(a, 3).ExtractedText)

	bare := FromAnnouncement(types.Announcement{Ticker: "OGDC"}, 0)
	assert.Empty(t, bare.SentimentSignals)
	assert.Equal(t, []string{}, bare.Signals())
}

func TestMerger_MergeIsIdempotent(t *testing.T) {
	s := &memoryStore{}
	m := NewMerger(s)
	batch := []Record{
		rec("https://dps.psx.com.pk/download/document/1.pdf", "one"),
		rec("https://dps.psx.com.pk/download/document/2.pdf", "two"),
	}

	added, err := m.Merge(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = m.Merge(context.Background(), batch)
	require.NoError(t, err)
	assert.Zero(t, added)
	assert.Len(t, s.records, 2)
	assert.Equal(t, 1, s.appends)

	known, err := m.Known(context.Background())
	require.NoError(t, err)
	assert.True(t, known["https://dps.psx.com.pk/download/document/2.pdf"])
}

func TestMerger_NormalizesBeforeDedup(t *testing.T) {
	s := &memoryStore{records: []Record{rec("https://dps.psx.com.pk/download/document/1.pdf", "one")}}

	added, err := NewMerger(s).Merge(context.Background(), []Record{
		{Ticker: "luck", PDFURL: " https://dps.psx.com.pk/download/document/1.pdf"},
		{Ticker: "luck", PDFURL: "https://dps.psx.com.pk/download/document/3.pdf"},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, "LUCK", s.records[1].Ticker)
	assert.Equal(t, types.ImpactNeutral, s.records[1].SentimentImpact)
}

func TestMerger_LoadFailure(t *testing.T) {
	s := &memoryStore{loadErr: errors.New("disk gone")}

	added, err := NewMerger(s).Merge(context.Background(), []Record{rec("", "x")})

	assert.Error(t, err)
	assert.Zero(t, added)
	assert.Zero(t, s.appends)
}

func TestMerger_ConcurrentMergesDoNotDuplicate(t *testing.T) {
	s, err := NewCSVStore(filepath.Join(t.TempDir(), "announcements.csv"))
	require.NoError(t, err)
	m := NewMerger(s)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Merge(context.Background(), []Record{
				rec("https://dps.psx.com.pk/download/document/7.pdf", "seven"),
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	records, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
