package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/shanehull/psxann/internal/types"
)

// Columns is the persisted CSV header, in order.
var Columns = []string{
	"ticker",
	"title",
	"date",
	"pdf_url",
	"extracted_text",
	"sentiment_score",
	"sentiment_impact",
	"sentiment_signals",
}

// CSVStore keeps records in an append-only CSV file.
type CSVStore struct {
	path  string
	mutex sync.Mutex
}

func NewCSVStore(path string) (*CSVStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory %s: %w", dir, err)
		}
	}
	return &CSVStore{path: path}, nil
}

func (s *CSVStore) Path() string {
	return s.path
}

func (s *CSVStore) Load(ctx context.Context) ([]Record, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("Store file not found, starting empty", "path", s.path)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open store %s: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	var records []Record
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read store row: %w", err)
		}

		get := func(col string) string {
			if i, ok := index[col]; ok && i < len(row) {
				return row[i]
			}
			return ""
		}
		records = append(records, Normalize(Record{
			Ticker:           get("ticker"),
			Title:            get("title"),
			Date:             get("date"),
			PDFURL:           get("pdf_url"),
			ExtractedText:    get("extracted_text"),
			SentimentScore:   parseScore(get("sentiment_score")),
			SentimentImpact:  types.Impact(get("sentiment_impact")),
			SentimentSignals: get("sentiment_signals"),
		}))
	}
	return records, nil
}

func (s *CSVStore) Append(ctx context.Context, records []Record) (err error) {
	if len(records) == 0 {
		return nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open store %s: %w", s.path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close store %s: %w", s.path, closeErr)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat store %s: %w", s.path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Columns); err != nil {
			return fmt.Errorf("failed to write store header: %w", err)
		}
	}
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.Write([]string{
			r.Ticker,
			r.Title,
			r.Date,
			r.PDFURL,
			r.ExtractedText,
			strconv.Itoa(r.SentimentScore),
			string(r.SentimentImpact),
			r.SentimentSignals,
		}); err != nil {
			return fmt.Errorf("failed to write store row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush store: %w", err)
	}

	slog.Debug("Appended records to store", "path", s.path, "count", len(records))
	return nil
}

// parseScore accepts integer or float text. Anything else, including
// non-finite and out-of-range values, is 0.
func parseScore(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f >= math.MaxInt || f < math.MinInt {
		return 0
	}
	return int(f)
}
