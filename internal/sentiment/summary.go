package sentiment

import (
	"math"
	"strings"

	"github.com/jonreiter/govader"

	"github.com/shanehull/psxann/internal/types"
)

const (
	overallThreshold = 20.0
	maxTopSignals    = 10
)

var analyzer = govader.NewSentimentIntensityAnalyzer()

// Entry is one scored announcement of a ticker.
type Entry struct {
	Title     string
	Sentiment types.Sentiment
}

// Summary aggregates the keyword scores of one ticker. Tone is the mean VADER
// compound score of the titles, in [-1, 1].
type Summary struct {
	Ticker     string   `json:"ticker"`
	Count      int      `json:"announcement_count"`
	Total      int      `json:"total_score"`
	Average    float64  `json:"average_score"`
	Overall    string   `json:"overall_sentiment"`
	TopSignals []string `json:"top_signals"`
	Tone       float64  `json:"tone"`
}

func Summarize(ticker string, entries []Entry) Summary {
	s := Summary{
		Ticker:     strings.ToUpper(strings.TrimSpace(ticker)),
		Count:      len(entries),
		Overall:    "neutral",
		TopSignals: []string{},
	}
	if len(entries) == 0 {
		return s
	}

	seen := make(map[string]bool)
	var tone float64
	for _, e := range entries {
		s.Total += e.Sentiment.Score
		for _, sig := range e.Sentiment.Signals {
			if !seen[sig] && len(s.TopSignals) < maxTopSignals {
				seen[sig] = true
				s.TopSignals = append(s.TopSignals, sig)
			}
		}
		tone += analyzer.PolarityScores(e.Title).Compound
	}

	avg := float64(s.Total) / float64(s.Count)
	s.Average = math.Round(avg*10) / 10
	s.Tone = math.Round(tone/float64(s.Count)*1000) / 1000

	switch {
	case avg >= overallThreshold:
		s.Overall = "bullish"
	case avg <= -overallThreshold:
		s.Overall = "bearish"
	}
	return s
}
