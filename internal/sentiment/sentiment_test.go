package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shanehull/psxann/internal/types"
)

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		score   int
		impact  types.Impact
		signals []string
	}{
		{
			name:    "empty",
			text:    "",
			score:   0,
			impact:  types.ImpactNeutral,
			signals: []string{},
		},
		{
			name:    "final dividend",
			text:    "Final Cash Dividend of Rs. 5 per share declared",
			score:   25,
			impact:  types.ImpactBullish,
			signals: []string{"Final Dividend"},
		},
		{
			name:    "loss after tax",
			text:    "Company reports loss after tax of Rs. 100 million",
			score:   -25,
			impact:  types.ImpactBearish,
			signals: []string{"Loss"},
		},
		{
			name:    "board meeting is neutral",
			text:    "Board meeting scheduled for quarterly results",
			score:   0,
			impact:  types.ImpactNeutral,
			signals: []string{},
		},
		{
			name:    "strong bullish",
			text:    "BONUS ISSUE and Profit After Tax up",
			score:   45,
			impact:  types.ImpactStrongBullish,
			signals: []string{"Bonus Issue", "Profit"},
		},
		{
			name:    "strong bearish",
			text:    "Notice of default and possible delisting",
			score:   -80,
			impact:  types.ImpactStrongBearish,
			signals: []string{"Delisting Risk", "Default"},
		},
		{
			name:    "mixed signals net out",
			text:    "Interim cash dividend announced despite a decline in sales",
			score:   10,
			impact:  types.ImpactNeutral,
			signals: []string{"Interim Dividend", "Decline"},
		},
		{
			name:   "signals are capped at five in table order",
			text:   "debt free, bonus issue, special dividend, capacity expansion, record profit, share buyback",
			score:  185,
			impact: types.ImpactStrongBullish,
			signals: []string{
				"Debt Free", "Bonus Issue", "Special Dividend", "Expansion", "Record Profit",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Analyze(tt.text)
			assert.Equal(t, types.Sentiment{Score: tt.score, Impact: tt.impact, Signals: tt.signals}, got)
		})
	}
}

func TestAnalyze_IsPure(t *testing.T) {
	text := "Profit increased; earnings per share of Rs. 12"
	assert.Equal(t, Analyze(text), Analyze(text))
}

func TestImpactFor(t *testing.T) {
	tests := []struct {
		score int
		want  types.Impact
	}{
		{30, types.ImpactStrongBullish},
		{29, types.ImpactBullish},
		{15, types.ImpactBullish},
		{14, types.ImpactNeutral},
		{-14, types.ImpactNeutral},
		{-15, types.ImpactBearish},
		{-29, types.ImpactBearish},
		{-30, types.ImpactStrongBearish},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ImpactFor(tt.score), "score %d", tt.score)
	}
}

func TestSummarize(t *testing.T) {
	entries := []Entry{
		{Title: "Final cash dividend declared", Sentiment: Analyze("final cash dividend, profit after tax")},
		{Title: "Excellent year with strong growth", Sentiment: Analyze("record profit, bonus issue")},
		{Title: "Board meeting", Sentiment: Analyze("")},
	}

	s := Summarize(" luck ", entries)

	assert.Equal(t, "LUCK", s.Ticker)
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 100, s.Total)
	assert.Equal(t, 33.3, s.Average)
	assert.Equal(t, "bullish", s.Overall)
	assert.Equal(t, []string{"Final Dividend", "Profit", "Bonus Issue", "Record Profit"}, s.TopSignals)
	assert.Greater(t, s.Tone, 0.0)
}

func TestSummarize_Bearish(t *testing.T) {
	s := Summarize("XYZ", []Entry{
		{Title: "Default on term finance certificates", Sentiment: Analyze("default")},
		{Title: "Delay in accounts", Sentiment: Analyze("delay")},
	})

	assert.Equal(t, -25.0, s.Average)
	assert.Equal(t, "bearish", s.Overall)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize("LUCK", nil)

	assert.Zero(t, s.Count)
	assert.Equal(t, "neutral", s.Overall)
	assert.Empty(t, s.TopSignals)
	assert.Zero(t, s.Tone)
}

func TestSummarize_TopSignalsAreCapped(t *testing.T) {
	var entries []Entry
	for _, k := range keywords {
		entries = append(entries, Entry{Sentiment: Analyze(k.term)})
	}

	s := Summarize("ALL", entries)

	assert.Len(t, s.TopSignals, maxTopSignals)
	assert.Equal(t, "Debt Free", s.TopSignals[0])
}
