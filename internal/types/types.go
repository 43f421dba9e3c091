package types

import (
	"time"
)

// Impact is the market impact label derived from a sentiment score.
type Impact string

const (
	ImpactStrongBullish Impact = "strong_bullish"
	ImpactBullish       Impact = "bullish"
	ImpactNeutral       Impact = "neutral"
	ImpactBearish       Impact = "bearish"
	ImpactStrongBearish Impact = "strong_bearish"
)

// Sentiment is the keyword score for an announcement. Signals holds at most five labels.
type Sentiment struct {
	Score   int      `json:"score"`
	Impact  Impact   `json:"impact"`
	Signals []string `json:"signals"`
}

// Announcement is one disclosure event. An empty AttachmentURL means the
// announcement has no attachment.
type Announcement struct {
	Ticker        string
	Title         string
	Company       string
	PublishedRaw  string
	PublishedAt   time.Time
	AttachmentURL string
	PeriodEnded   string
	Source        string
	ExtractedText string
	Sentiment     *Sentiment
}

const (
	SourcePSX      = "psx"
	SourceSarmaaya = "sarmaaya"
)
