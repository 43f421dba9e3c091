/*
Package sentiment scores announcement text with a weighted keyword table and
summarizes scores per ticker.
*/
package sentiment

import (
	"strings"

	"github.com/shanehull/psxann/internal/types"
)

const maxSignals = 5

type keyword struct {
	term   string
	points int
	label  string
}

// Order matters: signals are reported in table order.
var keywords = []keyword{
	{"debt free", 40, "Debt Free"},
	{"bonus issue", 30, "Bonus Issue"},
	{"special dividend", 30, "Special Dividend"},
	{"capacity expansion", 30, "Expansion"},
	{"record profit", 30, "Record Profit"},
	{"share buyback", 25, "Buyback"},
	{"final cash dividend", 25, "Final Dividend"},
	{"interim cash dividend", 20, "Interim Dividend"},
	{"contract awarded", 25, "Contract Win"},

	{"profit after tax", 15, "Profit"},
	{"earnings per share", 10, "EPS"},
	{"revenue growth", 10, "Revenue Growth"},
	{"profit increased", 15, "Profit Growth"},

	{"delisting", -40, "Delisting Risk"},
	{"default", -40, "Default"},
	{"liquidation", -35, "Liquidation"},
	{"loss after tax", -25, "Loss"},
	{"plant shutdown", -30, "Shutdown"},

	{"loss per share", -20, "Loss Per Share"},
	{"profit decreased", -20, "Profit Decline"},
	{"delay", -10, "Delay"},
	{"decline", -10, "Decline"},
}

// Analyze sums the points of every keyword found in text, case-insensitively.
// It is pure and safe for concurrent use.
func Analyze(text string) types.Sentiment {
	lower := strings.ToLower(text)

	score := 0
	signals := []string{}
	for _, k := range keywords {
		if strings.Contains(lower, k.term) {
			score += k.points
			signals = append(signals, k.label)
		}
	}
	if len(signals) > maxSignals {
		signals = signals[:maxSignals]
	}

	return types.Sentiment{
		Score:   score,
		Impact:  ImpactFor(score),
		Signals: signals,
	}
}

func ImpactFor(score int) types.Impact {
	switch {
	case score >= 30:
		return types.ImpactStrongBullish
	case score >= 15:
		return types.ImpactBullish
	case score <= -30:
		return types.ImpactStrongBearish
	case score <= -15:
		return types.ImpactBearish
	default:
		return types.ImpactNeutral
	}
}
