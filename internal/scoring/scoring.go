// Package scoring turns aggregated player metrics into a suspicion score by
// running a fixed table of weighted threshold rules.
package scoring

import (
	"fmt"
	"math"

	"github.com/pable/susscan/internal/config"
	"github.com/pable/susscan/internal/model"
)

// Rule is one weighted check. Check returns the reason text and whether the
// rule fired.
type Rule struct {
	Name   string
	Points float64
	Check  func(m *model.PlayerMetrics, t config.ThresholdConfig) (string, bool)
}

// Rules is the evaluation order. Every rule is evaluated; reasons are appended
// in this order.
var Rules = []Rule{
	{Name: "elo_ratio", Points: 2.0, Check: eloRatio},
	{Name: "elo_ratio_gap", Points: 2.2, Check: eloRatioGap},
	{Name: "sandbagging", Points: 1.5, Check: sandbagging},
	{Name: "win_streak", Points: 1.0, Check: winStreak},
	{Name: "upsets", Points: 1.0, Check: upsets},
	{Name: "short_wins", Points: 0.7, Check: shortWins},
}

// Scorer applies Rules with a fixed set of thresholds.
type Scorer struct {
	thresholds config.ThresholdConfig
}

// New returns a Scorer using t.
func New(t config.ThresholdConfig) *Scorer {
	return &Scorer{thresholds: t}
}

// Score resets and fills m.Reasons and m.SuspicionScore. The score is the sum
// of the fired rules' points rounded to two decimals.
func (s *Scorer) Score(m *model.PlayerMetrics) {
	reasons := []string{}
	var total float64
	for _, r := range Rules {
		reason, ok := r.Check(m, s.thresholds)
		if !ok {
			continue
		}
		total += r.Points
		reasons = append(reasons, reason)
	}
	m.Reasons = reasons
	m.SuspicionScore = round2(total)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// tolerance absorbs float noise in rate differences such as 0.7-0.5.
const tolerance = 1e-9

func atLeast(v, threshold float64) bool {
	return v >= threshold-tolerance
}

func eloRatio(m *model.PlayerMetrics, t config.ThresholdConfig) (string, bool) {
	if m.LifetimeGames < t.EloMinGames || !atLeast(m.Elo.Ratio, t.EloRatio) {
		return "", false
	}
	return fmt.Sprintf("results beat rating expectation: gain/loss %.2f over %d rated games",
		m.Elo.Ratio, m.LifetimeGames), true
}

func eloRatioGap(m *model.PlayerMetrics, t config.ThresholdConfig) (string, bool) {
	if m.TournGames < t.EloGapMinTourn || m.NonTournGames < t.EloGapMinNonTourn {
		return "", false
	}
	if !atLeast(m.EloRatioGap, t.EloRatioGap) {
		return "", false
	}
	return fmt.Sprintf("over-performance concentrated in tournaments: gain/loss %.2f vs %.2f outside (gap %.2f)",
		m.EloTourn.Ratio, m.EloNonTourn.Ratio, m.EloRatioGap), true
}

func sandbagging(m *model.PlayerMetrics, t config.ThresholdConfig) (string, bool) {
	if m.NonTournLosses < t.SandbagMinLosses || !atLeast(m.NonTournBailLossRate, t.SandbagBailRate) {
		return "", false
	}
	exceeds := atLeast(m.NonTournBailLossRate-m.TournBailLossRate, t.SandbagMargin)
	if !exceeds && m.TournLosses >= t.SandbagMinTournLosses {
		return "", false
	}
	return fmt.Sprintf("%d of %d non-tournament losses were resignations, timeouts or abandons (%.0f%%, tournament %.0f%%)",
		m.NonTournBailLosses, m.NonTournLosses, m.NonTournBailLossRate*100, m.TournBailLossRate*100), true
}

func winStreak(m *model.PlayerMetrics, t config.ThresholdConfig) (string, bool) {
	if m.CurrentWinStreak < t.StreakLength {
		return "", false
	}
	return fmt.Sprintf("active win streak of %d", m.CurrentWinStreak), true
}

func upsets(m *model.PlayerMetrics, t config.ThresholdConfig) (string, bool) {
	if m.UpsetWins < t.UpsetCount {
		return "", false
	}
	return fmt.Sprintf("%d wins against opponents rated %d+ higher", m.UpsetWins, t.UpsetMargin), true
}

func shortWins(m *model.PlayerMetrics, t config.ThresholdConfig) (string, bool) {
	if m.LifetimeWins < t.ShortMinWins || !atLeast(m.ShortWinRate, t.ShortWinRate) {
		return "", false
	}
	return fmt.Sprintf("%.0f%% of %d wins took %d plies or fewer",
		m.ShortWinRate*100, m.LifetimeWins, t.ShortGamePlies), true
}
