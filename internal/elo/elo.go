// Package elo accounts for how far a player's results deviate from what the
// logistic rating model expects.
package elo

import (
	"math"

	"github.com/pable/susscan/internal/model"
)

// epsilon guards the gain/loss ratio against a zero loss sum.
const epsilon = 1e-9

// ExpectedScore returns the probability-weighted score the model predicts for a
// player rated mine against an opponent rated theirs.
func ExpectedScore(mine, theirs float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (theirs-mine)/400.0))
}

// Accumulator sums positive and negative deviations from expectation.
type Accumulator struct {
	games int
	gain  float64
	loss  float64
}

// Add records one game. Games without both ratings or without a decided
// outcome are skipped and reported as false.
func (a *Accumulator) Add(g model.GameFact) bool {
	if !g.RatingsKnown() || g.Outcome == model.OutcomeUnknown {
		return false
	}
	dev := g.Outcome.Score() - ExpectedScore(float64(*g.MyRating), float64(*g.OpponentRating))
	if dev > 0 {
		a.gain += dev
	} else {
		a.loss += -dev
	}
	a.games++
	return true
}

// Ratio returns gain / max(loss, epsilon), or 0 when no game was recorded.
func (a *Accumulator) Ratio() float64 {
	if a.games == 0 {
		return 0
	}
	return a.gain / math.Max(a.loss, epsilon)
}

// Segment exports the accumulated state.
func (a *Accumulator) Segment() model.EloSegment {
	return model.EloSegment{Games: a.games, Gain: a.gain, Loss: a.loss, Ratio: a.Ratio()}
}

// Account fills the three Elo segments and the ratio gap of m from the rated
// games in facts.
func Account(facts []model.GameFact, m *model.PlayerMetrics) {
	var overall, tourn, nonTourn Accumulator
	for _, g := range facts {
		if !g.Rated {
			continue
		}
		if !overall.Add(g) {
			continue
		}
		if g.Tournament {
			tourn.Add(g)
		} else {
			nonTourn.Add(g)
		}
	}
	m.Elo = overall.Segment()
	m.EloTourn = tourn.Segment()
	m.EloNonTourn = nonTourn.Segment()
	m.EloRatioGap = m.EloTourn.Ratio - m.EloNonTourn.Ratio
}
