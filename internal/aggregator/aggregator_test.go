package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/susscan/internal/model"
)

// fact is a small builder for rated games; options mutate the result.
func fact(outcome model.Outcome, opts ...func(*model.GameFact)) model.GameFact {
	g := model.GameFact{Outcome: outcome, Rated: true}
	for _, o := range opts {
		o(&g)
	}
	return g
}

func ratings(mine, theirs int) func(*model.GameFact) {
	return func(g *model.GameFact) { g.MyRating, g.OpponentRating = &mine, &theirs }
}

func plies(n int) func(*model.GameFact) {
	return func(g *model.GameFact) { g.Plies = &n }
}

func at(ts int64) func(*model.GameFact) {
	return func(g *model.GameFact) { g.EndTime = &ts }
}

func term(s string) func(*model.GameFact) {
	return func(g *model.GameFact) { g.Termination = s }
}

func inTournament(g *model.GameFact) { g.Tournament = true }
func unrated(g *model.GameFact)      { g.Rated = false }

// sequence builds timestamped games in the given chronological order.
func sequence(outcomes ...model.Outcome) []model.GameFact {
	facts := make([]model.GameFact, len(outcomes))
	for i, o := range outcomes {
		facts[i] = fact(o, at(int64(1000+i)))
	}
	return facts
}

const (
	W = model.OutcomeWin
	D = model.OutcomeDraw
	L = model.OutcomeLoss
)

func TestAggregate_Empty(t *testing.T) {
	m := Aggregate("nobody", nil, DefaultOptions())
	assert.Equal(t, "nobody", m.Username)
	assert.Zero(t, m.LifetimeGames)
	assert.Zero(t, m.CurrentWinStreak)
	assert.Zero(t, m.TournWinRate)
	assert.Empty(t, m.Reasons)
}

func TestAggregate_TalliesBalance(t *testing.T) {
	facts := []model.GameFact{
		fact(W), fact(W), fact(D), fact(L),
		fact(W, inTournament), fact(L, inTournament),
		fact(W, unrated),           // excluded from tallies
		fact(model.OutcomeUnknown), // excluded from tallies
	}
	m := Aggregate("p", facts, DefaultOptions())

	assert.Equal(t, 8, m.GamesFetched)
	assert.Equal(t, 6, m.LifetimeGames)
	assert.Equal(t, m.LifetimeGames, m.LifetimeWins+m.LifetimeDraws+m.LifetimeLosses)
	assert.Equal(t, m.LifetimeGames, m.TournGames+m.NonTournGames)
	assert.Equal(t, m.LifetimeGames, m.RecentGames)
	assert.Equal(t, m.LifetimeWins, m.RecentWins)
	assert.InDelta(t, 0.5, m.LifetimeWinRate, 1e-12)
}

// Trailing non-win resets the current streak but not the longest.
func TestWinStreaks(t *testing.T) {
	cur, longest := WinStreaks(sequence(W, W, L, W, W, W))
	assert.Equal(t, 3, cur)
	assert.Equal(t, 3, longest)

	cur, longest = WinStreaks(sequence(W, W, L, W, W, W, L))
	assert.Equal(t, 0, cur)
	assert.Equal(t, 3, longest)

	cur, _ = WinStreaks(sequence(W, W, L, W, W, W, D))
	assert.Equal(t, 0, cur, "a draw breaks the streak")
}

func TestWinStreaks_SortsByEndTimeAndIgnoresUntimed(t *testing.T) {
	facts := []model.GameFact{
		fact(W, at(30)),
		fact(L, at(10)),
		fact(W, at(20)),
		fact(L), // no timestamp: not part of the walk
	}
	cur, longest := WinStreaks(facts)
	assert.Equal(t, 2, cur)
	assert.Equal(t, 2, longest)
}

func TestWinStreaks_IncludesUnratedGames(t *testing.T) {
	facts := []model.GameFact{fact(W, at(1)), fact(W, at(2), unrated)}
	cur, _ := WinStreaks(facts)
	assert.Equal(t, 2, cur)
}

func TestAggregate_UpsetWins(t *testing.T) {
	facts := []model.GameFact{
		// exactly at the margin
		fact(W, ratings(1500, 1750)),
		// one point short
		fact(W, ratings(1500, 1749)),
		// bail finishes never count
		fact(W, ratings(1500, 1900), term("won by resignation")),
		fact(W, ratings(1500, 2000), unrated),
		fact(L, ratings(1500, 2000)),
		// ratings unknown
		fact(W),
	}
	m := Aggregate("p", facts, DefaultOptions())
	assert.Equal(t, 1, m.UpsetWins)
}

func TestAggregate_ShortWinsTreatUnknownAsLong(t *testing.T) {
	facts := []model.GameFact{
		fact(W, plies(40)),
		fact(W, plies(41)),
		fact(W), // unknown ply count is never short
		fact(W, plies(12)),
		fact(L, plies(10)),
	}
	m := Aggregate("p", facts, DefaultOptions())
	assert.Equal(t, 2, m.ShortWins)
	assert.InDelta(t, 0.5, m.ShortWinRate, 1e-12)
}

func TestAggregate_BailWinRatio(t *testing.T) {
	facts := []model.GameFact{
		fact(W, term("won on time")),
		fact(W, term("won - game abandoned")),
		fact(W, term("won by timeout")),
		fact(W, term("won by checkmate")),
	}
	m := Aggregate("p", facts, DefaultOptions())
	assert.Equal(t, 2, m.BailWins)
	assert.InDelta(t, 0.5, m.BailWinRatio, 1e-12)
}

func TestAggregate_TournamentSplit(t *testing.T) {
	facts := []model.GameFact{
		fact(W, inTournament), fact(W, inTournament), fact(W, inTournament),
		fact(D, inTournament), fact(L, inTournament),
		fact(W), fact(L, term("resigned")), fact(L, term("resigned")), fact(L),
	}
	m := Aggregate("p", facts, DefaultOptions())

	assert.Equal(t, 5, m.TournGames)
	assert.Equal(t, 1, m.TournDraws)
	// 3 wins over 4 decisive games
	assert.InDelta(t, 0.75, m.TournWinRate, 1e-12)

	assert.Equal(t, 4, m.NonTournGames)
	assert.Equal(t, 3, m.NonTournLosses)
	assert.InDelta(t, 0.25, m.NonTournWinRate, 1e-12)
	assert.Equal(t, 2, m.NonTournBailLosses)
	assert.InDelta(t, 2.0/3.0, m.NonTournBailLossRate, 1e-12)
	assert.Zero(t, m.TournBailLosses)

	assert.InDelta(t, 0.5, m.WinRateGap, 1e-12)
}

func TestAggregate_AllDrawsGuardDenominator(t *testing.T) {
	m := Aggregate("p", []model.GameFact{fact(D, inTournament), fact(D, inTournament)}, DefaultOptions())
	assert.Zero(t, m.TournWinRate)
}

func TestAggregate_RatiosWithinUnitInterval(t *testing.T) {
	facts := []model.GameFact{
		fact(W, plies(10), term("resignation"), ratings(1000, 2000)),
		fact(W, plies(10), ratings(1000, 2000), inTournament),
		fact(L, term("timeout")),
		fact(L, term("timeout"), inTournament),
		fact(D),
	}
	m := Aggregate("p", facts, DefaultOptions())
	for name, v := range map[string]float64{
		"lifetime":      m.LifetimeWinRate,
		"recent":        m.RecentWinRate,
		"short":         m.ShortWinRate,
		"bail wins":     m.BailWinRatio,
		"tourn":         m.TournWinRate,
		"non tourn":     m.NonTournWinRate,
		"tourn bail":    m.TournBailLossRate,
		"nontourn bail": m.NonTournBailLossRate,
	} {
		assert.GreaterOrEqual(t, v, 0.0, name)
		assert.LessOrEqual(t, v, 1.0, name)
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	facts := append(sequence(W, L, W, W), fact(W, ratings(1200, 1600), plies(30), inTournament))
	a := Aggregate("p", facts, DefaultOptions())
	b := Aggregate("p", facts, DefaultOptions())
	require.Equal(t, a, b)
}
