package aggregator

import (
	"sort"

	"github.com/pable/susscan/internal/model"
)

// Options holds the aggregation thresholds.
type Options struct {
	// UpsetMargin is the minimum opponent rating advantage for an upset win.
	UpsetMargin int
	// ShortGamePlies is the ply count at or below which a win counts as short.
	ShortGamePlies int
}

// DefaultOptions returns the standard thresholds: a 250 point upset margin and
// 40 plies for a short game.
func DefaultOptions() Options {
	return Options{UpsetMargin: 250, ShortGamePlies: 40}
}

// split accumulates per-partition results for the tournament comparison.
type split struct {
	games, wins, draws, losses, bailLosses int
}

func (s *split) add(g model.GameFact) {
	s.games++
	switch g.Outcome {
	case model.OutcomeWin:
		s.wins++
	case model.OutcomeDraw:
		s.draws++
	case model.OutcomeLoss:
		s.losses++
		if g.BailFinish() {
			s.bailLosses++
		}
	}
}

// decisiveWinRate is wins over decisive games; draws are left out of the denominator.
func (s split) decisiveWinRate() float64 {
	return ratio(s.wins, s.games-s.draws)
}

// Aggregate folds the facts of one player into a fresh PlayerMetrics. Counts
// cover rated games with a decided outcome except for the win streak, which
// walks every timestamped game. The Elo fields, reasons and score are left
// for the accountant and the scorer.
func Aggregate(username string, facts []model.GameFact, opts Options) *model.PlayerMetrics {
	m := model.NewPlayerMetrics(username)
	m.GamesFetched = len(facts)

	var tourn, nonTourn split
	var wins, draws, losses int
	for _, g := range facts {
		if !g.Rated || g.Outcome == model.OutcomeUnknown {
			continue
		}
		switch g.Outcome {
		case model.OutcomeWin:
			wins++
			if isUpset(g, opts.UpsetMargin) {
				m.UpsetWins++
			}
			if g.Plies != nil && *g.Plies <= opts.ShortGamePlies {
				m.ShortWins++
			}
			if g.BailFinish() {
				m.BailWins++
			}
		case model.OutcomeDraw:
			draws++
		case model.OutcomeLoss:
			losses++
		}
		if g.Tournament {
			tourn.add(g)
		} else {
			nonTourn.add(g)
		}
	}

	games := wins + draws + losses
	m.LifetimeGames, m.LifetimeWins, m.LifetimeDraws, m.LifetimeLosses = games, wins, draws, losses
	m.LifetimeWinRate = ratio(wins, games)

	// The recent window is the lookback window itself.
	m.RecentGames, m.RecentWins, m.RecentDraws, m.RecentLosses = games, wins, draws, losses
	m.RecentWinRate = m.LifetimeWinRate

	m.ShortWinRate = ratio(m.ShortWins, wins)
	m.BailWinRatio = ratio(m.BailWins, wins)

	m.TournGames, m.TournWins, m.TournDraws, m.TournLosses = tourn.games, tourn.wins, tourn.draws, tourn.losses
	m.TournWinRate = tourn.decisiveWinRate()
	m.TournBailLosses = tourn.bailLosses
	m.TournBailLossRate = ratio(tourn.bailLosses, tourn.losses)

	m.NonTournGames, m.NonTournWins, m.NonTournDraws, m.NonTournLosses = nonTourn.games, nonTourn.wins, nonTourn.draws, nonTourn.losses
	m.NonTournWinRate = nonTourn.decisiveWinRate()
	m.NonTournBailLosses = nonTourn.bailLosses
	m.NonTournBailLossRate = ratio(nonTourn.bailLosses, nonTourn.losses)

	m.WinRateGap = m.TournWinRate - m.NonTournWinRate

	m.CurrentWinStreak, m.MaxWinStreak = WinStreaks(facts)
	return m
}

// WinStreaks orders timestamped games by end time and returns the win streak
// still running after the last game and the longest streak seen.
func WinStreaks(facts []model.GameFact) (current, longest int) {
	timed := make([]model.GameFact, 0, len(facts))
	for _, g := range facts {
		if g.EndTime != nil {
			timed = append(timed, g)
		}
	}
	sort.SliceStable(timed, func(i, j int) bool {
		return *timed[i].EndTime < *timed[j].EndTime
	})

	for _, g := range timed {
		if g.Win() {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 0
		}
	}
	return current, longest
}

// isUpset reports a win over an opponent rated at least margin higher that was
// not decided by resignation, timeout or abandonment.
func isUpset(g model.GameFact, margin int) bool {
	if !g.RatingsKnown() || g.BailFinish() {
		return false
	}
	return *g.OpponentRating-*g.MyRating >= margin
}

// ratio divides n by d, substituting 1 for a zero denominator.
func ratio(n, d int) float64 {
	if d <= 0 {
		d = 1
	}
	return float64(n) / float64(d)
}
