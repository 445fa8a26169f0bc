package model

import (
	"strings"
	"time"
)

// Outcome is the result of a game from the subject player's point of view.
type Outcome int

const (
	OutcomeUnknown Outcome = 0
	OutcomeWin     Outcome = 1
	OutcomeDraw    Outcome = 2
	OutcomeLoss    Outcome = 3
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "W"
	case OutcomeDraw:
		return "D"
	case OutcomeLoss:
		return "L"
	default:
		return "?"
	}
}

// Score returns the actual score used for rating expectation: 1, 0.5 or 0.
func (o Outcome) Score() float64 {
	switch o {
	case OutcomeWin:
		return 1.0
	case OutcomeDraw:
		return 0.5
	default:
		return 0.0
	}
}

// Side is the colour the subject played.
type Side int

const (
	SideUnknown Side = 0
	SideWhite   Side = 1
	SideBlack   Side = 2
)

// OutcomeFor maps a PGN Result tag and the subject's side to an Outcome.
// Anything other than "1-0", "0-1" or "1/2-1/2" yields OutcomeUnknown.
func OutcomeFor(result string, side Side) Outcome {
	switch {
	case result == "1/2-1/2" && side != SideUnknown:
		return OutcomeDraw
	case result == "1-0" && side == SideWhite, result == "0-1" && side == SideBlack:
		return OutcomeWin
	case result == "1-0" && side == SideBlack, result == "0-1" && side == SideWhite:
		return OutcomeLoss
	default:
		return OutcomeUnknown
	}
}

// bailMarkers are the termination substrings that mark a game as abandoned
// rather than played out.
var bailMarkers = []string{"resign", "timeout", "abandon"}

// IsBailFinish reports whether a termination reason is a resignation, timeout
// or abandonment.
func IsBailFinish(termination string) bool {
	t := strings.ToLower(termination)
	for _, m := range bailMarkers {
		if strings.Contains(t, m) {
			return true
		}
	}
	return false
}

// GameFact is the canonical, immutable summary of one completed game.
// Pointer fields are nil when the source record did not carry the value.
type GameFact struct {
	Outcome        Outcome
	MyRating       *int
	OpponentRating *int
	Plies          *int
	Termination    string // lower-cased, "" when missing
	Rated          bool
	Tournament     bool
	EndTime        *int64 // epoch seconds
}

// BailFinish reports whether the game ended by resignation, timeout or abandonment.
func (g GameFact) BailFinish() bool { return IsBailFinish(g.Termination) }

// Win, Draw and Loss are shorthands over Outcome.
func (g GameFact) Win() bool  { return g.Outcome == OutcomeWin }
func (g GameFact) Draw() bool { return g.Outcome == OutcomeDraw }
func (g GameFact) Loss() bool { return g.Outcome == OutcomeLoss }

// RatingsKnown reports whether both participants' ratings were present.
func (g GameFact) RatingsKnown() bool { return g.MyRating != nil && g.OpponentRating != nil }

// ---- Aggregated metrics ----

// PlayerMetrics is the full analysis output for one username. Everything except
// Reasons and SuspicionScore is filled by the aggregation step; those two are
// owned by the scorer.
type PlayerMetrics struct {
	Username     string `json:"username"`
	GamesFetched int    `json:"games_fetched"`

	LifetimeGames   int     `json:"lifetime_games"`
	LifetimeWins    int     `json:"lifetime_wins"`
	LifetimeDraws   int     `json:"lifetime_draws"`
	LifetimeLosses  int     `json:"lifetime_losses"`
	LifetimeWinRate float64 `json:"lifetime_win_rate"`

	// Recent currently spans the same window as Lifetime.
	RecentGames   int     `json:"recent_games"`
	RecentWins    int     `json:"recent_wins"`
	RecentDraws   int     `json:"recent_draws"`
	RecentLosses  int     `json:"recent_losses"`
	RecentWinRate float64 `json:"recent_win_rate"`

	CurrentWinStreak int `json:"current_win_streak"`
	MaxWinStreak     int `json:"max_win_streak"`

	UpsetWins    int     `json:"upset_wins"`
	ShortWins    int     `json:"short_wins"`
	ShortWinRate float64 `json:"short_win_rate"`
	BailWins     int     `json:"timeout_wins"`
	BailWinRatio float64 `json:"timeout_win_ratio"`

	TournGames        int     `json:"tourn_games"`
	TournWins         int     `json:"tourn_wins"`
	TournDraws        int     `json:"tourn_draws"`
	TournLosses       int     `json:"tourn_losses"`
	TournWinRate      float64 `json:"tourn_win_rate"`
	TournBailLosses   int     `json:"tourn_bail_losses"`
	TournBailLossRate float64 `json:"tourn_bail_loss_rate"`

	NonTournGames        int     `json:"non_tourn_games"`
	NonTournWins         int     `json:"non_tourn_wins"`
	NonTournDraws        int     `json:"non_tourn_draws"`
	NonTournLosses       int     `json:"non_tourn_losses"`
	NonTournWinRate      float64 `json:"non_tourn_win_rate"`
	NonTournBailLosses   int     `json:"non_tourn_bail_losses"`
	NonTournBailLossRate float64 `json:"non_tourn_bail_loss_rate"`

	WinRateGap float64 `json:"win_rate_gap"`

	Elo         EloSegment `json:"elo_overall"`
	EloTourn    EloSegment `json:"elo_tourn"`
	EloNonTourn EloSegment `json:"elo_non_tourn"`
	EloRatioGap float64    `json:"elo_ratio_gap"`

	SuspicionScore float64  `json:"suspicion_score"`
	Reasons        []string `json:"reasons"`
}

// EloSegment accumulates deviation from rating expectation over one game subset.
type EloSegment struct {
	Games int     `json:"games"`
	Gain  float64 `json:"gain"`
	Loss  float64 `json:"loss"`
	Ratio float64 `json:"ratio"`
}

// NewPlayerMetrics returns an empty metrics record with a non-nil reasons list.
func NewPlayerMetrics(username string) *PlayerMetrics {
	return &PlayerMetrics{Username: username, Reasons: []string{}}
}

// ScanRecord is a stored scan, as listed by the history commands.
type ScanRecord struct {
	ID        int64         `json:"id"`
	Username  string        `json:"username"`
	Score     float64       `json:"score"`
	ScannedAt time.Time     `json:"scanned_at"`
	Metrics   PlayerMetrics `json:"metrics"`
}
