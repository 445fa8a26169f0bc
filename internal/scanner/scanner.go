// Package scanner runs the full analysis pipeline for one player or a batch of
// players: fetch, extract, aggregate, account, score.
package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pable/susscan/internal/aggregator"
	"github.com/pable/susscan/internal/config"
	"github.com/pable/susscan/internal/elo"
	"github.com/pable/susscan/internal/extract"
	"github.com/pable/susscan/internal/model"
	"github.com/pable/susscan/internal/scoring"
)

// ErrEmptyUsername is returned before any network access when the username is
// blank after trimming.
var ErrEmptyUsername = errors.New("username is required")

// Fetcher returns the raw game records of a player over the last months
// calendar months.
type Fetcher interface {
	FetchGames(ctx context.Context, username string, months int) ([]json.RawMessage, error)
}

// Scanner wires the pipeline stages together. It holds no per-player state
// and is safe for concurrent use.
type Scanner struct {
	fetch       Fetcher
	extractor   *extract.Extractor
	scorer      *scoring.Scorer
	aggOpts     aggregator.Options
	lookback    int
	concurrency int
	log         zerolog.Logger
}

// New builds a Scanner from the scan and threshold sections of cfg.
func New(f Fetcher, cfg *config.Config, log zerolog.Logger) *Scanner {
	concurrency := cfg.Scan.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Scanner{
		fetch:     f,
		extractor: extract.New(cfg.Scan.GameMode),
		scorer:    scoring.New(cfg.Thresholds),
		aggOpts: aggregator.Options{
			UpsetMargin:    cfg.Thresholds.UpsetMargin,
			ShortGamePlies: cfg.Thresholds.ShortGamePlies,
		},
		lookback:    cfg.Scan.LookbackMonths,
		concurrency: concurrency,
		log:         log,
	}
}

// Analyze scores one player. A months value of zero or less uses the
// configured lookback.
func (s *Scanner) Analyze(ctx context.Context, username string, months int) (*model.PlayerMetrics, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrEmptyUsername
	}
	if months <= 0 {
		months = s.lookback
	}

	raws, err := s.fetch.FetchGames(ctx, username, months)
	if err != nil {
		return nil, fmt.Errorf("fetch games for %s: %w", username, err)
	}
	facts := s.extractor.ExtractAll(username, raws)

	m := aggregator.Aggregate(username, facts, s.aggOpts)
	elo.Account(facts, m)
	s.scorer.Score(m)

	s.log.Debug().
		Str("username", username).
		Int("records", len(raws)).
		Int("games", m.LifetimeGames).
		Float64("score", m.SuspicionScore).
		Msg("player analyzed")
	return m, nil
}

// Batch analyzes every username with the configured concurrency. A failure for
// one player is logged and that player is left out. Results are ordered by
// descending score; ties keep input order.
func (s *Scanner) Batch(ctx context.Context, usernames []string) []*model.PlayerMetrics {
	slots := make([]*model.PlayerMetrics, len(usernames))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, name := range usernames {
		g.Go(func() error {
			m, err := s.Analyze(gCtx, name, 0)
			if err != nil {
				s.log.Warn().Err(err).Str("username", name).Msg("skipping player")
				return nil
			}
			slots[i] = m
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*model.PlayerMetrics, 0, len(slots))
	for _, m := range slots {
		if m != nil {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SuspicionScore > out[j].SuspicionScore
	})
	return out
}
