// Package chesscom fetches a player's monthly game archives from the
// Chess.com published-data API.
package chesscom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/pable/susscan/internal/config"
)

// ErrNotFound is returned by get when the resource does not exist (HTTP 404).
var ErrNotFound = errors.New("resource not found")

// ArchiveCache stores raw monthly archive bodies keyed by URL.
type ArchiveCache interface {
	GetArchive(url string) ([]byte, bool, error)
	PutArchive(url string, body []byte) error
}

// Options configures a Client.
type Options struct {
	BaseURL           string
	Contact           string
	Timeout           time.Duration
	Retries           int
	Backoff           time.Duration
	RequestsPerSecond float64
	GameMode          string
}

// OptionsFromConfig builds client options from the scanner configuration.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	timeout, err := cfg.RequestTimeout()
	if err != nil {
		return Options{}, fmt.Errorf("timeout: %w", err)
	}
	backoff, err := cfg.Backoff()
	if err != nil {
		return Options{}, fmt.Errorf("backoff: %w", err)
	}
	return Options{
		BaseURL:           cfg.API.BaseURL,
		Contact:           cfg.API.Contact,
		Timeout:           timeout,
		Retries:           cfg.API.Retries,
		Backoff:           backoff,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		GameMode:          cfg.Scan.GameMode,
	}, nil
}

// Client is a minimal, retrying Chess.com archive client. It is safe to reuse
// across sequential and concurrent scans.
type Client struct {
	opts    Options
	http    *http.Client
	limiter *rate.Limiter
	cache   ArchiveCache
	log     zerolog.Logger
	now     func() time.Time
}

// NewClient returns a client for the given options. A non-positive
// RequestsPerSecond disables client-side rate limiting.
func NewClient(opts Options, log zerolog.Logger) *Client {
	if opts.Retries < 1 {
		opts.Retries = 1
	}
	c := &Client{
		opts: opts,
		http: &http.Client{Timeout: opts.Timeout},
		log:  log,
		now:  time.Now,
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return c
}

// WithCache attaches an archive cache. Months other than the current one are
// served from it when present.
func (c *Client) WithCache(cache ArchiveCache) *Client {
	c.cache = cache
	return c
}

// userAgent identifies the tool and, when configured, a contact for the API operators.
func (c *Client) userAgent() string {
	if c.opts.Contact == "" {
		return "susscan/1.0"
	}
	return fmt.Sprintf("susscan/1.0 (contact: %s)", c.opts.Contact)
}

// FetchGames returns the raw game records of the configured mode played by
// username in the last months calendar months, current month included.
// Unreachable or missing resources contribute no games; an error is returned
// only when ctx is done.
func (c *Client) FetchGames(ctx context.Context, username string, months int) ([]json.RawMessage, error) {
	keys := MonthKeys(c.now(), months)

	urls, err := c.ArchiveURLs(ctx, username)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.log.Warn().Err(err).Str("user", username).Msg("archive index unavailable")
		return nil, nil
	}

	var games []json.RawMessage
	for _, u := range urls {
		key, ok := MonthKeyFromURL(u)
		if !ok {
			continue
		}
		if _, want := keys[key]; !want {
			continue
		}
		month := c.MonthGames(ctx, u, key)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, g := range month {
			if gjson.GetBytes(g, "time_class").String() == c.opts.GameMode {
				games = append(games, g)
			}
		}
	}
	return games, nil
}

// ArchiveURLs returns the list of monthly archive URLs for username.
func (c *Client) ArchiveURLs(ctx context.Context, username string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/%s/games/archives",
		strings.TrimRight(c.opts.BaseURL, "/"), url.PathEscape(strings.ToLower(username)))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Archives []string `json:"archives"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode archive index: %w", err)
	}
	return resp.Archives, nil
}

// MonthGames returns every raw game in one monthly archive. Any failure is
// logged and yields no games.
func (c *Client) MonthGames(ctx context.Context, archiveURL string, key MonthKey) []json.RawMessage {
	cacheable := c.cache != nil && key != MonthKeyOf(c.now())

	var body []byte
	if cacheable {
		cached, ok, err := c.cache.GetArchive(archiveURL)
		if err != nil {
			c.log.Warn().Err(err).Str("url", archiveURL).Msg("archive cache read failed")
		}
		if ok {
			body = cached
		}
	}

	if body == nil {
		fetched, err := c.get(ctx, archiveURL)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				c.log.Warn().Err(err).Str("url", archiveURL).Msg("monthly archive unavailable")
			}
			return nil
		}
		body = fetched
		if cacheable {
			if err := c.cache.PutArchive(archiveURL, body); err != nil {
				c.log.Warn().Err(err).Str("url", archiveURL).Msg("archive cache write failed")
			}
		}
	}

	var resp struct {
		Games []json.RawMessage `json:"games"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		c.log.Warn().Err(err).Str("url", archiveURL).Msg("decode monthly archive")
		return nil
	}
	c.log.Debug().Str("url", archiveURL).Int("games", len(resp.Games)).Msg("monthly archive fetched")
	return resp.Games
}

// get performs a GET with up to Retries attempts, sleeping Backoff*attempt
// between attempts. A 404 returns ErrNotFound immediately.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.opts.Retries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limiter: %w", err)
			}
		}

		body, status, err := c.do(ctx, endpoint)
		switch {
		case err != nil:
			lastErr = fmt.Errorf("GET %s: %w", endpoint, err)
		case status == http.StatusOK:
			return body, nil
		case status == http.StatusNotFound:
			return nil, fmt.Errorf("GET %s: %w", endpoint, ErrNotFound)
		default:
			lastErr = fmt.Errorf("GET %s: HTTP %d", endpoint, status)
		}

		if attempt == c.opts.Retries {
			break
		}
		c.log.Debug().Err(lastErr).Int("attempt", attempt).Msg("retrying")
		if err := sleepCtx(ctx, c.opts.Backoff*time.Duration(attempt)); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", c.opts.Retries, lastErr)
}

func (c *Client) do(ctx context.Context, endpoint string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", c.userAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil, resp.StatusCode, nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
