package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/susscan/internal/chesscom"
	"github.com/pable/susscan/internal/model"
	"github.com/pable/susscan/internal/report"
	"github.com/pable/susscan/internal/scanner"
	"github.com/pable/susscan/internal/storage"
)

// scan command flags.
var (
	scanFile        string
	scanJSON        bool
	scanSave        bool
	scanDetail      bool
	scanMonths      int
	scanConcurrency int
	scanMode        string
	scanCache       bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [username...]",
	Short: "Score one or more players",
	Long: `Fetch each player's recent archives, aggregate the results and print players
ranked by suspicion score. Players that cannot be analyzed are skipped.

Usernames come from the arguments and/or --file (one per line, # comments).`,
	Example: `  susscan scan hikaru
  susscan scan --file players.txt --concurrency 4 --save
  susscan scan alice bob --json`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&scanFile, "file", "f", "", "read usernames from file")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "print results as JSON")
	scanCmd.Flags().BoolVar(&scanSave, "save", false, "store results in scan history")
	scanCmd.Flags().BoolVar(&scanDetail, "detail", false, "print per-player breakdown and reasons")
	scanCmd.Flags().IntVar(&scanMonths, "months", 0, "lookback in calendar months (0 = config)")
	scanCmd.Flags().IntVar(&scanConcurrency, "concurrency", 0, "players analyzed in parallel (0 = config)")
	scanCmd.Flags().StringVar(&scanMode, "mode", "", "time class to analyze, e.g. daily, rapid (empty = config)")
	scanCmd.Flags().BoolVar(&scanCache, "cache", false, "cache completed months in the database")
}

func runScan(cmd *cobra.Command, args []string) error {
	usernames := append([]string(nil), args...)
	if scanFile != "" {
		fromFile, err := readUsernames(scanFile)
		if err != nil {
			return err
		}
		usernames = append(usernames, fromFile...)
	}
	if len(usernames) == 0 {
		return fmt.Errorf("no usernames given; pass them as arguments or with --file")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if scanMonths > 0 {
		cfg.Scan.LookbackMonths = scanMonths
	}
	if scanConcurrency > 0 {
		cfg.Scan.Concurrency = scanConcurrency
	}
	if scanMode != "" {
		cfg.Scan.GameMode = scanMode
	}
	if scanCache {
		cfg.Storage.CacheEnabled = true
	}

	log := cliLogger()
	opts, err := chesscom.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	client := chesscom.NewClient(opts, log)

	var db *storage.DB
	if scanSave || cfg.Storage.CacheEnabled {
		db, err = openStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		if cfg.Storage.CacheEnabled {
			client.WithCache(db)
		}
	}

	ctx, stop := signalContext()
	defer stop()

	s := scanner.New(client, cfg, log)
	results := s.Batch(ctx, usernames)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("scan interrupted: %w", err)
	}

	for _, name := range missing(usernames, results) {
		cWarn.Fprintf(os.Stderr, "skipped %q: analysis failed (see log)\n", name)
	}
	if len(results) == 0 {
		return fmt.Errorf("no players could be analyzed")
	}

	if scanSave {
		if err := db.SaveScans(results, time.Now()); err != nil {
			return fmt.Errorf("save scans: %w", err)
		}
		cMuted.Fprintf(os.Stderr, "saved %d scan(s) to %s\n", len(results), cfg.Storage.DBPath)
	}

	if scanJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	report.PrintResults(os.Stdout, results)
	if scanDetail || len(results) == 1 {
		for _, m := range results {
			report.PrintDetail(os.Stdout, m)
		}
	}
	return nil
}

// readUsernames reads one username per line, skipping blanks and # comments.
func readUsernames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open username file: %w", err)
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read username file: %w", err)
	}
	return out, nil
}

// missing returns the requested usernames with no result, in input order.
func missing(requested []string, results []*model.PlayerMetrics) []string {
	got := make(map[string]int, len(results))
	for _, m := range results {
		got[strings.ToLower(m.Username)]++
	}
	var out []string
	for _, name := range requested {
		key := strings.ToLower(strings.TrimSpace(name))
		if got[key] > 0 {
			got[key]--
			continue
		}
		out = append(out, name)
	}
	return out
}
