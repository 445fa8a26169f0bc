package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/susscan/internal/report"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the scan database",
	Long: `Run an arbitrary SQL query against the scan database and print results as a table.

Schema overview:
  scans(id, username, score, scanned_at INTEGER unix seconds, metrics TEXT json)
  archive_cache(url, body BLOB zstd, fetched_at INTEGER unix seconds)

Usernames are stored lower-cased. Metrics can be read with json_extract, e.g.
  SELECT username, json_extract(metrics, '$.elo_overall.ratio') FROM scans`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}

	report.PrintRows(os.Stdout, cols, rows)
	fmt.Fprintf(os.Stdout, "\n(%d rows)\n", len(rows))
	return nil
}
