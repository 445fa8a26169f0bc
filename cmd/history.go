package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/susscan/internal/report"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history [username]",
	Short: "List stored scans, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 50, "maximum rows (0 = all)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print as JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	var username string
	if len(args) == 1 {
		username = args[0]
	}
	recs, err := db.ListScans(username, historyLimit)
	if err != nil {
		return fmt.Errorf("list scans: %w", err)
	}
	if len(recs) == 0 {
		fmt.Fprintln(os.Stdout, "No scans stored yet. Run 'susscan scan --save <username>' to add one.")
		return nil
	}

	if historyJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	}
	report.PrintHistory(os.Stdout, recs)
	return nil
}
