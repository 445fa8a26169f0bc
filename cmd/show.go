package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pable/susscan/internal/report"
)

var showCmd = &cobra.Command{
	Use:   "show <scan-id>",
	Short: "Show a stored scan with its breakdown and reasons",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid scan id %q", args[0])
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	rec, err := db.GetScan(id)
	if err != nil {
		return fmt.Errorf("query scan: %w", err)
	}
	if rec == nil {
		fmt.Fprintf(os.Stderr, "No scan found with id %d\n", id)
		return nil
	}

	cHeader.Fprintf(os.Stdout, "Scan #%d", rec.ID)
	cMuted.Fprintf(os.Stdout, "  %s\n", rec.ScannedAt.Local().Format("2006-01-02 15:04:05"))
	report.PrintDetail(os.Stdout, &rec.Metrics)
	return nil
}
