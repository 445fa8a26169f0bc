package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var dropForce bool

// dropCmd deletes the scan database file.
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the scan database",
	Long:  "Permanently delete the SQLite database holding scan history and the archive cache.",
	Args:  cobra.NoArgs,
	RunE:  runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
}

func runDrop(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := cfg.Storage.DBPath

	if !dropForce {
		cWarn.Fprintf(os.Stderr, "This will permanently delete: %s\n", path)
		fmt.Fprintln(os.Stderr, "Re-run with --force to confirm.")
		return nil
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
			return nil
		}
		return fmt.Errorf("remove database: %w", err)
	}
	// WAL side files are left behind when the last connection did not checkpoint.
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(path + suffix)
	}
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", path)
	return nil
}
