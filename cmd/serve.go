package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/susscan/internal/chesscom"
	"github.com/pable/susscan/internal/logger"
	"github.com/pable/susscan/internal/scanner"
	"github.com/pable/susscan/internal/server"
)

var (
	serveAddr string
	serveSave bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve single-player scans over HTTP",
	Long: `Start an HTTP server exposing:

  GET  /health  -> {"ok": true}
  POST /scan    {"username": "...", "lookback_months": 3} -> player metrics

Allowed CORS origins are read from CORS_ORIGINS (comma-separated).`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().BoolVar(&serveSave, "save", false, "store every scan in scan history")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(os.Stderr, logLevel)

	opts, err := chesscom.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	client := chesscom.NewClient(opts, log)

	srvOpts := server.Options{Origins: server.ParseOrigins(os.Getenv("CORS_ORIGINS"))}
	if serveSave || cfg.Storage.CacheEnabled {
		db, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		if cfg.Storage.CacheEnabled {
			client.WithCache(db)
		}
		if serveSave {
			srvOpts.Recorder = db
		}
	}

	ctx, stop := signalContext()
	defer stop()

	srv := server.New(scanner.New(client, cfg, log), srvOpts, log)
	return srv.ListenAndServe(ctx, serveAddr)
}
