package commands

import (
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShashankBhutiya/TallyAI/internal/config"
	"github.com/ShashankBhutiya/TallyAI/internal/server"
)

func newServeCommand() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the invoice upload HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cfgPath)
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", "", "path to a YAML config file (default: environment only)")

	return cmd
}

func runServe(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg)
	proc, store, err := newProcessor(cfg, logger)
	if err != nil {
		return err
	}

	handler := server.NewHandler(proc, store, logger)
	srv := &http.Server{
		Addr:        cfg.ListenAddr,
		Handler:     handler.Routes(),
		ReadTimeout: 30 * time.Second,
		// Uploads run OCR, the structuring service and two Tally calls
		// inside the request, so the write side gets generous headroom.
		WriteTimeout: 5 * time.Minute,
	}

	logger.Info("listening", "addr", cfg.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
