package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"photomap/internal/config"
	"photomap/internal/ingest"
	"photomap/internal/location"
	"photomap/internal/server"
	"photomap/internal/store"
	"photomap/internal/view"
)

func newSrvCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "srv",
		Short: "Run the photomap API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg == nil {
				return fmt.Errorf("config not initialized")
			}
			if cfg.DBPath == "" {
				return fmt.Errorf("db path is required")
			}

			ctx := cmd.Context()
			logger := slog.Default()

			addr, err := server.ListenAddr(cfg.APIURL)
			if err != nil {
				return err
			}

			resolver, err := location.NewFromConfig(cfg.Location, logger)
			if err != nil {
				return err
			}

			logger.Info("opening database", "path", cfg.DBPath)
			st := store.New(cfg.DBPath)
			if err := st.Initialize(ctx); err != nil {
				return err
			}
			defer st.Close()

			views := view.New(st, logger)
			if _, err := views.Refresh(ctx); err != nil {
				logger.Warn("initial view refresh failed", "err", err)
			}

			pipeline := ingest.New(st, resolver, views, logger)

			srv := server.New(addr, st, pipeline, views, logger)
			srv.SetLocationSource(cfg.Location.Source)
			return srv.ListenAndServe(ctx)
		},
	}
}
