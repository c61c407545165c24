package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/draftline/posts-service/internal/pkg/config"
	"github.com/draftline/posts-service/pkg/logger"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQL migrations or create Mongo indexes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			log := logger.Init(logger.Options{
				Level:   cfg.LogLevel,
				Pretty:  cfg.IsDevelopment(),
				Service: "postsd",
				Env:     cfg.Env,
			})

			st, err := openStores(ctx, cfg, true, log)
			if err != nil {
				return err
			}
			defer func() { _ = st.close(context.Background()) }()

			log.Info().Str("driver", cfg.Store.Driver).Msg("schema up to date")
			return nil
		},
	}
}
