package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/ougirez/hvac-catalog/internal/api"
	"github.com/ougirez/hvac-catalog/internal/pkg/constants"
	"github.com/ougirez/hvac-catalog/internal/pkg/logger"
	"github.com/ougirez/hvac-catalog/internal/pkg/registry"
	"github.com/ougirez/hvac-catalog/internal/pkg/store"
	"github.com/ougirez/hvac-catalog/internal/pkg/store/migrations"
)

func serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
	cmd.Flags().String(constants.ViperHTTPAddrKey, ":8080", "listen address")
	return cmd
}

func serve(ctx context.Context) error {
	pool, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return err
	}

	reg := registry.MustDefault()
	svc, err := api.NewAPIService(store.NewStore(pool, reg), reg)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return svc.Serve(viper.GetString(constants.ViperHTTPAddrKey))
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info(ctx, "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), viper.GetDuration(constants.ViperHTTPShutdownTimeoutKey))
		defer cancel()
		return svc.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
