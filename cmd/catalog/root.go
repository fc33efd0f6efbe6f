package main

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ougirez/hvac-catalog/internal/pkg/config"
	"github.com/ougirez/hvac-catalog/internal/pkg/constants"
	"github.com/ougirez/hvac-catalog/internal/pkg/logger"
	"github.com/ougirez/hvac-catalog/internal/pkg/store/migrations"
	"github.com/ougirez/hvac-catalog/internal/pkg/store/xpgx"
)

func rootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "catalog",
		Short:         "HVAC appliance catalog",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Load(configPath); err != nil {
				return err
			}
			if err := viper.BindPFlags(cmd.Flags()); err != nil {
				return fmt.Errorf("bind flags: %w", err)
			}
			return logger.Init(
				viper.GetString(constants.ViperLogLevelKey),
				viper.GetString(constants.ViperLogEncodingKey),
			)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a config file (yaml, toml or json)")

	rootCmd.AddCommand(
		serveCommand(),
		ingestCommand(),
		migrateCommand(),
	)
	return rootCmd
}

// connect opens the pool, retrying while postgres is still starting up.
func connect(ctx context.Context) (*xpgx.Pool, error) {
	dsn := viper.GetString(constants.ViperDBDSNKey)
	retries := viper.GetUint64(constants.ViperDBConnectRetriesKey)

	var pool *xpgx.Pool
	err := backoff.RetryNotify(
		func() error {
			var err error
			pool, err = xpgx.NewPool(ctx, dsn)
			return err
		},
		backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewExponentialBackOff(), retries),
			ctx,
		),
		func(err error, next time.Duration) {
			logger.Warnf(ctx, "postgres not ready, retrying in %s: %s", next, err.Error())
		},
	)
	if err != nil {
		return nil, err
	}
	return pool, nil
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the catalog schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				return err
			}
			logger.Info(ctx, "migrations applied")
			return nil
		},
	}
}
