package main

import (
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/ougirez/hvac-catalog/internal/domain"
	"github.com/ougirez/hvac-catalog/internal/pkg/registry"
	"github.com/ougirez/hvac-catalog/internal/pkg/store"
	"github.com/ougirez/hvac-catalog/internal/service/ingest"
)

type ingestFlags struct {
	family       string
	file         string
	observations string
	format       string
}

func ingestCommand() *cobra.Command {
	var flags ingestFlags

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Import a CSV or XLSX file into the catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			reg := registry.MustDefault()
			pipeline := ingest.NewPipeline(reg, store.NewStore(pool, reg))

			base, closeBase, err := openFile(flags.file, flags.format)
			if err != nil {
				return err
			}
			defer closeBase()

			var result *ingest.Result
			if kind, ok := domain.ParseFamily(flags.family); ok && kind == domain.KindHeatPump {
				var observations ingest.Source
				if flags.observations != "" {
					src, closeObs, err := openFile(flags.observations, flags.format)
					if err != nil {
						return err
					}
					defer closeObs()
					observations = src
				}
				result, err = pipeline.IngestHeatPumps(ctx, base, observations)
			} else {
				result, err = pipeline.Ingest(ctx, base, flags.family)
			}

			if result != nil {
				out, mErr := sonic.ConfigStd.MarshalIndent(result, "", "  ")
				if mErr != nil {
					return mErr
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
			}
			return err
		},
	}

	cmd.Flags().StringVar(&flags.family, "family", "", "device family: air_conditioner, heat_pump or residential_ventilation_unit")
	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "base rows file")
	cmd.Flags().StringVar(&flags.observations, "observations", "", "heat pump observations file")
	cmd.Flags().StringVar(&flags.format, "format", "", "csv or xlsx, detected from the extension when empty")
	_ = cmd.MarkFlagRequired("family")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func openFile(path, format string) (ingest.Source, func(), error) {
	f, err := ingest.DetectFormat(format, path)
	if err != nil {
		return nil, nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	src, err := ingest.Open(f, file)
	if err != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	return src, func() { _ = file.Close() }, nil
}
