package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/carecap/hospcap-cli/internal/model"
	"github.com/carecap/hospcap-cli/internal/pipeline"
	"github.com/carecap/hospcap-cli/internal/store"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Run the publication pipeline",
	Long:  "Loads the merged DH+HCRIS dataset, reconciles bed-capacity attributes, applies manual overrides, and writes the published GeoJSON, CSV, and optional shapefile outputs.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		manifest, err := loadManifest()
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := pipeline.New(cfg, st, manifest).Run(ctx)
		if err != nil {
			return eris.Wrap(err, "publish")
		}

		fmt.Printf("Published %d facilities (%d overridden, %d added)\n",
			run.BaseFacilities+run.NewFacilities, run.OverridesApplied, run.NewFacilities)
		fmt.Printf("  GeoJSON:   %s\n", run.GeoJSONPath)
		fmt.Printf("  CSV:       %s\n", run.CSVPath)
		if run.ShapefilePath != "" {
			fmt.Printf("  Shapefile: %s\n", run.ShapefilePath)
		}

		return nil
	},
}

func loadManifest() (*model.ExportManifest, error) {
	if cfg.Export.ManifestPath == "" {
		return model.DefaultManifest(), nil
	}
	m, err := model.LoadManifest(cfg.Export.ManifestPath)
	if err != nil {
		return nil, eris.Wrapf(err, "load manifest %s", cfg.Export.ManifestPath)
	}
	return m, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Ledger)
	if err != nil {
		return nil, eris.Wrap(err, "open ledger")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate ledger")
	}
	return st, nil
}

func init() {
	publishCmd.Flags().Bool("shapefile", false, "also write a point shapefile")
	publishCmd.PreRun = func(cmd *cobra.Command, _ []string) {
		if shp, _ := cmd.Flags().GetBool("shapefile"); shp {
			cfg.Export.Shapefile = true
		}
	}
	rootCmd.AddCommand(publishCmd)
}
