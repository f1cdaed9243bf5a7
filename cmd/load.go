package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/civic-atlas/atlas-cli/internal/directory"
)

var (
	loadPlacesSrc string
	loadTagsSrc   string
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Fetch the places and taxonomy sources and snapshot them into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		placesSrc := loadPlacesSrc
		if placesSrc == "" {
			placesSrc = cfg.Sources.Places
		}
		tagsSrc := loadTagsSrc
		if tagsSrc == "" {
			tagsSrc = cfg.Sources.Tags
		}

		loader := directory.NewLoader()
		dataset, err := loader.Load(ctx, placesSrc, tagsSrc)
		if err != nil {
			return err
		}

		st, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.SaveSnapshot(ctx, dataset.Places, dataset.Tags); err != nil {
			return err
		}

		zap.L().Info("snapshot saved",
			zap.Int("places", len(dataset.Places)),
			zap.Int("tags", len(dataset.Tags)),
		)
		return nil
	},
}

func init() {
	loadCmd.Flags().StringVar(&loadPlacesSrc, "places", "", "places source URL or file (overrides config)")
	loadCmd.Flags().StringVar(&loadTagsSrc, "tags", "", "taxonomy source URL or file (overrides config)")
	rootCmd.AddCommand(loadCmd)
}
