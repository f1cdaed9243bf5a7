package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/civic-atlas/atlas-cli/pkg/geocode"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode [query]",
	Short: "Resolve a free-text address or place query to coordinates",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newGeocoder(cfg.Geocode)
		if err != nil {
			return err
		}

		query := strings.Join(args, " ")
		result, err := client.Search(cmd.Context(), query)
		if err != nil {
			if eris.Is(err, geocode.ErrNoResults) {
				fmt.Printf("no results for %q\n", query)
				return nil
			}
			return err
		}

		fmt.Printf("%s\n%.6f, %.6f\n", result.DisplayName, result.Latitude, result.Longitude)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(geocodeCmd)
}
