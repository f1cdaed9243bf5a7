package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/civic-atlas/atlas-cli/internal/directory"
	"github.com/civic-atlas/atlas-cli/internal/geospatial"
)

var (
	queryText string
	queryTags []string
	queryBBox string
	queryMode string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run the filter engine over the loaded dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		dataset, err := loadDataset(ctx, st)
		if err != nil {
			return err
		}

		q := directory.Query{
			Text: queryText,
			Tags: queryTags,
			Mode: directory.ParseViewMode(queryMode),
		}
		if queryBBox != "" {
			b, err := geospatial.ParseBounds(queryBBox)
			if err != nil {
				return err
			}
			q.Bounds = &b
		}

		filtered, inView := directory.Results(dataset.Places, q)
		fmt.Printf("%d matched, %d in view\n\n", len(filtered), len(inView))
		for _, p := range inView {
			line := p.Organization
			if p.Office != "" {
				line += " / " + p.Office
			}
			coords := "list-only"
			if p.Mappable() {
				coords = fmt.Sprintf("%.5f,%.5f", *p.Latitude, *p.Longitude)
			}
			fmt.Printf("%s\n  %s [%s] (%s)\n", line, p.Address, coords, strings.Join(p.ServiceTags, ", "))
		}

		counts := directory.CategoryCounts(inView)
		if len(counts) > 0 {
			fmt.Println()
			for _, c := range counts {
				fmt.Printf("%-30s %4d  %s\n", c.Category, c.Count, strings.Repeat("#", int(c.Fraction*20)))
			}
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryText, "q", "", "search text (matches organization and office names)")
	queryCmd.Flags().StringSliceVar(&queryTags, "tags", nil, "canonical tags, all must match")
	queryCmd.Flags().StringVar(&queryBBox, "bbox", "", "viewport bounds west,south,east,north")
	queryCmd.Flags().StringVar(&queryMode, "mode", "map", "view mode: map or list")
	rootCmd.AddCommand(queryCmd)
}
