package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brgeotools/munimerge/internal/fetcher"
	"github.com/brgeotools/munimerge/internal/ibge"
)

var fetchYear int

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Prefetch IBGE datasets into the cache",
	Long:  "Downloads the municipal boundary mesh and population estimates so a later run works from the local cache.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		httpF := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			RateLimiters: fetcher.DefaultRateLimiters(),
		})
		ftpF := fetcher.NewFTPFetcher(fetcher.FTPOptions{})

		loader := ibge.NewBoundaryLoader(httpF, ftpF, ibge.BoundaryOptions{
			URL:      cfg.Boundaries.URL,
			Year:     cfg.Boundaries.Year,
			CacheDir: cfg.Cache.Dir,
			Cache:    st,
		})
		munis, err := loader.Load(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Boundaries cached: %d municipalities\n", len(munis))

		year := cfg.Population.Year
		if fetchYear > 0 {
			year = fetchYear
		}
		client := ibge.NewPopulationClient(httpF, ibge.PopulationOptions{
			BaseURL:     cfg.Population.BaseURL,
			AggregateID: cfg.Population.AggregateID,
			VariableID:  cfg.Population.VariableID,
		})
		pop, err := client.Fetch(ctx, year)
		if err != nil {
			return err
		}
		fmt.Printf("Population estimates (%d): %d municipalities\n", year, len(pop))

		return nil
	},
}

func init() {
	fetchCmd.Flags().IntVar(&fetchYear, "population-year", 0, "IBGE estimate year (overrides config)")
	rootCmd.AddCommand(fetchCmd)
}
