package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brgeotools/munimerge/internal/export"
	"github.com/brgeotools/munimerge/internal/fetcher"
	"github.com/brgeotools/munimerge/internal/geometry"
	"github.com/brgeotools/munimerge/internal/ibge"
	"github.com/brgeotools/munimerge/internal/merge"
	"github.com/brgeotools/munimerge/internal/store"
)

var (
	runThreshold      int
	runPopulationYear int
	runPopulationFile string
	runBoundariesFile string
	runOutputDir      string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Merge municipalities under the population threshold",
	Long:  "Loads boundaries and population estimates, merges every municipality below the threshold with a contiguous (or nearest) neighbor, and writes the original and merged partitions as GeoJSON.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		threshold := cfg.Threshold
		if runThreshold > 0 {
			threshold = runThreshold
		}
		year := cfg.Population.Year
		if runPopulationYear > 0 {
			year = runPopulationYear
		}
		populationFile := cfg.Population.File
		if runPopulationFile != "" {
			populationFile = runPopulationFile
		}
		boundariesFile := cfg.Boundaries.File
		if runBoundariesFile != "" {
			boundariesFile = runBoundariesFile
		}
		outputDir := cfg.Output.Dir
		if runOutputDir != "" {
			outputDir = runOutputDir
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		httpF := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			RateLimiters: fetcher.DefaultRateLimiters(),
		})
		ftpF := fetcher.NewFTPFetcher(fetcher.FTPOptions{})

		population, err := loadPopulation(ctx, httpF, populationFile, year)
		if err != nil {
			return err
		}

		loader := ibge.NewBoundaryLoader(httpF, ftpF, ibge.BoundaryOptions{
			LocalFile: boundariesFile,
			URL:       cfg.Boundaries.URL,
			Year:      cfg.Boundaries.Year,
			CacheDir:  cfg.Cache.Dir,
			Cache:     st,
		})
		munis, err := loader.Load(ctx)
		if err != nil {
			return err
		}

		engine := geometry.NewGEOS(cfg.Merge.Tolerance, cfg.Merge.Geodesic)

		units, defaulted, err := ibge.BuildUnits(munis, population, engine)
		if err != nil {
			return err
		}

		partition, err := merge.NewPartition(units, engine)
		if err != nil {
			return err
		}

		if _, err := export.WriteUnits(outputDir, units, engine); err != nil {
			return err
		}

		graph, err := merge.BuildGraph(ctx, units, engine, cfg.Merge.Workers)
		if err != nil {
			return err
		}

		eng, err := merge.NewEngine(partition, graph, engine, threshold)
		if err != nil {
			return err
		}
		result, err := eng.Run(ctx)
		if err != nil {
			return err
		}

		if _, err := export.WriteRegions(outputDir, eng.Partition().Regions(), engine); err != nil {
			return err
		}

		if _, err := st.RecordRun(ctx, store.Run{
			Threshold:      int64(threshold),
			PopulationYear: year,
			OriginalCount:  len(units),
			MergedCount:    result.Regions,
			DefaultedUnits: defaulted,
			State:          string(result.State),
			Merges:         result.Merges,
		}); err != nil {
			zap.L().Warn("failed to record run", zap.Error(err))
		}

		printRunReport(os.Stdout, len(units), defaulted, result, outputDir)
		return nil
	},
}

// loadPopulation reads the estimate series, preferring a local spreadsheet
// when one is configured.
func loadPopulation(ctx context.Context, f fetcher.Fetcher, file string, year int) (map[string]int, error) {
	if file != "" {
		return ibge.ParseEstimateXLSX(file)
	}
	client := ibge.NewPopulationClient(f, ibge.PopulationOptions{
		BaseURL:     cfg.Population.BaseURL,
		AggregateID: cfg.Population.AggregateID,
		VariableID:  cfg.Population.VariableID,
	})
	pop, err := client.Fetch(ctx, year)
	if err != nil {
		return nil, eris.Wrapf(err, "run: population for %d", year)
	}
	return pop, nil
}

func printRunReport(out io.Writer, original, defaulted int, result *merge.Result, outputDir string) {
	fmt.Fprintf(out, "Municipalities:      %d\n", original)
	fmt.Fprintf(out, "Merged regions:      %d\n", result.Regions)
	fmt.Fprintf(out, "Merges performed:    %d\n", result.Merges)
	fmt.Fprintf(out, "Total population:    %d\n", result.TotalPopulation)
	fmt.Fprintf(out, "Population defaults: %d\n", defaulted)
	fmt.Fprintf(out, "Final state:         %s\n", result.State)
	fmt.Fprintf(out, "Output:              %s\n", outputDir)
}

func init() {
	runCmd.Flags().IntVar(&runThreshold, "threshold", 0, "minimum population per merged region (overrides config)")
	runCmd.Flags().IntVar(&runPopulationYear, "population-year", 0, "IBGE estimate year (overrides config)")
	runCmd.Flags().StringVar(&runPopulationFile, "population-file", "", "local estimate spreadsheet instead of the API")
	runCmd.Flags().StringVar(&runBoundariesFile, "boundaries-file", "", "local mesh .shp or .zip instead of downloading")
	runCmd.Flags().StringVar(&runOutputDir, "output-dir", "", "directory for GeoJSON artefacts (overrides config)")
	rootCmd.AddCommand(runCmd)
}
