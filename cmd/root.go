package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brgeotools/munimerge/internal/config"
	"github.com/brgeotools/munimerge/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "munimerge",
	Short: "Aggregate Brazilian municipalities under a population threshold",
	Long:  "Downloads IBGE municipal boundaries and population estimates, then iteratively merges municipalities below the threshold with a contiguous neighbor and exports the result as GeoJSON.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// initStore opens the cache/run-history database under the cache dir.
func initStore(ctx context.Context) (*store.SQLiteStore, error) {
	if err := os.MkdirAll(cfg.Cache.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	st, err := store.NewSQLite(filepath.Join(cfg.Cache.Dir, "munimerge.db"))
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
