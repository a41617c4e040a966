package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/quickfin/tickerfind/internal/catalog"
	"github.com/quickfin/tickerfind/internal/config"
	"github.com/quickfin/tickerfind/internal/store"
)

// indexOptions holds CLI flags for index.
type indexOptions struct {
	seed string
}

func newIndexCmd() *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Import the catalog seed file and rebuild the suggestion index",
		Long: `Import securities from the JSON seed file into the catalog store,
then rebuild the suggestion index from the full catalog.

Examples:
  tickerfind index
  tickerfind index --seed ./securities.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndex(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.seed, "seed", "", "Seed file path (default: configured catalog path)")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, opts indexOptions) error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}

	seedPath := cfg.Paths.Catalog
	if opts.seed != "" {
		seedPath = opts.seed
	}

	secs, skipped, err := catalog.LoadSeed(seedPath)
	if err != nil {
		return err
	}
	if skipped > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: skipped %d invalid entries\n", skipped)
	}

	catStore, err := catalog.OpenStore(cfg.Paths.CatalogDB)
	if err != nil {
		return err
	}
	defer catStore.Close()

	if err := catStore.Upsert(ctx, secs); err != nil {
		return err
	}

	all, err := catStore.All(ctx)
	if err != nil {
		return err
	}

	if err := rebuildIndex(ctx, cfg.Paths.Index, all); err != nil {
		return err
	}

	slog.Info("index_rebuilt",
		slog.String("seed", seedPath),
		slog.Int("securities", len(all)))
	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d securities (%d imported from %s)\n",
		len(all), len(secs), seedPath)
	return nil
}

// rebuildIndex rebuilds the suggestion index under the cross-process lock.
func rebuildIndex(ctx context.Context, indexPath string, secs []catalog.Security) error {
	lock := store.NewRebuildLock(indexPath)
	if err := lock.Lock(); err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	idx, err := store.Open(indexPath)
	if err != nil {
		return err
	}
	defer idx.Close()

	return idx.Rebuild(ctx, secs)
}
