package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/quickfin/tickerfind/internal/catalog"
	"github.com/quickfin/tickerfind/internal/config"
	"github.com/quickfin/tickerfind/internal/search"
	"github.com/quickfin/tickerfind/internal/server"
	"github.com/quickfin/tickerfind/internal/store"
	"github.com/quickfin/tickerfind/internal/watcher"
)

// serveOptions holds CLI flags for serve.
type serveOptions struct {
	addr    string
	noWatch bool
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the suggestion API server",
		Long: `Start the HTTP server that answers GET /api/search?q= with
suggestions from the indexed catalog. If the seed file is watched,
edits to it reload the catalog and rebuild the index automatically.

Examples:
  tickerfind serve
  tickerfind serve --addr 127.0.0.1:9000
  tickerfind serve --no-watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address (default: configured address)")
	cmd.Flags().BoolVar(&opts.noWatch, "no-watch", false, "Disable seed file watching")

	return cmd
}

func runServe(parent context.Context, opts serveOptions) error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if opts.addr != "" {
		addr = opts.addr
	}

	catStore, err := catalog.OpenStore(cfg.Paths.CatalogDB)
	if err != nil {
		return err
	}
	defer catStore.Close()

	idx, err := store.Open(cfg.Paths.Index)
	if err != nil {
		return err
	}
	defer idx.Close()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A fresh or recovered index is empty; fill it from the catalog.
	if idx.DocCount() == 0 {
		if err := reindexFromStore(ctx, cfg, catStore, idx); err != nil {
			return err
		}
	}

	svc := search.NewService(idx, search.Options{
		MinQueryLen: cfg.Search.MinQueryLen,
		MaxResults:  cfg.Search.MaxResults,
		CacheSize:   cfg.Search.CacheSize,
	})

	srv := server.New(addr, cfg.Server.CORSOrigins, svc)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server_starting", slog.String("addr", addr))
		return srv.ListenAndServe(ctx)
	})

	if cfg.Watch.IsEnabled() && !opts.noWatch {
		if _, statErr := os.Stat(cfg.Paths.Catalog); statErr == nil {
			w := watcher.New(cfg.Paths.Catalog, cfg.WatchDebounceDuration())
			defer w.Stop()

			g.Go(func() error {
				return w.Start(ctx)
			})
			g.Go(func() error {
				return watchCatalog(ctx, cfg, w, catStore, idx, svc)
			})
		} else {
			slog.Info("watch_skipped", slog.String("path", cfg.Paths.Catalog))
		}
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// watchCatalog reimports the seed and rebuilds the index on each
// debounced change notification.
func watchCatalog(ctx context.Context, cfg *config.Config, w *watcher.CatalogWatcher, catStore *catalog.Store, idx *store.SuggestIndex, svc *search.Service) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-w.Reloads():
			if !ok {
				return nil
			}
			if err := reloadCatalog(ctx, cfg, catStore, idx); err != nil {
				slog.Error("catalog_reload_failed", slog.String("error", err.Error()))
				continue
			}
			svc.InvalidateCache()
		}
	}
}

// reloadCatalog imports the seed file into the store and rebuilds the index.
func reloadCatalog(ctx context.Context, cfg *config.Config, catStore *catalog.Store, idx *store.SuggestIndex) error {
	secs, skipped, err := catalog.LoadSeed(cfg.Paths.Catalog)
	if err != nil {
		return err
	}
	if err := catStore.Upsert(ctx, secs); err != nil {
		return err
	}

	all, err := catStore.All(ctx)
	if err != nil {
		return err
	}

	lock := store.NewRebuildLock(cfg.Paths.Index)
	if err := lock.Lock(); err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	if err := idx.Rebuild(ctx, all); err != nil {
		return err
	}

	slog.Info("catalog_reloaded",
		slog.Int("securities", len(all)),
		slog.Int("skipped", skipped))
	return nil
}

// reindexFromStore rebuilds an empty index from the catalog store.
func reindexFromStore(ctx context.Context, cfg *config.Config, catStore *catalog.Store, idx *store.SuggestIndex) error {
	all, err := catStore.All(ctx)
	if err != nil {
		return err
	}
	if len(all) == 0 {
		slog.Warn("catalog_empty", slog.String("hint", "run 'tickerfind index' to import a seed file"))
		return nil
	}

	lock := store.NewRebuildLock(cfg.Paths.Index)
	if err := lock.Lock(); err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	if err := idx.Rebuild(ctx, all); err != nil {
		return fmt.Errorf("failed to rebuild index: %w", err)
	}

	slog.Info("index_filled_from_catalog", slog.Int("securities", len(all)))
	return nil
}
