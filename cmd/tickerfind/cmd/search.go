package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quickfin/tickerfind/internal/client"
	"github.com/quickfin/tickerfind/internal/config"
	"github.com/quickfin/tickerfind/internal/search"
	"github.com/quickfin/tickerfind/internal/store"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit  int
	format string
	local  bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Look up securities matching a query",
		Long: `Look up securities whose name or ticker matches the query.
A running serve process is used when one is reachable; otherwise the
local index is opened directly.

Examples:
  tickerfind search "acme"
  tickerfind search "acm" --limit 5 --format json
  tickerfind search "acme" --local`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, args[0], opts)
		},
	}

	cmd.Flags().IntVar(&opts.limit, "limit", 10, "Maximum number of results")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.local, "local", false, "Skip the server and query the local index")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", opts.format)
	}

	cfg, err := config.Load(".")
	if err != nil {
		return err
	}

	var results []search.Suggestion
	if !opts.local {
		results, err = searchViaServer(ctx, cfg, query)
	}
	if opts.local || err != nil {
		results, err = searchLocal(ctx, cfg, query, opts.limit)
		if err != nil {
			return err
		}
	}

	return printResults(cmd, results, opts.format)
}

// searchViaServer queries a running serve process.
func searchViaServer(ctx context.Context, cfg *config.Config, query string) ([]search.Suggestion, error) {
	c := client.New("http://" + cfg.Server.Addr)
	defer c.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	if !c.Healthy(pingCtx) {
		return nil, fmt.Errorf("server at %s is not reachable", cfg.Server.Addr)
	}

	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.Search(reqCtx, query)
}

// searchLocal queries the on-disk index directly.
func searchLocal(ctx context.Context, cfg *config.Config, query string, limit int) ([]search.Suggestion, error) {
	idx, err := store.Open(cfg.Paths.Index)
	if err != nil {
		return nil, err
	}
	defer idx.Close()

	svc := search.NewService(idx, search.Options{
		MinQueryLen: cfg.Search.MinQueryLen,
		MaxResults:  limit,
		CacheSize:   1,
	})
	return svc.Suggest(ctx, query)
}

func printResults(cmd *cobra.Command, results []search.Suggestion, format string) error {
	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matches.")
		return nil
	}
	for _, r := range results {
		fmt.Fprintln(cmd.OutOrStdout(), r.Display())
	}
	return nil
}
