package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quickfin/tickerfind/internal/client"
	"github.com/quickfin/tickerfind/internal/config"
	"github.com/quickfin/tickerfind/internal/search"
	"github.com/quickfin/tickerfind/internal/ui"
)

// formOptions holds CLI flags for form.
type formOptions struct {
	addr    string
	noColor bool
}

func newFormCmd() *cobra.Command {
	var opts formOptions

	cmd := &cobra.Command{
		Use:   "form",
		Short: "Open the interactive security form",
		Long: `Open the interactive form. Typing in the company name field
triggers a debounced suggestion lookup against a running serve process;
picking a suggestion fills both the name and ticker fields.

Examples:
  tickerfind form
  tickerfind form --addr 127.0.0.1:9000
  tickerfind form --no-color`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runForm(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "Server address (default: configured address)")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func runForm(ctx context.Context, opts formOptions) error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if opts.addr != "" {
		addr = opts.addr
	}

	c := client.New("http://" + addr)
	defer c.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	if !c.Healthy(pingCtx) {
		return fmt.Errorf("no server at %s; start one with 'tickerfind serve'", addr)
	}

	lookup := func(ctx context.Context, query string) ([]search.Suggestion, error) {
		reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return c.Search(reqCtx, query)
	}

	return ui.RunForm(ctx, lookup, ui.FormOptions{
		QuietPeriod: cfg.QuietPeriodDuration(),
		MinQueryLen: cfg.Search.MinQueryLen,
		NoColor:     opts.noColor,
	})
}
