package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirillkom/ingredient-search/internal/bootstrap"
	"github.com/kirillkom/ingredient-search/internal/config"
)

type cli struct {
	verbose bool
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "catalogctl",
		Short: "Manage the ingredient catalog and its search index",
		Long: `catalogctl imports catalog workbooks, rebuilds the vector index and runs
ad-hoc searches against the configured backends.

Example usage:
  catalogctl import catalog.xlsx --reindex
  catalogctl reindex
  catalogctl search "RM-0001"
  catalogctl search "สารให้ความชุ่มชื้น" --collection available`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if c.verbose {
				level = slog.LevelDebug
			}
			c.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		},
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(
		c.newImportCmd(),
		c.newReindexCmd(),
		c.newSearchCmd(),
	)
	return root
}

func (c *cli) openApp(ctx context.Context, opts ...bootstrap.Option) (*bootstrap.App, error) {
	logger := c.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	opts = append([]bootstrap.Option{bootstrap.WithLogger(logger)}, opts...)
	return bootstrap.New(ctx, config.Load(), opts...)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
