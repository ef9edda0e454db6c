package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
)

func (c *cli) newSearchCmd() *cobra.Command {
	var (
		topK       int
		collection string
		explain    bool
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a hybrid search and print the fused results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hint, ok := domain.ParseCollectionHint(strings.ToLower(collection))
			if !ok {
				return fmt.Errorf("collection must be one of available, full, both")
			}
			query := strings.Join(args, " ")

			app, err := c.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			results, err := app.SearchUC.Search(cmd.Context(), query, topK, hint)
			if err != nil {
				return err
			}
			out := map[string]any{"query": query, "results": results}
			if explain {
				out["classification"] = app.SearchUC.Classify(query)
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", 10, "maximum number of results")
	cmd.Flags().StringVarP(&collection, "collection", "c", "", "available, full or both (default: routed by query)")
	cmd.Flags().BoolVar(&explain, "explain", false, "include the query classification")
	return cmd
}
