package main

import (
	"github.com/spf13/cobra"
)

func (c *cli) newReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the vector index from the catalog store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			report, err := app.ReindexUC.ReindexAll(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
}
