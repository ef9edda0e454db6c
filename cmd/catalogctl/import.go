package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirillkom/ingredient-search/internal/bootstrap"
	"github.com/kirillkom/ingredient-search/internal/core/domain"
	"github.com/kirillkom/ingredient-search/internal/infrastructure/importer/xlsx"
)

type importSummary struct {
	File      string                `json:"file"`
	Imported  int                   `json:"imported"`
	Skipped   int                   `json:"skipped"`
	RowErrors []string              `json:"row_errors,omitempty"`
	Published int                   `json:"published,omitempty"`
	Reindex   *domain.ReindexReport `json:"reindex,omitempty"`
}

func (c *cli) newImportCmd() *cobra.Command {
	var (
		sheet    string
		currency string
		reindex  bool
		publish  bool
	)
	cmd := &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Upsert catalog records from an XLSX workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open workbook: %w", err)
			}
			defer f.Close()

			var opts []bootstrap.Option
			if publish {
				opts = append(opts, bootstrap.WithEvents())
			}
			app, err := c.openApp(ctx, opts...)
			if err != nil {
				return err
			}
			defer app.Close()

			report, records, err := xlsx.Import(ctx, f, app.Store, xlsx.Options{Sheet: sheet, DefaultCurrency: currency})
			if err != nil {
				return err
			}
			summary := importSummary{File: args[0], Imported: report.Imported, Skipped: report.Skipped}
			for _, rowErr := range report.Errors {
				summary.RowErrors = append(summary.RowErrors, rowErr.Error())
			}

			if publish && app.Events != nil {
				for _, record := range records {
					if err := app.Events.PublishRecordChanged(ctx, domain.RecordChanged{RecordID: record.ID}); err != nil {
						return fmt.Errorf("publish %s: %w", record.ID, err)
					}
					summary.Published++
				}
			}
			if reindex {
				rep, err := app.ReindexUC.ReindexAll(ctx)
				if err != nil {
					return err
				}
				summary.Reindex = &rep
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "sheet name (default: first sheet)")
	cmd.Flags().StringVar(&currency, "currency", "THB", "currency for rows without one")
	cmd.Flags().BoolVar(&reindex, "reindex", false, "rebuild the vector index after importing")
	cmd.Flags().BoolVar(&publish, "publish", false, "publish a change event per record for the worker")
	return cmd
}
