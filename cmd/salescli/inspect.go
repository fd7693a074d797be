package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"salescli/internal/dataprocessing"
)

func newInspectCmd(configPath *string) *cobra.Command {
	var snapshot string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print statistics of a saved table snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := withRun(cmd.Context())
			table, err := dataprocessing.NewLoader(a.logger).ReadSnapshot(ctx, snapshot)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Snapshot %s: %d rows\n", snapshot, table.Len())
			if table.AgeGroupLevels != nil {
				fmt.Fprintf(out, "Age groups: %v\n", table.AgeGroupLevels)
			}
			fmt.Fprintln(out)

			analyzer := dataprocessing.NewAnalyzer(table, nil, a.logger, dataprocessing.AnalyzerConfig{
				HistogramBins: a.cfg.Analysis.HistogramBins,
			})
			if err := printReport(out, analyzer); err != nil {
				return err
			}

			a.logger.InfoContext(ctx, "Snapshot inspected",
				slog.String("path", snapshot),
				slog.Int("rows", table.Len()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&snapshot, "snapshot", "s", "outputs/sales_data.arrow", "snapshot written by analyze")
	return cmd
}
