package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"salescli/internal/charts"
	"salescli/internal/dataprocessing"
	"salescli/internal/exporter"
	"salescli/internal/infrastructure"
)

// Aggregate exports written next to the statistics CSV.
const (
	profitByCategoryCSV = "profit_by_category.csv"
	ageGroupRevenueCSV  = "agegroup_revenue.csv"
	runHistoryCSV       = "run_history.csv"
)

type analyzeOptions struct {
	file     string
	outdir   string
	start    string
	end      string
	noPrompt bool
}

func newAnalyzeCmd(configPath *string) *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Clean a sales spreadsheet and write statistics, charts and a snapshot",
		Long: `Load the first sheet of a workbook (or a CSV file), clean it, print summary
statistics and category counts, then write to the output directory:

  sales_data.arrow           cleaned table snapshot
  summary_statistics.csv     per-column statistics
  profit_by_category.csv     profit per product category
  agegroup_revenue.csv       revenue per age group
  run_history.csv            one line appended per run
  *.png                      charts

Monthly trends are drawn for --start/--end, or for a range entered at the
prompt. Leaving the start empty skips the trends chart. An empty end, given
on the command line or at the prompt, repeats the start month.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if !cmd.Flags().Changed("outdir") {
				opts.outdir = a.cfg.Output.Dir
			}
			return runAnalyze(cmd.Context(), a, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "sales spreadsheet (.xlsx or .csv)")
	cmd.Flags().StringVarP(&opts.outdir, "outdir", "o", "outputs", "directory for charts, snapshot and exports")
	cmd.Flags().StringVar(&opts.start, "start", "", "first month of the trends chart (YYYY-MM)")
	cmd.Flags().StringVar(&opts.end, "end", "", "last month of the trends chart (YYYY-MM); empty, here or at the prompt, repeats the start month")
	cmd.Flags().BoolVar(&opts.noPrompt, "no-prompt", false, "do not ask for a trends range")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runAnalyze(ctx context.Context, a *app, opts analyzeOptions, in io.Reader, out io.Writer) error {
	ctx = withRun(ctx)
	logger := a.logger
	tel := a.telemetry

	logger.InfoContext(ctx, "Starting sales analysis",
		slog.String("file", opts.file),
		slog.String("output_dir", opts.outdir))

	loader := dataprocessing.NewLoader(logger)

	stageCtx, done := tel.StartStage(ctx, "load")
	raw, err := loader.Load(stageCtx, opts.file)
	done(err)
	if err != nil {
		return err
	}
	tel.Metrics.RecordRows(ctx, len(raw.Rows))

	_, done = tel.StartStage(ctx, "clean")
	table, err := dataprocessing.NewPreprocessor(a.cfg.Analysis.AgeBinning(), logger).Clean(raw)
	done(err)
	if err != nil {
		return err
	}
	tel.Metrics.RecordCleaning(ctx, table.Report)

	stageCtx, done = tel.StartStage(ctx, "persist")
	err = loader.Persist(stageCtx, table, filepath.Join(opts.outdir, a.cfg.Output.SnapshotName))
	done(err)
	if err != nil {
		return err
	}

	renderer := tel.InstrumentRenderer(charts.NewPlotRenderer())
	analyzer := dataprocessing.NewAnalyzer(table, renderer, logger, dataprocessing.AnalyzerConfig{
		HistogramBins: a.cfg.Analysis.HistogramBins,
	})

	if err := printReport(out, analyzer); err != nil {
		return err
	}

	_, done = tel.StartStage(ctx, "export")
	err = exportTables(analyzer, a, opts.outdir)
	done(err)
	if err != nil {
		return err
	}

	stageCtx, done = tel.StartStage(ctx, "charts")
	err = analyzer.RenderAll(stageCtx, opts.outdir)
	done(err)
	if err != nil {
		return err
	}

	start, end, err := trendsRange(opts, in, out)
	if err != nil {
		return err
	}
	if start == "" {
		logger.InfoContext(ctx, "Monthly trends skipped")
	} else {
		for _, month := range []string{start, end} {
			if !isYearMonth(month) {
				logger.WarnContext(ctx, "Month is not in YYYY-MM form; range comparison is lexical",
					slog.String("month", month))
			}
		}
		stageCtx, done = tel.StartStage(ctx, "trends")
		err = analyzer.MonthlyTrendsChart(stageCtx, start, end, opts.outdir)
		done(err)
		if err != nil {
			return err
		}
	}

	if a.cfg.Telemetry.Metrics {
		if err := tel.WriteMetrics(filepath.Join(opts.outdir, a.cfg.Telemetry.MetricsFile)); err != nil {
			return err
		}
	}

	if err := appendRunHistory(ctx, a, opts, table); err != nil {
		return err
	}

	logger.InfoContext(ctx, "Sales analysis complete",
		slog.Int("rows", table.Len()),
		slog.String("output_dir", opts.outdir))
	return nil
}

func exportTables(analyzer *dataprocessing.Analyzer, a *app, outdir string) error {
	summary := exporter.NewSummaryExporter(exporter.NewCSVWriter(outdir, a.logger), a.cfg.Output.BOMPrefix)

	if _, err := summary.ExportStatistics(analyzer.SummaryStatistics(), a.cfg.Output.StatisticsCSV); err != nil {
		return fmt.Errorf("export statistics: %w", err)
	}
	if _, err := summary.ExportGroupTotals(dataprocessing.ColProductCategory, dataprocessing.ColProfit,
		analyzer.ProfitByCategory(), profitByCategoryCSV); err != nil {
		return fmt.Errorf("export profit by category: %w", err)
	}
	if _, err := summary.ExportGroupTotals(dataprocessing.ColAgeGroup, dataprocessing.ColRevenue,
		analyzer.RevenueByAgeGroup(), ageGroupRevenueCSV); err != nil {
		return fmt.Errorf("export revenue by age group: %w", err)
	}
	return nil
}

func appendRunHistory(ctx context.Context, a *app, opts analyzeOptions, table *dataprocessing.CleanedTable) error {
	run := exporter.RunSummary{
		RunID:      infrastructure.RunID(ctx),
		FinishedAt: time.Now(),
		Source:     filepath.Base(opts.file),
		Rows:       table.Len(),
	}
	for _, n := range table.Report.Defaulted {
		run.DefaultedCells += n
	}
	for _, r := range table.Records {
		run.Revenue += r.Revenue
		run.Profit += r.Profit
	}

	summary := exporter.NewSummaryExporter(exporter.NewCSVWriter(opts.outdir, a.logger), a.cfg.Output.BOMPrefix)
	if _, err := summary.AppendRunHistory(run, runHistoryCSV); err != nil {
		return fmt.Errorf("append run history: %w", err)
	}
	return nil
}

// trendsRange returns the monthly trends bounds from flags or, unless
// disabled, from the prompt. An empty start means no trends chart; an empty
// end repeats the start.
func trendsRange(opts analyzeOptions, in io.Reader, out io.Writer) (string, string, error) {
	start, end := strings.TrimSpace(opts.start), strings.TrimSpace(opts.end)
	if start == "" && !opts.noPrompt {
		reader := bufio.NewReader(in)

		var err error
		start, err = prompt(reader, out, "Enter start (YYYY-MM) or press Enter to skip: ")
		if err != nil {
			return "", "", err
		}
		if start != "" {
			end, err = prompt(reader, out, "Enter end (YYYY-MM) or press Enter for the same month: ")
			if err != nil {
				return "", "", err
			}
		}
	}

	if start == "" {
		return "", "", nil
	}
	if end == "" {
		end = start
	}
	return start, end, nil
}

// prompt writes question and reads one line. End of input counts as an empty answer.
func prompt(reader *bufio.Reader, out io.Writer, question string) (string, error) {
	fmt.Fprint(out, question)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func isYearMonth(s string) bool {
	_, err := time.Parse("2006-01", s)
	return err == nil && len(s) == len("2006-01")
}
