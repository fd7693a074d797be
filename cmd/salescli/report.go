package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"salescli/internal/dataprocessing"
	"salescli/internal/infrastructure"
)

func withRun(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return infrastructure.EnsureRunID(ctx)
}

// printReport writes the summary statistics table and the category counts.
func printReport(out io.Writer, analyzer *dataprocessing.Analyzer) error {
	if err := printStatistics(out, analyzer.SummaryStatistics()); err != nil {
		return err
	}

	categories, subCategories, products := analyzer.CategoryCounts()
	_, err := fmt.Fprintf(out, "\nProduct categories: %d\nSub-categories: %d\nProducts: %d\n\n",
		categories, subCategories, products)
	return err
}

func printStatistics(out io.Writer, stats dataprocessing.StatsTable) error {
	fmt.Fprintln(out, "Summary statistics:")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "\tcount\tmean\tmedian\tstd\tmin\tmax\t")
	for _, cs := range stats.Columns {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t\n",
			cs.Column, cs.Count,
			formatStat(cs.Mean), formatStat(cs.Median), formatStat(cs.StdDev),
			formatStat(cs.Min), formatStat(cs.Max))
	}
	return w.Flush()
}

func formatStat(v *float64) string {
	if v == nil {
		return "NaN"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
