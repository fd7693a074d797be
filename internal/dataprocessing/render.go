package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"salescli/internal/charts"
	apperrors "salescli/internal/errors"
)

// Chart file names written under the output directory.
const (
	FileAgeHistogram     = "customer_age_hist.png"
	FileProfitByCategory = "profit_by_category.png"
	FileGender           = "gender_distribution.png"
	FileAgeGroupRevenue  = "agegroup_revenue.png"
	FileMonthlyTrends    = "monthly_trends.png"
	FileProfitMargin     = "profit_margin_scatter.png"
)

// render creates outdir and draws chart into outdir/name.
func (a *Analyzer) render(ctx context.Context, chart charts.Chart, outdir, name string) error {
	if a.renderer == nil {
		return apperrors.NewRenderError(name, fmt.Errorf("no renderer configured"))
	}
	if err := os.MkdirAll(outdir, 0755); err != nil {
		return apperrors.NewStorageError("create output directory", err).WithContext("dir", outdir)
	}

	path := filepath.Join(outdir, name)
	if err := a.renderer.Render(ctx, chart, path); err != nil {
		return apperrors.NewRenderError(path, err)
	}

	a.logger.InfoContext(ctx, "Saved chart",
		slog.String("chart", chart.Kind.String()),
		slog.String("path", path))
	return nil
}

// ProfitByCategoryChart draws total profit per product category as horizontal bars.
func (a *Analyzer) ProfitByCategoryChart(ctx context.Context, outdir string) error {
	totals := a.ProfitByCategory()
	labels, values := splitTotals(totals)
	return a.render(ctx, charts.Chart{
		Kind:   charts.HorizontalBar,
		Title:  "Profit by Product Category",
		XLabel: "Profit",
		Labels: labels,
		Series: []charts.Series{{Name: "Profit", Values: values}},
	}, outdir, FileProfitByCategory)
}

// AgeDistributionChart draws a histogram of customer ages.
func (a *Analyzer) AgeDistributionChart(ctx context.Context, outdir string) error {
	return a.render(ctx, charts.Chart{
		Kind:   charts.Histogram,
		Title:  "Customer Age Distribution",
		XLabel: "Age",
		YLabel: "Count",
		Values: a.AgeValues(),
		Bins:   a.bins,
	}, outdir, FileAgeHistogram)
}

// GenderDistributionChart draws the share of rows per gender as a pie.
func (a *Analyzer) GenderDistributionChart(ctx context.Context, outdir string) error {
	counts := a.GenderCounts()

	counted := 0
	for _, c := range counts {
		counted += int(c.Value)
	}
	if excluded := a.table.Len() - counted; excluded > 0 {
		a.logger.DebugContext(ctx, "Rows without gender left out of distribution",
			slog.Int("rows", excluded))
	}

	labels, values := splitTotals(counts)
	return a.render(ctx, charts.Chart{
		Kind:   charts.Pie,
		Title:  "Gender Distribution",
		Labels: labels,
		Series: []charts.Series{{Name: "Customers", Values: values}},
	}, outdir, FileGender)
}

// RevenueByAgeGroupChart draws total revenue per age group as vertical bars.
func (a *Analyzer) RevenueByAgeGroupChart(ctx context.Context, outdir string) error {
	labels, values := splitTotals(a.RevenueByAgeGroup())
	return a.render(ctx, charts.Chart{
		Kind:   charts.Bar,
		Title:  "Revenue by Age Group",
		XLabel: "Age Group",
		YLabel: "Revenue",
		Labels: labels,
		Series: []charts.Series{{Name: "Revenue", Values: values}},
	}, outdir, FileAgeGroupRevenue)
}

// MonthlyTrendsChart draws monthly revenue and profit between start and end
// ("YYYY-MM", inclusive). An empty range logs a warning and still produces a
// chart with no lines.
func (a *Analyzer) MonthlyTrendsChart(ctx context.Context, start, end, outdir string) error {
	months := a.MonthlyTrends(start, end)
	if len(months) == 0 {
		a.logger.WarnContext(ctx, fmt.Sprintf("No data found between %s and %s", start, end),
			slog.String("start", start),
			slog.String("end", end))
	}

	labels := make([]string, len(months))
	revenue := make([]float64, len(months))
	profit := make([]float64, len(months))
	for i, m := range months {
		labels[i] = m.Month
		revenue[i] = m.Revenue
		profit[i] = m.Profit
	}

	return a.render(ctx, charts.Chart{
		Kind:   charts.Line,
		Title:  fmt.Sprintf("Monthly Revenue & Profit: %s to %s", start, end),
		XLabel: "Year-Month",
		YLabel: "Amount",
		Labels: labels,
		Series: []charts.Series{
			{Name: "Revenue", Values: revenue},
			{Name: "Profit", Values: profit},
		},
	}, outdir, FileMonthlyTrends)
}

// ProfitMarginChart draws the average profit margin of each product. Products
// whose rows all have zero revenue keep their label but get no point.
func (a *Analyzer) ProfitMarginChart(ctx context.Context, outdir string) error {
	margins := a.ProfitMarginByProduct()
	labels := make([]string, len(margins))
	values := make([]float64, len(margins))
	for i, m := range margins {
		labels[i] = m.Product
		values[i] = math.NaN()
		if m.Defined() {
			values[i] = m.Margin
		}
	}

	return a.render(ctx, charts.Chart{
		Kind:   charts.Scatter,
		Title:  "Average Profit Margin per Product",
		XLabel: "Product",
		YLabel: "Profit Margin",
		Labels: labels,
		Series: []charts.Series{{Name: "Margin", Values: values}},
	}, outdir, FileProfitMargin)
}

// RenderAll draws every chart that needs no date range, stopping at the first
// failure.
func (a *Analyzer) RenderAll(ctx context.Context, outdir string) error {
	steps := []func(context.Context, string) error{
		a.AgeDistributionChart,
		a.ProfitByCategoryChart,
		a.GenderDistributionChart,
		a.RevenueByAgeGroupChart,
		a.ProfitMarginChart,
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step(ctx, outdir); err != nil {
			return err
		}
	}
	return nil
}

func splitTotals(totals []GroupTotal) ([]string, []float64) {
	labels := make([]string, len(totals))
	values := make([]float64, len(totals))
	for i, t := range totals {
		labels[i] = t.Key
		values[i] = t.Value
	}
	return labels, values
}
