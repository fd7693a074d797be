package dataprocessing

import (
	"io"
	"log/slog"
	"sort"

	"salescli/internal/charts"
)

// GroupTotal is the aggregate of one group key.
type GroupTotal struct {
	Key   string
	Value float64
}

// MonthlyTotal sums Revenue and Profit for one Year-Month key ("YYYY-MM").
type MonthlyTotal struct {
	Month   string
	Revenue float64
	Profit  float64
}

// ProductMargin is the mean Profit/Revenue of a product over the rows where
// Revenue is non-zero. Rows is the number of such rows; Margin is meaningless
// when Rows is zero.
type ProductMargin struct {
	Product string
	Margin  float64
	Rows    int
}

// Defined reports whether at least one row contributed a margin.
func (m ProductMargin) Defined() bool {
	return m.Rows > 0
}

// AnalyzerConfig holds analyzer options.
type AnalyzerConfig struct {
	HistogramBins int
}

// DefaultAnalyzerConfig returns the standard analyzer options.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{HistogramBins: DefaultHistogramBins}
}

// Analyzer computes statistics and aggregates over a cleaned table and asks a
// renderer to draw them. It never modifies the table.
type Analyzer struct {
	table    *CleanedTable
	renderer charts.Renderer
	logger   *slog.Logger
	bins     int
}

// NewAnalyzer creates an analyzer over table. A nil logger discards output.
func NewAnalyzer(table *CleanedTable, renderer charts.Renderer, logger *slog.Logger, config AnalyzerConfig) *Analyzer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.HistogramBins <= 0 {
		config.HistogramBins = DefaultHistogramBins
	}
	if table == nil {
		table = &CleanedTable{}
	}
	return &Analyzer{
		table:    table,
		renderer: renderer,
		logger:   logger.With(slog.String("component", "analyzer")),
		bins:     config.HistogramBins,
	}
}

// SummaryStatistics describes every numeric column.
func (a *Analyzer) SummaryStatistics() StatsTable {
	st := StatsTable{Columns: make([]ColumnStats, 0, len(NumericColumns))}
	for _, col := range NumericColumns {
		st.Columns = append(st.Columns, describe(col, columnValues(a.table.Records, col)))
	}
	return st
}

// CategoryCounts returns the number of distinct non-null product categories,
// sub-categories and products.
func (a *Analyzer) CategoryCounts() (categories, subCategories, products int) {
	cats := make(map[string]struct{})
	subs := make(map[string]struct{})
	prods := make(map[string]struct{})
	for _, r := range a.table.Records {
		if r.ProductCategory != "" {
			cats[r.ProductCategory] = struct{}{}
		}
		if r.SubCategory != "" {
			subs[r.SubCategory] = struct{}{}
		}
		if r.Product != "" {
			prods[r.Product] = struct{}{}
		}
	}
	return len(cats), len(subs), len(prods)
}

// ProfitByCategory sums Profit per Product_Category, ascending by sum.
func (a *Analyzer) ProfitByCategory() []GroupTotal {
	sums := make(map[string]float64)
	for _, r := range a.table.Records {
		if r.ProductCategory != "" {
			sums[r.ProductCategory] += r.Profit
		}
	}
	totals := sortedTotals(sums)
	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Value < totals[j].Value
	})
	return totals
}

// AgeValues returns the non-null customer ages in row order.
func (a *Analyzer) AgeValues() []float64 {
	return columnValues(a.table.Records, ColCustomerAge)
}

// GenderCounts counts rows per Customer_Gender, most frequent first. Rows with
// no gender are not counted.
func (a *Analyzer) GenderCounts() []GroupTotal {
	counts := make(map[string]float64)
	for _, r := range a.table.Records {
		if r.CustomerGender != "" {
			counts[r.CustomerGender]++
		}
	}
	totals := sortedTotals(counts)
	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Value > totals[j].Value
	})
	return totals
}

// RevenueByAgeGroup sums Revenue per Age_Group. When the groups were derived
// every level is reported in bin order, empty levels as zero; otherwise the
// groups present are reported in lexical order.
func (a *Analyzer) RevenueByAgeGroup() []GroupTotal {
	sums := make(map[string]float64)
	for _, r := range a.table.Records {
		if r.AgeGroup != "" {
			sums[r.AgeGroup] += r.Revenue
		}
	}
	if a.table.AgeGroupLevels == nil {
		return sortedTotals(sums)
	}
	totals := make([]GroupTotal, 0, len(a.table.AgeGroupLevels))
	for _, level := range a.table.AgeGroupLevels {
		totals = append(totals, GroupTotal{Key: level, Value: sums[level]})
	}
	return totals
}

// MonthlyTrends sums Revenue and Profit per Year-Month for dated rows whose key
// lies in [start, end]. Keys compare as strings, which matches chronological
// order only for "YYYY-MM" bounds.
func (a *Analyzer) MonthlyTrends(start, end string) []MonthlyTotal {
	byMonth := make(map[string]*MonthlyTotal)
	for _, r := range a.table.Records {
		if r.Date == nil {
			continue
		}
		key := r.Date.Format("2006-01")
		if key < start || key > end {
			continue
		}
		m, ok := byMonth[key]
		if !ok {
			m = &MonthlyTotal{Month: key}
			byMonth[key] = m
		}
		m.Revenue += r.Revenue
		m.Profit += r.Profit
	}

	months := make([]MonthlyTotal, 0, len(byMonth))
	for _, m := range byMonth {
		months = append(months, *m)
	}
	sort.Slice(months, func(i, j int) bool {
		return months[i].Month < months[j].Month
	})
	return months
}

// ProfitMarginByProduct averages Profit/Revenue per product, skipping rows with
// zero Revenue. Products are returned in lexical order.
func (a *Analyzer) ProfitMarginByProduct() []ProductMargin {
	type acc struct {
		sum  float64
		rows int
	}
	byProduct := make(map[string]*acc)
	for _, r := range a.table.Records {
		if r.Product == "" {
			continue
		}
		m, ok := byProduct[r.Product]
		if !ok {
			m = &acc{}
			byProduct[r.Product] = m
		}
		if r.Revenue == 0 {
			continue
		}
		m.sum += r.Profit / r.Revenue
		m.rows++
	}

	margins := make([]ProductMargin, 0, len(byProduct))
	for product, m := range byProduct {
		pm := ProductMargin{Product: product, Rows: m.rows}
		if m.rows > 0 {
			pm.Margin = m.sum / float64(m.rows)
		}
		margins = append(margins, pm)
	}
	sort.Slice(margins, func(i, j int) bool {
		return margins[i].Product < margins[j].Product
	})
	return margins
}

// sortedTotals converts sums to a slice ordered by key.
func sortedTotals(sums map[string]float64) []GroupTotal {
	totals := make([]GroupTotal, 0, len(sums))
	for k, v := range sums {
		totals = append(totals, GroupTotal{Key: k, Value: v})
	}
	sort.Slice(totals, func(i, j int) bool {
		return totals[i].Key < totals[j].Key
	})
	return totals
}
