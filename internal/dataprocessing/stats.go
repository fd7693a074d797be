package dataprocessing

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// NumericColumns are the columns described by SummaryStatistics, in output order.
var NumericColumns = []string{
	ColCustomerAge,
	ColOrderQuantity,
	ColUnitPrice,
	ColRevenue,
	ColProfit,
}

// ColumnStats describes one numeric column. Nil fields are undefined: every
// field for an empty column, StdDev for a column with fewer than two values.
type ColumnStats struct {
	Column string
	Count  int
	Mean   *float64
	Median *float64
	StdDev *float64
	Min    *float64
	Max    *float64
}

// StatsTable holds ColumnStats in NumericColumns order.
type StatsTable struct {
	Columns []ColumnStats
}

// Get returns the statistics of a column by name.
func (s StatsTable) Get(column string) (ColumnStats, bool) {
	for _, c := range s.Columns {
		if c.Column == column {
			return c, true
		}
	}
	return ColumnStats{}, false
}

// describe computes the statistics of values; it does not modify them.
func describe(column string, values []float64) ColumnStats {
	cs := ColumnStats{Column: column, Count: len(values)}
	if len(values) == 0 {
		return cs
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mean := stat.Mean(sorted, nil)
	median := medianOfSorted(sorted)
	lo, hi := floats.Min(sorted), floats.Max(sorted)
	cs.Mean, cs.Median, cs.Min, cs.Max = &mean, &median, &lo, &hi

	if len(sorted) > 1 {
		// stat.StdDev is the unbiased (n-1) estimate.
		sd := stat.StdDev(sorted, nil)
		cs.StdDev = &sd
	}
	return cs
}

// medianOfSorted averages the two middle values of an even-length input.
func medianOfSorted(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// columnValues extracts the non-null values of a numeric column.
func columnValues(records []Record, column string) []float64 {
	values := make([]float64, 0, len(records))
	for _, r := range records {
		switch column {
		case ColCustomerAge:
			if r.CustomerAge != nil {
				values = append(values, *r.CustomerAge)
			}
		case ColOrderQuantity:
			values = append(values, float64(r.OrderQuantity))
		case ColUnitPrice:
			values = append(values, r.UnitPrice)
		case ColRevenue:
			values = append(values, r.Revenue)
		case ColProfit:
			values = append(values, r.Profit)
		}
	}
	return values
}
