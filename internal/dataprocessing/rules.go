package dataprocessing

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ProfitRate is the share of revenue assumed as profit when none is recorded.
const ProfitRate = 0.10

const dateTimeLayout = "2006-01-02 15:04:05"

// Rule describes how one column of a raw table becomes a field of a Record.
// Rules run in order, so a Fallback may read fields set by earlier rules.
type Rule struct {
	Column string
	// Parse stores the value of a non-empty cell into rec and reports success.
	// Text values are stored verbatim, so " A" and "A" stay distinct.
	Parse func(cell string, rec *Record) bool
	// Fallback fills rec when the cell is empty, unparsable or the column is
	// absent. A nil Fallback leaves the field null.
	Fallback func(rec *Record)
}

// apply runs the rule for one row. col is -1 when the column is absent.
// It reports whether the fallback path was taken. A cell holding only
// whitespace counts as empty; any other cell reaches Parse untrimmed.
func (r Rule) apply(raw *RawTable, row, col int, rec *Record) bool {
	if col >= 0 && r.Parse != nil {
		if cell := raw.Cell(row, col); strings.TrimSpace(cell) != "" && r.Parse(cell, rec) {
			return false
		}
	}
	if r.Fallback != nil {
		r.Fallback(rec)
	}
	return true
}

// ColumnRules returns the cleaning pipeline. When derivedAgeGroup is true the
// Age_Group rule ignores any input cell and bins Customer_Age instead.
func ColumnRules(binning AgeBinning, derivedAgeGroup bool) []Rule {
	ageGroup := Rule{
		Column: ColAgeGroup,
		Parse:  parseText(func(rec *Record, v string) { rec.AgeGroup = v }),
	}
	if derivedAgeGroup {
		ageGroup = Rule{
			Column:   ColAgeGroup,
			Fallback: func(rec *Record) { rec.AgeGroup = binning.Assign(rec.CustomerAge) },
		}
	}

	return []Rule{
		{
			Column: ColDate,
			Parse: func(cell string, rec *Record) bool {
				d, ok := ParseDate(cell)
				if ok {
					rec.Date = &d
				}
				return ok
			},
		},
		{
			Column: ColCustomerAge,
			Parse: func(cell string, rec *Record) bool {
				v, ok := ParseNumber(cell)
				if ok {
					rec.CustomerAge = &v
				}
				return ok
			},
		},
		{Column: ColCustomerGender, Parse: parseText(func(rec *Record, v string) { rec.CustomerGender = v })},
		{Column: ColProductCategory, Parse: parseText(func(rec *Record, v string) { rec.ProductCategory = v })},
		{Column: ColSubCategory, Parse: parseText(func(rec *Record, v string) { rec.SubCategory = v })},
		{Column: ColProduct, Parse: parseText(func(rec *Record, v string) { rec.Product = v })},
		{
			Column: ColOrderQuantity,
			Parse: func(cell string, rec *Record) bool {
				v, ok := ParseNumber(cell)
				if !ok || v < 0 || v >= math.MaxInt64 {
					return false
				}
				rec.OrderQuantity = int64(v)
				return true
			},
			Fallback: func(rec *Record) { rec.OrderQuantity = 0 },
		},
		{
			Column: ColUnitPrice,
			Parse: func(cell string, rec *Record) bool {
				v, ok := ParseNumber(cell)
				if !ok || v < 0 {
					return false
				}
				rec.UnitPrice = v
				return true
			},
			Fallback: func(rec *Record) { rec.UnitPrice = 0 },
		},
		{
			Column: ColRevenue,
			Parse:  parseFloatInto(func(rec *Record, v float64) { rec.Revenue = v }),
			Fallback: func(rec *Record) {
				rec.Revenue = float64(rec.OrderQuantity) * rec.UnitPrice
			},
		},
		{
			Column: ColProfit,
			Parse:  parseFloatInto(func(rec *Record, v float64) { rec.Profit = v }),
			Fallback: func(rec *Record) {
				rec.Profit = rec.Revenue * ProfitRate
			},
		},
		ageGroup,
	}
}

func parseText(set func(rec *Record, v string)) func(string, *Record) bool {
	return func(cell string, rec *Record) bool {
		set(rec, cell)
		return true
	}
}

func parseFloatInto(set func(rec *Record, v float64)) func(string, *Record) bool {
	return func(cell string, rec *Record) bool {
		v, ok := ParseNumber(cell)
		if ok {
			set(rec, v)
		}
		return ok
	}
}

// ParseNumber parses a finite decimal, ignoring surrounding space and thousands separators.
func ParseNumber(cell string) (float64, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseDate parses a textual date in any common layout, month first when the
// order is ambiguous. Timestamps carrying an offset keep their wall clock
// reading, so the calendar day and month are those written in the cell. The
// result is always in UTC. Excel serial numbers are not accepted here; the
// loader converts them while it still knows the cell type.
func ParseDate(cell string) (t time.Time, ok bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return time.Time{}, false
	}
	// dateparse panics on some malformed input.
	defer func() {
		if recover() != nil {
			t, ok = time.Time{}, false
		}
	}()

	parsed, err := dateparse.ParseIn(s, time.UTC, dateparse.PreferMonthFirst(true))
	// Text that matches no layout can come back as year 0.
	if err != nil || parsed.Year() == 0 {
		return time.Time{}, false
	}
	return wallClock(parsed), true
}

func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
