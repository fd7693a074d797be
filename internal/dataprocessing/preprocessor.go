package dataprocessing

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	apperrors "salescli/internal/errors"
)

// Clean validates the required schema, coerces every column and derives the
// defaulted fields. It does not modify raw and has no side effects.
//
// Cell-level problems never fail the batch: unparsable dates and ages become
// null, quantities and prices fall back to zero, Revenue falls back to
// quantity × price and Profit to Revenue × ProfitRate. Age_Group is derived
// from Customer_Age only when the input does not carry the column.
func Clean(raw *RawTable, binning AgeBinning) (*CleanedTable, error) {
	if raw == nil {
		return nil, fmt.Errorf("clean: nil table")
	}
	if err := binning.Validate(); err != nil {
		return nil, apperrors.NewConfigError("invalid age binning", err)
	}

	index := headerIndex(raw.Header)

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewSchemaError(missing)
	}

	_, hasAgeGroup := index[ColAgeGroup]
	rules := ColumnRules(binning, !hasAgeGroup)

	cols := make([]int, len(rules))
	for i, r := range rules {
		cols[i] = -1
		if idx, ok := index[r.Column]; ok {
			cols[i] = idx
		}
	}

	table := &CleanedTable{
		Records: make([]Record, len(raw.Rows)),
		Report: CleaningReport{
			Rows:      len(raw.Rows),
			Defaulted: make(map[string]int),
		},
	}
	if !hasAgeGroup {
		table.AgeGroupLevels = append([]string(nil), binning.Labels...)
	}

	for row := range raw.Rows {
		rec := &table.Records[row]
		for i, r := range rules {
			if r.apply(raw, row, cols[i], rec) {
				table.Report.Defaulted[r.Column]++
			}
		}
	}

	return table, nil
}

// headerIndex maps trimmed column names to positions. The first occurrence of a
// duplicated name wins.
func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	return index
}

// Preprocessor runs Clean with a fixed binning and logs the outcome.
type Preprocessor struct {
	binning AgeBinning
	logger  *slog.Logger
}

// NewPreprocessor creates a preprocessor. A nil logger discards output.
func NewPreprocessor(binning AgeBinning, logger *slog.Logger) *Preprocessor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Preprocessor{
		binning: binning,
		logger:  logger.With(slog.String("component", "preprocessor")),
	}
}

// Clean cleans raw; see the package-level Clean.
func (p *Preprocessor) Clean(raw *RawTable) (*CleanedTable, error) {
	table, err := Clean(raw, p.binning)
	if err != nil {
		p.logger.Error("Data cleaning failed", slog.String("error", err.Error()))
		return nil, err
	}

	columns := make([]string, 0, len(table.Report.Defaulted))
	for col := range table.Report.Defaulted {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	for _, col := range columns {
		p.logger.Debug("Column values filled by fallback",
			slog.String("column", col),
			slog.Int("rows", table.Report.Defaulted[col]))
	}

	p.logger.Info("Data cleaned successfully",
		slog.Int("rows", table.Len()),
		slog.Any("columns", table.Columns()),
		slog.Bool("age_group_derived", table.AgeGroupLevels != nil))

	return table, nil
}
