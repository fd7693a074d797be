package exporter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"salescli/internal/dataprocessing"
)

// StatisticsHeaders is the header row of the summary statistics export.
var StatisticsHeaders = []string{"Column", "count", "mean", "median", "std", "min", "max"}

// RunHistoryHeaders is the header row of the run history export.
var RunHistoryHeaders = []string{"run_id", "finished_at", "source", "rows", "defaulted_cells", "revenue", "profit"}

// RunSummary is one line of the run history.
type RunSummary struct {
	RunID          string
	FinishedAt     time.Time
	Source         string
	Rows           int
	DefaultedCells int
	Revenue        float64
	Profit         float64
}

// SummaryExporter writes analysis results as CSV files.
type SummaryExporter struct {
	writer    *CSVWriter
	bomPrefix bool
}

// NewSummaryExporter creates an exporter on top of writer.
func NewSummaryExporter(writer *CSVWriter, bomPrefix bool) *SummaryExporter {
	return &SummaryExporter{writer: writer, bomPrefix: bomPrefix}
}

// ExportStatistics writes one row per numeric column. Undefined statistics are
// left empty.
func (e *SummaryExporter) ExportStatistics(stats dataprocessing.StatsTable, filePath string) (string, error) {
	records := make([][]string, 0, len(stats.Columns))
	for _, cs := range stats.Columns {
		records = append(records, []string{
			cs.Column,
			formatInt(cs.Count),
			formatOptional(cs.Mean),
			formatOptional(cs.Median),
			formatOptional(cs.StdDev),
			formatOptional(cs.Min),
			formatOptional(cs.Max),
		})
	}

	return e.writer.WriteCSV(filePath, WriteOptions{
		Headers:   StatisticsHeaders,
		Records:   records,
		BOMPrefix: e.bomPrefix,
	})
}

// ExportGroupTotals writes a two-column key/value table, keeping the order of totals.
func (e *SummaryExporter) ExportGroupTotals(keyHeader, valueHeader string, totals []dataprocessing.GroupTotal, filePath string) (string, error) {
	records := make([][]string, 0, len(totals))
	for _, t := range totals {
		records = append(records, []string{t.Key, formatFloat(t.Value)})
	}

	return e.writer.WriteCSV(filePath, WriteOptions{
		Headers:   []string{keyHeader, valueHeader},
		Records:   records,
		BOMPrefix: e.bomPrefix,
	})
}

// AppendRunHistory adds run to the history file. The header is written only
// when the file does not exist yet.
func (e *SummaryExporter) AppendRunHistory(run RunSummary, filePath string) (string, error) {
	_, err := os.Stat(e.writer.resolvePath(filePath))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to stat run history: %w", err)
	}

	return e.writer.WriteCSV(filePath, WriteOptions{
		Headers: RunHistoryHeaders,
		Records: [][]string{{
			run.RunID,
			run.FinishedAt.UTC().Format(time.RFC3339),
			run.Source,
			formatInt(run.Rows),
			formatInt(run.DefaultedCells),
			formatFloat(run.Revenue),
			formatFloat(run.Profit),
		}},
		Append:    err == nil,
		BOMPrefix: e.bomPrefix,
	})
}
