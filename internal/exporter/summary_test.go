package exporter

import (
	"encoding/csv"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salescli/internal/dataprocessing"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func ptr(v float64) *float64 {
	return &v
}

func TestExportStatistics(t *testing.T) {
	exporter := NewSummaryExporter(NewCSVWriter(t.TempDir(), nil), false)

	stats := dataprocessing.StatsTable{Columns: []dataprocessing.ColumnStats{
		{
			Column: "Revenue", Count: 2,
			Mean: ptr(15), Median: ptr(15), StdDev: ptr(7.0710678), Min: ptr(10), Max: ptr(20),
		},
		{Column: "Customer_Age", Count: 1, Mean: ptr(30), Median: ptr(30), Min: ptr(30), Max: ptr(30)},
		{Column: "Profit"},
	}}

	path, err := exporter.ExportStatistics(stats, "summary_statistics.csv")
	require.NoError(t, err)

	rows := readCSV(t, path)
	require.Len(t, rows, 4)
	assert.Equal(t, StatisticsHeaders, rows[0])
	assert.Equal(t, []string{"Revenue", "2", "15.00", "15.00", "7.07", "10.00", "20.00"}, rows[1])
	assert.Equal(t, []string{"Customer_Age", "1", "30.00", "30.00", "", "30.00", "30.00"}, rows[2])
	assert.Equal(t, []string{"Profit", "0", "", "", "", "", ""}, rows[3])
}

func TestExportGroupTotals(t *testing.T) {
	exporter := NewSummaryExporter(NewCSVWriter(t.TempDir(), nil), false)

	totals := []dataprocessing.GroupTotal{
		{Key: "Accessories", Value: 6},
		{Key: "Bikes", Value: 30.456},
	}
	path, err := exporter.ExportGroupTotals("Product_Category", "Profit", totals, "profit_by_category.csv")
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"Product_Category", "Profit"},
		{"Accessories", "6.00"},
		{"Bikes", "30.46"},
	}, readCSV(t, path))
}

func TestAppendRunHistory(t *testing.T) {
	exporter := NewSummaryExporter(NewCSVWriter(t.TempDir(), nil), true)
	finished := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)

	path, err := exporter.AppendRunHistory(RunSummary{
		RunID: "run-1", FinishedAt: finished, Source: "sales.xlsx",
		Rows: 5, DefaultedCells: 2, Revenue: 360, Profit: 36,
	}, "run_history.csv")
	require.NoError(t, err)

	_, err = exporter.AppendRunHistory(RunSummary{
		RunID: "run-2", FinishedAt: finished.Add(time.Hour), Source: "sales.csv",
		Rows: 1, Revenue: 10.5, Profit: 1.05,
	}, "run_history.csv")
	require.NoError(t, err)

	rows := readCSV(t, path)
	require.Len(t, rows, 3, "header is written once")
	assert.Equal(t, "\ufeffrun_id", rows[0][0])
	assert.Equal(t, RunHistoryHeaders[1:], rows[0][1:])
	assert.Equal(t, []string{"run-1", "2024-05-01T08:30:00Z", "sales.xlsx", "5", "2", "360.00", "36.00"}, rows[1])
	assert.Equal(t, []string{"run-2", "2024-05-01T09:30:00Z", "sales.csv", "1", "0", "10.50", "1.05"}, rows[2])
}
