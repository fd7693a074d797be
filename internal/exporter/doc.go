// Package exporter provides CSV export functionality for sales analysis results.
//
// This package contains two components:
//
// CSVWriter: Core CSV writing functionality with support for headers, appends,
// and UTF-8 BOM for Excel compatibility.
//
// SummaryExporter: Writes the summary statistics table and grouped totals
// produced by the dataprocessing Analyzer.
//
// Example usage:
//
//	writer := exporter.NewCSVWriter("outputs", logger)
//	summary := exporter.NewSummaryExporter(writer, true)
//
//	path, err := summary.ExportStatistics(analyzer.SummaryStatistics(), "summary_statistics.csv")
package exporter
