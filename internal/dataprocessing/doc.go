// Package dataprocessing turns a retail sales spreadsheet into a cleaned table,
// descriptive statistics and chart requests.
//
// # Architecture
//
// The package is organized into three main components:
//
// 1. Loader: reads a workbook or CSV file into a RawTable and persists cleaned
// tables as Arrow IPC snapshots
// 2. Preprocessor: validates the required columns and applies the per-column
// cleaning rules
// 3. Analyzer: computes statistics and grouped totals and sends charts to a
// charts.Renderer
//
// # Usage
//
//	loader := dataprocessing.NewLoader(logger)
//	raw, err := loader.Load(ctx, "sales.xlsx")
//	if err != nil {
//	    return err
//	}
//
//	table, err := dataprocessing.NewPreprocessor(dataprocessing.DefaultAgeBinning(), logger).Clean(raw)
//	if err != nil {
//	    return err
//	}
//
//	analyzer := dataprocessing.NewAnalyzer(table, charts.NewPlotRenderer(), logger,
//	    dataprocessing.DefaultAnalyzerConfig())
//	err = analyzer.RenderAll(ctx, "outputs")
//
// # Data Flow
//
//	Spreadsheet → Loader → RawTable → Clean → CleanedTable → Analyzer → charts, statistics
//
// # Error Handling
//
// Structural problems are returned as typed errors from internal/errors: a
// missing file is NOT_FOUND, unreadable content is FORMAT and missing required
// columns are a SchemaError. Bad cells never fail a run; they are nulled or
// defaulted and counted in the CleaningReport.
package dataprocessing
