package dataprocessing

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "salescli/internal/errors"
)

// Loader reads sales spreadsheets and writes table snapshots.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader. A nil logger discards output.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{logger: logger.With(slog.String("component", "loader"))}
}

// Load reads the first sheet of a workbook (or a CSV file) into a RawTable.
// The first non-empty row is the header. It fails with a NOT_FOUND error when
// path does not exist and a FORMAT error when the content is not tabular.
func (l *Loader) Load(ctx context.Context, path string) (*RawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "Loading spreadsheet", slog.String("path", path))

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewNotFoundError(path, err)
		}
		return nil, apperrors.NewFormatError(path, err)
	}
	if info.IsDir() {
		return nil, apperrors.NewFormatError(path, fmt.Errorf("is a directory"))
	}

	var rows [][]string
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		rows, err = l.readWorkbook(ctx, path)
	case ".csv":
		rows, err = readCSV(path)
	default:
		err = fmt.Errorf("unsupported file extension %q", ext)
	}
	if err != nil {
		return nil, apperrors.NewFormatError(path, err)
	}

	table, err := tableFromRows(rows)
	if err != nil {
		return nil, apperrors.NewFormatError(path, err)
	}
	table.Source = path

	l.logger.InfoContext(ctx, "Spreadsheet loaded",
		slog.String("path", path),
		slog.Int("rows", len(table.Rows)),
		slog.Int("columns", len(table.Header)))

	return table, nil
}

// readWorkbook returns the raw cell values of the first sheet. Raw values keep
// dates as Excel serial numbers and numbers without display formatting.
func (l *Loader) readWorkbook(ctx context.Context, path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	converted := convertSerialDates(f, sheets[0], rows)

	l.logger.DebugContext(ctx, "Found sales data in sheet",
		slog.String("sheet_name", sheets[0]),
		slog.Int("sheet_count", len(sheets)),
		slog.Int("total_rows", len(rows)),
		slog.Int("serial_dates", converted))

	return rows, nil
}

// Excel serial numbers of 0001-01-01 and 9999-12-31; anything outside is not a date.
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465
)

// convertSerialDates rewrites numeric cells of the Date column as text
// timestamps. Only numeric cells are serials; text cells such as "2023" are
// left for ParseDate. A numeric cell outside the serial range is cleared.
// rows[i] is sheet row i+1, as returned by GetRows.
func convertSerialDates(f *excelize.File, sheet string, rows [][]string) int {
	headerRow := 0
	for headerRow < len(rows) && isBlankRow(rows[headerRow]) {
		headerRow++
	}
	if headerRow == len(rows) {
		return 0
	}

	col := -1
	for i, name := range rows[headerRow] {
		if strings.TrimSpace(name) == ColDate {
			col = i
			break
		}
	}
	if col < 0 {
		return 0
	}

	converted := 0
	for r := headerRow + 1; r < len(rows); r++ {
		if col >= len(rows[r]) {
			continue
		}
		serial, ok := ParseNumber(rows[r][col])
		if !ok {
			continue
		}
		axis, err := excelize.CoordinatesToCellName(col+1, r+1)
		if err != nil {
			continue
		}
		cellType, err := f.GetCellType(sheet, axis)
		if err != nil || (cellType != excelize.CellTypeUnset && cellType != excelize.CellTypeNumber) {
			continue
		}

		rows[r][col] = ""
		if serial < minExcelSerial || serial > maxExcelSerial {
			continue
		}
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			rows[r][col] = t.Format(dateTimeLayout)
			converted++
		}
	}
	return converted
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

// tableFromRows takes the first non-empty row as header, drops blank rows and
// pads or truncates the rest to the header width.
func tableFromRows(rows [][]string) (*RawTable, error) {
	start := 0
	for start < len(rows) && isBlankRow(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, fmt.Errorf("no header row found")
	}

	header := append([]string(nil), rows[start]...)
	table := &RawTable{Header: header}

	for _, row := range rows[start+1:] {
		if isBlankRow(row) {
			continue
		}
		cells := make([]string, len(header))
		copy(cells, row)
		table.Rows = append(table.Rows, cells)
	}
	return table, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
