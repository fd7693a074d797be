package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// SalesHeader is the header row of a complete sales sheet without the
// optional Profit and Age_Group columns.
var SalesHeader = []any{
	"Date", "Customer_Age", "Customer_Gender", "Product_Category",
	"Sub_Category", "Product", "Order_Quantity", "Unit_Price", "Revenue",
}

// WriteWorkbook saves rows to the first sheet of a new workbook in dir and
// returns its path. Cells keep their Go types, so time.Time values become
// Excel dates and numbers stay numeric.
func WriteWorkbook(t *testing.T, dir, name string, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name for row %d: %v", i+1, err)
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatalf("write row %d: %v", i+1, err)
		}
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save temp workbook: %v", err)
	}
	return path
}

// WriteCSV saves rows as a CSV file in dir and returns its path.
func WriteCSV(t *testing.T, dir, name string, rows [][]string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create csv: %v", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}
