package dataprocessing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "salescli/internal/errors"
	"salescli/internal/shared/testutil"
)

func TestLoaderLoadWorkbook(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteWorkbook(t, dir, "sales.xlsx", [][]any{
		testutil.SalesHeader,
		{time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 30, "F", "Bikes", "Road Bikes", "Road-150", 3, 10.5, 31.5},
		{},
		{"2024-02-01", "", "M", "Accessories", "Helmets", "Sport-100", 1, 35, ""},
	})

	loader := NewLoader(nil)
	raw, err := loader.Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, path, raw.Source)
	assert.Equal(t, salesHeader, raw.Header)
	require.Len(t, raw.Rows, 2, "blank rows are dropped")
	for _, row := range raw.Rows {
		assert.Len(t, row, len(raw.Header))
	}

	table, err := Clean(raw, DefaultAgeBinning())
	require.NoError(t, err)

	first := table.Records[0]
	require.NotNil(t, first.Date)
	assert.Equal(t, "2024-01-15", first.Date.Format("2006-01-02"))
	assert.Equal(t, int64(3), first.OrderQuantity)
	assert.Equal(t, 31.5, first.Revenue)
	assert.Equal(t, "26-35", first.AgeGroup)

	second := table.Records[1]
	require.NotNil(t, second.Date)
	assert.Equal(t, "2024-02-01", second.Date.Format("2006-01-02"))
	assert.Nil(t, second.CustomerAge)
	assert.Equal(t, 35.0, second.Revenue)
}

func TestLoaderWorkbookSerialDates(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteWorkbook(t, dir, "serials.xlsx", [][]any{
		testutil.SalesHeader,
		{45292, 30, "F", "Bikes", "Road", "R1", 1, 10, 10},
		{45292.5, 30, "F", "Bikes", "Road", "R1", 1, 10, 10},
		{"2023", 30, "F", "Bikes", "Road", "R1", 1, 10, 10},
		{"45292", 30, "F", "Bikes", "Road", "R1", 1, 10, 10},
		{2023, 30, "F", "Bikes", "Road", "R1", 1, 10, 10},
		{-5, 30, "F", "Bikes", "Road", "R1", 1, 10, 10},
	})

	raw, err := NewLoader(nil).Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, raw.Rows, 6)

	assert.Equal(t, "2024-01-01 00:00:00", raw.Cell(0, 0))
	assert.Equal(t, "2024-01-01 12:00:00", raw.Cell(1, 0))
	assert.Equal(t, "2023", raw.Cell(2, 0), "text cells are not serials")
	assert.Equal(t, "45292", raw.Cell(3, 0), "text cells are not serials")
	assert.Equal(t, "1905-07-15 00:00:00", raw.Cell(4, 0))
	assert.Equal(t, "", raw.Cell(5, 0), "numeric cells outside the serial range are cleared")

	table, err := Clean(raw, DefaultAgeBinning())
	require.NoError(t, err)

	require.NotNil(t, table.Records[2].Date)
	assert.Equal(t, "2023-01-01", table.Records[2].Date.Format("2006-01-02"))
	assert.Nil(t, table.Records[3].Date)
	assert.Nil(t, table.Records[5].Date)
}

func TestLoaderLoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteCSV(t, dir, "sales.csv", [][]string{
		{"\ufeffDate", "Customer_Age", "Customer_Gender", "Product_Category", "Sub_Category",
			"Product", "Order_Quantity", "Unit_Price", "Revenue", "Extra"},
		{"2024-03-01", "40", "F", "Clothing", "Caps", "Cap", "2", "9", "18", "ignored"},
		{"2024-03-02", "41", "M", "Clothing", "Caps"},
	})

	raw, err := NewLoader(nil).Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, ColDate, raw.Header[0])
	require.Len(t, raw.Rows, 2)
	assert.Equal(t, "", raw.Cell(1, 5), "short rows are padded")
	assert.Equal(t, "", raw.Cell(7, 0), "out of range cells are empty")
}

func TestLoaderLoadErrors(t *testing.T) {
	dir := t.TempDir()

	textFile := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(textFile, []byte("hello"), 0644))

	brokenWorkbook := filepath.Join(dir, "broken.xlsx")
	require.NoError(t, os.WriteFile(brokenWorkbook, []byte("not a zip archive"), 0644))

	emptyWorkbook := testutil.WriteWorkbook(t, dir, "empty.xlsx", nil)

	tests := []struct {
		name     string
		path     string
		wantType apperrors.ErrorType
	}{
		{"missing file", filepath.Join(dir, "missing.xlsx"), apperrors.ErrTypeNotFound},
		{"directory", dir, apperrors.ErrTypeFormat},
		{"unsupported extension", textFile, apperrors.ErrTypeFormat},
		{"corrupt workbook", brokenWorkbook, apperrors.ErrTypeFormat},
		{"no header row", emptyWorkbook, apperrors.ErrTypeFormat},
	}

	loader := NewLoader(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.Load(context.Background(), tt.path)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, tt.wantType), "got %v", err)
		})
	}
}

func TestLoaderLoadCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader(nil).Load(ctx, "whatever.xlsx")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTableFromRows(t *testing.T) {
	table, err := tableFromRows([][]string{
		{"", " "},
		{"a", "b"},
		{"1", "2", "3"},
		{"", ""},
		{"4"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, table.Header)
	assert.Equal(t, [][]string{{"1", "2"}, {"4", ""}}, table.Rows)

	_, err = tableFromRows([][]string{{""}})
	assert.Error(t, err)
}
