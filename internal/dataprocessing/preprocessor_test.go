package dataprocessing

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "salescli/internal/errors"
	"salescli/internal/shared/testutil"
)

var salesHeader = []string{
	ColDate, ColCustomerAge, ColCustomerGender, ColProductCategory,
	ColSubCategory, ColProduct, ColOrderQuantity, ColUnitPrice, ColRevenue,
}

func salesRaw(rows ...[]string) *RawTable {
	return &RawTable{Source: "test", Header: append([]string(nil), salesHeader...), Rows: rows}
}

func TestCleanMissingColumns(t *testing.T) {
	raw := &RawTable{
		Header: []string{ColDate, ColCustomerAge, ColCustomerGender, ColProductCategory,
			ColSubCategory, ColOrderQuantity, ColUnitPrice},
	}

	_, err := Clean(raw, DefaultAgeBinning())
	require.Error(t, err)

	var schemaErr *apperrors.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.ElementsMatch(t, []string{ColProduct, ColRevenue}, schemaErr.MissingColumns)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
}

func TestCleanTrimsHeaders(t *testing.T) {
	raw := salesRaw([]string{"2024-01-01", "30", "F", "Bikes", "Road", "R1", "1", "100", "100"})
	for i := range raw.Header {
		raw.Header[i] = "  " + raw.Header[i] + " "
	}

	table, err := Clean(raw, DefaultAgeBinning())
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "Bikes", table.Records[0].ProductCategory)
}

func TestCleanDerivesRevenueAndProfit(t *testing.T) {
	raw := salesRaw([]string{"2024-01-01", "30", "F", "Bikes", "Road", "R1", "3", "10", ""})

	table, err := Clean(raw, DefaultAgeBinning())
	require.NoError(t, err)

	rec := table.Records[0]
	assert.Equal(t, 30.0, rec.Revenue)
	assert.InDelta(t, 3.0, rec.Profit, 1e-9)
	assert.Equal(t, 1, table.Report.Defaulted[ColRevenue])
	assert.Equal(t, 1, table.Report.Defaulted[ColProfit])
}

func TestCleanKeepsProvidedProfit(t *testing.T) {
	raw := salesRaw(
		[]string{"2024-01-01", "30", "F", "Bikes", "Road", "R1", "2", "50", "100", "40"},
		[]string{"2024-01-02", "31", "M", "Bikes", "Road", "R1", "2", "50", "100", ""},
	)
	raw.Header = append(raw.Header, ColProfit)

	table, err := Clean(raw, DefaultAgeBinning())
	require.NoError(t, err)
	assert.Equal(t, 40.0, table.Records[0].Profit)
	assert.InDelta(t, 10.0, table.Records[1].Profit, 1e-9)
}

func TestCleanCoercion(t *testing.T) {
	raw := salesRaw(
		[]string{"not a date", "abc", "", "", "", "", "-4", "-1", "n/a"},
		[]string{"2024/1/1", "1e400", "M", "Bikes", "Road", "R1", "2.9", "1,250.50", ""},
	)

	table, err := Clean(raw, DefaultAgeBinning())
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	bad := table.Records[0]
	assert.Nil(t, bad.Date)
	assert.Nil(t, bad.CustomerAge)
	assert.Empty(t, bad.CustomerGender)
	assert.Equal(t, int64(0), bad.OrderQuantity)
	assert.Equal(t, 0.0, bad.UnitPrice)
	assert.Equal(t, 0.0, bad.Revenue)
	assert.Equal(t, 0.0, bad.Profit)
	assert.Empty(t, bad.AgeGroup)

	good := table.Records[1]
	require.NotNil(t, good.Date)
	assert.True(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Equal(*good.Date))
	assert.Nil(t, good.CustomerAge, "overflowing age is not finite")
	assert.Equal(t, int64(2), good.OrderQuantity)
	assert.Equal(t, 1250.5, good.UnitPrice)
	assert.Equal(t, 2501.0, good.Revenue)
}

func TestCleanAgeGroup(t *testing.T) {
	t.Run("derived when absent", func(t *testing.T) {
		raw := salesRaw(
			[]string{"2024-01-01", "18", "F", "Bikes", "Road", "R1", "1", "1", "1"},
			[]string{"2024-01-01", "19", "F", "Bikes", "Road", "R1", "1", "1", "1"},
			[]string{"2024-01-01", "-5", "F", "Bikes", "Road", "R1", "1", "1", "1"},
			[]string{"2024-01-01", "", "F", "Bikes", "Road", "R1", "1", "1", "1"},
		)

		table, err := Clean(raw, DefaultAgeBinning())
		require.NoError(t, err)
		assert.Equal(t, "0-18", table.Records[0].AgeGroup)
		assert.Equal(t, "19-25", table.Records[1].AgeGroup)
		assert.Empty(t, table.Records[2].AgeGroup)
		assert.Empty(t, table.Records[3].AgeGroup)
		assert.Equal(t, DefaultAgeBinning().Labels, table.AgeGroupLevels)
	})

	t.Run("kept when present", func(t *testing.T) {
		raw := salesRaw([]string{"2024-01-01", "18", "F", "Bikes", "Road", "R1", "1", "1", "1", "Teen"})
		raw.Header = append(raw.Header, ColAgeGroup)

		table, err := Clean(raw, DefaultAgeBinning())
		require.NoError(t, err)
		assert.Equal(t, "Teen", table.Records[0].AgeGroup)
		assert.Nil(t, table.AgeGroupLevels)
	})
}

func TestCleanDoesNotModifyInput(t *testing.T) {
	raw := salesRaw([]string{" 2024-01-01 ", "30", "F", "Bikes", "Road", "R1", "3", "10", ""})
	before := [][]string{append([]string(nil), raw.Rows[0]...)}

	_, err := Clean(raw, DefaultAgeBinning())
	require.NoError(t, err)
	assert.Equal(t, before, raw.Rows)
	assert.Len(t, raw.Header, len(salesHeader))
}

func TestCleanDeterministic(t *testing.T) {
	raw := salesRaw(
		[]string{"2024-01-01", "30", "F", "Bikes", "Road", "R1", "3", "10", ""},
		[]string{"bad", "x", "", "Helmets", "", "H1", "-1", "2", "7"},
	)

	first, err := Clean(raw, DefaultAgeBinning())
	require.NoError(t, err)
	second, err := Clean(raw, DefaultAgeBinning())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCleanIdempotent(t *testing.T) {
	raw := salesRaw(
		[]string{"2024-01-01", "30", "F", "Bikes", "Road", "R1", "3", "10", ""},
		[]string{"2024-02-11 09:30:00", "61", "M", "Clothing", "Caps", "C1", "4", "2.5", "12"},
		[]string{"", "", "", "", "", "", "", "", ""},
	)

	first, err := Clean(raw, DefaultAgeBinning())
	require.NoError(t, err)
	second, err := Clean(first.ToRaw(), DefaultAgeBinning())
	require.NoError(t, err)

	require.Equal(t, first.Len(), second.Len())
	for i := range first.Records {
		assert.Equal(t, first.Records[i].Revenue, second.Records[i].Revenue, "row %d", i)
		assert.Equal(t, first.Records[i].Profit, second.Records[i].Profit, "row %d", i)
		assert.Equal(t, first.Records[i].AgeGroup, second.Records[i].AgeGroup, "row %d", i)
	}
}

func TestCleanNumericInvariants(t *testing.T) {
	raw := salesRaw(
		[]string{"", "", "", "", "", "", "", "", ""},
		[]string{"x", "x", "x", "x", "x", "x", "x", "x", "x"},
		[]string{"2024-01-01", "44", "F", "A", "B", "C", "-9", "-9", "-9"},
	)

	table, err := Clean(raw, DefaultAgeBinning())
	require.NoError(t, err)
	for i, rec := range table.Records {
		assert.GreaterOrEqual(t, rec.OrderQuantity, int64(0), "row %d", i)
		assert.GreaterOrEqual(t, rec.UnitPrice, 0.0, "row %d", i)
	}
}

func TestCleanInvalidBinning(t *testing.T) {
	_, err := Clean(salesRaw(), AgeBinning{Boundaries: []float64{1}})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestPreprocessorLogs(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	p := NewPreprocessor(DefaultAgeBinning(), logger)

	table, err := p.Clean(salesRaw([]string{"2024-01-01", "30", "F", "Bikes", "Road", "R1", "3", "10", ""}))
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())

	testutil.AssertLogContains(t, handler, slog.LevelInfo, "Data cleaned successfully")
	assert.True(t, handler.ContainsAttr("component", "preprocessor"))
	testutil.AssertNoErrors(t, handler)

	_, err = p.Clean(&RawTable{Header: []string{ColDate}})
	require.Error(t, err)
	testutil.AssertLogContains(t, handler, slog.LevelError, "Data cleaning failed")
}

func TestCleanKeepsTextVerbatim(t *testing.T) {
	raw := salesRaw(
		[]string{"2024-01-01", " 30 ", "F", "Bikes", "Road", "R1", " 1 ", "10", ""},
		[]string{"2024-01-02", "31", "F ", " Bikes", "Road", "R1", "1", "10", ""},
		[]string{"2024-01-03", "32", "   ", "Bikes", "Road", "R1", "1", "10", ""},
	)

	table, err := Clean(raw, DefaultAgeBinning())
	require.NoError(t, err)

	require.NotNil(t, table.Records[0].CustomerAge)
	assert.Equal(t, 30.0, *table.Records[0].CustomerAge, "numbers ignore surrounding space")
	assert.Equal(t, int64(1), table.Records[0].OrderQuantity)
	assert.Equal(t, " Bikes", table.Records[1].ProductCategory)
	assert.Equal(t, "F ", table.Records[1].CustomerGender)
	assert.Empty(t, table.Records[2].CustomerGender, "whitespace only is null")

	a := NewAnalyzer(table, nil, nil, DefaultAnalyzerConfig())
	categories, _, _ := a.CategoryCounts()
	assert.Equal(t, 2, categories)
	assert.Equal(t, []GroupTotal{{Key: "F", Value: 1}, {Key: "F ", Value: 1}}, a.GenderCounts())
}
