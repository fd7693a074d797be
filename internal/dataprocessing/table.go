package dataprocessing

import (
	"strconv"
	"time"
)

// Column names of the sales schema.
const (
	ColDate            = "Date"
	ColCustomerAge     = "Customer_Age"
	ColCustomerGender  = "Customer_Gender"
	ColProductCategory = "Product_Category"
	ColSubCategory     = "Sub_Category"
	ColProduct         = "Product"
	ColOrderQuantity   = "Order_Quantity"
	ColUnitPrice       = "Unit_Price"
	ColRevenue         = "Revenue"
	ColProfit          = "Profit"
	ColAgeGroup        = "Age_Group"
)

// RequiredColumns must all be present before a table can be cleaned.
var RequiredColumns = []string{
	ColDate,
	ColCustomerAge,
	ColCustomerGender,
	ColProductCategory,
	ColSubCategory,
	ColProduct,
	ColOrderQuantity,
	ColUnitPrice,
	ColRevenue,
}

// cleanedColumns is the column order of a cleaned table.
var cleanedColumns = append(append([]string{}, RequiredColumns...), ColProfit, ColAgeGroup)

// RawTable is a spreadsheet as read, with every cell kept as text.
type RawTable struct {
	Source string
	Header []string
	Rows   [][]string
}

// Cell returns the cell at row/col, or "" when the row is short.
func (t *RawTable) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// Record is one cleaned sales transaction. Nil pointers and empty strings are nulls.
type Record struct {
	Date            *time.Time
	CustomerAge     *float64
	CustomerGender  string
	ProductCategory string
	SubCategory     string
	Product         string
	OrderQuantity   int64
	UnitPrice       float64
	Revenue         float64
	Profit          float64
	AgeGroup        string
}

// CleaningReport counts, per column, the rows whose value came from a fallback
// instead of the source cell.
type CleaningReport struct {
	Rows      int
	Defaulted map[string]int
}

// CleanedTable is the validated, coerced and enriched record set.
type CleanedTable struct {
	Records []Record
	// AgeGroupLevels lists the categorical levels of Age_Group in bin order when
	// the column was derived. Nil when Age_Group came from the input.
	AgeGroupLevels []string
	Report         CleaningReport
}

// Len returns the number of records.
func (t *CleanedTable) Len() int {
	return len(t.Records)
}

// Columns returns the column names of the cleaned table in output order.
func (t *CleanedTable) Columns() []string {
	return append([]string(nil), cleanedColumns...)
}

// ToRaw renders the table back into text cells, Profit and Age_Group included,
// so that it can be fed through Clean again.
func (t *CleanedTable) ToRaw() *RawTable {
	raw := &RawTable{
		Source: "cleaned",
		Header: t.Columns(),
		Rows:   make([][]string, 0, len(t.Records)),
	}
	for _, r := range t.Records {
		raw.Rows = append(raw.Rows, []string{
			formatDate(r.Date),
			formatOptionalFloat(r.CustomerAge),
			r.CustomerGender,
			r.ProductCategory,
			r.SubCategory,
			r.Product,
			strconv.FormatInt(r.OrderQuantity, 10),
			formatFloat(r.UnitPrice),
			formatFloat(r.Revenue),
			formatFloat(r.Profit),
			r.AgeGroup,
		})
	}
	return raw
}

func formatDate(d *time.Time) string {
	if d == nil {
		return ""
	}
	return d.Format(dateTimeLayout)
}

func formatOptionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
