package dataprocessing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	apperrors "salescli/internal/errors"
)

const metaAgeGroupLevels = "salescli.age_group_levels"

// snapshotFields mirrors cleanedColumns with Arrow types.
var snapshotFields = []arrow.Field{
	{Name: ColDate, Type: arrow.FixedWidthTypes.Timestamp_ms, Nullable: true},
	{Name: ColCustomerAge, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: ColCustomerGender, Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: ColProductCategory, Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: ColSubCategory, Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: ColProduct, Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: ColOrderQuantity, Type: arrow.PrimitiveTypes.Int64},
	{Name: ColUnitPrice, Type: arrow.PrimitiveTypes.Float64},
	{Name: ColRevenue, Type: arrow.PrimitiveTypes.Float64},
	{Name: ColProfit, Type: arrow.PrimitiveTypes.Float64},
	{Name: ColAgeGroup, Type: arrow.BinaryTypes.String, Nullable: true},
}

// Persist writes table as an Arrow IPC file at path, creating parent
// directories and replacing any existing file.
func (l *Loader) Persist(ctx context.Context, table *CleanedTable, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if table == nil {
		return apperrors.NewStorageError("persist snapshot", fmt.Errorf("nil table"))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("create snapshot directory", err)
	}

	schema, err := snapshotSchema(table)
	if err != nil {
		return apperrors.NewStorageError("build snapshot schema", err)
	}

	mem := memory.NewGoAllocator()
	record := buildRecord(mem, schema, table)
	defer record.Release()

	file, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError("create snapshot file", err)
	}

	if err := writeRecord(file, mem, schema, record); err != nil {
		file.Close()
		return apperrors.NewStorageError("write snapshot", err).WithContext("path", path)
	}
	if err := file.Close(); err != nil {
		return apperrors.NewStorageError("close snapshot file", err)
	}

	l.logger.InfoContext(ctx, "Saved snapshot",
		slog.String("path", path),
		slog.Int("rows", table.Len()))
	return nil
}

func writeRecord(file *os.File, mem memory.Allocator, schema *arrow.Schema, record arrow.Record) error {
	w, err := ipc.NewFileWriter(file, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err != nil {
		return err
	}
	if err := w.Write(record); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func snapshotSchema(table *CleanedTable) (*arrow.Schema, error) {
	var md arrow.Metadata
	if table.AgeGroupLevels != nil {
		levels, err := json.Marshal(table.AgeGroupLevels)
		if err != nil {
			return nil, err
		}
		md = arrow.NewMetadata([]string{metaAgeGroupLevels}, []string{string(levels)})
	}
	return arrow.NewSchema(snapshotFields, &md), nil
}

func buildRecord(mem memory.Allocator, schema *arrow.Schema, table *CleanedTable) arrow.Record {
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	dates := b.Field(0).(*array.TimestampBuilder)
	ages := b.Field(1).(*array.Float64Builder)
	genders := b.Field(2).(*array.StringBuilder)
	categories := b.Field(3).(*array.StringBuilder)
	subCategories := b.Field(4).(*array.StringBuilder)
	products := b.Field(5).(*array.StringBuilder)
	quantities := b.Field(6).(*array.Int64Builder)
	prices := b.Field(7).(*array.Float64Builder)
	revenues := b.Field(8).(*array.Float64Builder)
	profits := b.Field(9).(*array.Float64Builder)
	ageGroups := b.Field(10).(*array.StringBuilder)

	for _, r := range table.Records {
		if r.Date == nil {
			dates.AppendNull()
		} else {
			dates.Append(arrow.Timestamp(r.Date.UnixMilli()))
		}
		if r.CustomerAge == nil {
			ages.AppendNull()
		} else {
			ages.Append(*r.CustomerAge)
		}
		appendString(genders, r.CustomerGender)
		appendString(categories, r.ProductCategory)
		appendString(subCategories, r.SubCategory)
		appendString(products, r.Product)
		quantities.Append(r.OrderQuantity)
		prices.Append(r.UnitPrice)
		revenues.Append(r.Revenue)
		profits.Append(r.Profit)
		appendString(ageGroups, r.AgeGroup)
	}

	return b.NewRecord()
}

func appendString(b *array.StringBuilder, v string) {
	if v == "" {
		b.AppendNull()
		return
	}
	b.Append(v)
}

// ReadSnapshot loads a table written by Persist.
func (l *Loader) ReadSnapshot(ctx context.Context, path string) (*CleanedTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewNotFoundError(path, err)
		}
		return nil, apperrors.NewFormatError(path, err)
	}
	defer file.Close()

	mem := memory.NewGoAllocator()
	r, err := ipc.NewFileReader(file, ipc.WithAllocator(mem))
	if err != nil {
		return nil, apperrors.NewFormatError(path, err)
	}
	defer r.Close()

	schema := r.Schema()
	if err := checkSnapshotSchema(schema); err != nil {
		return nil, apperrors.NewFormatError(path, err)
	}

	table := &CleanedTable{Report: CleaningReport{Defaulted: make(map[string]int)}}
	if idx := schema.Metadata().FindKey(metaAgeGroupLevels); idx >= 0 {
		if err := json.Unmarshal([]byte(schema.Metadata().Values()[idx]), &table.AgeGroupLevels); err != nil {
			return nil, apperrors.NewFormatError(path, fmt.Errorf("age group levels: %w", err))
		}
	}

	for i := 0; i < r.NumRecords(); i++ {
		record, err := r.Record(i)
		if err != nil {
			return nil, apperrors.NewFormatError(path, err)
		}
		table.Records = append(table.Records, recordsFrom(record)...)
	}
	table.Report.Rows = table.Len()

	l.logger.InfoContext(ctx, "Loaded snapshot",
		slog.String("path", path),
		slog.Int("rows", table.Len()))

	return table, nil
}

func checkSnapshotSchema(schema *arrow.Schema) error {
	if schema.NumFields() != len(snapshotFields) {
		return fmt.Errorf("snapshot has %d columns, want %d", schema.NumFields(), len(snapshotFields))
	}
	for i, want := range snapshotFields {
		got := schema.Field(i)
		if got.Name != want.Name || !arrow.TypeEqual(got.Type, want.Type) {
			return fmt.Errorf("snapshot column %d is %s %s, want %s %s", i, got.Name, got.Type, want.Name, want.Type)
		}
	}
	return nil
}

func recordsFrom(record arrow.Record) []Record {
	dates := record.Column(0).(*array.Timestamp)
	ages := record.Column(1).(*array.Float64)
	genders := record.Column(2).(*array.String)
	categories := record.Column(3).(*array.String)
	subCategories := record.Column(4).(*array.String)
	products := record.Column(5).(*array.String)
	quantities := record.Column(6).(*array.Int64)
	prices := record.Column(7).(*array.Float64)
	revenues := record.Column(8).(*array.Float64)
	profits := record.Column(9).(*array.Float64)
	ageGroups := record.Column(10).(*array.String)

	out := make([]Record, record.NumRows())
	for i := range out {
		r := &out[i]
		if !dates.IsNull(i) {
			d := time.UnixMilli(int64(dates.Value(i))).UTC()
			r.Date = &d
		}
		if !ages.IsNull(i) {
			age := ages.Value(i)
			r.CustomerAge = &age
		}
		r.CustomerGender = stringAt(genders, i)
		r.ProductCategory = stringAt(categories, i)
		r.SubCategory = stringAt(subCategories, i)
		r.Product = stringAt(products, i)
		r.OrderQuantity = quantities.Value(i)
		r.UnitPrice = prices.Value(i)
		r.Revenue = revenues.Value(i)
		r.Profit = profits.Value(i)
		r.AgeGroup = stringAt(ageGroups, i)
	}
	return out
}

func stringAt(a *array.String, i int) string {
	if a.IsNull(i) {
		return ""
	}
	return a.Value(i)
}
