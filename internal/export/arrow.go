package export

import (
	"fmt"
	"io"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"kordash/internal/models"
)

// SeriesSchema is the Arrow schema of a long-format series.
var SeriesSchema = arrow.NewSchema([]arrow.Field{
	{Name: "country", Type: arrow.BinaryTypes.String},
	{Name: "country_code", Type: arrow.BinaryTypes.String},
	{Name: "indicator", Type: arrow.BinaryTypes.String},
	{Name: "year", Type: arrow.PrimitiveTypes.Int64},
	{Name: "value", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
}, nil)

// WriteArrow writes points to w as a single-batch Arrow IPC stream.
func WriteArrow(w io.Writer, points []models.SeriesPoint) error {
	mem := memory.NewGoAllocator()

	b := array.NewRecordBuilder(mem, SeriesSchema)
	defer b.Release()

	country := b.Field(0).(*array.StringBuilder)
	code := b.Field(1).(*array.StringBuilder)
	indicator := b.Field(2).(*array.StringBuilder)
	year := b.Field(3).(*array.Int64Builder)
	value := b.Field(4).(*array.Float64Builder)

	for _, p := range points {
		country.Append(p.Country)
		code.Append(p.CountryCode)
		indicator.Append(p.Indicator)
		year.Append(int64(p.Year))
		if p.Value == nil {
			value.AppendNull()
		} else {
			value.Append(*p.Value)
		}
	}

	rec := b.NewRecord()
	defer rec.Release()

	iw := ipc.NewWriter(w, ipc.WithSchema(SeriesSchema), ipc.WithAllocator(mem))
	if err := iw.Write(rec); err != nil {
		iw.Close()
		return fmt.Errorf("write arrow batch: %w", err)
	}
	return iw.Close()
}
