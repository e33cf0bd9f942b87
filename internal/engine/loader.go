package engine

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	arrowcsv "github.com/apache/arrow/go/v17/arrow/csv"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

const loadChunkRows = 1024

// parseYear turns a header label into a year column. Labels that are not
// integers are not year columns.
func parseYear(label string) (int, bool) {
	y, err := strconv.Atoi(strings.TrimSpace(label))
	if err != nil {
		return 0, false
	}
	return y, true
}

// parseValue reads a cell. Empty, non-numeric and non-finite cells are null.
func parseValue(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}

// Load reads the whole source and parses it into a Table.
func Load(ctx context.Context, src Source, logger *slog.Logger) (*Table, error) {
	start := time.Now()
	logger.Info("loading dataset", "source", src.String())

	rc, err := src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", src, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src, err)
	}

	t, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", src, err)
	}

	logger.Info("dataset loaded",
		"rows", t.Len(),
		"year_columns", len(t.Years),
		"duration", time.Since(start))
	return t, nil
}

type headerLayout struct {
	fields  []string
	fixed   [4]int
	yearIdx []int
	years   []int
}

var utf8BOM = []byte("\xef\xbb\xbf")

func readHeader(content []byte) (*headerLayout, error) {
	r := csv.NewReader(bytes.NewReader(content))
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	h := &headerLayout{fields: header}
	for i, want := range []string{ColCountryName, ColCountryCode, ColIndicatorName, ColIndicatorCode} {
		h.fixed[i] = -1
		for j, name := range header {
			if strings.TrimSpace(name) == want {
				h.fixed[i] = j
				break
			}
		}
		if h.fixed[i] < 0 {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, want)
		}
	}
	for j, name := range header {
		if y, ok := parseYear(name); ok {
			h.yearIdx = append(h.yearIdx, j)
			h.years = append(h.years, y)
		}
	}
	return h, nil
}

// Parse decodes CSV bytes with the fixed indicator columns followed by year
// columns. Every column is read as a nullable string batch and converted.
func Parse(content []byte) (*Table, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	h, err := readHeader(content)
	if err != nil {
		return nil, err
	}

	fields := make([]arrow.Field, len(h.fields))
	for i, name := range h.fields {
		fields[i] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	r := arrowcsv.NewReader(bytes.NewReader(content), schema,
		arrowcsv.WithHeader(true),
		arrowcsv.WithNullReader(true, ""),
		arrowcsv.WithChunk(loadChunkRows),
		arrowcsv.WithAllocator(memory.NewGoAllocator()),
	)
	defer r.Release()

	rows := make([]IndicatorRow, 0)
	for r.Next() {
		rec := r.Record()
		rows = appendRecord(rows, rec, h)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	return NewTable(h.years, rows), nil
}

func appendRecord(rows []IndicatorRow, rec arrow.Record, h *headerLayout) []IndicatorRow {
	text := func(col, i int) string {
		arr := rec.Column(col).(*array.String)
		if arr.IsNull(i) {
			return ""
		}
		return strings.Clone(strings.TrimSpace(arr.Value(i)))
	}

	for i := 0; i < int(rec.NumRows()); i++ {
		row := IndicatorRow{
			CountryName:   text(h.fixed[0], i),
			CountryCode:   text(h.fixed[1], i),
			IndicatorName: text(h.fixed[2], i),
			IndicatorCode: text(h.fixed[3], i),
			Values:        make([]float64, len(h.yearIdx)),
		}
		for k, col := range h.yearIdx {
			arr := rec.Column(col).(*array.String)
			if arr.IsNull(i) {
				row.Values[k] = math.NaN()
				continue
			}
			row.Values[k] = parseValue(arr.Value(i))
		}
		rows = append(rows, row)
	}
	return rows
}
