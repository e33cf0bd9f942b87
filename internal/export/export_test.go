package export

import (
	"bytes"
	"math"
	"testing"

	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"kordash/internal/engine"
	"kordash/internal/models"
)

const totalUEM = "Unemployment, total (% of total labor force) (national estimate)"

func fixture() (*engine.Dashboard, models.ChartBundle) {
	table := engine.NewTable([]int{2019, 2020, 2021}, []engine.IndicatorRow{
		{CountryName: "Korea, Rep.", CountryCode: "KOR", IndicatorName: totalUEM, IndicatorCode: "SL.UEM.TOTL.NE.ZS",
			Values: []float64{3.8, math.NaN(), 3.6}},
	})
	d := engine.NewDashboard(table, engine.DefaultOptions())
	return d, d.Update(totalUEM, models.YearRange{From: 2019, To: 2021})
}

func TestWorkbook(t *testing.T) {
	d, bundle := fixture()

	f, err := Workbook(d.Table(), bundle, d.Cards())
	require.NoError(t, err)
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	wb, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, []string{SheetIndicators, SheetSeries, SheetSummary}, wb.GetSheetList())

	rows, err := wb.GetRows(SheetIndicators)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Country Name", "Country Code", "Indicator Name", "Indicator Code", "2019", "2020", "2021"}, rows[0])
	assert.Equal(t, "", rows[1][5])
	assert.Equal(t, "3.6", rows[1][6])

	rows, err = wb.GetRows(SheetSeries)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Korea, Rep.", "KOR", totalUEM, "2019", "3.8"}, rows[1])
	assert.Equal(t, "2020", rows[2][3])
	if len(rows[2]) > 4 {
		assert.Empty(t, rows[2][4])
	}

	rows, err = wb.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"Total Unemployment", totalUEM, "3.6% in 2021"}, rows[1])
	assert.Contains(t, rows, []string{"Status", "ok"})
}

func TestWriteArrow(t *testing.T) {
	_, bundle := fixture()
	selection, ok := bundle.Chart(engine.ChartBar)
	require.True(t, ok)

	var buf bytes.Buffer
	require.NoError(t, WriteArrow(&buf, selection.Points))

	r, err := ipc.NewReader(&buf, ipc.WithAllocator(memory.NewGoAllocator()))
	require.NoError(t, err)
	defer r.Release()

	assert.True(t, r.Schema().Equal(SeriesSchema))
	require.True(t, r.Next())
	rec := r.Record()
	require.EqualValues(t, 3, rec.NumRows())

	years := rec.Column(3).(*array.Int64)
	assert.Equal(t, []int64{2019, 2020, 2021}, years.Int64Values())

	values := rec.Column(4).(*array.Float64)
	assert.Equal(t, 1, values.NullN())
	assert.True(t, values.IsNull(1))
	assert.Equal(t, 3.8, values.Value(0))
	assert.Equal(t, "KOR", rec.Column(1).(*array.String).Value(0))

	assert.False(t, r.Next())
	require.NoError(t, r.Err())
}

func TestWriteArrowEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteArrow(&buf, nil))

	r, err := ipc.NewReader(&buf)
	require.NoError(t, err)
	defer r.Release()
	require.True(t, r.Next())
	assert.EqualValues(t, 0, r.Record().NumRows())
}
