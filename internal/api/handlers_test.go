package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"kordash/internal/engine"
	"kordash/internal/models"
)

const (
	totalUEM = "Unemployment, total (% of total labor force) (national estimate)"
	youthUEM = "Unemployment, youth total (% of total labor force ages 15-24) (national estimate)"
)

func testDashboard() *engine.Dashboard {
	nan := math.NaN()
	table := engine.NewTable([]int{2019, 2020, 2021}, []engine.IndicatorRow{
		{CountryName: "Korea, Rep.", CountryCode: "KOR", IndicatorName: totalUEM, Values: []float64{3.8, 3.9, 3.6}},
		{CountryName: "Korea, Rep.", CountryCode: "KOR", IndicatorName: youthUEM, Values: []float64{nan, 4.1, 7.8}},
		{CountryName: "Korea, Rep.", CountryCode: "KOR", IndicatorName: "GDP growth (annual %)", Values: []float64{2.2, -0.7, 4.3}},
		{CountryName: "Japan", CountryCode: "JPN", IndicatorName: totalUEM, Values: []float64{2.4, 2.8, 2.8}},
	})
	return engine.NewDashboard(table, engine.DefaultOptions())
}

func newTestServer(loaded bool) (*echo.Echo, *Handler) {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if loaded {
		h.SetData(testDashboard())
	}
	return NewServer(h, ServerOptions{CORSAllowedOrigins: []string{"*"}}), h
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func query(indicator string, from, to string) string {
	q := url.Values{}
	q.Set("indicator", indicator)
	q.Set("from", from)
	q.Set("to", to)
	return q.Encode()
}

func TestRoutesLoading(t *testing.T) {
	e, h := newTestServer(false)

	for _, target := range []string{
		"/api/indicators", "/api/cards", "/api/charts", "/api/charts/line-graph",
		"/api/series", "/api/series.arrow", "/api/export.xlsx",
	} {
		rec := get(e, target)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, target)
		assert.JSONEq(t, `{"error":"dataset is loading"}`, rec.Body.String(), target)
	}

	rec := get(e, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec = get(e, "/")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "Loading dataset")

	h.SetData(testDashboard())
	rec = get(e, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestGetIndicatorsAndCards(t *testing.T) {
	e, _ := newTestServer(true)

	rec := get(e, "/api/indicators")
	require.Equal(t, http.StatusOK, rec.Code)
	var list models.IndicatorList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, []string{totalUEM, youthUEM}, list.Indicators)
	assert.Equal(t, totalUEM, list.DefaultIndicator)
	assert.Equal(t, models.YearRange{From: 1980, To: 2022}, list.Bounds)

	rec = get(e, "/api/cards")
	require.Equal(t, http.StatusOK, rec.Code)
	var cards []models.SummaryCard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cards))
	require.Len(t, cards, 4)
	assert.Equal(t, "3.6% in 2021", cards[0].Text)
}

func TestGetCharts(t *testing.T) {
	e, _ := newTestServer(true)

	rec := get(e, "/api/charts?"+query(youthUEM, "2019", "2021"))
	require.Equal(t, http.StatusOK, rec.Code)
	var bundle models.ChartBundle
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bundle))
	assert.Equal(t, models.StatusOK, bundle.Status)
	assert.Len(t, bundle.Charts, 9)

	rec = get(e, "/api/charts?"+query(totalUEM, "2021", "2019"))
	require.Equal(t, http.StatusOK, rec.Code, "invalid range is reported in the body")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bundle))
	assert.Equal(t, models.StatusInvalidRange, bundle.Status)
	assert.Contains(t, bundle.Error, "An error occurred")

	rec = get(e, "/api/charts?from=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetChartImage(t *testing.T) {
	e, _ := newTestServer(true)

	rec := get(e, "/api/charts/bar-chart?"+query(totalUEM, "2019", "2021"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = get(e, "/api/charts/heatmap?format=svg&width=300&height=200&"+query(totalUEM, "2019", "2021"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get(echo.HeaderContentType))

	rec = get(e, "/api/charts/radar")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(e, "/api/charts/bar-chart?format=gif")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(e, "/api/charts/bar-chart?"+query(totalUEM, "2021", "2019"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid year range")
}

func TestGetSeries(t *testing.T) {
	e, _ := newTestServer(true)

	var page struct {
		Data   []models.SeriesPoint `json:"data"`
		Total  int                  `json:"total"`
		Limit  int                  `json:"limit"`
		Offset int                  `json:"offset"`
	}

	rec := get(e, "/api/series?"+query(youthUEM, "2019", "2021"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 3, page.Total)
	assert.Nil(t, page.Data[0].Value)

	rec = get(e, "/api/series?nonnull=true&"+query(youthUEM, "2019", "2021"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Total)

	rec = get(e, "/api/series?limit=1&offset=1&"+query(totalUEM, "2019", "2021"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, 2020, page.Data[0].Year)

	rec = get(e, "/api/series?"+query("Unknown indicator", "2019", "2021"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)

	rec = get(e, "/api/series?"+query(totalUEM, "2021", "2019"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSeriesArrow(t *testing.T) {
	e, _ := newTestServer(true)

	rec := get(e, "/api/series.arrow?"+query(youthUEM, "2019", "2021"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, arrowStreamType, rec.Header().Get(echo.HeaderContentType))

	r, err := ipc.NewReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer r.Release()
	require.True(t, r.Next())
	assert.EqualValues(t, 3, r.Record().NumRows())
}

func TestGetWorkbook(t *testing.T) {
	e, _ := newTestServer(true)

	rec := get(e, "/api/export.xlsx?"+query(totalUEM, "2019", "2021"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "unemployment-2019-2021.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Indicators", "Series", "Summary"}, f.GetSheetList())
}

func TestIndexPage(t *testing.T) {
	e, _ := newTestServer(true)

	rec := get(e, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "South Korea Unemployment Analysis Dashboard")
	assert.Contains(t, body, "/api/charts/line-graph?")

	rec = get(e, "/?"+query(totalUEM, "2021", "2019"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "An error occurred: invalid year range")
	assert.NotContains(t, rec.Body.String(), "/api/charts/line-graph?")

	rec = get(e, "/?to=soon")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(e, "/static/app.css")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.SetData(testDashboard())
	e := NewServer(h, ServerOptions{RateLimitRPS: 0.001, RateLimitBurst: 1})

	assert.Equal(t, http.StatusOK, get(e, "/api/cards").Code)
	rec := get(e, "/api/cards")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())
}
