package api

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/labstack/echo/v4"

	"kordash/internal/engine"
	"kordash/internal/export"
	"kordash/internal/models"
	"kordash/internal/render"
	"kordash/internal/ui"
)

const (
	defaultChartWidth  = 640
	defaultChartHeight = 420
	maxChartSide       = 2000
	minChartSide       = 100

	arrowStreamType = "application/vnd.apache.arrow.stream"
	xlsxType        = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var errLoading = echo.NewHTTPError(http.StatusServiceUnavailable, "dataset is loading")

// Handler serves the dashboard. Until SetData is called every data route
// answers 503.
type Handler struct {
	data   atomic.Pointer[engine.Dashboard]
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger}
}

// SetData publishes the loaded dashboard.
func (h *Handler) SetData(d *engine.Dashboard) {
	h.data.Store(d)
}

func (h *Handler) dashboard() (*engine.Dashboard, error) {
	d := h.data.Load()
	if d == nil {
		return nil, errLoading
	}
	return d, nil
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Index)
	e.GET("/healthz", h.Health)

	api := e.Group("/api")
	api.GET("/indicators", h.GetIndicators)
	api.GET("/cards", h.GetCards)
	api.GET("/charts", h.GetCharts)
	api.GET("/charts/:id", h.GetChartImage)
	api.GET("/series", h.GetSeries)
	api.GET("/series.arrow", h.GetSeriesArrow)
	api.GET("/export.xlsx", h.GetWorkbook)
}

// --- HANDLERS ---

// selection reads indicator/from/to, falling back to the default selection.
func selection(c echo.Context, d *engine.Dashboard) (string, models.YearRange, error) {
	indicator, yr := d.DefaultSelection()
	if v := c.QueryParam("indicator"); v != "" {
		indicator = v
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"from", &yr.From}, {"to", &yr.To}} {
		v := c.QueryParam(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return "", yr, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s: %q is not a year", p.name, v))
		}
		*p.dst = n
	}
	return indicator, yr, nil
}

func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

func sizeParam(c echo.Context, name string, def int) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil || n < minChartSide || n > maxChartSide {
		return def
	}
	return n
}

func (h *Handler) Index(c echo.Context) error {
	d := h.data.Load()
	if d == nil {
		return ui.Render(c.Response(), http.StatusServiceUnavailable, ui.LoadingPage())
	}

	indicator, yr, err := selection(c, d)
	if err != nil {
		return ui.Render(c.Response(), http.StatusBadRequest, ui.ErrorPage(errorMessage(err)))
	}

	bundle := h.update(d, indicator, yr)
	return ui.Render(c.Response(), http.StatusOK, ui.DashboardPage(ui.PageData{
		Indicators: d.Indicators(),
		Selected:   indicator,
		Range:      yr,
		Bounds:     d.Bounds(),
		Cards:      d.Cards(),
		Bundle:     bundle,
	}))
}

func (h *Handler) Health(c echo.Context) error {
	if h.data.Load() == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "loading"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetIndicators(c echo.Context) error {
	d, err := h.dashboard()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d.IndicatorList())
}

func (h *Handler) GetCards(c echo.Context) error {
	d, err := h.dashboard()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d.Cards())
}

// update runs one dashboard update and logs failures.
func (h *Handler) update(d *engine.Dashboard, indicator string, yr models.YearRange) models.ChartBundle {
	bundle := d.Update(indicator, yr)
	switch bundle.Status {
	case models.StatusInvalidRange:
		h.logger.Debug("invalid year range", "indicator", indicator, "range", yr.String())
	case models.StatusFailure:
		h.logger.Error("dashboard update failed", "indicator", indicator, "range", yr.String(), "error", bundle.Error)
	}
	return bundle
}

// GetCharts always answers 200; the bundle status carries any error.
func (h *Handler) GetCharts(c echo.Context) error {
	d, err := h.dashboard()
	if err != nil {
		return err
	}
	indicator, yr, err := selection(c, d)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.update(d, indicator, yr))
}

func (h *Handler) GetChartImage(c echo.Context) error {
	d, err := h.dashboard()
	if err != nil {
		return err
	}
	id := c.Param("id")
	if !isChartID(id) {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown chart %q", id))
	}
	indicator, yr, err := selection(c, d)
	if err != nil {
		return err
	}

	format := c.QueryParam("format")
	if format == "" {
		format = render.FormatPNG
	}
	contentType := "image/png"
	switch format {
	case render.FormatPNG:
	case render.FormatSVG:
		contentType = "image/svg+xml"
	default:
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
	}

	bundle := h.update(d, indicator, yr)
	if !bundle.OK() {
		return echo.NewHTTPError(http.StatusBadRequest, bundle.Error)
	}
	chart, _ := bundle.Chart(id)

	width := sizeParam(c, "width", defaultChartWidth)
	height := sizeParam(c, "height", defaultChartHeight)
	var buf bytes.Buffer
	if err := render.Chart(&buf, chart, format, render.Pixels(width), render.Pixels(height)); err != nil {
		return fmt.Errorf("render %s: %w", id, err)
	}
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}

func isChartID(id string) bool {
	for _, known := range engine.ChartIDs() {
		if id == known {
			return true
		}
	}
	return false
}

// series reshapes the requested selection, mapping an invalid range to 400.
func series(c echo.Context, d *engine.Dashboard) ([]models.SeriesPoint, error) {
	indicator, yr, err := selection(c, d)
	if err != nil {
		return nil, err
	}

	reshape := engine.Reshape
	if nonNull, _ := strconv.ParseBool(c.QueryParam("nonnull")); nonNull {
		reshape = engine.ReshapeNonNull
	}
	points, err := reshape(d.Table(), indicator, yr)
	if errors.Is(err, engine.ErrInvalidRange) {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return points, err
}

func (h *Handler) GetSeries(c echo.Context) error {
	d, err := h.dashboard()
	if err != nil {
		return err
	}
	points, err := series(c, d)
	if err != nil {
		return err
	}

	if points == nil {
		points = []models.SeriesPoint{}
	}
	total := len(points)
	limit, offset := getPaginationParams(c, total)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":   points[offset:end],
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) GetSeriesArrow(c echo.Context) error {
	d, err := h.dashboard()
	if err != nil {
		return err
	}
	points, err := series(c, d)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.WriteArrow(&buf, points); err != nil {
		return err
	}
	return c.Blob(http.StatusOK, arrowStreamType, buf.Bytes())
}

func (h *Handler) GetWorkbook(c echo.Context) error {
	d, err := h.dashboard()
	if err != nil {
		return err
	}
	indicator, yr, err := selection(c, d)
	if err != nil {
		return err
	}

	f, err := export.Workbook(d.Table(), h.update(d, indicator, yr), d.Cards())
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="unemployment-%d-%d.xlsx"`, yr.From, yr.To))
	return c.Blob(http.StatusOK, xlsxType, buf.Bytes())
}
