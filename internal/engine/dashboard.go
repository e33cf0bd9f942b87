package engine

import (
	"errors"
	"fmt"

	"kordash/internal/models"
)

// Chart ids, in display order.
const (
	ChartLine        = "line-graph"
	ChartBar         = "bar-chart"
	ChartScatter     = "scatter-plot"
	ChartPie         = "pie-chart"
	ChartVariability = "line-fig-variability"
	ChartHistogram   = "histogram"
	ChartArea        = "area-plot"
	ChartHeatmap     = "heatmap"
	ChartBubble      = "bubble-chart"
)

const rateLabel = "Unemployment Rate (%)"

// Palette is the categorical colour sequence shared by multi-colour charts.
var Palette = []string{"#3366CC", "#DC3912", "#FF9900", "#109618", "#990099"}

type chartSpec struct {
	id     string
	kind   models.ChartKind
	xAxis  string
	yAxis  string
	colors []string
}

var chartSpecs = []chartSpec{
	{id: ChartLine, kind: models.KindLine, xAxis: "Year", yAxis: rateLabel, colors: []string{"#757DBE", "#E64E44"}},
	{id: ChartBar, kind: models.KindBar, xAxis: "Year", yAxis: "Value", colors: []string{"#318F95"}},
	{id: ChartScatter, kind: models.KindScatter, xAxis: "Year", yAxis: rateLabel, colors: []string{"#E64E44"}},
	{id: ChartPie, kind: models.KindPie, xAxis: "Year", yAxis: rateLabel, colors: Palette},
	{id: ChartVariability, kind: models.KindVariability, xAxis: "Year", yAxis: "Value", colors: []string{"#8B5A37"}},
	{id: ChartHistogram, kind: models.KindHistogram, xAxis: "Value", yAxis: "Count", colors: Palette},
	{id: ChartArea, kind: models.KindArea, xAxis: "Year", yAxis: "Value", colors: []string{"#694BAF"}},
	{id: ChartHeatmap, kind: models.KindHeatmap, xAxis: "Country Name", yAxis: "Year"},
	{id: ChartBubble, kind: models.KindBubble, xAxis: "Year", yAxis: "Value", colors: Palette},
}

// ChartIDs lists the dashboard's chart ids in display order.
func ChartIDs() []string {
	ids := make([]string, len(chartSpecs))
	for i, s := range chartSpecs {
		ids[i] = s.id
	}
	return ids
}

// Options configures which slice of the dataset the dashboard shows.
type Options struct {
	CountryCode      string
	Keywords         []string
	CardIndicators   []string
	ShortTitles      map[string]string
	DefaultCardTitle string
	Bounds           models.YearRange
	DefaultRange     models.YearRange
}

// DefaultOptions reproduces the South Korea unemployment dashboard.
func DefaultOptions() Options {
	return Options{
		CountryCode:      "KOR",
		Keywords:         []string{"Unemployment", "UEM"},
		CardIndicators:   DefaultCardIndicators,
		ShortTitles:      DefaultShortTitles,
		DefaultCardTitle: DefaultCardTitle,
		Bounds:           models.YearRange{From: 1980, To: 2022},
		DefaultRange:     models.YearRange{From: 2010, To: 2022},
	}
}

// Dashboard serves chart bundles from the filtered dataset. It is built once
// and only read afterwards.
type Dashboard struct {
	table      *Table
	opts       Options
	indicators []string
}

func NewDashboard(full *Table, opts Options) *Dashboard {
	filtered := Filter(full, opts.CountryCode, opts.Keywords)
	return &Dashboard{
		table:      filtered,
		opts:       opts,
		indicators: filtered.Indicators(),
	}
}

// Table returns the filtered dataset.
func (d *Dashboard) Table() *Table {
	return d.table
}

func (d *Dashboard) Indicators() []string {
	return d.indicators
}

func (d *Dashboard) Bounds() models.YearRange {
	return d.opts.Bounds
}

// DefaultSelection is the first indicator and the configured default range.
func (d *Dashboard) DefaultSelection() (string, models.YearRange) {
	indicator := ""
	if len(d.indicators) > 0 {
		indicator = d.indicators[0]
	}
	return indicator, d.opts.DefaultRange
}

func (d *Dashboard) IndicatorList() models.IndicatorList {
	indicator, yr := d.DefaultSelection()
	return models.IndicatorList{
		Indicators:       d.indicators,
		Bounds:           d.opts.Bounds,
		DefaultIndicator: indicator,
		DefaultRange:     yr,
	}
}

// Cards summarises the latest value of each card indicator.
func (d *Dashboard) Cards() []models.SummaryCard {
	cards := make([]models.SummaryCard, 0, len(d.opts.CardIndicators))
	for _, name := range d.opts.CardIndicators {
		cards = append(cards, Card(d.table, name, d.opts.ShortTitles, d.opts.DefaultCardTitle))
	}
	return cards
}

// Update computes all nine charts for one selection. It never panics: a
// failure replaces every chart with a hidden placeholder and sets Error.
func (d *Dashboard) Update(indicator string, yr models.YearRange) (bundle models.ChartBundle) {
	defer func() {
		if r := recover(); r != nil {
			bundle = failedBundle(indicator, yr, fmt.Errorf("%v", r))
		}
	}()

	charts, err := d.build(indicator, yr)
	if err != nil {
		return failedBundle(indicator, yr, err)
	}
	return models.ChartBundle{
		Indicator: indicator,
		Range:     yr,
		Status:    models.StatusOK,
		Charts:    charts,
	}
}

func (d *Dashboard) build(indicator string, yr models.YearRange) ([]models.ChartData, error) {
	plotData, err := Reshape(d.table, indicator, yr)
	if err != nil {
		return nil, err
	}
	trend, err := Compare(d.table, d.opts.CountryCode, yr)
	if err != nil {
		return nil, err
	}
	values := DropNulls(plotData)

	titles := map[string]string{
		ChartLine:        "Comparison with National Trends",
		ChartBar:         fmt.Sprintf("Unemployment Indicators from %d to %d", yr.From, yr.To),
		ChartScatter:     "Comparison of Unemployment Trends Over Time",
		ChartPie:         fmt.Sprintf("Distribution of Unemployment Indicators from %d to %d", yr.From, yr.To),
		ChartVariability: "Variability of " + indicator,
		ChartHistogram:   "Distribution of " + indicator,
		ChartArea:        "Area Plot of " + indicator,
		ChartHeatmap:     "Unemployment by Country and Year",
		ChartBubble:      "Unemployment Over Time",
	}

	charts := make([]models.ChartData, 0, len(chartSpecs))
	for _, spec := range chartSpecs {
		points := values
		switch spec.id {
		case ChartLine:
			points = trend
		case ChartBar:
			points = plotData
		}

		c := newChart(spec, titles[spec.id], points)
		if c.State == models.StateReady {
			switch spec.kind {
			case models.KindVariability:
				c.Stats = Describe(points)
			case models.KindHeatmap:
				c.Grid = Pivot(points)
			}
		}
		charts = append(charts, c)
	}
	return charts, nil
}

func newChart(spec chartSpec, title string, points []models.SeriesPoint) models.ChartData {
	c := models.ChartData{
		ID:     spec.id,
		Kind:   spec.kind,
		Title:  title,
		XAxis:  spec.xAxis,
		YAxis:  spec.yAxis,
		Colors: spec.colors,
		State:  models.StateReady,
		Points: points,
	}
	if len(points) == 0 {
		c.State = models.StateEmpty
		c.Annotation = models.NoDataAnnotation
		c.Points = nil
	}
	return c
}

func failedBundle(indicator string, yr models.YearRange, err error) models.ChartBundle {
	status := models.StatusFailure
	if errors.Is(err, ErrInvalidRange) {
		status = models.StatusInvalidRange
	}

	charts := make([]models.ChartData, 0, len(chartSpecs))
	for _, spec := range chartSpecs {
		charts = append(charts, models.ChartData{ID: spec.id, Kind: spec.kind, State: models.StateHidden})
	}
	return models.ChartBundle{
		Indicator: indicator,
		Range:     yr,
		Status:    status,
		Error:     "An error occurred: " + err.Error(),
		Charts:    charts,
	}
}
