package models

// ChartKind selects how a chart payload is drawn.
type ChartKind string

const (
	KindLine        ChartKind = "line"
	KindBar         ChartKind = "bar"
	KindScatter     ChartKind = "scatter"
	KindPie         ChartKind = "pie"
	KindVariability ChartKind = "variability"
	KindHistogram   ChartKind = "histogram"
	KindArea        ChartKind = "area"
	KindHeatmap     ChartKind = "heatmap"
	KindBubble      ChartKind = "bubble"
)

// ChartState tells the renderer whether a chart has data to draw.
type ChartState string

const (
	StateReady  ChartState = "ready"
	StateEmpty  ChartState = "empty"
	StateHidden ChartState = "hidden"
)

// BundleStatus is the outcome of one dashboard update.
type BundleStatus string

const (
	StatusOK           BundleStatus = "ok"
	StatusInvalidRange BundleStatus = "invalid_range"
	StatusFailure      BundleStatus = "failure"
)

const NoDataAnnotation = "No data available"

// ChartData is the render-ready payload of one dashboard chart.
type ChartData struct {
	ID         string        `json:"id"`
	Kind       ChartKind     `json:"kind"`
	Title      string        `json:"title"`
	XAxis      string        `json:"x_axis,omitempty"`
	YAxis      string        `json:"y_axis,omitempty"`
	State      ChartState    `json:"state"`
	Annotation string        `json:"annotation,omitempty"`
	Colors     []string      `json:"colors,omitempty"`
	Points     []SeriesPoint `json:"points,omitempty"`
	Stats      *SeriesStats  `json:"stats,omitempty"`
	Grid       *HeatGrid     `json:"grid,omitempty"`
}

// SeriesStats summarises the spread of a series.
type SeriesStats struct {
	Count     int     `json:"count"`
	Mean      float64 `json:"mean"`
	StdDev    float64 `json:"std_dev"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Variation float64 `json:"coefficient_of_variation"`
}

// HeatGrid is a Year x Country pivot. Cells[i][j] belongs to Years[i], Countries[j].
type HeatGrid struct {
	Years     []int        `json:"years"`
	Countries []string     `json:"countries"`
	Cells     [][]*float64 `json:"cells"`
}

// ChartBundle is everything one selection change produces.
type ChartBundle struct {
	Indicator string       `json:"indicator"`
	Range     YearRange    `json:"range"`
	Status    BundleStatus `json:"status"`
	Error     string       `json:"error,omitempty"`
	Charts    []ChartData  `json:"charts"`
}

// Chart returns the chart with the given id.
func (b *ChartBundle) Chart(id string) (ChartData, bool) {
	for _, c := range b.Charts {
		if c.ID == id {
			return c, true
		}
	}
	return ChartData{}, false
}

// OK reports whether the charts were built.
func (b *ChartBundle) OK() bool {
	return b.Status == StatusOK
}
