package models

import "fmt"

// YearRange is an inclusive [From, To] range of years.
type YearRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (r YearRange) String() string {
	return fmt.Sprintf("%d-%d", r.From, r.To)
}

// Contains reports whether year lies inside the range.
func (r YearRange) Contains(year int) bool {
	return year >= r.From && year <= r.To
}

// SeriesPoint is one long-format observation. A nil Value is a null cell.
type SeriesPoint struct {
	Country     string   `json:"country"`
	CountryCode string   `json:"country_code"`
	Indicator   string   `json:"indicator"`
	Year        int      `json:"year"`
	Value       *float64 `json:"value"`
}

// Observation is a single (year, value) pair with a known value.
type Observation struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

type SummaryCard struct {
	Indicator string   `json:"indicator"`
	Title     string   `json:"title"`
	Text      string   `json:"text"`
	Year      int      `json:"year,omitempty"`
	Value     *float64 `json:"value"`
}

type IndicatorList struct {
	Indicators       []string  `json:"indicators"`
	Bounds           YearRange `json:"bounds"`
	DefaultIndicator string    `json:"default_indicator"`
	DefaultRange     YearRange `json:"default_range"`
}
