package engine

import (
	"math"
	"sort"

	"github.com/go-gota/gota/series"

	"kordash/internal/models"
)

// Describe computes the spread of the non-null values in points.
func Describe(points []models.SeriesPoint) *models.SeriesStats {
	vals := make([]float64, 0, len(points))
	for _, p := range points {
		if p.Value != nil {
			vals = append(vals, *p.Value)
		}
	}
	if len(vals) == 0 {
		return nil
	}

	s := series.New(vals, series.Float, "value")
	stats := &models.SeriesStats{
		Count:  s.Len(),
		Mean:   finite(s.Mean()),
		StdDev: finite(s.StdDev()),
		Min:    finite(s.Min()),
		Max:    finite(s.Max()),
	}
	if stats.Mean != 0 {
		stats.Variation = stats.StdDev / math.Abs(stats.Mean)
	}
	return stats
}

// finite maps NaN (e.g. the deviation of a single value) to zero.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Pivot arranges points into a Year x Country grid holding the mean value of
// each cell. Years ascend; countries keep first-seen order.
func Pivot(points []models.SeriesPoint) *models.HeatGrid {
	type cell struct {
		sum float64
		n   int
	}

	yearSet := make(map[int]bool)
	countryIdx := make(map[string]int)
	var countries []string
	sums := make(map[[2]int]*cell)

	for _, p := range points {
		if p.Value == nil {
			continue
		}
		ci, ok := countryIdx[p.Country]
		if !ok {
			ci = len(countries)
			countryIdx[p.Country] = ci
			countries = append(countries, p.Country)
		}
		yearSet[p.Year] = true
		key := [2]int{p.Year, ci}
		if sums[key] == nil {
			sums[key] = &cell{}
		}
		sums[key].sum += *p.Value
		sums[key].n++
	}

	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Ints(years)

	grid := &models.HeatGrid{
		Years:     years,
		Countries: countries,
		Cells:     make([][]*float64, len(years)),
	}
	for i, y := range years {
		grid.Cells[i] = make([]*float64, len(countries))
		for j := range countries {
			if c := sums[[2]int{y, j}]; c != nil {
				mean := c.sum / float64(c.n)
				grid.Cells[i][j] = &mean
			}
		}
	}
	return grid
}
