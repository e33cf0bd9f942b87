package render

import (
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"kordash/internal/models"
)

type lineGroup struct {
	country string
	points  []models.SeriesPoint
}

// groupPoints splits points into one group per (country, indicator) pair,
// keeping first-seen order.
func groupPoints(points []models.SeriesPoint) []*lineGroup {
	index := make(map[string]*lineGroup)
	var groups []*lineGroup
	for _, pt := range points {
		key := pt.Country + "\x00" + pt.Indicator
		g, ok := index[key]
		if !ok {
			g = &lineGroup{country: pt.Country}
			index[key] = g
			groups = append(groups, g)
		}
		g.points = append(g.points, pt)
	}
	return groups
}

// segments splits a series at null values so gaps are not bridged.
func segments(points []models.SeriesPoint) []plotter.XYs {
	var (
		out []plotter.XYs
		cur plotter.XYs
	)
	for _, pt := range points {
		if pt.Value == nil {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: float64(pt.Year), Y: *pt.Value})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

func addLines(p *plot.Plot, c models.ChartData, fill bool) error {
	countryColor := make(map[string]int)
	for _, g := range groupPoints(c.Points) {
		ci, seen := countryColor[g.country]
		if !seen {
			ci = len(countryColor)
			countryColor[g.country] = ci
		}
		for si, xys := range segments(g.points) {
			l, err := plotter.NewLine(xys)
			if err != nil {
				return err
			}
			l.Color = colorAt(c, ci)
			l.Width = vg.Points(1.5)
			if fill {
				l.FillColor = colorAt(c, ci)
			}
			p.Add(l)
			if !seen && si == 0 {
				p.Legend.Add(g.country, l)
			}
		}
	}
	return nil
}

func addVariability(p *plot.Plot, c models.ChartData) error {
	if err := addLines(p, c, false); err != nil {
		return err
	}
	if c.Stats == nil {
		return nil
	}

	mean := c.Stats.Mean
	f := plotter.NewFunction(func(float64) float64 { return mean })
	f.Color = colorAt(c, 0)
	f.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(f)
	p.Legend.Add(fmt.Sprintf("mean %.2f (sd %.2f)", c.Stats.Mean, c.Stats.StdDev), f)
	return nil
}

// yearTotals sums values per year. Years whose points are all null total 0.
func yearTotals(points []models.SeriesPoint) ([]int, []float64) {
	idx := make(map[int]int)
	var (
		years  []int
		totals []float64
	)
	for _, pt := range points {
		i, ok := idx[pt.Year]
		if !ok {
			i = len(years)
			idx[pt.Year] = i
			years = append(years, pt.Year)
			totals = append(totals, 0)
		}
		if pt.Value != nil {
			totals[i] += *pt.Value
		}
	}
	return years, totals
}

func yearLabels(years []int) []string {
	labels := make([]string, len(years))
	for i, y := range years {
		labels[i] = strconv.Itoa(y)
	}
	return labels
}

func addBars(p *plot.Plot, c models.ChartData) error {
	years, totals := yearTotals(c.Points)
	bars, err := plotter.NewBarChart(plotter.Values(totals), vg.Points(14))
	if err != nil {
		return err
	}
	bars.Color = colorAt(c, 0)
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(yearLabels(years)...)
	return nil
}

// addShares draws each year's share of the total as its own coloured bar;
// gonum/plot has no pie plotter.
func addShares(p *plot.Plot, c models.ChartData) error {
	years, totals := yearTotals(c.Points)
	var sum float64
	for _, v := range totals {
		sum += math.Abs(v)
	}
	if sum == 0 {
		return annotateEmpty(p)
	}

	for i, v := range totals {
		b, err := plotter.NewBarChart(plotter.Values{100 * math.Abs(v) / sum}, vg.Points(14))
		if err != nil {
			return err
		}
		b.XMin = float64(i)
		b.Color = colorAt(c, i)
		b.LineStyle.Width = vg.Length(0)
		p.Add(b)
	}
	p.Y.Label.Text = "Share of total (%)"
	p.NominalX(yearLabels(years)...)
	return nil
}

func addScatter(p *plot.Plot, c models.ChartData, colorByYear bool) error {
	var (
		xys    plotter.XYs
		vals   []float64
		yearIx []int
		maxAbs float64
	)
	seen := make(map[int]int)
	for _, pt := range c.Points {
		if pt.Value == nil {
			continue
		}
		v := *pt.Value
		xys = append(xys, plotter.XY{X: float64(pt.Year), Y: v})
		vals = append(vals, v)
		if _, ok := seen[pt.Year]; !ok {
			seen[pt.Year] = len(seen)
		}
		yearIx = append(yearIx, seen[pt.Year])
		maxAbs = math.Max(maxAbs, math.Abs(v))
	}
	if len(xys) == 0 {
		return annotateEmpty(p)
	}

	s, err := plotter.NewScatter(xys)
	if err != nil {
		return err
	}
	base := s.GlyphStyle
	s.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		gs := base
		gs.Shape = draw.CircleGlyph{}
		gs.Radius = vg.Points(2)
		if maxAbs > 0 {
			gs.Radius = vg.Points(2 + 8*math.Abs(vals[i])/maxAbs)
		}
		gs.Color = colorAt(c, 0)
		if colorByYear {
			gs.Color = colorAt(c, yearIx[i])
		}
		return gs
	}
	p.Add(s)
	return nil
}

// sturges picks the histogram bin count for n samples.
func sturges(n int) int {
	if n <= 1 {
		return 1
	}
	return int(math.Ceil(math.Log2(float64(n)))) + 1
}

func addHistogram(p *plot.Plot, c models.ChartData) error {
	var vals plotter.Values
	for _, pt := range c.Points {
		if pt.Value != nil {
			vals = append(vals, *pt.Value)
		}
	}
	if len(vals) == 0 {
		return annotateEmpty(p)
	}

	h, err := plotter.NewHist(vals, sturges(len(vals)))
	if err != nil {
		return err
	}
	h.FillColor = colorAt(c, 0)
	p.Add(h)
	return nil
}

// heatGrid adapts a HeatGrid to plotter.GridXYZ: columns are countries, rows years.
type heatGrid struct {
	g *models.HeatGrid
}

func (h heatGrid) Dims() (int, int) { return len(h.g.Countries), len(h.g.Years) }

func (h heatGrid) Z(c, r int) float64 {
	if v := h.g.Cells[r][c]; v != nil {
		return *v
	}
	return math.NaN()
}

func (h heatGrid) X(c int) float64 { return float64(c) }
func (h heatGrid) Y(r int) float64 { return float64(h.g.Years[r]) }

func addHeatMap(p *plot.Plot, c models.ChartData) error {
	if c.Grid == nil || len(c.Grid.Years) == 0 || len(c.Grid.Countries) == 0 {
		return annotateEmpty(p)
	}

	hm := plotter.NewHeatMap(heatGrid{g: c.Grid}, palette.Heat(12, 1))
	if hm.Max == hm.Min {
		hm.Max = hm.Min + 1
	}
	p.Add(hm)
	p.NominalX(c.Grid.Countries...)
	return nil
}
