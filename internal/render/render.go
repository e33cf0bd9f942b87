// Package render draws dashboard chart payloads as PNG or SVG images.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"kordash/internal/models"
)

const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

var (
	ErrHidden = errors.New("chart is hidden")
	ErrFormat = errors.New("unsupported image format")
)

// Pixels converts a pixel size at 96 DPI to a plot length.
func Pixels(px int) vg.Length {
	return vg.Length(px) * vg.Inch / 96
}

// Chart writes c to w in the given format.
func Chart(w io.Writer, c models.ChartData, format string, width, height vg.Length) error {
	if c.State == models.StateHidden {
		return ErrHidden
	}
	if format != FormatPNG && format != FormatSVG {
		return fmt.Errorf("%w: %q", ErrFormat, format)
	}

	p, err := Plot(c)
	if err != nil {
		return fmt.Errorf("plot %s: %w", c.ID, err)
	}
	wt, err := p.WriterTo(width, height, format)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.ID, err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// Plot builds the gonum plot for one chart.
func Plot(c models.ChartData) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = c.Title
	p.Title.TextStyle.Font.Size = vg.Points(12)
	p.X.Label.Text = c.XAxis
	p.Y.Label.Text = c.YAxis

	if c.State == models.StateEmpty || len(c.Points) == 0 {
		return p, annotateEmpty(p)
	}

	var err error
	switch c.Kind {
	case models.KindLine:
		err = addLines(p, c, false)
	case models.KindArea:
		err = addLines(p, c, true)
	case models.KindVariability:
		err = addVariability(p, c)
	case models.KindBar:
		err = addBars(p, c)
	case models.KindPie:
		err = addShares(p, c)
	case models.KindScatter:
		err = addScatter(p, c, false)
	case models.KindBubble:
		err = addScatter(p, c, true)
	case models.KindHistogram:
		err = addHistogram(p, c)
	case models.KindHeatmap:
		err = addHeatMap(p, c)
	default:
		err = fmt.Errorf("unknown chart kind %q", c.Kind)
	}
	if err != nil {
		return nil, err
	}
	p.Add(plotter.NewGrid())
	return p, nil
}

func annotateEmpty(p *plot.Plot) error {
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	p.HideAxes()

	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    []plotter.XY{{X: 0.4, Y: 0.5}},
		Labels: []string{models.NoDataAnnotation},
	})
	if err != nil {
		return err
	}
	p.Add(labels)
	return nil
}

// hexColor parses "#RRGGBB"; anything else falls back to grey.
func hexColor(s string) color.Color {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.Gray{Y: 128}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.Gray{Y: 128}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

func colorAt(c models.ChartData, i int) color.Color {
	if len(c.Colors) == 0 {
		return color.RGBA{R: 49, G: 102, B: 204, A: 255}
	}
	return hexColor(c.Colors[i%len(c.Colors)])
}
