package engine

import (
	"fmt"
	"math"
	"strconv"

	"kordash/internal/models"
)

const DefaultCardTitle = "Key Indicator"

// DefaultShortTitles maps the card indicators to the labels shown on cards.
var DefaultShortTitles = map[string]string{
	"Unemployment, total (% of total labor force) (national estimate)":                                       "Total Unemployment",
	"Unemployment, youth total (% of total labor force ages 15-24) (national estimate)":                      "Youth Unemployment",
	"Unemployment with advanced education (% of total labor force with advanced education)":                  "Advanced Education Unemployment",
	"Unemployment with intermediate education, female (% of female labor force with intermediate education)": "Education Unemployment, Female",
}

// DefaultCardIndicators are the indicators summarised by the four cards.
var DefaultCardIndicators = []string{
	"Unemployment, total (% of total labor force) (national estimate)",
	"Unemployment, youth total (% of total labor force ages 15-24) (national estimate)",
	"Unemployment with advanced education (% of total labor force with advanced education)",
	"Unemployment with intermediate education, female (% of female labor force with intermediate education)",
}

// Latest returns the most recent non-null observation of indicator.
// When several rows have a value for that year the first row wins.
func Latest(t *Table, indicator string) (models.Observation, bool) {
	points := DropNulls(melt(t.subset(func(r *IndicatorRow) bool {
		return r.IndicatorName == indicator
	}), allYears(t)))

	var (
		best  models.Observation
		found bool
	)
	for _, p := range points {
		if !found || p.Year > best.Year {
			best = models.Observation{Year: p.Year, Value: *p.Value}
			found = true
		}
	}
	return best, found
}

// Card builds the summary card for one indicator.
func Card(t *Table, indicator string, titles map[string]string, defaultTitle string) models.SummaryCard {
	title, ok := titles[indicator]
	if !ok {
		title = defaultTitle
	}
	card := models.SummaryCard{Indicator: indicator, Title: title, Text: models.NoDataAnnotation}

	obs, ok := Latest(t, indicator)
	if !ok {
		return card
	}
	v := obs.Value
	card.Value = &v
	card.Year = obs.Year
	card.Text = fmt.Sprintf("%s%% in %d", formatPercent(v), obs.Year)
	return card
}

// formatPercent prints the shortest exact decimal, keeping one fractional
// digit for whole numbers (3 prints as "3.0").
func formatPercent(v float64) string {
	if v == math.Trunc(v) && !math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
