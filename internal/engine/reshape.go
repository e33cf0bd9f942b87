package engine

import (
	"kordash/internal/models"
)

// Reshape melts every row of the given indicator into long form over the
// year columns inside yr. Points are ordered by year, then by row order.
// Null cells are kept with a nil Value. An unknown indicator yields an empty
// slice, not an error.
func Reshape(t *Table, indicator string, yr models.YearRange) ([]models.SeriesPoint, error) {
	if err := validateRange(yr); err != nil {
		return nil, err
	}
	rows := t.subset(func(r *IndicatorRow) bool { return r.IndicatorName == indicator })
	return melt(rows, yr), nil
}

// ReshapeNonNull is Reshape without the null points.
func ReshapeNonNull(t *Table, indicator string, yr models.YearRange) ([]models.SeriesPoint, error) {
	points, err := Reshape(t, indicator, yr)
	if err != nil {
		return nil, err
	}
	return DropNulls(points), nil
}

// DropNulls returns the points that carry a value.
func DropNulls(points []models.SeriesPoint) []models.SeriesPoint {
	out := make([]models.SeriesPoint, 0, len(points))
	for _, p := range points {
		if p.Value != nil {
			out = append(out, p)
		}
	}
	return out
}

func validateRange(yr models.YearRange) error {
	if yr.From > yr.To {
		return &RangeError{From: yr.From, To: yr.To}
	}
	return nil
}

// melt is year-major: all rows for the first year column, then the next.
func melt(t *Table, yr models.YearRange) []models.SeriesPoint {
	lo, hi := t.yearSpan(yr.From, yr.To)
	points := make([]models.SeriesPoint, 0, (hi-lo)*len(t.Rows))
	for col := lo; col < hi; col++ {
		for i := range t.Rows {
			r := &t.Rows[i]
			p := models.SeriesPoint{
				Country:     r.CountryName,
				CountryCode: r.CountryCode,
				Indicator:   r.IndicatorName,
				Year:        t.Years[col],
			}
			if v := r.Values[col]; !isNull(v) {
				p.Value = &v
			}
			points = append(points, p)
		}
	}
	return points
}

// allYears covers every year column of t.
func allYears(t *Table) models.YearRange {
	if len(t.Years) == 0 {
		return models.YearRange{From: 0, To: -1}
	}
	return models.YearRange{From: t.Years[0], To: t.Years[len(t.Years)-1]}
}
