package engine

import "kordash/internal/models"

// Compare splits t into the target country's rows and everyone else's,
// melts both over yr and returns the target points followed by the rest.
func Compare(t *Table, targetCode string, yr models.YearRange) ([]models.SeriesPoint, error) {
	if err := validateRange(yr); err != nil {
		return nil, err
	}
	target := t.subset(func(r *IndicatorRow) bool { return r.CountryCode == targetCode })
	others := t.subset(func(r *IndicatorRow) bool { return r.CountryCode != targetCode })

	return append(melt(target, yr), melt(others, yr)...), nil
}
