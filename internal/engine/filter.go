package engine

import (
	"strings"

	"golang.org/x/text/cases"
)

// Filter keeps rows whose country code equals countryCode and whose indicator
// name contains at least one of the keywords, ignoring case.
// An empty keyword list matches nothing.
func Filter(t *Table, countryCode string, keywords []string) *Table {
	folder := cases.Fold()
	folded := make([]string, 0, len(keywords))
	for _, k := range keywords {
		folded = append(folded, folder.String(k))
	}

	return t.subset(func(r *IndicatorRow) bool {
		if r.CountryCode != countryCode {
			return false
		}
		name := folder.String(r.IndicatorName)
		for _, k := range folded {
			if strings.Contains(name, k) {
				return true
			}
		}
		return false
	})
}
