package engine

import (
	"math"
	"sort"
)

// Fixed header columns of the source file.
const (
	ColCountryName   = "Country Name"
	ColCountryCode   = "Country Code"
	ColIndicatorName = "Indicator Name"
	ColIndicatorCode = "Indicator Code"
)

// IndicatorRow is one wide-format row. Values is aligned with the owning
// Table's Years; NaN marks a null cell.
type IndicatorRow struct {
	CountryName   string
	CountryCode   string
	IndicatorName string
	IndicatorCode string
	Values        []float64
}

// Table holds the loaded dataset. It is never modified after construction;
// derived tables share Years with their parent.
type Table struct {
	Years []int
	Rows  []IndicatorRow
}

// NewTable builds a table, sorting the year columns ascending and reordering
// every row's values to match. Duplicate year columns keep the first one.
func NewTable(years []int, rows []IndicatorRow) *Table {
	order := make([]int, len(years))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return years[order[a]] < years[order[b]] })

	keep := make([]int, 0, len(order))
	sorted := make([]int, 0, len(order))
	for _, idx := range order {
		if n := len(sorted); n > 0 && sorted[n-1] == years[idx] {
			continue
		}
		keep = append(keep, idx)
		sorted = append(sorted, years[idx])
	}

	out := make([]IndicatorRow, len(rows))
	for i, r := range rows {
		vals := make([]float64, len(keep))
		for j, idx := range keep {
			if idx < len(r.Values) {
				vals[j] = r.Values[idx]
			} else {
				vals[j] = math.NaN()
			}
		}
		r.Values = vals
		out[i] = r
	}
	return &Table{Years: sorted, Rows: out}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// yearSpan returns the half-open column index range covering [from, to].
func (t *Table) yearSpan(from, to int) (int, int) {
	lo := sort.SearchInts(t.Years, from)
	hi := sort.SearchInts(t.Years, to+1)
	return lo, hi
}

// Indicators lists distinct indicator names in first-seen order.
func (t *Table) Indicators() []string {
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, r := range t.Rows {
		if !seen[r.IndicatorName] {
			seen[r.IndicatorName] = true
			names = append(names, r.IndicatorName)
		}
	}
	return names
}

// subset returns a table over the same year columns holding only rows that
// pass keep. Rows are shared, not copied.
func (t *Table) subset(keep func(r *IndicatorRow) bool) *Table {
	rows := make([]IndicatorRow, 0)
	for i := range t.Rows {
		if keep(&t.Rows[i]) {
			rows = append(rows, t.Rows[i])
		}
	}
	return &Table{Years: t.Years, Rows: rows}
}

func isNull(v float64) bool {
	return math.IsNaN(v)
}
