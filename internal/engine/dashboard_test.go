package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kordash/internal/models"
)

func dashboardFixture() *Dashboard {
	full := NewTable([]int{2018, 2019, 2020, 2021}, append(fixtureTable().Rows,
		IndicatorRow{CountryName: "Japan", CountryCode: "JPN", IndicatorName: totalUEM, Values: []float64{2.4, 2.4, 2.8, 2.8}},
	))
	return NewDashboard(full, DefaultOptions())
}

func TestCompare(t *testing.T) {
	table := NewTable([]int{2020, 2021}, []IndicatorRow{
		{CountryName: "Japan", CountryCode: "JPN", IndicatorName: "u", Values: []float64{2.8, 2.8}},
		{CountryName: "Korea, Rep.", CountryCode: "KOR", IndicatorName: "u", Values: []float64{3.9, null}},
	})

	points, err := Compare(table, "KOR", models.YearRange{From: 2020, To: 2021})
	require.NoError(t, err)
	require.Len(t, points, 4)

	assert.Equal(t, "Korea, Rep.", points[0].Country)
	assert.Equal(t, "Korea, Rep.", points[1].Country)
	assert.Nil(t, points[1].Value)
	assert.Equal(t, "Japan", points[2].Country)
	assert.Equal(t, "Japan", points[3].Country)

	_, err = Compare(table, "KOR", models.YearRange{From: 2021, To: 2020})
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestDashboardFiltersCountryAndKeywords(t *testing.T) {
	d := dashboardFixture()

	assert.Equal(t, []string{totalUEM, youthUEM}, d.Indicators())
	for _, r := range d.Table().Rows {
		assert.Equal(t, "KOR", r.CountryCode)
	}

	indicator, yr := d.DefaultSelection()
	assert.Equal(t, totalUEM, indicator)
	assert.Equal(t, models.YearRange{From: 2010, To: 2022}, yr)
	assert.Equal(t, models.YearRange{From: 1980, To: 2022}, d.Bounds())
}

func TestDashboardUpdate(t *testing.T) {
	d := dashboardFixture()
	bundle := d.Update(youthUEM, models.YearRange{From: 2018, To: 2021})

	require.Equal(t, models.StatusOK, bundle.Status)
	assert.Empty(t, bundle.Error)
	require.Len(t, bundle.Charts, 9)
	assert.Equal(t, ChartIDs(), func() []string {
		ids := make([]string, 0, len(bundle.Charts))
		for _, c := range bundle.Charts {
			ids = append(ids, c.ID)
		}
		return ids
	}())

	bar, ok := bundle.Chart(ChartBar)
	require.True(t, ok)
	assert.Equal(t, models.StateReady, bar.State)
	assert.Len(t, bar.Points, 4, "bar chart keeps null years")
	assert.Equal(t, "Unemployment Indicators from 2018 to 2021", bar.Title)

	pie, _ := bundle.Chart(ChartPie)
	assert.Len(t, pie.Points, 2)
	for _, p := range pie.Points {
		assert.NotNil(t, p.Value)
	}

	line, _ := bundle.Chart(ChartLine)
	assert.Len(t, line.Points, 8, "trend chart covers every filtered row")

	variability, _ := bundle.Chart(ChartVariability)
	require.NotNil(t, variability.Stats)
	assert.Equal(t, 2, variability.Stats.Count)
	assert.Equal(t, "Variability of "+youthUEM, variability.Title)

	heatmap, _ := bundle.Chart(ChartHeatmap)
	require.NotNil(t, heatmap.Grid)
	assert.Equal(t, []int{2019, 2021}, heatmap.Grid.Years)
	assert.Equal(t, []string{"Korea, Rep."}, heatmap.Grid.Countries)
}

func TestDashboardUpdateEmpty(t *testing.T) {
	d := dashboardFixture()

	bundle := d.Update("GDP growth (annual %)", models.YearRange{From: 2018, To: 2021})
	require.Equal(t, models.StatusOK, bundle.Status)
	for _, c := range bundle.Charts {
		if c.ID == ChartLine {
			assert.Equal(t, models.StateReady, c.State)
			continue
		}
		assert.Equal(t, models.StateEmpty, c.State, c.ID)
		assert.Equal(t, models.NoDataAnnotation, c.Annotation)
		assert.Empty(t, c.Points)
	}
}

func TestDashboardUpdateAllNullSelection(t *testing.T) {
	d := dashboardFixture()

	bundle := d.Update(youthUEM, models.YearRange{From: 2018, To: 2018})
	require.Equal(t, models.StatusOK, bundle.Status)

	bar, _ := bundle.Chart(ChartBar)
	assert.Equal(t, models.StateReady, bar.State)
	scatter, _ := bundle.Chart(ChartScatter)
	assert.Equal(t, models.StateEmpty, scatter.State)
	variability, _ := bundle.Chart(ChartVariability)
	assert.Nil(t, variability.Stats)
}

func TestDashboardUpdateInvalidRange(t *testing.T) {
	bundle := dashboardFixture().Update(totalUEM, models.YearRange{From: 2022, To: 2010})

	assert.Equal(t, models.StatusInvalidRange, bundle.Status)
	assert.Contains(t, bundle.Error, "An error occurred: invalid year range")
	require.Len(t, bundle.Charts, 9)
	for _, c := range bundle.Charts {
		assert.Equal(t, models.StateHidden, c.State)
		assert.Empty(t, c.Points)
	}
	assert.False(t, bundle.OK())
}

func TestDashboardUpdateRecoversFailure(t *testing.T) {
	var d Dashboard

	bundle := d.Update(totalUEM, models.YearRange{From: 2010, To: 2022})
	assert.Equal(t, models.StatusFailure, bundle.Status)
	assert.NotEmpty(t, bundle.Error)
	assert.Len(t, bundle.Charts, 9)

	// A later request on a healthy dashboard is unaffected.
	assert.True(t, func() bool {
		b := dashboardFixture().Update(totalUEM, models.YearRange{From: 2010, To: 2022})
		return b.OK()
	}())
}

func TestDashboardCards(t *testing.T) {
	cards := dashboardFixture().Cards()
	require.Len(t, cards, 4)

	assert.Equal(t, "Total Unemployment", cards[0].Title)
	assert.Equal(t, "3.6% in 2021", cards[0].Text)
	assert.Equal(t, "Youth Unemployment", cards[1].Title)
	assert.Equal(t, "7.8% in 2021", cards[1].Text)
	assert.Equal(t, models.NoDataAnnotation, cards[2].Text)
	assert.Equal(t, "Education Unemployment, Female", cards[3].Title)
}
