package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendcharts/internal/series"
)

func TestParseProject(t *testing.T) {
	p, to, err := ParseProject("/project 12,100 2025 6.5%@2040 4.5%@2060 0.02 2100")
	require.NoError(t, err)
	assert.Equal(t, 2100, to)
	assert.Equal(t, 2025, p.BasePeriod)
	assert.Equal(t, 12100.0, p.BaseValue)
	require.Len(t, p.Segments, 3)
	assert.Equal(t, Segment{UpperBound: 2040, Rate: 0.065}, p.Segments[0])
	assert.InDelta(t, 0.045, p.Segments[1].Rate, 1e-12)
	assert.Equal(t, Segment{UpperBound: 2100, Rate: 0.02}, p.Segments[2])

	p, _, err = ParseProject("/project@trend_bot 80300 2024 2% 2047")
	require.NoError(t, err)
	assert.Equal(t, 80300.0, p.BaseValue)

	p, to, err = ParseProject("/project 80300 2024 2% 2024")
	require.NoError(t, err)
	assert.Equal(t, 2024, to)
	s, err := Project("x", p, to)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())

	_, to, err = ParseProject("/project 100 2025 0 3025")
	require.NoError(t, err)
	assert.Equal(t, 2025+MaxHorizon, to)
}

func TestParseProjectErrors(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/project 100 2025 2100", "insufficient arguments"},
		{"/project abc 2025 2% 2100", "invalid base value"},
		{"/project 100 2025 x% 2100", "invalid rate"},
		{"/project 100 2025 2% 2020", "is before 2025"},
		{"/project 100 0 1% 9223372036854775807", "horizon too long"},
		{"/project 100 -9223372036854775808 1% 9223372036854775807", "horizon too long"},
		{"/project 100 2025 0 3026", "horizon too long"},
		{"/project 100 2025 2% 3%@2040 2100", "needs @BOUND"},
		{"/project 100 2025 2%@2040 3%@2030 2100", "strictly increasing"},
		{"/project 0 2025 2% 2100", "positive"},
		{"/project 100 2025 -100% 2100", "greater than -1"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, _, err := ParseProject(tt.in)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestParseFit(t *testing.T) {
	s, to, err := ParseFit("/fit 2020:11 2021:15.9 2022:23 2023:33.3 2024:48.2 2030")
	require.NoError(t, err)
	assert.Equal(t, 2030, to)
	assert.Equal(t, []int{2020, 2021, 2022, 2023, 2024}, s.Periods())

	_, to, err = ParseFit("/fit 0:1 1:2")
	require.NoError(t, err)
	assert.Equal(t, 1, to, "defaults to the last period")

	_, _, err = ParseFit("/fit 2020:1")
	assert.ErrorContains(t, err, "two PERIOD:VALUE pairs")
	_, _, err = ParseFit("/fit 2020:1 2021-2")
	assert.ErrorContains(t, err, "invalid period")
	_, _, err = ParseFit("/fit 2021:1 2020:2")
	assert.ErrorIs(t, err, series.ErrPeriodOrder)
	_, _, err = ParseFit("/fit 2020:1 2021:2 2019")
	assert.ErrorContains(t, err, "before the last data point")
	_, _, err = ParseFit("/fit 1:1 2:2 9223372036854775807")
	assert.ErrorIs(t, err, ErrHorizonTooLong)
	_, _, err = ParseFit("/fit -9223372036854775808:1 9223372036854775807:2")
	assert.ErrorIs(t, err, ErrHorizonTooLong)
	_, to, err = ParseFit("/fit 1:1 2:2 1001")
	require.NoError(t, err)
	assert.Equal(t, 1001, to)
}
