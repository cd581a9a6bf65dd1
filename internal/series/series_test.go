package series

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("should reject empty name", func(t *testing.T) {
		_, err := New("", At(2020, 1))
		assert.ErrorIs(t, err, ErrEmptyName)
	})

	t.Run("should reject non increasing periods", func(t *testing.T) {
		_, err := New("gdp", At(2020, 1), At(2020, 2))
		assert.ErrorIs(t, err, ErrPeriodOrder)

		_, err = New("gdp", At(2021, 1), At(2020, 2))
		assert.ErrorIs(t, err, ErrPeriodOrder)
	})

	t.Run("should reject NaN but allow missing points", func(t *testing.T) {
		_, err := New("gdp", At(2020, math.NaN()))
		assert.ErrorIs(t, err, ErrNonFinite)

		s, err := New("gdp", At(2020, 1), Missing(2021), At(2022, 3))
		require.NoError(t, err)
		assert.Equal(t, 3, s.Len())
		assert.Equal(t, []float64{1, 3}, s.Values())
	})

	t.Run("should not alias the caller's slice", func(t *testing.T) {
		pts := []Point{At(2020, 1), At(2021, 2)}
		s, err := New("gdp", pts...)
		require.NoError(t, err)
		pts[0].Value = 99
		v, _ := s.Value(2020)
		assert.Equal(t, 1.0, v)
	})
}

func TestAccessors(t *testing.T) {
	s, err := New("wage", Missing(2019), At(2020, 10), At(2021, 11), Missing(2022), At(2023, 14), Missing(2024))
	require.NoError(t, err)

	first, ok := s.First()
	require.True(t, ok)
	assert.Equal(t, 2020, first.Period)

	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, 2023, last.Period)

	_, ok = s.Value(2022)
	assert.False(t, ok, "gap should not report a value")
	_, ok = s.Value(1990)
	assert.False(t, ok)
	v, ok := s.Value(2021)
	assert.True(t, ok)
	assert.Equal(t, 11.0, v)

	assert.Equal(t, []int{2020, 2021, 2022}, s.Slice(2020, 2022).Periods())
	assert.Equal(t, 2, s.Prefix(2).Len())
	assert.Equal(t, 6, s.Prefix(100).Len())
	assert.Equal(t, 0, s.Prefix(-1).Len())
}

func TestAppend(t *testing.T) {
	s, err := FromValues("x", 2020, 1, 2)
	require.NoError(t, err)

	ext, err := s.Append(At(2022, 3))
	require.NoError(t, err)
	assert.Equal(t, 3, ext.Len())
	assert.Equal(t, 2, s.Len(), "receiver must not change")

	_, err = s.Append(At(2021, 3))
	assert.ErrorIs(t, err, ErrPeriodOrder)
}

func TestClean(t *testing.T) {
	t.Run("drop negative keeps gaps", func(t *testing.T) {
		s, _ := New("p", At(1, 5), At(2, -1), Missing(3), At(4, 6))
		assert.Equal(t, []int{1, 3, 4}, DropNegative(s).Periods())
		assert.Equal(t, []int{1, 2, 4}, DropMissing(s).Periods())
	})

	t.Run("iqr drops a spike", func(t *testing.T) {
		vals := make([]float64, 30)
		for i := range vals {
			vals[i] = 100 + float64(i%5)
		}
		vals[17] = 10000
		s, err := FromValues("p", 0, vals...)
		require.NoError(t, err)

		out := FilterIQR(s, 1.5, 20)
		assert.Equal(t, 29, out.Len())
		_, ok := out.Value(17)
		assert.False(t, ok)
	})

	t.Run("iqr leaves short series alone", func(t *testing.T) {
		s, _ := FromValues("p", 0, 1, 2, 1000)
		assert.Equal(t, 3, FilterIQR(s, 1.5, 20).Len())
	})

	t.Run("interpolate fills interior gaps only", func(t *testing.T) {
		s, _ := New("p", Missing(2018), At(2019, 10), Missing(2020), Missing(2021), At(2022, 40), Missing(2023))
		out := Interpolate(s)
		v, ok := out.Value(2020)
		require.True(t, ok)
		assert.InDelta(t, 20, v, 1e-9)
		v, ok = out.Value(2021)
		require.True(t, ok)
		assert.InDelta(t, 30, v, 1e-9)
		_, ok = out.Value(2018)
		assert.False(t, ok)
		_, ok = out.Value(2023)
		assert.False(t, ok)
		_, ok = s.Value(2020)
		assert.False(t, ok, "input must not change")
	})
}

func TestAlign(t *testing.T) {
	a, _ := New("a", At(2020, 1), At(2021, 2), At(2022, 3), At(2023, 4))
	b, _ := New("b", At(2021, 20), Missing(2022), At(2023, 40), At(2024, 50))

	periods, values, err := Align(a, b)
	require.NoError(t, err)
	assert.Equal(t, []int{2021, 2023}, periods)
	assert.Equal(t, [][]float64{{2, 4}, {20, 40}}, values)

	c, _ := New("c", At(1990, 1))
	_, _, err = Align(a, c)
	assert.ErrorIs(t, err, ErrNotEnoughOverlap)
}

func TestDerived(t *testing.T) {
	japan, _ := FromValues("Japan", 2024, 4.1, 4.19, 4.37)
	india, _ := New("India", At(2024, 3.5), At(2025, 0), At(2026, 4.6))

	r, err := Ratio("Japan/India", japan, india)
	require.NoError(t, err)
	v, ok := r.Value(2024)
	require.True(t, ok)
	assert.InDelta(t, 4.1/3.5, v, 1e-12)
	_, ok = r.Value(2025)
	assert.False(t, ok, "zero denominator becomes a gap")

	idx, err := Index(japan, 100)
	require.NoError(t, err)
	v, _ = idx.Value(2024)
	assert.Equal(t, 100.0, v)
	v, _ = idx.Value(2026)
	assert.InDelta(t, 4.37/4.1*100, v, 1e-9)

	share, err := Share("share", india, japan)
	require.NoError(t, err)
	v, _ = share.Value(2024)
	assert.InDelta(t, 3.5/4.1*100, v, 1e-9)

	g, err := GrowthFactor(japan)
	require.NoError(t, err)
	assert.InDelta(t, 4.37/4.1, g, 1e-12)
}

func TestSummarize(t *testing.T) {
	s, err := FromValues("v", 2020, 100, 120, 90, 150)
	require.NoError(t, err)

	st, err := Summarize(s)
	require.NoError(t, err)
	assert.Equal(t, 2020, st.FirstPeriod)
	assert.Equal(t, 2023, st.LastPeriod)
	assert.InDelta(t, 50.0, st.TotalGrowth, 1e-9)
	assert.InDelta(t, (math.Pow(1.5, 1.0/3)-1)*100, st.CAGR, 1e-9)
	assert.InDelta(t, 25.0, st.MaxDrawdown, 1e-9)
	assert.Greater(t, st.Volatility, 0.0)

	_, err = Summarize(Series{Name: "short", Points: []Point{At(1, 1)}})
	assert.Error(t, err)

	neg, _ := FromValues("neg", 0, -1, 2)
	_, err = Summarize(neg)
	assert.Error(t, err)
}
