package series

import (
	"fmt"
	"math"
)

// Stats summarises a series. Percentages are expressed as 0-100.
type Stats struct {
	FirstPeriod int
	LastPeriod  int
	First       float64
	Last        float64
	TotalGrowth float64 // (last-first)/first as percentage
	CAGR        float64 // compound annual growth rate per period as percentage
	MaxDrawdown float64 // largest peak-to-trough decline as percentage
	Volatility  float64 // sample stddev of period-over-period returns as percentage
	NumPoints   int
}

// Summarize computes growth statistics over the valid points of s.
func Summarize(s Series) (Stats, error) {
	pts := DropMissing(s).Points
	if len(pts) < 2 {
		return Stats{}, fmt.Errorf("%s: need at least 2 valid points for statistics", s.Name)
	}
	first, last := pts[0], pts[len(pts)-1]
	if first.Value <= 0 {
		return Stats{}, fmt.Errorf("%s: first value %f must be positive", s.Name, first.Value)
	}

	st := Stats{
		FirstPeriod: first.Period,
		LastPeriod:  last.Period,
		First:       first.Value,
		Last:        last.Value,
		TotalGrowth: (last.Value - first.Value) / first.Value * 100,
		NumPoints:   len(pts),
	}

	// Geometric annualization: (last/first)^(1/years) - 1
	years := float64(last.Period - first.Period)
	if last.Value > 0 {
		st.CAGR = (math.Pow(last.Value/first.Value, 1/years) - 1) * 100
	}

	returns := make([]float64, 0, len(pts)-1)
	for i := 1; i < len(pts); i++ {
		if pts[i-1].Value > 0 {
			returns = append(returns, (pts[i].Value-pts[i-1].Value)/pts[i-1].Value)
		}
	}
	if len(returns) >= 2 {
		mean := 0.0
		for _, r := range returns {
			mean += r
		}
		mean /= float64(len(returns))
		variance := 0.0
		for _, r := range returns {
			d := r - mean
			variance += d * d
		}
		variance /= float64(len(returns) - 1)
		st.Volatility = math.Sqrt(variance) * 100
	}

	st.MaxDrawdown = maxDrawdown(pts) * 100

	for _, v := range []float64{st.TotalGrowth, st.CAGR, st.Volatility, st.MaxDrawdown} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Stats{}, fmt.Errorf("%s: statistics overflowed", s.Name)
		}
	}
	return st, nil
}

// maxDrawdown is the largest peak-to-trough decline as a fraction.
func maxDrawdown(pts []Point) float64 {
	peak := pts[0].Value
	dd := 0.0
	for _, p := range pts {
		if p.Value > peak {
			peak = p.Value
		}
		if peak > 0 && p.Value >= 0 {
			if d := (peak - p.Value) / peak; d > dd {
				dd = d
			}
		}
	}
	return dd
}
