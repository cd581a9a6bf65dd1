package projection

import (
	"errors"
	"fmt"
	"math"

	"trendcharts/internal/series"
)

// CAGR is the constant per-period rate that turns start into end over periods.
func CAGR(start, end float64, periods int) (float64, error) {
	if periods <= 0 {
		return 0, errors.New("periods must be positive")
	}
	if start <= 0 || end <= 0 {
		return 0, fmt.Errorf("start and end must be positive, got %v and %v", start, end)
	}
	return math.Pow(end/start, 1/float64(periods)) - 1, nil
}

// HistoricalRate is the CAGR between the first and last valid points of s.
func HistoricalRate(s series.Series) (float64, error) {
	first, ok1 := s.First()
	last, ok2 := s.Last()
	if !ok1 || !ok2 || first.Period == last.Period {
		return 0, fmt.Errorf("%s: need two valid points to derive a growth rate", s.Name)
	}
	return CAGR(first.Value, last.Value, last.Period-first.Period)
}

// FromHistory extends s to target at its own historical CAGR.
func FromHistory(s series.Series, target int) (series.Series, float64, error) {
	rate, err := HistoricalRate(s)
	if err != nil {
		return series.Series{}, 0, err
	}
	last, _ := s.Last()
	out, err := Extend(s, target, Segment{UpperBound: last.Period, Rate: rate})
	if err != nil {
		return series.Series{}, 0, err
	}
	return out, rate, nil
}
