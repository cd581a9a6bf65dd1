package series

import (
	"errors"
	"fmt"
)

// Ratio divides num by den period by period. Periods where either side is a gap
// or the denominator is zero become gaps.
func Ratio(name string, num, den Series) (Series, error) {
	pts := make([]Point, 0, len(num.Points))
	for _, p := range num.Points {
		d, ok := den.Value(p.Period)
		if !p.Valid || !ok || d == 0 {
			pts = append(pts, Missing(p.Period))
			continue
		}
		pts = append(pts, At(p.Period, p.Value/d))
	}
	return New(name, pts...)
}

// Share expresses part as a percentage of total.
func Share(name string, part, total Series) (Series, error) {
	r, err := Ratio(name, part, total)
	if err != nil {
		return Series{}, err
	}
	for i, p := range r.Points {
		if p.Valid {
			r.Points[i].Value = p.Value * 100
		}
	}
	r.Unit = "%"
	return r, nil
}

// Index rebases s so that its first valid point equals base (100 for a base-100 chart).
func Index(s Series, base float64) (Series, error) {
	first, ok := s.First()
	if !ok {
		return Series{}, fmt.Errorf("%s: no valid points", s.Name)
	}
	if first.Value == 0 {
		return Series{}, fmt.Errorf("%s: first value is zero, cannot index", s.Name)
	}
	out := s.Rename(s.Name)
	for i, p := range out.Points {
		if p.Valid {
			out.Points[i].Value = p.Value / first.Value * base
		}
	}
	out.Unit = "index"
	return out, nil
}

// GrowthFactor is last/first over the valid points, e.g. 4.2 for "4.2x".
func GrowthFactor(s Series) (float64, error) {
	first, ok1 := s.First()
	last, ok2 := s.Last()
	if !ok1 || !ok2 {
		return 0, errors.New("series has no valid points")
	}
	if first.Value == 0 {
		return 0, errors.New("first value is zero")
	}
	return last.Value / first.Value, nil
}
