package series

import "sort"

// DropNegative removes points whose value is below zero, keeping gaps.
func DropNegative(s Series) Series {
	out := s
	out.Points = make([]Point, 0, len(s.Points))
	for _, p := range s.Points {
		if p.Valid && p.Value < 0 {
			continue
		}
		out.Points = append(out.Points, p)
	}
	return out
}

// DropMissing removes gap points.
func DropMissing(s Series) Series {
	out := s
	out.Points = make([]Point, 0, len(s.Points))
	for _, p := range s.Points {
		if p.Valid {
			out.Points = append(out.Points, p)
		}
	}
	return out
}

// FilterIQR removes outliers using the Interquartile Range rule.
// Any point with value outside [Q1 - k*IQR, Q3 + k*IQR] is dropped.
// Series with fewer than minPoints valid values are returned unchanged, and so is
// the input when filtering would leave fewer than minPoints/2 points.
func FilterIQR(s Series, k float64, minPoints int) Series {
	vals := s.Values()
	if len(vals) < minPoints || len(vals) == 0 {
		return s
	}
	sort.Float64s(vals)
	q1 := percentile(vals, 0.25)
	q3 := percentile(vals, 0.75)
	iqr := q3 - q1
	if iqr <= 0 {
		return s
	}
	lower := q1 - k*iqr
	upper := q3 + k*iqr
	out := s
	out.Points = make([]Point, 0, len(s.Points))
	kept := 0
	for _, p := range s.Points {
		if p.Valid && (p.Value < lower || p.Value > upper) {
			continue
		}
		if p.Valid {
			kept++
		}
		out.Points = append(out.Points, p)
	}
	if kept < minPoints/2 {
		return s
	}
	return out
}

// percentile interpolates linearly between closest ranks of sorted vals.
func percentile(vals []float64, p float64) float64 {
	if p <= 0 {
		return vals[0]
	}
	if p >= 1 {
		return vals[len(vals)-1]
	}
	pos := p * float64(len(vals)-1)
	lo := int(pos)
	hi := lo + 1
	if hi >= len(vals) {
		return vals[lo]
	}
	frac := pos - float64(lo)
	return vals[lo]*(1-frac) + vals[hi]*frac
}

// Interpolate fills interior gaps linearly between the neighbouring valid points.
// Leading and trailing gaps stay missing.
func Interpolate(s Series) Series {
	out := s
	out.Points = make([]Point, len(s.Points))
	copy(out.Points, s.Points)
	prev := -1
	for i, p := range out.Points {
		if !p.Valid {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			a, b := out.Points[prev], p
			span := float64(b.Period - a.Period)
			for j := prev + 1; j < i; j++ {
				t := float64(out.Points[j].Period-a.Period) / span
				out.Points[j] = At(out.Points[j].Period, a.Value+(b.Value-a.Value)*t)
			}
		}
		prev = i
	}
	return out
}
