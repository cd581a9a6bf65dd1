package series

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmptyName   = errors.New("series name is empty")
	ErrPeriodOrder = errors.New("periods must be strictly increasing")
	ErrNonFinite   = errors.New("value is NaN or Inf")
)

// Point is the value of a series at one period. Valid=false marks a gap.
type Point struct {
	Period int
	Value  float64
	Valid  bool
}

// At builds a present point.
func At(period int, value float64) Point {
	return Point{Period: period, Value: value, Valid: true}
}

// Missing builds an absent point.
func Missing(period int) Point {
	return Point{Period: period}
}

// Series is an ordered set of (period, value) pairs for one tracked quantity.
// A Series is treated as immutable once built; every transform returns a copy.
type Series struct {
	Name   string
	Unit   string
	Points []Point
}

// New validates points and returns a series owning its own copy of them.
func New(name string, points ...Point) (Series, error) {
	if name == "" {
		return Series{}, ErrEmptyName
	}
	if err := validate(points); err != nil {
		return Series{}, fmt.Errorf("%s: %w", name, err)
	}
	cp := make([]Point, len(points))
	copy(cp, points)
	return Series{Name: name, Points: cp}, nil
}

// FromValues builds a series over consecutive periods starting at start.
func FromValues(name string, start int, values ...float64) (Series, error) {
	pts := make([]Point, len(values))
	for i, v := range values {
		pts[i] = At(start+i, v)
	}
	return New(name, pts...)
}

// WithUnit returns a copy of s carrying unit.
func (s Series) WithUnit(unit string) Series {
	s.Unit = unit
	return s
}

func validate(points []Point) error {
	for i, p := range points {
		if i > 0 && p.Period <= points[i-1].Period {
			return fmt.Errorf("period %d after %d: %w", p.Period, points[i-1].Period, ErrPeriodOrder)
		}
		if p.Valid && (math.IsNaN(p.Value) || math.IsInf(p.Value, 0)) {
			return fmt.Errorf("period %d: %w", p.Period, ErrNonFinite)
		}
	}
	return nil
}

func (s Series) Len() int { return len(s.Points) }

// First returns the first valid point.
func (s Series) First() (Point, bool) {
	for _, p := range s.Points {
		if p.Valid {
			return p, true
		}
	}
	return Point{}, false
}

// Last returns the last valid point.
func (s Series) Last() (Point, bool) {
	for i := len(s.Points) - 1; i >= 0; i-- {
		if s.Points[i].Valid {
			return s.Points[i], true
		}
	}
	return Point{}, false
}

// Value looks up the value at period. ok is false when the period is absent or a gap.
func (s Series) Value(period int) (float64, bool) {
	lo, hi := 0, len(s.Points)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case s.Points[mid].Period == period:
			p := s.Points[mid]
			return p.Value, p.Valid
		case s.Points[mid].Period < period:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return 0, false
}

func (s Series) Periods() []int {
	out := make([]int, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Period
	}
	return out
}

// Values returns the valid values in period order.
func (s Series) Values() []float64 {
	out := make([]float64, 0, len(s.Points))
	for _, p := range s.Points {
		if p.Valid {
			out = append(out, p.Value)
		}
	}
	return out
}

// Slice returns the points with from <= period <= to.
func (s Series) Slice(from, to int) Series {
	out := s
	out.Points = make([]Point, 0, len(s.Points))
	for _, p := range s.Points {
		if p.Period >= from && p.Period <= to {
			out.Points = append(out.Points, p)
		}
	}
	return out
}

// Prefix returns the first n points. n is clamped to [0, Len()].
func (s Series) Prefix(n int) Series {
	if n < 0 {
		n = 0
	}
	if n > len(s.Points) {
		n = len(s.Points)
	}
	out := s
	out.Points = make([]Point, n)
	copy(out.Points, s.Points[:n])
	return out
}

// Append returns a new series with points added after the existing ones.
func (s Series) Append(points ...Point) (Series, error) {
	all := make([]Point, 0, len(s.Points)+len(points))
	all = append(all, s.Points...)
	all = append(all, points...)
	if err := validate(all); err != nil {
		return Series{}, fmt.Errorf("%s: %w", s.Name, err)
	}
	out := s
	out.Points = all
	return out, nil
}

// Rename returns a copy of s under a new name.
func (s Series) Rename(name string) Series {
	out := s
	out.Name = name
	out.Points = make([]Point, len(s.Points))
	copy(out.Points, s.Points)
	return out
}
