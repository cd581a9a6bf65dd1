package projection

import (
	"errors"
	"fmt"
	"math"

	"trendcharts/internal/series"
)

var (
	ErrNonPositiveBase = errors.New("base value must be positive")
	ErrNoSegments      = errors.New("at least one rate segment is required")
	ErrSegmentOrder    = errors.New("segment upper bounds must be strictly increasing")
	ErrInvalidRate     = errors.New("rate must be finite and greater than -1")
	ErrHorizonTooLong  = errors.New("horizon too long")
)

// MaxHorizon is the largest number of periods a projection or fitted curve may span.
const MaxHorizon = 1000

// CheckHorizon reports ErrHorizonTooLong when to lies more than MaxHorizon
// periods after from.
func CheckHorizon(from, to int) error {
	// The true difference fits in a uint even when to-from overflows an int.
	if to > from && uint(to)-uint(from) > MaxHorizon {
		return fmt.Errorf("%w: %d to %d exceeds %d periods", ErrHorizonTooLong, from, to, MaxHorizon)
	}
	return nil
}

// Segment applies Rate to every period up to and including UpperBound.
type Segment struct {
	UpperBound int
	Rate       float64
}

// Params anchors a projection. The last segment's rate carries on past its bound.
type Params struct {
	BasePeriod int
	BaseValue  float64
	Segments   []Segment
}

// NewParams validates and copies the projection parameters.
func NewParams(basePeriod int, baseValue float64, segments ...Segment) (Params, error) {
	p := Params{
		BasePeriod: basePeriod,
		BaseValue:  baseValue,
		Segments:   append([]Segment(nil), segments...),
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Constant is a single-segment projection at rate.
func Constant(basePeriod int, baseValue, rate float64) (Params, error) {
	return NewParams(basePeriod, baseValue, Segment{UpperBound: basePeriod, Rate: rate})
}

func (p Params) Validate() error {
	if !(p.BaseValue > 0) || math.IsInf(p.BaseValue, 0) {
		return fmt.Errorf("%w: got %v", ErrNonPositiveBase, p.BaseValue)
	}
	if len(p.Segments) == 0 {
		return ErrNoSegments
	}
	for i, s := range p.Segments {
		if i > 0 && s.UpperBound <= p.Segments[i-1].UpperBound {
			return fmt.Errorf("%w: %d after %d", ErrSegmentOrder, s.UpperBound, p.Segments[i-1].UpperBound)
		}
		if math.IsNaN(s.Rate) || math.IsInf(s.Rate, 0) || s.Rate <= -1 {
			return fmt.Errorf("%w: segment %d rate %v", ErrInvalidRate, i, s.Rate)
		}
	}
	return nil
}

// RateFor returns the rate of the first segment whose bound is >= period,
// or the final segment's rate past every bound.
func (p Params) RateFor(period int) float64 {
	for _, s := range p.Segments {
		if s.UpperBound >= period {
			return s.Rate
		}
	}
	return p.Segments[len(p.Segments)-1].Rate
}

// Project compounds the base value period by period up to target. The result
// starts with the base point. A target before the base period yields an empty series.
func Project(name string, p Params, target int) (series.Series, error) {
	if err := p.Validate(); err != nil {
		return series.Series{}, err
	}
	if name == "" {
		name = "projection"
	}
	if target < p.BasePeriod {
		return series.Series{Name: name}, nil
	}
	if err := CheckHorizon(p.BasePeriod, target); err != nil {
		return series.Series{}, err
	}
	pts := make([]series.Point, 0, target-p.BasePeriod+1)
	v := p.BaseValue
	pts = append(pts, series.At(p.BasePeriod, v))
	for period := p.BasePeriod + 1; period <= target; period++ {
		v = v * (1 + p.RateFor(period))
		if math.IsInf(v, 0) {
			return series.Series{}, fmt.Errorf("projection overflowed at period %d", period)
		}
		pts = append(pts, series.At(period, v))
	}
	return series.New(name, pts...)
}

// Extend continues history from its last valid point using segments. The
// anchor point is not repeated.
func Extend(history series.Series, target int, segments ...Segment) (series.Series, error) {
	last, ok := history.Last()
	if !ok {
		return series.Series{}, fmt.Errorf("%s: no valid point to project from", history.Name)
	}
	p, err := NewParams(last.Period, last.Value, segments...)
	if err != nil {
		return series.Series{}, fmt.Errorf("%s: %w", history.Name, err)
	}
	proj, err := Project(history.Name, p, target)
	if err != nil {
		return series.Series{}, err
	}
	if proj.Len() <= 1 {
		return history, nil
	}
	// Drop trailing gaps after the anchor so periods stay increasing.
	trimmed := history.Slice(history.Points[0].Period, last.Period)
	return trimmed.Append(proj.Points[1:]...)
}
