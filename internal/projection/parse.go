package projection

import (
	"fmt"
	"strconv"
	"strings"

	"trendcharts/internal/series"
)

// stripCommand removes a leading "/cmd" or "/cmd@bot" token.
func stripCommand(input string) string {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return input
	}
	if i := strings.IndexAny(input, " \t\n"); i >= 0 {
		return strings.TrimSpace(input[i:])
	}
	return ""
}

// parseRate accepts "6.5%" as a percentage and "0.065" as a fraction.
func parseRate(s string) (float64, error) {
	pct := strings.HasSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid rate '%s'", s)
	}
	if pct {
		v /= 100
	}
	return v, nil
}

func parsePeriod(s string) (int, error) {
	p, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid period '%s'", s)
	}
	return p, nil
}

// ParseProject parses "/project BASE FROM RATE[@BOUND]... TO", for example
// "/project 12100 2025 6.5%@2040 4.5%@2060 2% 2100". A rate without a bound
// must be last and runs to TO.
func ParseProject(input string) (Params, int, error) {
	parts := strings.Fields(stripCommand(input))
	if len(parts) < 4 {
		return Params{}, 0, fmt.Errorf("insufficient arguments: need BASE FROM RATE TO")
	}
	base, err := strconv.ParseFloat(strings.ReplaceAll(parts[0], ",", ""), 64)
	if err != nil {
		return Params{}, 0, fmt.Errorf("invalid base value '%s'", parts[0])
	}
	from, err := parsePeriod(parts[1])
	if err != nil {
		return Params{}, 0, err
	}
	to, err := parsePeriod(parts[len(parts)-1])
	if err != nil {
		return Params{}, 0, err
	}
	if to < from {
		return Params{}, 0, fmt.Errorf("target %d is before %d", to, from)
	}
	if err := CheckHorizon(from, to); err != nil {
		return Params{}, 0, err
	}

	rateParts := parts[2 : len(parts)-1]
	segments := make([]Segment, 0, len(rateParts))
	for i, rp := range rateParts {
		rateStr, boundStr, hasBound := strings.Cut(rp, "@")
		rate, err := parseRate(rateStr)
		if err != nil {
			return Params{}, 0, err
		}
		bound := to
		if hasBound {
			if bound, err = parsePeriod(boundStr); err != nil {
				return Params{}, 0, err
			}
		} else if i != len(rateParts)-1 {
			return Params{}, 0, fmt.Errorf("rate '%s' needs @BOUND unless it is the last one", rp)
		}
		segments = append(segments, Segment{UpperBound: bound, Rate: rate})
	}
	p, err := NewParams(from, base, segments...)
	if err != nil {
		return Params{}, 0, err
	}
	return p, to, nil
}

// ParseFit parses "/fit P:V P:V ... [TO]". TO defaults to the last period.
func ParseFit(input string) (series.Series, int, error) {
	parts := strings.Fields(stripCommand(input))
	if len(parts) == 0 {
		return series.Series{}, 0, fmt.Errorf("insufficient arguments: need at least two PERIOD:VALUE pairs")
	}
	target := 0
	if !strings.Contains(parts[len(parts)-1], ":") {
		t, err := parsePeriod(parts[len(parts)-1])
		if err != nil {
			return series.Series{}, 0, err
		}
		target = t
		parts = parts[:len(parts)-1]
	}
	if len(parts) < 2 {
		return series.Series{}, 0, fmt.Errorf("insufficient arguments: need at least two PERIOD:VALUE pairs")
	}
	pts := make([]series.Point, 0, len(parts))
	for _, part := range parts {
		ps, vs, ok := strings.Cut(part, ":")
		if !ok {
			return series.Series{}, 0, fmt.Errorf("invalid pair '%s', expected PERIOD:VALUE", part)
		}
		p, err := parsePeriod(ps)
		if err != nil {
			return series.Series{}, 0, err
		}
		v, err := strconv.ParseFloat(vs, 64)
		if err != nil {
			return series.Series{}, 0, fmt.Errorf("invalid value '%s' for period %d", vs, p)
		}
		pts = append(pts, series.At(p, v))
	}
	s, err := series.New("input", pts...)
	if err != nil {
		return series.Series{}, 0, err
	}
	first, _ := s.First()
	last, _ := s.Last()
	if target == 0 {
		target = last.Period
	}
	if target < last.Period {
		return series.Series{}, 0, fmt.Errorf("target %d is before the last data point %d", target, last.Period)
	}
	if err := CheckHorizon(first.Period, target); err != nil {
		return series.Series{}, 0, err
	}
	return s, target, nil
}
