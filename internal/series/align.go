package series

import (
	"errors"
	"sort"
)

var ErrNotEnoughOverlap = errors.New("not enough overlapping periods")

// Align intersects periods across all series, keeping only periods where every
// series has a valid value. values[i] lines up with periods for list[i].
func Align(list ...Series) ([]int, [][]float64, error) {
	if len(list) == 0 {
		return nil, nil, errors.New("no series provided")
	}
	count := map[int]int{}
	for _, s := range list {
		for _, p := range s.Points {
			if p.Valid {
				count[p.Period]++
			}
		}
	}
	common := make([]int, 0, len(count))
	for period, c := range count {
		if c == len(list) {
			common = append(common, period)
		}
	}
	if len(common) < 2 {
		return nil, nil, ErrNotEnoughOverlap
	}
	sort.Ints(common)

	values := make([][]float64, len(list))
	for i, s := range list {
		row := make([]float64, len(common))
		for j, period := range common {
			row[j], _ = s.Value(period)
		}
		values[i] = row
	}
	return common, values, nil
}
