package render

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/vicanso/go-charts/v2"

	"trendcharts/internal/series"
)

// Indexed renders every series rebased to base at its first shared period.
// opts.Subtitle is replaced by the base description.
func Indexed(opts LineOptions, base float64, list ...series.Series) ([]byte, error) {
	if len(list) == 0 {
		return nil, errors.New("no series provided")
	}
	// Rebase only over the shared window so every line starts at base.
	from, to := 0, 0
	if len(list) > 1 {
		periods, _, err := series.Align(list...)
		if err != nil {
			return nil, err
		}
		from, to = periods[0], periods[len(periods)-1]
	}
	indexed := make([]series.Series, 0, len(list))
	for _, s := range list {
		if len(list) > 1 {
			s = s.Slice(from, to)
		}
		ix, err := series.Index(s, base)
		if err != nil {
			return nil, err
		}
		indexed = append(indexed, ix)
	}
	if opts.Title == "" {
		opts.Title = "Indexed • " + strings.Join(names(list), ", ")
	}
	opts.Subtitle = fmt.Sprintf("base %g at start", base)
	opts.DualAxis = false
	return Line(opts, indexed...)
}

// Snapshot renders a horizontal bar chart of each series' value at period,
// smallest at the bottom. Without opts.Height the chart grows with the bar count.
func Snapshot(opts LineOptions, period int, list ...series.Series) ([]byte, error) {
	type bar struct {
		name  string
		value float64
		unit  string
	}
	bars := make([]bar, 0, len(list))
	for _, s := range list {
		if v, ok := s.Value(period); ok {
			bars = append(bars, bar{name: s.Name, value: v, unit: s.Unit})
		}
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no series has a value at %d", period)
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].value < bars[j].value })

	labels := make([]string, len(bars))
	values := make([]float64, len(bars))
	for i, b := range bars {
		labels[i] = b.name + " (" + FormatValue(b.value, b.unit) + ")"
		values[i] = b.value
	}
	title := opts.Title
	if title == "" {
		title = fmt.Sprintf("Snapshot %d", period)
	}
	w, h := opts.size()
	if opts.Height <= 0 {
		h = 120 + 40*len(bars)
	}
	painter, err := charts.HorizontalBarRender([][]float64{values},
		charts.TitleTextOptionFunc(title),
		charts.YAxisDataOptionFunc(labels),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(w),
		charts.HeightOptionFunc(h),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return painter.Bytes()
}

func names(list []series.Series) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.Name
	}
	return out
}
