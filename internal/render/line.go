package render

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vicanso/go-charts/v2"

	"trendcharts/internal/series"
)

const (
	defaultWidth  = 900
	defaultHeight = 600
)

// LineOptions controls a line chart. Zero values fall back to sensible defaults.
type LineOptions struct {
	Title    string
	Subtitle string
	Width    int
	Height   int
	// DualAxis puts every odd series on a right-hand axis, for series with very
	// different magnitudes (total electricity vs AI consumption).
	DualAxis bool
}

func (o LineOptions) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	return w, h
}

// Line renders one or more series on shared periods as a PNG.
func Line(opts LineOptions, list ...series.Series) ([]byte, error) {
	pl, err := prepare(list)
	if err != nil {
		return nil, err
	}
	subtitle := opts.Subtitle
	if subtitle == "" {
		subtitle = describe(list)
	}
	return pl.render(opts, subtitle, len(pl.periods))
}

// plot holds aligned data and the fixed axis ranges derived from the full series.
type plot struct {
	names   []string
	periods []int
	values  [][]float64
	left    axisRange
	right   axisRange
	common  axisRange
}

type axisRange struct {
	min, max float64
	set      bool
}

func (r *axisRange) add(v float64) {
	if !r.set {
		r.min, r.max, r.set = v, v, true
		return
	}
	if v < r.min {
		r.min = v
	}
	if v > r.max {
		r.max = v
	}
}

// padded widens the range by 5% (at least 0.2% of max) and clamps at zero for non-negative data.
func (r axisRange) padded() (*float64, *float64) {
	if !r.set {
		return nil, nil
	}
	pad := (r.max - r.min) * 0.05
	if pad < r.max*0.002 {
		pad = r.max * 0.002
	}
	if pad == 0 {
		pad = 1
	}
	lo, hi := r.min-pad, r.max+pad
	if r.min >= 0 && lo < 0 {
		lo = 0
	}
	return &lo, &hi
}

func prepare(list []series.Series) (*plot, error) {
	if len(list) == 0 {
		return nil, errors.New("no series provided")
	}
	var periods []int
	var values [][]float64
	if len(list) == 1 {
		clean := series.DropMissing(list[0])
		if clean.Len() < 2 {
			return nil, errors.New("not enough data points")
		}
		periods = clean.Periods()
		values = [][]float64{clean.Values()}
	} else {
		var err error
		periods, values, err = series.Align(list...)
		if err != nil {
			return nil, err
		}
	}
	pl := &plot{periods: periods, values: values}
	for i, s := range list {
		pl.names = append(pl.names, s.Name)
		for _, v := range values[i] {
			pl.common.add(v)
			if i%2 == 0 {
				pl.left.add(v)
			} else {
				pl.right.add(v)
			}
		}
	}
	return pl, nil
}

// render draws the first n aligned points of every series against the full x-axis.
func (pl *plot) render(opts LineOptions, subtitle string, n int) ([]byte, error) {
	if n > len(pl.periods) {
		n = len(pl.periods)
	}
	labels := make([]string, len(pl.periods))
	for i, p := range pl.periods {
		labels[i] = strconv.Itoa(p)
	}
	values := make([][]float64, len(pl.values))
	for i, row := range pl.values {
		values[i] = row[:n]
	}

	dual := opts.DualAxis && len(values) > 1
	seriesList := charts.NewSeriesListDataFromValues(values, charts.ChartTypeLine)
	for i := range seriesList {
		seriesList[i].Name = pl.names[i]
		if dual {
			seriesList[i].AxisIndex = i % 2
		}
	}

	var yAxis []charts.YAxisOption
	if dual {
		lMin, lMax := pl.left.padded()
		rMin, rMax := pl.right.padded()
		yAxis = []charts.YAxisOption{
			{Min: lMin, Max: lMax, DivideCount: 5},
			{Min: rMin, Max: rMax, DivideCount: 5, Position: charts.PositionRight},
		}
	} else {
		yMin, yMax := pl.common.padded()
		yAxis = []charts.YAxisOption{{Min: yMin, Max: yMax, DivideCount: 5}}
	}

	title := opts.Title
	if title == "" {
		title = strings.Join(pl.names, " vs ")
	}
	w, h := opts.size()
	painter, err := charts.Render(charts.ChartOption{SeriesList: seriesList},
		charts.TitleTextOptionFunc(title, subtitle),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: labels, BoundaryGap: charts.FalseFlag(), SplitNumber: splitFor(len(labels))}),
		charts.YAxisOptionFunc(yAxis...),
		charts.LegendOptionFunc(charts.LegendOption{Data: pl.names}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(w),
		charts.HeightOptionFunc(h),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return painter.Bytes()
}

// splitFor picks an x-axis tick count so long horizons stay readable.
func splitFor(n int) int {
	switch {
	case n <= 12:
		return n - 1
	case n <= 40:
		return 8
	default:
		return 10
	}
}

// describe builds a subtitle: growth stats for a single series, end values otherwise.
func describe(list []series.Series) string {
	if len(list) == 1 {
		st, err := series.Summarize(list[0])
		if err != nil {
			return ""
		}
		return fmt.Sprintf("%d-%d • Growth: %.1f%% • CAGR: %.2f%% • MaxDD: %.1f%%",
			st.FirstPeriod, st.LastPeriod, st.TotalGrowth, st.CAGR, st.MaxDrawdown)
	}
	parts := make([]string, 0, len(list))
	for _, s := range list {
		if last, ok := s.Last(); ok {
			parts = append(parts, fmt.Sprintf("%s %d: %s", s.Name, last.Period, FormatValue(last.Value, s.Unit)))
		}
	}
	return strings.Join(parts, " • ")
}
