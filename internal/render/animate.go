package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
	"io"
	"strings"

	"trendcharts/internal/series"
)

// FrameSink receives rendered frames in order.
type FrameSink func(index int, img []byte) error

// AnimateOptions configures the frame driver.
type AnimateOptions struct {
	LineOptions
	// Hold repeats the final frame so the finished chart stays on screen.
	Hold int
}

// Frame renders the chart as it looks after the first n shared periods. Axes
// come from the full series so consecutive frames share one scale.
func Frame(opts LineOptions, n int, list ...series.Series) ([]byte, error) {
	pl, err := prepare(list)
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, fmt.Errorf("frame %d: need at least one point", n)
	}
	return pl.render(opts, frameCaption(pl, n), n)
}

// Animate drives Frame for n = 2..N and then holds the last frame. It returns
// the number of frames delivered to sink.
func Animate(ctx context.Context, opts AnimateOptions, sink FrameSink, list ...series.Series) (int, error) {
	pl, err := prepare(list)
	if err != nil {
		return 0, err
	}
	total := len(pl.periods)
	idx := 0
	var last []byte
	for n := 2; n <= total; n++ {
		if err := ctx.Err(); err != nil {
			return idx, err
		}
		img, err := pl.render(opts.LineOptions, frameCaption(pl, n), n)
		if err != nil {
			return idx, fmt.Errorf("frame %d: %w", idx, err)
		}
		if err := sink(idx, img); err != nil {
			return idx, err
		}
		last = img
		idx++
	}
	for i := 0; i < opts.Hold; i++ {
		if err := ctx.Err(); err != nil {
			return idx, err
		}
		if err := sink(idx, last); err != nil {
			return idx, err
		}
		idx++
	}
	return idx, nil
}

// frameCaption names the period currently shown and each series' value there.
func frameCaption(pl *plot, n int) string {
	if n > len(pl.periods) {
		n = len(pl.periods)
	}
	parts := []string{fmt.Sprintf("%d", pl.periods[n-1])}
	for i, name := range pl.names {
		parts = append(parts, name+": "+FormatValue(pl.values[i][n-1], ""))
	}
	return strings.Join(parts, " • ")
}

// EncodeGIF assembles PNG frames into a looping animated GIF. delay is in
// hundredths of a second per frame.
func EncodeGIF(w io.Writer, frames [][]byte, delay int) error {
	if len(frames) == 0 {
		return errors.New("no frames to encode")
	}
	anim := &gif.GIF{LoopCount: 0}
	for i, f := range frames {
		src, err := png.Decode(bytes.NewReader(f))
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		b := src.Bounds()
		dst := image.NewPaletted(b, palette.WebSafe)
		draw.FloydSteinberg.Draw(dst, b, src, b.Min)
		anim.Image = append(anim.Image, dst)
		anim.Delay = append(anim.Delay, delay)
	}
	return gif.EncodeAll(w, anim)
}
