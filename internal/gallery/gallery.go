// Package gallery renders named datasets and keeps the rendered bytes in a
// short-lived cache shared by the bot and the HTTP endpoint.
package gallery

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strconv"

	"trendcharts/internal/datasets"
	"trendcharts/internal/render"
	"trendcharts/internal/series"
)

const (
	frameDelay = 12 // hundredths of a second
	frameHold  = 8
)

type Gallery struct {
	deps   datasets.Deps
	cache  *render.Cache
	width  int
	height int
}

func New(deps datasets.Deps, cache *render.Cache, width, height int) *Gallery {
	return &Gallery{deps: deps, cache: cache, width: width, height: height}
}

// Build constructs the named dataset.
func (g *Gallery) Build(ctx context.Context, name string) (datasets.Dataset, error) {
	def, err := datasets.Lookup(name)
	if err != nil {
		return datasets.Dataset{}, err
	}
	return def.Build(ctx, g.deps)
}

func (g *Gallery) lineOptions(ds datasets.Dataset) render.LineOptions {
	return render.LineOptions{Title: ds.Title, Width: g.width, Height: g.height, DualAxis: ds.DualAxis}
}

// Chart renders the dataset as a line chart.
func (g *Gallery) Chart(ctx context.Context, name string) ([]byte, datasets.Dataset, error) {
	ds, err := g.Build(ctx, name)
	if err != nil {
		return nil, datasets.Dataset{}, err
	}
	img, err := g.cache.GetOrRender("chart:"+ds.Name, func() ([]byte, error) {
		return render.Line(g.lineOptions(ds), ds.Series...)
	})
	return img, ds, err
}

// Indexed renders the dataset rebased to 100 at the first shared period.
func (g *Gallery) Indexed(ctx context.Context, name string) ([]byte, datasets.Dataset, error) {
	ds, err := g.Build(ctx, name)
	if err != nil {
		return nil, datasets.Dataset{}, err
	}
	img, err := g.cache.GetOrRender("indexed:"+ds.Name, func() ([]byte, error) {
		opts := g.lineOptions(ds)
		opts.Title += " (indexed)"
		return render.Indexed(opts, 100, ds.Series...)
	})
	return img, ds, err
}

// Snapshot renders each series' value at period as a bar chart.
func (g *Gallery) Snapshot(ctx context.Context, name string, period int) ([]byte, datasets.Dataset, error) {
	ds, err := g.Build(ctx, name)
	if err != nil {
		return nil, datasets.Dataset{}, err
	}
	key := "snapshot:" + ds.Name + ":" + strconv.Itoa(period)
	img, err := g.cache.GetOrRender(key, func() ([]byte, error) {
		opts := render.LineOptions{Title: fmt.Sprintf("%s, %d", ds.Title, period), Width: g.width}
		return render.Snapshot(opts, period, ds.Series...)
	})
	return img, ds, err
}

// Animation renders the dataset frame by frame and encodes a looping GIF.
func (g *Gallery) Animation(ctx context.Context, name string) ([]byte, datasets.Dataset, error) {
	ds, err := g.Build(ctx, name)
	if err != nil {
		return nil, datasets.Dataset{}, err
	}
	img, err := g.cache.GetOrRender("gif:"+ds.Name, func() ([]byte, error) {
		return Animate(ctx, g.lineOptions(ds), ds.Series...)
	})
	return img, ds, err
}

// Animate collects every frame of the series and encodes them as a GIF.
func Animate(ctx context.Context, opts render.LineOptions, list ...series.Series) ([]byte, error) {
	var frames [][]byte
	n, err := render.Animate(ctx, render.AnimateOptions{LineOptions: opts, Hold: frameHold},
		func(_ int, img []byte) error {
			frames = append(frames, img)
			return nil
		}, list...)
	if err != nil {
		return nil, err
	}
	log.Printf("gallery: rendered %d frames for %q", n, opts.Title)
	var buf bytes.Buffer
	if err := render.EncodeGIF(&buf, frames, frameDelay); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
