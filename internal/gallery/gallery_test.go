package gallery

import (
	"bytes"
	"context"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendcharts/internal/datasets"
	"trendcharts/internal/render"
)

func newGallery() *Gallery {
	return New(datasets.Deps{}, render.NewCache(time.Minute), 300, 200)
}

func TestChart(t *testing.T) {
	g := newGallery()
	ctx := context.Background()

	img, ds, err := g.Chart(ctx, "brics-vs-g7")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, []byte("\x89PNG")))
	assert.Equal(t, "brics-vs-g7", ds.Name)

	again, _, err := g.Chart(ctx, "BRICS-vs-G7")
	require.NoError(t, err)
	assert.Equal(t, img, again)

	_, _, err = g.Chart(ctx, "missing")
	assert.ErrorIs(t, err, datasets.ErrUnknownDataset)

	_, _, err = g.Chart(ctx, "south-asia-gdppc")
	assert.ErrorIs(t, err, datasets.ErrNeedsFetcher)
}

func TestIndexedAndSnapshot(t *testing.T) {
	g := newGallery()
	ctx := context.Background()

	img, _, err := g.Indexed(ctx, "gdppc-ppp-outlook")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, []byte("\x89PNG")))

	cfg, err := png.DecodeConfig(bytes.NewReader(img))
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Width)

	img, _, err = g.Snapshot(ctx, "gdppc-ppp-outlook", 2050)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, []byte("\x89PNG")))
	cfg, err = png.DecodeConfig(bytes.NewReader(img))
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Width, "snapshot uses the configured chart width")

	_, _, err = g.Snapshot(ctx, "gdppc-ppp-outlook", 1900)
	assert.Error(t, err)
}

func TestAnimation(t *testing.T) {
	g := newGallery()
	img, ds, err := g.Animation(context.Background(), "usa-gdp-per-capita")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, []byte("GIF89a")))
	assert.Equal(t, "USD", ds.Unit)
}
