package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendcharts/internal/series"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func mustSeries(t *testing.T, name string, start int, values ...float64) series.Series {
	t.Helper()
	s, err := series.FromValues(name, start, values...)
	require.NoError(t, err)
	return s
}

func pngSize(t *testing.T, img []byte) image.Point {
	t.Helper()
	cfg, err := png.DecodeConfig(bytes.NewReader(img))
	require.NoError(t, err)
	return image.Pt(cfg.Width, cfg.Height)
}

func TestLine(t *testing.T) {
	g7 := mustSeries(t, "G7", 2025, 67656, 68671, 69701, 70746, 71807)
	brics := mustSeries(t, "BRICS", 2025, 25939, 27106, 28326, 29601, 30933)

	t.Run("single series", func(t *testing.T) {
		img, err := Line(LineOptions{Title: "G7"}, g7)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(img, pngMagic))
	})

	t.Run("dual axis", func(t *testing.T) {
		img, err := Line(LineOptions{DualAxis: true, Width: 600, Height: 400}, g7, brics)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(img, pngMagic))
	})

	t.Run("needs overlap", func(t *testing.T) {
		other := mustSeries(t, "old", 1990, 1, 2)
		_, err := Line(LineOptions{}, g7, other)
		assert.ErrorIs(t, err, series.ErrNotEnoughOverlap)
	})

	t.Run("needs two points", func(t *testing.T) {
		_, err := Line(LineOptions{}, mustSeries(t, "one", 2025, 1))
		assert.Error(t, err)
		_, err = Line(LineOptions{})
		assert.Error(t, err)
	})
}

func TestIndexedAndSnapshot(t *testing.T) {
	a := mustSeries(t, "India", 2025, 12100, 12887, 13724)
	b := mustSeries(t, "China", 2024, 28000, 29191, 30505, 31878)

	img, err := Indexed(LineOptions{Width: 500, Height: 300}, 100, a, b)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))
	assert.Equal(t, image.Pt(500, 300), pngSize(t, img))

	img, err = Snapshot(LineOptions{Title: "GDP per capita 2026", Width: 640}, 2026, a, b)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))
	assert.Equal(t, image.Pt(640, 200), pngSize(t, img), "height follows the bar count")

	img, err = Snapshot(LineOptions{}, 2026, a, b)
	require.NoError(t, err)
	assert.Equal(t, defaultWidth, pngSize(t, img).X)

	_, err = Snapshot(LineOptions{}, 1900, a, b)
	assert.Error(t, err)
}

func TestUsage(t *testing.T) {
	counts := map[string]int{"chart": 6, "project": 3, "fit": 1}
	img, err := UsagePie(counts, 7)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))

	text := UsageText(counts, 7)
	assert.Contains(t, text, "10 commands")
	assert.Contains(t, text, "chart: 6 (60.0%)")

	_, err = UsagePie(nil, 7)
	assert.Error(t, err)
	assert.Contains(t, UsageText(nil, 7), "No usage data")
}

func TestAnimate(t *testing.T) {
	s := mustSeries(t, "USA", 2024, 80300, 81906, 83544, 85215, 86919)

	var frames [][]byte
	n, err := Animate(context.Background(), AnimateOptions{Hold: 2}, func(i int, img []byte) error {
		assert.Equal(t, len(frames), i)
		frames = append(frames, img)
		return nil
	}, s)
	require.NoError(t, err)
	assert.Equal(t, 4+2, n)
	assert.Len(t, frames, 6)
	assert.Equal(t, frames[3], frames[5], "held frames repeat the last one")

	var buf bytes.Buffer
	require.NoError(t, EncodeGIF(&buf, frames[:2], 20))
	decoded, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	assert.Len(t, decoded.Image, 2)
	assert.Equal(t, []int{20, 20}, decoded.Delay)

	assert.Error(t, EncodeGIF(&buf, nil, 20))
}

func TestAnimateStops(t *testing.T) {
	s := mustSeries(t, "USA", 2024, 1, 2, 3, 4, 5)

	t.Run("sink error", func(t *testing.T) {
		boom := errors.New("disk full")
		n, err := Animate(context.Background(), AnimateOptions{}, func(i int, _ []byte) error {
			if i == 1 {
				return boom
			}
			return nil
		}, s)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, n)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		n, err := Animate(ctx, AnimateOptions{}, func(int, []byte) error { return nil }, s)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, n)
	})
}

func TestFrame(t *testing.T) {
	s := mustSeries(t, "USA", 2024, 1, 2, 3)
	img, err := Frame(LineOptions{}, 2, s)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))

	_, err = Frame(LineOptions{}, 0, s)
	assert.Error(t, err)
}

func TestCache(t *testing.T) {
	c := NewCache(time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("k", []byte{1, 2, 3})
	img, ok := c.Get("k")
	require.True(t, ok)
	img[0] = 9
	again, _ := c.Get("k")
	assert.Equal(t, byte(1), again[0], "callers get a copy")

	now = now.Add(time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry expires after ttl")

	calls := 0
	render := func() ([]byte, error) { calls++; return []byte{7}, nil }
	_, err := c.GetOrRender("r", render)
	require.NoError(t, err)
	_, err = c.GetOrRender("r", render)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestCacheSweepsAndCaps(t *testing.T) {
	c := NewCache(time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("snapshot:a:2030", []byte{1})
	c.Set("snapshot:a:2040", []byte{2})
	now = now.Add(2 * time.Minute)
	c.Set("snapshot:a:2050", []byte{3})
	assert.Len(t, c.entries, 1, "expired keys are swept on write")

	for i := 0; i < maxCacheEntries+10; i++ {
		now = now.Add(time.Millisecond)
		c.Set(fmt.Sprintf("k%d", i), []byte{byte(i)})
	}
	assert.Len(t, c.entries, maxCacheEntries)
	_, ok := c.Get("snapshot:a:2050")
	assert.False(t, ok, "oldest entry evicted first")
	_, ok = c.Get(fmt.Sprintf("k%d", maxCacheEntries+9))
	assert.True(t, ok)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "$89,105", FormatValue(89105, "USD"))
	assert.Equal(t, "$4.19 T", FormatValue(4.19e12, "USD"))
	assert.Equal(t, "3.57 B", FormatValue(3.567e9, ""))
	assert.Equal(t, "48.2 TWh", FormatValue(48.2, "TWh"))
	assert.Equal(t, "12.5%", FormatValue(12.5, "%"))
}
