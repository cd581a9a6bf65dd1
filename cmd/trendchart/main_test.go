package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendcharts/internal/projection"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, &out)
	return out.String(), err
}

func TestList(t *testing.T) {
	out, err := runCLI(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "brics-vs-g7")
	assert.Contains(t, out, "fetched (remote)")
}

func TestProject(t *testing.T) {
	out, err := runCLI(t, "project", "80300", "2024", "2%", "2026")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "80,300")
	assert.Contains(t, lines[2], "81,906")
	assert.Contains(t, lines[2], "2.00%")
	assert.Contains(t, lines[3], "83,544.12")

	_, err = runCLI(t, "project", "80300", "2024", "2026")
	assert.Error(t, err)

	out, err = runCLI(t, "project", "80300", "2024", "2%", "2024")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)

	_, err = runCLI(t, "project", "100", "0", "1%", "9223372036854775807")
	assert.ErrorIs(t, err, projection.ErrHorizonTooLong)
}

func TestFit(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "fit.png")
	out, err := runCLI(t, "fit", "-method", "nonlinear", "-out", png, "2020:11", "2021:15.9", "2022:23", "2023:33.3", "2024:48.2", "2026")
	require.NoError(t, err)
	assert.Contains(t, out, "method=nonlinear")
	assert.Contains(t, out, "origin=2020")
	assert.Contains(t, out, "wrote "+png)

	_, err = runCLI(t, "fit", "-method", "cubic", "0:1", "1:2")
	assert.ErrorContains(t, err, "unknown method")

	_, err = runCLI(t, "fit", "1:1", "2:2", "9223372036854775807")
	assert.ErrorIs(t, err, projection.ErrHorizonTooLong)
}

func TestRenderCSV(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "us_russia_gdppc.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("Year,USA,Russia\n2000,36334.9,1770\n2001,37133.6,2100\n2002,38023.1,2375\n"), 0o644))

	out := filepath.Join(dir, "chart.png")
	_, err := runCLI(t, "render", "-csv", csvPath, "-width", "300", "-height", "200", "-out", out)
	require.NoError(t, err)
	img, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, []byte("\x89PNG")))

	_, err = runCLI(t, "render", "-csv", csvPath, "-year", "2001", "-out", out)
	require.NoError(t, err)

	gif := filepath.Join(dir, "chart.gif")
	_, err = runCLI(t, "animate", "-csv", csvPath, "-width", "300", "-height", "200", "-out", gif)
	require.NoError(t, err)
	img, err = os.ReadFile(gif)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, []byte("GIF89a")))
}

func TestRenderErrors(t *testing.T) {
	_, err := runCLI(t, "render", "-dataset", "brics-vs-g7")
	assert.ErrorContains(t, err, "-out is required")

	_, err = runCLI(t, "render", "-out", "x.png")
	assert.ErrorContains(t, err, "one of -dataset or -csv")

	_, err = runCLI(t, "render", "-dataset", "nope", "-out", "x.png")
	assert.ErrorContains(t, err, "unknown dataset")

	_, err = runCLI(t)
	assert.Error(t, err)
	_, err = runCLI(t, "frobnicate")
	assert.ErrorContains(t, err, "unknown command")
}
