package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendcharts/internal/datasets"
)

type fakeCompleter struct {
	system, user string
	reply        string
	err          error
}

func (f *fakeCompleter) complete(_ context.Context, system, user string) (string, error) {
	f.system, f.user = system, user
	return f.reply, f.err
}

func usaBrief(t *testing.T) Brief {
	t.Helper()
	d, err := datasets.Lookup("usa-gdp-per-capita")
	require.NoError(t, err)
	ds, err := d.Build(context.Background(), datasets.Deps{})
	require.NoError(t, err)
	return BriefFor(ds)
}

func TestBriefFor(t *testing.T) {
	b := usaBrief(t)
	assert.Equal(t, "USA GDP per capita at 2% growth", b.Title)
	require.Len(t, b.Series, 1)
	assert.Contains(t, b.Series[0], "USA: $80,300 in 2024")
	assert.Contains(t, b.Series[0], "CAGR 2.00%")
	assert.NotEmpty(t, b.Notes)
}

func TestNarrate(t *testing.T) {
	fc := &fakeCompleter{reply: "  **Trend:** steady growth\n"}
	n := &Narrator{cli: fc}

	b := usaBrief(t)
	b.Notes = append(b.Notes, "source https://example.com/data")
	out, err := n.Narrate(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, "**Trend:** steady growth", out)
	assert.Contains(t, fc.system, "**Projection:**")
	assert.Contains(t, fc.user, "Chart: USA GDP per capita at 2% growth")
	assert.NotContains(t, fc.user, "https://")

	fc.err = errors.New("OpenAI API error: 429")
	_, err = n.Narrate(context.Background(), b)
	assert.ErrorContains(t, err, "429")

	_, err = n.Narrate(context.Background(), Brief{Title: "empty"})
	assert.Error(t, err)
}
