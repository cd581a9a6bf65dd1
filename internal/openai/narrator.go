package openai

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"trendcharts/internal/datasets"
	"trendcharts/internal/render"
	"trendcharts/internal/series"
)

// Brief is the text-only digest of a dataset sent to the model.
type Brief struct {
	Title  string
	Series []string
	Notes  []string
}

// BriefFor summarizes every charted series of ds as one line of stats.
func BriefFor(ds datasets.Dataset) Brief {
	b := Brief{Title: ds.Title, Notes: ds.Notes}
	for _, s := range append(append([]series.Series{}, ds.Series...), ds.Derived...) {
		st, err := series.Summarize(s)
		if err != nil {
			continue
		}
		b.Series = append(b.Series, fmt.Sprintf("%s: %s in %d to %s in %d, CAGR %.2f%%, max drawdown %.1f%%",
			s.Name, render.FormatValue(st.First, s.Unit), st.FirstPeriod,
			render.FormatValue(st.Last, s.Unit), st.LastPeriod, st.CAGR, st.MaxDrawdown))
	}
	return b
}

type completer interface {
	complete(ctx context.Context, system, user string) (string, error)
}

type chatCompleter struct {
	cli oa.Client
}

func (c chatCompleter) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.cli.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Model: "gpt-4",
		Messages: []oa.ChatCompletionMessageParamUnion{
			oa.SystemMessage(system),
			oa.UserMessage(user),
		},
		MaxTokens: oa.Int(600), // Limit response length for telegram
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

type Narrator struct {
	cli completer
}

func NewNarrator(apiKey string) *Narrator {
	client := oa.NewClient(option.WithAPIKey(apiKey))
	return &Narrator{cli: chatCompleter{cli: client}}
}

const narratorPrompt = `You explain economic projection charts to a general audience.
You receive the chart title, one line of statistics per series and a few computed notes.

Your response must follow this structure:

**Trend:**
[What the series show, in two or three sentences]

**Projection:**
[What the assumed growth rates imply for the end of the horizon]

**Caveats:**
[Why illustrative constant-rate projections can mislead]

Use only the numbers given. Plain text, no links.`

// Narrate returns a short commentary for b.
func (n *Narrator) Narrate(ctx context.Context, b Brief) (string, error) {
	if len(b.Series) == 0 {
		return "", errors.New("nothing to narrate")
	}
	out, err := n.cli.complete(ctx, narratorPrompt, userPrompt(b))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func userPrompt(b Brief) string {
	var sb strings.Builder
	sb.WriteString("Chart: " + sanitize(b.Title) + "\n\nSeries:\n")
	for _, l := range b.Series {
		sb.WriteString("- " + sanitize(l) + "\n")
	}
	if len(b.Notes) > 0 {
		sb.WriteString("\nNotes:\n")
		for _, l := range b.Notes {
			sb.WriteString("- " + sanitize(l) + "\n")
		}
	}
	return sb.String()
}

var reURL = regexp.MustCompile(`https?://\S+`)

// sanitize strips links and caps line length.
func sanitize(s string) string {
	s = strings.TrimSpace(reURL.ReplaceAllString(s, ""))
	if len(s) > 300 {
		s = s[:300]
	}
	return s
}
