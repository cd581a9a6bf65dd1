package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vicanso/go-charts/v2"
)

// UsagePie renders the distribution of bot commands over the last days.
func UsagePie(counts map[string]int, days int) ([]byte, error) {
	if len(counts) == 0 {
		return nil, fmt.Errorf("no usage data available")
	}

	// Sort commands for consistent ordering
	commands := make([]string, 0, len(counts))
	total := 0
	for cmd, n := range counts {
		commands = append(commands, cmd)
		total += n
	}
	sort.Strings(commands)

	values := make([]float64, 0, len(commands))
	labels := make([]string, 0, len(commands))
	for _, cmd := range commands {
		n := counts[cmd]
		values = append(values, float64(n))
		labels = append(labels, fmt.Sprintf("%s (%.1f%%)", cmd, float64(n)/float64(total)*100))
	}

	p, err := charts.PieRender(
		values,
		charts.TitleTextOptionFunc(fmt.Sprintf("Command Usage Distribution (%d days)", days)),
		charts.LegendOptionFunc(charts.LegendOption{
			Data: labels,
			Top:  charts.PositionTop,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(800),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, err
	}
	return p.Bytes()
}

// UsageText is the plain-text companion of UsagePie, busiest command first.
func UsageText(counts map[string]int, days int) string {
	if len(counts) == 0 {
		return "No usage data available for the specified period."
	}
	type cmdCount struct {
		cmd   string
		count int
	}
	list := make([]cmdCount, 0, len(counts))
	total := 0
	for cmd, n := range counts {
		list = append(list, cmdCount{cmd, n})
		total += n
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].count == list[j].count {
			return list[i].cmd < list[j].cmd
		}
		return list[i].count > list[j].count
	})

	var b strings.Builder
	fmt.Fprintf(&b, "Usage (%d days): %d commands\n", days, total)
	for _, c := range list {
		fmt.Fprintf(&b, "  • %s: %d (%.1f%%)\n", c.cmd, c.count, float64(c.count)/float64(total)*100)
	}
	return b.String()
}
