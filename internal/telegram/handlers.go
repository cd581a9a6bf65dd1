package telegram

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"trendcharts/internal/datasets"
	"trendcharts/internal/gallery"
	"trendcharts/internal/openai"
	"trendcharts/internal/projection"
	"trendcharts/internal/render"
)

var (
	reHelp     = regexp.MustCompile(`^/(help|start)(?:@[\w_]+)?$`)
	reDatasets = regexp.MustCompile(`^/datasets(?:@[\w_]+)?$`)
	// /chart NAME
	reChart = regexp.MustCompile(`^/chart(?:@[\w_]+)?\s+([a-z0-9\-]+)$`)
	// /index NAME
	reIndex = regexp.MustCompile(`^/index(?:@[\w_]+)?\s+([a-z0-9\-]+)$`)
	// /animate NAME
	reAnimate = regexp.MustCompile(`^/animate(?:@[\w_]+)?\s+([a-z0-9\-]+)$`)
	// /snapshot NAME YEAR
	reSnapshot = regexp.MustCompile(`^/snapshot(?:@[\w_]+)?\s+([a-z0-9\-]+)\s+(\d{4})$`)
	// /explain NAME
	reExplain = regexp.MustCompile(`^/explain(?:@[\w_]+)?\s+([a-z0-9\-]+)$`)
	reProject = regexp.MustCompile(`^/project(?:@[\w_]+)?(?:\s|$)`)
	reFit     = regexp.MustCompile(`^/fit(?:@[\w_]+)?(?:\s|$)`)
	reUsage   = regexp.MustCompile(`^/usage(?:@[\w_]+)?(?:\s+(\d+))?$`)
)

// Sender is the part of the Bot API the handlers use.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type UsageStore interface {
	LogUsage(ctx context.Context, chatID int64, command string, ts time.Time) error
	UsageCounts(ctx context.Context, since time.Time) (map[string]int, error)
}

type Narrator interface {
	Narrate(ctx context.Context, b openai.Brief) (string, error)
}

type Handlers struct {
	api      Sender
	usage    UsageStore
	gallery  *gallery.Gallery
	narrator Narrator
	width    int
	height   int
	now      func() time.Time
}

// NewHandlers wires the command handlers. narrator may be nil, which disables /explain.
func NewHandlers(api Sender, usage UsageStore, g *gallery.Gallery, narrator Narrator, width, height int) *Handlers {
	return &Handlers{
		api:      api,
		usage:    usage,
		gallery:  g,
		narrator: narrator,
		width:    width,
		height:   height,
		now:      time.Now,
	}
}

func (h *Handlers) HandleMessage(m *tgbotapi.Message) {
	if m == nil || m.Chat == nil {
		return
	}
	txt := strings.TrimSpace(m.Text)
	chatID := m.Chat.ID
	defer func() {
		if r := recover(); r != nil {
			log.Printf("telegram: panic handling chat_id=%d text=%q: %v", chatID, txt, r)
			h.reply(chatID, "Something went wrong handling that command.")
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	switch {
	case reHelp.MatchString(txt):
		h.logUsage(ctx, chatID, "help")
		h.handleHelp(chatID)

	case reDatasets.MatchString(txt):
		h.logUsage(ctx, chatID, "datasets")
		h.handleDatasets(chatID)

	case reChart.MatchString(strings.ToLower(txt)):
		g := reChart.FindStringSubmatch(strings.ToLower(txt))
		h.logUsage(ctx, chatID, "chart")
		img, ds, err := h.gallery.Chart(ctx, g[1])
		h.sendChart(chatID, img, ds, err, ds.Name+".png", "Chart failed: ")

	case reIndex.MatchString(strings.ToLower(txt)):
		g := reIndex.FindStringSubmatch(strings.ToLower(txt))
		h.logUsage(ctx, chatID, "index")
		img, ds, err := h.gallery.Indexed(ctx, g[1])
		h.sendChart(chatID, img, ds, err, ds.Name+"_indexed.png", "Indexed chart failed: ")

	case reSnapshot.MatchString(strings.ToLower(txt)):
		g := reSnapshot.FindStringSubmatch(strings.ToLower(txt))
		year, _ := strconv.Atoi(g[2])
		h.logUsage(ctx, chatID, "snapshot")
		img, ds, err := h.gallery.Snapshot(ctx, g[1], year)
		h.sendChart(chatID, img, ds, err, fmt.Sprintf("%s_%d.png", ds.Name, year), "Snapshot failed: ")

	case reAnimate.MatchString(strings.ToLower(txt)):
		g := reAnimate.FindStringSubmatch(strings.ToLower(txt))
		h.logUsage(ctx, chatID, "animate")
		h.reply(chatID, "Rendering animation…")
		h.handleAnimate(ctx, chatID, g[1])

	case reExplain.MatchString(strings.ToLower(txt)):
		g := reExplain.FindStringSubmatch(strings.ToLower(txt))
		h.logUsage(ctx, chatID, "explain")
		h.handleExplain(ctx, chatID, g[1])

	case reProject.MatchString(txt):
		h.logUsage(ctx, chatID, "project")
		h.handleProject(chatID, txt)

	case reFit.MatchString(txt):
		h.logUsage(ctx, chatID, "fit")
		h.handleFit(chatID, txt)

	case reUsage.MatchString(txt):
		days := 7
		if g := reUsage.FindStringSubmatch(txt); len(g) == 2 && g[1] != "" {
			days, _ = strconv.Atoi(g[1])
			if days < 1 {
				days = 1
			}
			if days > 90 {
				days = 90
			}
		}
		h.logUsage(ctx, chatID, "usage")
		h.handleUsage(ctx, chatID, days)
	}
}

func (h *Handlers) logUsage(ctx context.Context, chatID int64, command string) {
	if h.usage == nil {
		return
	}
	if err := h.usage.LogUsage(ctx, chatID, command, h.now()); err != nil {
		log.Printf("telegram: usage log failed: %v", err)
	}
}

func caption(ds datasets.Dataset) string {
	parts := []string{ds.Title}
	parts = append(parts, ds.Notes...)
	return strings.Join(parts, " • ")
}

func (h *Handlers) sendChart(chatID int64, img []byte, ds datasets.Dataset, err error, filename, failPrefix string) {
	if err != nil {
		h.reply(chatID, failPrefix+err.Error())
		return
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: filename, Bytes: img})
	photo.Caption = caption(ds)
	h.send(photo)
}

func (h *Handlers) handleAnimate(ctx context.Context, chatID int64, name string) {
	img, ds, err := h.gallery.Animation(ctx, name)
	if err != nil {
		h.reply(chatID, "Animation failed: "+err.Error())
		return
	}
	anim := tgbotapi.NewAnimation(chatID, tgbotapi.FileBytes{Name: ds.Name + ".gif", Bytes: img})
	anim.Caption = caption(ds)
	h.send(anim)
}

func (h *Handlers) handleExplain(ctx context.Context, chatID int64, name string) {
	if h.narrator == nil {
		h.reply(chatID, "Explanations are disabled: no OpenAI key configured.")
		return
	}
	ds, err := h.gallery.Build(ctx, name)
	if err != nil {
		h.reply(chatID, "Explain failed: "+err.Error())
		return
	}
	out, err := h.narrator.Narrate(ctx, openai.BriefFor(ds))
	if err != nil {
		h.reply(chatID, "Explain failed: "+err.Error())
		return
	}
	msg := tgbotapi.NewMessage(chatID, out)
	msg.ParseMode = "Markdown"
	h.send(msg)
}

func (h *Handlers) handleProject(chatID int64, txt string) {
	params, to, err := projection.ParseProject(txt)
	if err != nil {
		h.reply(chatID, "Projection failed: "+err.Error()+"\nUsage: /project 12100 2025 6.5%@2040 4.5%@2060 2% 2100")
		return
	}
	s, err := projection.Project("Projection", params, to)
	if err != nil {
		h.reply(chatID, "Projection failed: "+err.Error())
		return
	}
	if s.Len() < 2 {
		h.reply(chatID, fmt.Sprintf("%s in %d, nothing to project", render.FormatValue(params.BaseValue, ""), params.BasePeriod))
		return
	}
	img, err := render.Line(render.LineOptions{Width: h.width, Height: h.height}, s)
	if err != nil {
		h.reply(chatID, "Projection chart failed: "+err.Error())
		return
	}
	last, _ := s.Last()
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "projection.png", Bytes: img})
	photo.Caption = fmt.Sprintf("%s in %d → %s in %d (%s)",
		render.FormatValue(params.BaseValue, ""), params.BasePeriod,
		render.FormatValue(last.Value, ""), last.Period, describeSegments(params))
	h.send(photo)
}

func describeSegments(p projection.Params) string {
	parts := make([]string, len(p.Segments))
	for i, s := range p.Segments {
		parts[i] = fmt.Sprintf("%.2f%% to %d", s.Rate*100, s.UpperBound)
	}
	return strings.Join(parts, ", ")
}

func (h *Handlers) handleFit(chatID int64, txt string) {
	hist, to, err := projection.ParseFit(txt)
	if err != nil {
		h.reply(chatID, "Fit failed: "+err.Error()+"\nUsage: /fit 2020:11 2021:15.9 2022:23 2030")
		return
	}
	fit, err := projection.FitExponential(hist)
	if err != nil {
		h.reply(chatID, "Fit failed: "+err.Error())
		return
	}
	last, _ := hist.Last()
	full := hist.Rename("Fitted")
	if to > last.Period {
		ext, err := fit.Extrapolate("Fitted", last.Period+1, to)
		if err == nil {
			full, err = full.Append(ext.Points...)
		}
		if err != nil {
			h.reply(chatID, "Fit failed: "+err.Error())
			return
		}
	}
	img, err := render.Line(render.LineOptions{Width: h.width, Height: h.height}, full)
	if err != nil {
		h.reply(chatID, "Fit chart failed: "+err.Error())
		return
	}
	endValue, _ := full.Last()
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "fit.png", Bytes: img})
	photo.Caption = fmt.Sprintf("y = %.4g·e^(%.4f·(t-%d)) • CAGR %.2f%% • R² %.3f • %d: %s",
		fit.A, fit.B, fit.Origin, fit.CAGR()*100, fit.RSquared, endValue.Period, render.FormatValue(endValue.Value, ""))
	h.send(photo)
}

func (h *Handlers) handleUsage(ctx context.Context, chatID int64, days int) {
	if h.usage == nil {
		h.reply(chatID, "Usage tracking is disabled.")
		return
	}
	counts, err := h.usage.UsageCounts(ctx, h.now().AddDate(0, 0, -days))
	if err != nil {
		h.reply(chatID, "Usage failed: "+err.Error())
		return
	}
	text := render.UsageText(counts, days)
	img, err := render.UsagePie(counts, days)
	if err != nil {
		h.reply(chatID, text)
		return
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "usage.png", Bytes: img})
	photo.Caption = text
	h.send(photo)
}

func (h *Handlers) handleDatasets(chatID int64) {
	var sb strings.Builder
	sb.WriteString("Datasets\n\n")
	for _, d := range datasets.All() {
		remote := ""
		if d.Remote {
			remote = ", World Bank"
		}
		fmt.Fprintf(&sb, "- %s: %s (%s%s)\n", d.Name, d.Title, d.Kind, remote)
	}
	h.reply(chatID, sb.String())
}

func (h *Handlers) handleHelp(chatID int64) {
	help := "Commands\n\n" +
		"- /datasets - List the built-in datasets\n" +
		"- /chart NAME - Line chart of a dataset\n" +
		"- /index NAME - Same dataset rebased to 100\n" +
		"- /snapshot NAME YEAR - Bar chart of every series in one year\n" +
		"- /animate NAME - Animated GIF drawing the chart year by year\n" +
		"- /explain NAME - Short commentary on a dataset\n" +
		"- /project BASE FROM RATE[@BOUND]... TO - Compound BASE from FROM to TO, e.g. /project 12100 2025 6.5%@2040 4.5%@2060 2% 2100\n" +
		"- /fit P:V P:V ... [TO] - Fit an exponential trend and extend it to TO\n" +
		"- /usage [days] - Command usage over the last N days (default: 7, max: 90)"
	h.reply(chatID, help)
}

func (h *Handlers) reply(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}

func (h *Handlers) send(c tgbotapi.Chattable) {
	if _, err := h.api.Send(c); err != nil {
		log.Printf("telegram: send failed: %v", err)
	}
}
