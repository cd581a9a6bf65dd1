package telegram

import (
	"log"
	"net/http"

	json "github.com/goccy/go-json"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"trendcharts/internal/gallery"
)

// Deps are the collaborators the command handlers need.
type Deps struct {
	Usage    UsageStore
	Gallery  *gallery.Gallery
	Narrator Narrator
	Width    int
	Height   int
}

type Bot struct {
	api *tgbotapi.BotAPI
	h   *Handlers
}

func NewBot(token, webhookURL string, deps Deps) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	// set webhook
	webhook, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return nil, err
	}
	if _, err := api.Request(webhook); err != nil {
		return nil, err
	}
	log.Printf("telegram: webhook set to %s", webhookURL)

	h := NewHandlers(api, deps.Usage, deps.Gallery, deps.Narrator, deps.Width, deps.Height)
	return &Bot{api: api, h: h}, nil
}

// Webhook HTTP handler (registered at /telegram/webhook)
func (b *Bot) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "bad update", http.StatusBadRequest)
		return
	}
	if m := update.Message; m != nil && m.Chat != nil {
		log.Printf("webhook: chat_id=%d text=%q", m.Chat.ID, m.Text)
		go b.h.HandleMessage(m)
	} else {
		log.Printf("webhook: non-message update received")
	}
	w.WriteHeader(http.StatusOK)
}
