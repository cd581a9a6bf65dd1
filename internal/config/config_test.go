package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("WEBHOOK_PUBLIC_URL", "https://charts.example.com/telegram/webhook")
	for _, k := range []string{"OPENAI_API_KEY", "PORT", "DB_PATH", "WORLDBANK_BASE_URL", "CHART_CACHE_TTL", "CHART_WIDTH", "CHART_HEIGHT"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "123:abc", cfg.TelegramToken)
	assert.Empty(t, cfg.OpenAIKey)
	assert.Equal(t, "9095", cfg.Port)
	assert.Equal(t, "/app/data/trendcharts.db", cfg.DBPath)
	assert.Equal(t, "https://api.worldbank.org/v2", cfg.WorldBankURL)
	assert.Equal(t, 60*time.Second, cfg.ChartCacheTTL)
	assert.Equal(t, 900, cfg.ChartWidth)
	assert.Equal(t, 600, cfg.ChartHeight)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("WEBHOOK_PUBLIC_URL", "https://charts.example.com/telegram/webhook")
	t.Setenv("PORT", "8080")
	t.Setenv("CHART_CACHE_TTL", "5m")
	t.Setenv("CHART_WIDTH", "1200")
	t.Setenv("CHART_HEIGHT", "not-a-number")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.ChartCacheTTL)
	assert.Equal(t, 1200, cfg.ChartWidth)
	assert.Equal(t, 600, cfg.ChartHeight, "invalid values fall back")
}
