package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	TelegramToken    string
	WebhookPublicURL string
	OpenAIKey        string
	Port             string
	DBPath           string
	WorldBankURL     string
	ChartCacheTTL    time.Duration
	ChartWidth       int
	ChartHeight      int
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing env %s", k)
	}
	return v
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("config: ignoring %s=%q, using %d", k, v, def)
		return def
	}
	return n
}

func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		log.Printf("config: ignoring %s=%q, using %s", k, v, def)
		return def
	}
	return d
}

// Load reads the service configuration. OPENAI_API_KEY is optional; /explain
// is disabled without it.
func Load() Config {
	return Config{
		TelegramToken:    mustEnv("TELEGRAM_BOT_TOKEN"),
		WebhookPublicURL: mustEnv("WEBHOOK_PUBLIC_URL"),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		Port:             envOr("PORT", "9095"),
		DBPath:           envOr("DB_PATH", "/app/data/trendcharts.db"),
		WorldBankURL:     envOr("WORLDBANK_BASE_URL", "https://api.worldbank.org/v2"),
		ChartCacheTTL:    envDuration("CHART_CACHE_TTL", 60*time.Second),
		ChartWidth:       envInt("CHART_WIDTH", 900),
		ChartHeight:      envInt("CHART_HEIGHT", 600),
	}
}
