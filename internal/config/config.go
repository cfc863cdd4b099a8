package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/fardannozami/ecotrace-leaderboard/internal/leaderboard"
)

type Config struct {
	SQLitePath      string
	GroupID         string
	BotPhone        string
	WAEnabled       bool
	ReplyDelayMinMs int  // Minimum delay before reply (milliseconds)
	ReplyDelayMaxMs int  // Maximum delay before reply (milliseconds), 0 = use min as fixed
	ShowTyping      bool // Show typing indicator during delay

	HTTPAddr    string // empty disables the REST API
	CORSOrigins []string
	LogLevel    string
	LogPretty   bool

	Timezone         string
	CacheTTL         time.Duration // 0 = recompute on every read
	RecurringEvery   time.Duration
	ProfileCacheSize int
	FetchConcurrency int

	MaxDailyCo2         float64
	MaxDailyWater       float64
	MaxDailyElectricity float64
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults/environment variables")
	}

	defaults := leaderboard.DefaultLimits()

	return Config{
		SQLitePath:      getenv("SQLITE_PATH", "./data/ecotrace.db"),
		GroupID:         getenv("GROUP_ID", ""),
		BotPhone:        getenv("BOT_PHONE", ""),
		WAEnabled:       getenvBool("WA_ENABLED", true),
		ReplyDelayMinMs: getenvInt("REPLY_DELAY_MIN_MS", 0),
		ReplyDelayMaxMs: getenvInt("REPLY_DELAY_MAX_MS", 0),
		ShowTyping:      getenvBool("SHOW_TYPING", false),

		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		CORSOrigins: getenvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		LogPretty:   getenvBool("LOG_PRETTY", true),

		Timezone:         getenv("LEADERBOARD_TIMEZONE", "UTC"),
		CacheTTL:         getenvDuration("LEADERBOARD_CACHE_TTL", 0),
		RecurringEvery:   getenvDuration("RECURRING_INTERVAL", time.Hour),
		ProfileCacheSize: getenvInt("PROFILE_CACHE_SIZE", 512),
		FetchConcurrency: getenvInt("FETCH_CONCURRENCY", 8),

		MaxDailyCo2:         getenvFloat("DAILY_MAX_CO2", defaults.MaxDailyCo2),
		MaxDailyWater:       getenvFloat("DAILY_MAX_WATER", defaults.MaxDailyWater),
		MaxDailyElectricity: getenvFloat("DAILY_MAX_ELECTRICITY", defaults.MaxDailyElectricity),
	}
}

// Location resolves the leaderboard timezone. Period boundaries are always
// computed here, never in the host's local time.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid LEADERBOARD_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c Config) Limits() leaderboard.Limits {
	return leaderboard.Limits{
		MaxDailyCo2:         c.MaxDailyCo2,
		MaxDailyWater:       c.MaxDailyWater,
		MaxDailyElectricity: c.MaxDailyElectricity,
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// getenvList splits a comma separated value, dropping empty items.
func getenvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
