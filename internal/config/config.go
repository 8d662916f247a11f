package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Cfg struct {
	Logger    Logger
	Browser   Browser
	Site      Site
	Artifacts Artifacts
}

type Logger struct {
	Env   string
	Level string
}

type Browser struct {
	Display        string
	Headless       bool
	UserAgent      string
	Locale         string
	TimezoneID     string
	ViewportWidth  int
	ViewportHeight int
	ActionTimeout  time.Duration
	NavTimeout     time.Duration
}

type Site struct {
	BaseURL      string
	Destination  string
	Adults       int
	Children     int
	CheckInDays  int
	CheckOutDays int
}

type Artifacts struct {
	Dir string
}

func Load() (*Cfg, error) {
	_ = godotenv.Load()

	cfg := &Cfg{
		Logger: Logger{
			Env:   env("ENV", "dev"),
			Level: env("LOG_LEVEL", "info"),
		},
		Browser: Browser{
			Display:        env("DISPLAY", ":0"),
			Headless:       envBool("PW_HEADLESS"),
			UserAgent:      env("USER_AGENT", "automation"),
			Locale:         env("LOCALE", "en-US"),
			TimezoneID:     env("TZ_ID", "Europe/Amsterdam"),
			ViewportWidth:  envInt("VIEWPORT_WIDTH", 1920),
			ViewportHeight: envInt("VIEWPORT_HEIGHT", 1080),
			ActionTimeout:  time.Duration(envInt("ACTION_TIMEOUT_MS", 30000)) * time.Millisecond,
			NavTimeout:     time.Duration(envInt("NAV_TIMEOUT_MS", 60000)) * time.Millisecond,
		},
		Site: Site{
			BaseURL:      env("BASE_URL", "https://www.airbnb.com/"),
			Destination:  env("DESTINATION", "Amsterdam"),
			Adults:       envInt("ADULTS", 2),
			Children:     envInt("CHILDREN", 1),
			CheckInDays:  envInt("CHECK_IN_DAYS", 1),
			CheckOutDays: envInt("CHECK_OUT_DAYS", 2),
		},
		Artifacts: Artifacts{
			Dir: env("ARTIFACT_DIR", "test-results"),
		},
	}

	return cfg, nil
}

func env(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "true" || v == "1" || v == "yes"
}
