package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	// APIBaseURL is the weather prediction API endpoint.
	APIBaseURL string

	// HTTPTimeout applies to all outbound HTTP calls.
	HTTPTimeout time.Duration

	// PrefsPath is the JSON file backing the preference store.
	PrefsPath string

	// Pushover credentials; notifications are logged only when unset.
	PushoverToken string
	PushoverUser  string

	// GeocoderAPIKey enables coordinate lookup for cities outside the
	// built-in catalog.
	GeocoderAPIKey string

	// StaticLat/StaticLon pin the location instead of IP geolocation.
	StaticLat *float64
	StaticLon *float64

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}

	cfg.APIBaseURL = getenvDefault("WEATHER_API_BASE_URL", "https://weather-assistant-api.onrender.com")

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "15s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.PrefsPath = getenvDefault("PREFS_FILE", "data/preferences.json")
	cfg.PushoverToken = os.Getenv("PUSHOVER_TOKEN")
	cfg.PushoverUser = os.Getenv("PUSHOVER_USER")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")
	cfg.Port = getenvDefault("PORT", "8080")

	lat, latOK, err := getenvFloat("STATIC_LAT")
	if err != nil {
		return nil, err
	}
	lon, lonOK, err := getenvFloat("STATIC_LON")
	if err != nil {
		return nil, err
	}
	if latOK != lonOK {
		return nil, fmt.Errorf("STATIC_LAT and STATIC_LON must be set together")
	}
	if latOK {
		cfg.StaticLat = &lat
		cfg.StaticLon = &lon
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvFloat(key string) (float64, bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, true, nil
}
