// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // boards often ship without zoneinfo

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Fixed sign constants. The refresh loop and fetcher receive these through
// Config and never read the environment themselves.
const (
	StopID                = "A44"
	DataSourceURL         = "https://api.wheresthefuckingtrain.com/by-id/" + StopID
	GTFSFeedURL           = "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs-ace"
	UpdateInterval        = 15 * time.Second
	SyncInterval          = 30 * time.Second
	MinimumMinutesDisplay = 1
	ErrorResetThreshold   = 3
	BackgroundImage       = "dashboard.bmp"
	StationLabel          = "Clinton"
)

// Source kinds
const (
	SourceJSON   = "json"
	SourceGTFSRT = "gtfsrt"
)

// Config holds all application configuration.
type Config struct {
	Env      string `validate:"required"`
	LogLevel string `validate:"oneof=debug info warn error"`

	StopID         string        `validate:"required"`
	Source         string        `validate:"oneof=json gtfsrt"`
	DataSourceURL  string        `validate:"required,url"`
	GTFSFeedURL    string        `validate:"required,url"`
	HTTPTimeout    time.Duration `validate:"gte=0"`
	UpdateInterval time.Duration `validate:"gt=0"`
	SyncInterval   time.Duration `validate:"gt=0"`
	MinimumMinutes int
	ResetThreshold int `validate:"gte=0"`

	NTPServer string `validate:"required,hostname_port|hostname|ip"`
	Timezone  string `validate:"required"`

	BackgroundImage string
	StationLabel    string
	FramePath       string
	OLEDBus         string
	StatusAddr      string `validate:"omitempty,hostname_port"`
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is read first when present.
func Load() *Config {
	_ = godotenv.Load()
	_ = godotenv.Overload(".env.local")

	return &Config{
		Env:      getEnv("ENV", "production"),
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),

		StopID:         StopID,
		Source:         strings.ToLower(getEnv("SOURCE", SourceJSON)),
		DataSourceURL:  getEnv("DATA_SOURCE_URL", DataSourceURL),
		GTFSFeedURL:    getEnv("GTFS_FEED_URL", GTFSFeedURL),
		HTTPTimeout:    getDurationEnv("HTTP_TIMEOUT_SECONDS", 10) * time.Second,
		UpdateInterval: UpdateInterval,
		SyncInterval:   SyncInterval,
		MinimumMinutes: MinimumMinutesDisplay,
		ResetThreshold: ErrorResetThreshold,

		NTPServer: getEnv("NTP_SERVER", "pool.ntp.org"),
		Timezone:  getEnv("TIMEZONE", "America/New_York"),

		BackgroundImage: getEnv("BACKGROUND_IMAGE", BackgroundImage),
		StationLabel:    getEnv("STATION_LABEL", StationLabel),
		FramePath:       getEnv("FRAME_PATH", ""),
		OLEDBus:         getEnv("OLED_I2C_BUS", ""),
		StatusAddr:      getEnv("STATUS_ADDR", ""),
	}
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate checks that required configuration is present and well formed.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid config: timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the display time zone. Validate must have passed.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SlogLevel maps LogLevel to a slog.Level
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultSeconds int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds)
		}
	}
	return time.Duration(defaultSeconds)
}
