package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config contains application-wide settings sourced from the environment.
type Config struct {
	DatabaseURL            string
	DatabaseConnectTimeout time.Duration
	Addr                   string
	SchedulerToken         string

	LogLevel  string
	LogFormat string

	TicketmasterAPIKey  string
	CategorizerURL      string
	CategorizerAPIKey   string
	CategorizerModel    string
	SpotifyClientID     string
	SpotifyClientSecret string

	// Zero interval disables the in-process scheduler for that job; an
	// external scheduler can drive the trigger endpoints instead.
	ScrapeInterval  time.Duration
	EnrichInterval  time.Duration
	WeatherInterval time.Duration
	EnrichLimit     int
}

func loadConfig() (Config, error) {
	_ = godotenv.Load("config/local.env")

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return Config{}, errors.New("DATABASE_URL env var is required")
	}

	// Fails closed: without a token every trigger endpoint refuses to run.
	token := os.Getenv("SCHEDULER_TOKEN")
	if token == "" {
		return Config{}, errors.New("SCHEDULER_TOKEN env var is required")
	}

	addr := fmt.Sprintf(":%s", envOrDefault("PORT", "8080"))

	connectTimeout, err := envDuration("DATABASE_CONNECT_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}

	scrapeInterval, err := envDuration("SCRAPE_INTERVAL", 0)
	if err != nil {
		return Config{}, err
	}
	enrichInterval, err := envDuration("ENRICH_INTERVAL", 0)
	if err != nil {
		return Config{}, err
	}
	weatherInterval, err := envDuration("WEATHER_INTERVAL", 0)
	if err != nil {
		return Config{}, err
	}

	return Config{
		DatabaseURL:            dsn,
		DatabaseConnectTimeout: connectTimeout,
		Addr:                   addr,
		SchedulerToken:         token,

		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),

		TicketmasterAPIKey:  os.Getenv("TICKETMASTER_API_KEY"),
		CategorizerURL:      os.Getenv("CATEGORIZER_URL"),
		CategorizerAPIKey:   os.Getenv("CATEGORIZER_API_KEY"),
		CategorizerModel:    envOrDefault("CATEGORIZER_MODEL", "gpt-4o-mini"),
		SpotifyClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),

		ScrapeInterval:  scrapeInterval,
		EnrichInterval:  enrichInterval,
		WeatherInterval: weatherInterval,
		EnrichLimit:     0, // service default
	}, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
