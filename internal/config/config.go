package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// CarrierConfig holds credentials and endpoints for the carrier HTTP API.
type CarrierConfig struct {
	BaseURL       string
	APIToken      string
	ClientName    string // sent as the transaction source header
	WebhookSecret string // HMAC secret for inbound status pushes; empty disables verification
}

// Config is the full runtime configuration, loaded from the environment.
type Config struct {
	Carrier CarrierConfig

	LogsDirectory string

	ShipmentsTable string
	EventsQueueURL string
	RedisAddr      string
	RedisPassword  string

	// Registered warehouse name used for pickups and reverse manifests.
	PickupLocation string

	// Orders above this declared value require an e-waybill number.
	EwaybillThreshold float64

	MaxRetries     int
	RequestTimeout time.Duration
	ReadTimeout    time.Duration

	// Overrides for the NDR heuristics. Comma separated; empty keeps the
	// built-in defaults.
	NDRCodePrefixes []string
	NDRKeywords     []string

	PollSchedule string
}

// Load reads configuration from .env (if present) and the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	return &Config{
		Carrier: CarrierConfig{
			BaseURL:       os.Getenv("CARRIER_API_BASE_URL"),
			APIToken:      os.Getenv("CARRIER_API_TOKEN"),
			ClientName:    getEnv("CARRIER_CLIENT_NAME", "courier-sync"),
			WebhookSecret: os.Getenv("CARRIER_WEBHOOK_SECRET"),
		},
		LogsDirectory:     getEnv("LOGS_DIRECTORY", "logs"),
		ShipmentsTable:    os.Getenv("SHIPMENTS_TABLE"),
		EventsQueueURL:    os.Getenv("EVENTS_QUEUE_URL"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		PickupLocation:    getEnv("PICKUP_LOCATION", "primary-warehouse"),
		EwaybillThreshold: getEnvFloat("EWAYBILL_THRESHOLD", 50000),
		MaxRetries:        getEnvInt("CARRIER_MAX_RETRIES", 3),
		RequestTimeout:    getEnvDuration("CARRIER_REQUEST_TIMEOUT", 30*time.Second),
		ReadTimeout:       getEnvDuration("CARRIER_READ_TIMEOUT", 20*time.Second),
		NDRCodePrefixes:   splitList(os.Getenv("NDR_CODE_PREFIXES")),
		NDRKeywords:       splitList(os.Getenv("NDR_KEYWORDS")),
		PollSchedule:      getEnv("POLL_SCHEDULE", "*/30 * * * *"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid int for %s: %q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("invalid float for %s: %q, using %v", key, v, fallback)
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid duration for %s: %q, using %v", key, v, fallback)
		return fallback
	}
	return d
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
