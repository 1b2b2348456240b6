package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                   string
	HTTPAddr              string
	LogLevel              string
	StorageMode           string
	MongoURI              string
	MongoDB               string
	KafkaBrokers          []string
	KafkaTopicPrefix      string
	KafkaGroupID          string
	IdempotencyTTL        time.Duration
	OutboxPollInterval    time.Duration
	RetryBackoff          []time.Duration
	CommandTimeout        time.Duration
	NotifyTimeout         time.Duration
	BookingNumberPrefix   string
	BookingNumberAttempts int
	LatePenaltyMode       string
	OperatorTokenHashes   map[string]string
	SendgridAPIKey        string
	MailFrom              string
	MailFromName          string
	S3Endpoint            string
	S3AccessKey           string
	S3SecretKey           string
	S3Bucket              string
	S3UseSSL              bool
	PickupReminderCron    string
	FleetFixtures         string
}

// LoadDotEnv overlays variables from a .env file when one exists.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Overload(path)
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:                 getEnv("APP_ENV", "dev"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		LogLevel:            strings.ToLower(getEnv("LOG_LEVEL", "info")),
		StorageMode:         strings.ToLower(getEnv("STORAGE_MODE", StorageMemory)),
		MongoURI:            os.Getenv("MONGO_URI"),
		MongoDB:             getEnv("MONGO_DB", "carbooking"),
		KafkaTopicPrefix:    getEnv("KAFKA_TOPIC_PREFIX", ""),
		KafkaGroupID:        getEnv("KAFKA_GROUP_ID", "carbooking-notifications"),
		BookingNumberPrefix: getEnv("BOOKING_NUMBER_PREFIX", "CBR"),
		LatePenaltyMode:     strings.ToLower(getEnv("LATE_PENALTY_MODE", "blended_average")),
		SendgridAPIKey:      os.Getenv("SENDGRID_API_KEY"),
		MailFrom:            getEnv("MAIL_FROM", "bookings@carbooking.local"),
		MailFromName:        getEnv("MAIL_FROM_NAME", "Car Booking"),
		S3Endpoint:          os.Getenv("S3_ENDPOINT"),
		S3AccessKey:         getEnv("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:         getEnv("S3_SECRET_KEY", "minioadmin"),
		S3Bucket:            getEnv("S3_BUCKET", "booking-snapshots"),
		PickupReminderCron:  getEnv("PICKUP_REMINDER_CRON", "0 0 8 * * *"),
		FleetFixtures:       os.Getenv("FLEET_FIXTURES"),
	}
	brokers := getEnv("KAFKA_BROKERS", "")
	if brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	var err error
	if cfg.IdempotencyTTL, err = parseDurationEnv("IDEMP_TTL", 168*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.OutboxPollInterval, err = parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.CommandTimeout, err = parseDurationEnv("COMMAND_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.NotifyTimeout, err = parseDurationEnv("NOTIFY_TIMEOUT", 3*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RetryBackoff, err = parseDurationList("RETRY_BACKOFF", "50ms,200ms,500ms"); err != nil {
		return Config{}, err
	}
	if cfg.BookingNumberAttempts, err = parseIntEnv("BOOKING_NUMBER_ATTEMPTS", 5); err != nil {
		return Config{}, err
	}
	if cfg.S3UseSSL, err = parseBoolEnv("S3_USE_SSL", false); err != nil {
		return Config{}, err
	}
	if cfg.OperatorTokenHashes, err = parseOperatorHashes(os.Getenv("OPERATOR_TOKEN_HASHES")); err != nil {
		return Config{}, err
	}

	switch cfg.StorageMode {
	case StorageMemory:
	case StorageMongo:
		if cfg.MongoURI == "" {
			return Config{}, fmt.Errorf("MONGO_URI is required when STORAGE_MODE=mongo")
		}
		if len(cfg.KafkaBrokers) == 0 {
			return Config{}, fmt.Errorf("KAFKA_BROKERS is required when STORAGE_MODE=mongo")
		}
	default:
		return Config{}, fmt.Errorf("invalid STORAGE_MODE %q", cfg.StorageMode)
	}
	if cfg.BookingNumberAttempts < 1 {
		return Config{}, fmt.Errorf("BOOKING_NUMBER_ATTEMPTS must be at least 1")
	}
	return cfg, nil
}

// parseOperatorHashes reads "operator:bcrypt-hash" pairs separated by ';'.
func parseOperatorHashes(raw string) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, hash, ok := strings.Cut(pair, ":")
		if !ok || strings.TrimSpace(id) == "" || strings.TrimSpace(hash) == "" {
			return nil, fmt.Errorf("invalid OPERATOR_TOKEN_HASHES entry %q", pair)
		}
		out[strings.TrimSpace(id)] = strings.TrimSpace(hash)
	}
	return out, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseDurationList(key, def string) ([]time.Duration, error) {
	var out []time.Duration
	for _, raw := range strings.Split(getEnv(key, def), ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return nil, fmt.Errorf("invalid %s component %q: %w", key, raw, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func parseIntEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return n, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}
