package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

// AppConfig holds the aggregation server's tunable settings. The listen
// port itself arrives as a positional CLI argument; everything else comes
// from the environment.
type AppConfig struct {
	// SnapshotPath is where the station store is persisted.
	SnapshotPath string `validate:"required"`

	// RecordTTL is how long a station record stays live after its last
	// update before the evictor removes it.
	RecordTTL time.Duration `validate:"gt=0"`

	// EvictInterval is how often the evictor sweeps for expired records.
	EvictInterval time.Duration `validate:"gt=0"`

	// DefaultPort is used when no port argument is given.
	DefaultPort int `validate:"min=1,max=65535"`

	// AdminPort serves the operational HTTP surface (health, stats).
	AdminPort string `validate:"required"`
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}

	cfg.SnapshotPath = getenvDefault("SNAPSHOT_PATH", "weather_data_store.txt")
	cfg.AdminPort = getenvDefault("ADMIN_PORT", "8080")
	cfg.DefaultPort = getenvInt("DEFAULT_PORT", 4567)

	ttl, err := getenvDuration("RECORD_TTL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid RECORD_TTL: %w", err)
	}
	cfg.RecordTTL = ttl

	interval, err := getenvDuration("EVICT_INTERVAL", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid EVICT_INTERVAL: %w", err)
	}
	cfg.EvictInterval = interval

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	return time.ParseDuration(v)
}
