package config

import (
	"os"
	"strconv"
	"time"

	"auction-engine/utils"

	"github.com/joho/godotenv"
)

// Config carries the runtime settings of the auction engine
type Config struct {
	Port               string
	DatabaseDSN        string
	JWTSecret          string
	SchedulerInterval  time.Duration
	SchedulerBatchSize int
}

// Load reads configuration from the environment, with a best-effort .env
// load first. Every setting has a development default; only the database DSN
// is genuinely optional (empty means the in-memory store).
func Load() Config {
	if err := godotenv.Load(); err != nil {
		utils.Info("no .env file loaded, using environment", nil)
	}

	return Config{
		Port:               envOr("PORT", "8080"),
		DatabaseDSN:        os.Getenv("DATABASE_DSN"),
		JWTSecret:          envOr("JWT_SECRET", "dev-secret"),
		SchedulerInterval:  envDuration("SCHEDULER_INTERVAL", 5*time.Second),
		SchedulerBatchSize: envInt("SCHEDULER_BATCH_SIZE", 100),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		utils.Warn("invalid integer setting, using default", map[string]any{"key": key, "value": v})
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
		utils.Warn("invalid duration setting, using default", map[string]any{"key": key, "value": v})
	}
	return fallback
}
