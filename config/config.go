package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"joreca_dedup/dedup"
)

type Config struct {
	DBPath      string
	DatabaseURL string // optional Postgres DSN; SQLite is used when empty
	LogLevel    string
	Scheduler   SchedulerConfig
	Export      ExportConfig
	S3          S3Config
	Dedup       dedup.Config
}

type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

type ExportConfig struct {
	Dir      string
	Interval time.Duration
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

const defaultDedupConfigPath = "config/dedup.yaml"

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:      getEnv("DB_PATH", "data/listings.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("DEDUP_CRON"),
		},
		Export: ExportConfig{
			Dir:      getEnv("EXPORT_DIR", "data/exports"),
			Interval: getEnvDuration("EXPORT_INTERVAL", 0),
		},
		S3: S3Config{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          os.Getenv("S3_REGION"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		},
		Dedup: dedup.DefaultConfig(),
	}

	cfg.Scheduler.Interval = getEnvDuration("DEDUP_INTERVAL", 0)

	path := getEnv("DEDUP_CONFIG", defaultDedupConfigPath)
	if err := cfg.loadDedupConfig(path); err != nil {
		return nil, err
	}
	if err := cfg.Dedup.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadDedupConfig overlays the YAML tuning file onto the defaults. A missing
// file is fine: the defaults are a complete configuration.
func (c *Config) loadDedupConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, &c.Dedup)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
