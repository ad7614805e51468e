package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"TickerSentinel/internal/alphavantage"
	"TickerSentinel/internal/retry"
)

// Config holds all application configuration.
type Config struct {
	AlphaVantage struct {
		BaseURL string        `yaml:"base_url"`
		APIKeys []string      `yaml:"api_keys"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"alphavantage"`
	Retry    retry.Policy `yaml:"retry"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
		Retries  int    `yaml:"retries"`
	} `yaml:"telegram"`
	Schedule struct {
		RetrievalCron string `yaml:"retrieval_cron"`
	} `yaml:"schedule"`
	Instruments []string `yaml:"instruments"`
	Database    struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`
	Log struct {
		Level         string `yaml:"level"`
		Format        string `yaml:"format"`
		FilePath      string `yaml:"file_path"`
		RotationSize  int    `yaml:"rotation_size_mb"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment variable overrides.
func Load(path string) (*Config, error) {
	// -1 marks unset so that explicit zeros survive applyDefaults.
	cfg := &Config{Retry: retry.Policy{MaxAttempts: -1, Delay: -1}}
	cfg.Telegram.Retries = -1

	// A missing .env is not an error.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("ALPHAVANTAGE_BASE_URL"); v != "" {
		cfg.AlphaVantage.BaseURL = v
	}
	if v := os.Getenv("ALPHAVANTAGE_API_KEYS"); v != "" {
		cfg.AlphaVantage.APIKeys = splitList(v)
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("CRON_RETRIEVAL"); v != "" {
		cfg.Schedule.RetrievalCron = v
	}
	if v := os.Getenv("INSTRUMENTS"); v != "" {
		cfg.Instruments = splitList(v)
	}
	if v := os.Getenv("RETRY_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RETRY_MAX_ATTEMPTS: %w", err)
		}
		cfg.Retry.MaxAttempts = n
	}
	if v := os.Getenv("RETRY_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("RETRY_DELAY: %w", err)
		}
		cfg.Retry.Delay = d
	}
	return nil
}

func applyDefaults(cfg *Config) {
	def := retry.DefaultPolicy()
	if cfg.Retry.MaxAttempts == -1 {
		cfg.Retry.MaxAttempts = def.MaxAttempts
	}
	if cfg.Retry.Delay == -1 {
		cfg.Retry.Delay = def.Delay
	}
	if cfg.AlphaVantage.BaseURL == "" {
		cfg.AlphaVantage.BaseURL = alphavantage.DefaultBaseURL
	}
	if cfg.AlphaVantage.Timeout == 0 {
		cfg.AlphaVantage.Timeout = 30 * time.Second
	}
	if cfg.Telegram.Retries == -1 {
		cfg.Telegram.Retries = 3
	}
	if cfg.Schedule.RetrievalCron == "" {
		cfg.Schedule.RetrievalCron = "0 0 */3 * * *"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/ticker_sentinel.db"
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "alphavantage.bars"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "pretty"
	}
	if cfg.Log.RotationSize == 0 {
		cfg.Log.RotationSize = 50
	}
	if cfg.Log.RetentionDays == 0 {
		cfg.Log.RetentionDays = 14
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if len(c.AlphaVantage.APIKeys) == 0 {
		return fmt.Errorf("alphavantage.api_keys is required")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1")
	}
	if c.Retry.Delay < 0 {
		return fmt.Errorf("retry.delay must not be negative")
	}
	if c.Telegram.Retries < 0 {
		return fmt.Errorf("telegram.retries must not be negative")
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when telegram.bot_token is set")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
