package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/codyseavey/berit/internal/commands"
)

// Config holds all berit configuration.
type Config struct {
	Discord  DiscordConfig     `yaml:"discord"`
	HTTP     HTTPConfig        `yaml:"http"`
	Scryfall ScryfallConfig    `yaml:"scryfall"`
	Index    IndexConfig       `yaml:"index"`
	Keywords commands.Keywords `yaml:"keywords"`
	Database DatabaseConfig    `yaml:"database"`
	Logging  LoggingConfig     `yaml:"logging"`
	LockPath string            `yaml:"lock_path"`
}

// DiscordConfig configures the chat connection.
type DiscordConfig struct {
	Token        string `yaml:"token"`
	MessageLimit int    `yaml:"message_limit"`

	// Channels lists the channel names the bot answers in. Empty means all.
	Channels []string `yaml:"channels"`
}

// HTTPConfig configures the API server. An empty Port disables it.
type HTTPConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ScryfallConfig configures dataset retrieval.
type ScryfallConfig struct {
	BaseURL      string        `yaml:"base_url"`
	BulkType     string        `yaml:"bulk_type"`
	DatasetFile  string        `yaml:"dataset_file"` // read this file instead of downloading
	FetchRetries int           `yaml:"fetch_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// IndexConfig configures which records are indexed and lookup caching.
type IndexConfig struct {
	Language  string `yaml:"language"`
	Format    string `yaml:"format"`
	CacheSize int    `yaml:"cache_size"`
}

// DatabaseConfig configures lookup statistics storage. An empty Path
// disables it.
type DatabaseConfig struct {
	Path          string        `yaml:"path"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	QueueSize     int           `yaml:"queue_size"`

	// NotFoundRetention is how long unmatched searches are kept.
	NotFoundRetention time.Duration `yaml:"not_found_retention"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Discord: DiscordConfig{
			Channels:     []string{"magic"},
			MessageLimit: 2000,
		},
		HTTP: HTTPConfig{
			Port:           "8080",
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		},
		Scryfall: ScryfallConfig{
			BaseURL:      "https://api.scryfall.com",
			BulkType:     "oracle_cards",
			FetchRetries: 3,
			RetryBackoff: 5 * time.Second,
		},
		Index: IndexConfig{
			Language:  "en",
			Format:    "commander",
			CacheSize: 4096,
		},
		Keywords: commands.DefaultKeywords(),
		Database: DatabaseConfig{
			Path:              "./berit.db",
			FlushInterval:     30 * time.Second,
			QueueSize:         1024,
			NotFoundRetention: 90 * 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		LockPath: "./berit.lock",
	}
}

// Load reads configuration from a YAML file and applies environment
// overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if token := os.Getenv("DISCORD_TOKEN"); token != "" {
		c.Discord.Token = token
	}
	if channels := os.Getenv("BERIT_CHANNELS"); channels != "" {
		c.Discord.Channels = splitList(channels)
	}
	if port := os.Getenv("PORT"); port != "" {
		c.HTTP.Port = port
	}
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		c.HTTP.AllowedOrigins = splitList(origins)
	}
	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		c.Database.Path = dbPath
	}
	if baseURL := os.Getenv("SCRYFALL_BASE_URL"); baseURL != "" {
		c.Scryfall.BaseURL = baseURL
	}
	if file := os.Getenv("BERIT_DATASET_FILE"); file != "" {
		c.Scryfall.DatasetFile = file
	}
	if size := os.Getenv("BERIT_CACHE_SIZE"); size != "" {
		if n, err := strconv.Atoi(size); err == nil {
			c.Index.CacheSize = n
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate checks settings that would otherwise fail later at runtime.
// requireToken is set when the Discord bot is going to be started.
func (c *Config) Validate(requireToken bool) error {
	var errs []error
	if requireToken && c.Discord.Token == "" {
		errs = append(errs, errors.New("discord token is required (set DISCORD_TOKEN or discord.token)"))
	}
	if c.Discord.MessageLimit <= 0 {
		errs = append(errs, fmt.Errorf("discord.message_limit must be positive, got %d", c.Discord.MessageLimit))
	}
	if c.Scryfall.DatasetFile == "" && c.Scryfall.BaseURL == "" {
		errs = append(errs, errors.New("scryfall.base_url is required when no dataset_file is set"))
	}
	if c.Scryfall.FetchRetries < 1 {
		errs = append(errs, fmt.Errorf("scryfall.fetch_retries must be at least 1, got %d", c.Scryfall.FetchRetries))
	}
	if c.Index.Language == "" || c.Index.Format == "" {
		errs = append(errs, errors.New("index.language and index.format are required"))
	}
	if c.Database.Path != "" && c.Database.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("database.queue_size must be positive, got %d", c.Database.QueueSize))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
