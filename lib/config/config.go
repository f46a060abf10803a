// Package config loads runtime settings from an optional YAML file and the
// environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "MARQUEE_CONFIG"
	portEnv           = "PORT"
	tmdbAPIKeyEnv     = "TMDB_API_KEY"
	tmdbBaseURLEnv    = "TMDB_BASE_URL"
	dbPathEnv         = "DB_PATH"
	storageBackendEnv = "STORAGE_BACKEND"
	storageDirEnv     = "STORAGE_DIR"
	logLevelEnv       = "LOG_LEVEL"
	logFileEnv        = "LOG_FILE"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	TMDB    TMDBConfig    `yaml:"tmdb"`
	Catalog CatalogConfig `yaml:"catalog"`
	Storage StorageConfig `yaml:"storage"`
	Details CacheConfig   `yaml:"details"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
}

type TMDBConfig struct {
	APIKey  string        `yaml:"apiKey"`
	BaseURL string        `yaml:"baseUrl"`
	Timeout time.Duration `yaml:"timeout"`
}

type CatalogConfig struct {
	SearchDebounce time.Duration `yaml:"searchDebounce"`
	SessionTTL     time.Duration `yaml:"sessionTtl"`
	MaxSessions    int           `yaml:"maxSessions"`
}

type StorageConfig struct {
	Backend string `yaml:"backend"`
	DBPath  string `yaml:"dbPath"`
	Dir     string `yaml:"dir"`
	LockDir string `yaml:"lockDir"`
}

type CacheConfig struct {
	CacheSize int           `yaml:"cacheSize"`
	CacheTTL  time.Duration `yaml:"cacheTtl"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
}

// Load starts from defaults, overlays the YAML file named by MARQUEE_CONFIG
// and then environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to decode YAML config file %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            "8080",
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  15 * time.Second,
		},
		TMDB: TMDBConfig{
			BaseURL: "https://api.themoviedb.org/3",
			Timeout: 10 * time.Second,
		},
		Catalog: CatalogConfig{
			SearchDebounce: 500 * time.Millisecond,
			SessionTTL:     30 * time.Minute,
			MaxSessions:    1024,
		},
		Storage: StorageConfig{
			Backend: BackendSQLite,
			DBPath:  "marquee.db",
			Dir:     "data",
			LockDir: os.TempDir(),
		},
		Details: CacheConfig{
			CacheSize: 256,
			CacheTTL:  10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
		},
	}
}

func (c *Config) applyEnvOverrides() {
	overrides := map[string]*string{
		portEnv:           &c.Server.Port,
		tmdbAPIKeyEnv:     &c.TMDB.APIKey,
		tmdbBaseURLEnv:    &c.TMDB.BaseURL,
		dbPathEnv:         &c.Storage.DBPath,
		storageBackendEnv: &c.Storage.Backend,
		storageDirEnv:     &c.Storage.Dir,
		logLevelEnv:       &c.Logging.Level,
		logFileEnv:        &c.Logging.File,
	}
	for env, field := range overrides {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*field = v
		}
	}
}

// Validate reports settings the service cannot start with.
func (c Config) Validate() error {
	if c.TMDB.APIKey == "" {
		return fmt.Errorf("%s environment variable is required", tmdbAPIKeyEnv)
	}
	switch c.Storage.Backend {
	case BackendSQLite, BackendFile:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Catalog.SearchDebounce <= 0 {
		return fmt.Errorf("search debounce must be positive")
	}
	return nil
}
