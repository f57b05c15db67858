// Package config holds the service configuration and its loader.
package config

import (
	"time"

	"github.com/jonesrussell/pocketish/internal/logger"
)

// Default configuration values.
const (
	defaultServiceName    = "pocketish"
	defaultServiceVersion = "1.0.0"
	defaultServicePort    = 8080
	defaultPollInterval   = 2 * time.Second
	defaultStaleAfter     = 15 * time.Minute
	defaultFetchTimeout   = 20 * time.Second
	defaultFetchMaxBytes  = 2 << 20 // 2 MiB
	defaultEnrichModel    = "gpt-4o-mini"
	defaultEnrichBaseURL  = "https://api.openai.com/v1"
	defaultEnrichAttempts = 3
	defaultEnrichTimeout  = 60 * time.Second
	defaultDBHost         = "localhost"
	defaultDBPort         = 5432
	defaultDBUser         = "postgres"
	defaultDBName         = "pocketish"
	defaultDBSSLMode      = "disable"
	defaultDBMaxConns     = 25
	defaultDBMaxIdleConns = 5
	defaultDBConnLifetime = time.Hour
	defaultLogLevel       = "info"
	defaultLogFormat      = "json"
	defaultFetchUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 13_4) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/125.0 Safari/537.36"
)

// Config holds all configuration for the service.
type Config struct {
	Service    ServiceConfig    `yaml:"service"`
	Worker     WorkerConfig     `yaml:"worker"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
	Database   DatabaseConfig   `yaml:"database"`
	Logging    logger.Config    `yaml:"logging"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Port    int    `env:"POCKETISH_PORT" yaml:"port"`
	Debug   bool   `env:"APP_DEBUG"      yaml:"debug"`
}

// WorkerConfig holds worker loop configuration.
type WorkerConfig struct {
	PollInterval time.Duration `env:"WORKER_POLL_INTERVAL" yaml:"poll_interval"`
	StaleAfter   time.Duration `env:"WORKER_STALE_AFTER"   yaml:"stale_after"`
}

// FetchConfig holds outbound fetch configuration.
type FetchConfig struct {
	Timeout   time.Duration `env:"FETCH_TIMEOUT"   yaml:"timeout"`
	MaxBytes  int64         `env:"FETCH_MAX_BYTES" yaml:"max_bytes"`
	UserAgent string        `yaml:"user_agent"`
}

// EnrichmentConfig holds enrichment service configuration.
// An empty APIKey puts the engine in fallback-only mode.
type EnrichmentConfig struct {
	APIKey      string        `env:"OPENAI_API_KEY"  yaml:"api_key"`
	Model       string        `env:"OPENAI_MODEL"    yaml:"model"`
	BaseURL     string        `env:"OPENAI_BASE_URL" yaml:"base_url"`
	MaxAttempts int           `yaml:"max_attempts"`
	Timeout     time.Duration `yaml:"timeout"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host            string        `env:"POSTGRES_HOST"     yaml:"host"`
	Port            int           `env:"POSTGRES_PORT"     yaml:"port"`
	User            string        `env:"POSTGRES_USER"     yaml:"user"`
	Password        string        `env:"POSTGRES_PASSWORD" yaml:"password"`
	Database        string        `env:"POSTGRES_DB"       yaml:"database"`
	SSLMode         string        `env:"POSTGRES_SSLMODE"  yaml:"sslmode"`
	MaxConnections  int           `yaml:"max_connections"`
	MaxIdleConns    int           `yaml:"max_idle_connections"`
	ConnMaxLifetime time.Duration `yaml:"connection_max_lifetime"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setWorkerDefaults(&cfg.Worker)
	setFetchDefaults(&cfg.Fetch)
	setEnrichmentDefaults(&cfg.Enrichment)
	setDatabaseDefaults(&cfg.Database)
	setLoggingDefaults(&cfg.Logging)
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
	if s.Port == 0 {
		s.Port = defaultServicePort
	}
}

func setWorkerDefaults(w *WorkerConfig) {
	if w.PollInterval == 0 {
		w.PollInterval = defaultPollInterval
	}
	if w.StaleAfter == 0 {
		w.StaleAfter = defaultStaleAfter
	}
}

func setFetchDefaults(f *FetchConfig) {
	if f.Timeout == 0 {
		f.Timeout = defaultFetchTimeout
	}
	if f.MaxBytes == 0 {
		f.MaxBytes = defaultFetchMaxBytes
	}
	if f.UserAgent == "" {
		f.UserAgent = defaultFetchUserAgent
	}
}

func setEnrichmentDefaults(e *EnrichmentConfig) {
	if e.Model == "" {
		e.Model = defaultEnrichModel
	}
	if e.BaseURL == "" {
		e.BaseURL = defaultEnrichBaseURL
	}
	if e.MaxAttempts == 0 {
		e.MaxAttempts = defaultEnrichAttempts
	}
	if e.Timeout == 0 {
		e.Timeout = defaultEnrichTimeout
	}
}

func setDatabaseDefaults(d *DatabaseConfig) {
	if d.Host == "" {
		d.Host = defaultDBHost
	}
	if d.Port == 0 {
		d.Port = defaultDBPort
	}
	if d.User == "" {
		d.User = defaultDBUser
	}
	if d.Database == "" {
		d.Database = defaultDBName
	}
	if d.SSLMode == "" {
		d.SSLMode = defaultDBSSLMode
	}
	if d.MaxConnections == 0 {
		d.MaxConnections = defaultDBMaxConns
	}
	if d.MaxIdleConns == 0 {
		d.MaxIdleConns = defaultDBMaxIdleConns
	}
	if d.ConnMaxLifetime == 0 {
		d.ConnMaxLifetime = defaultDBConnLifetime
	}
}

func setLoggingDefaults(l *logger.Config) {
	if l.Level == "" {
		l.Level = defaultLogLevel
	}
	if l.Format == "" {
		l.Format = defaultLogFormat
	}
}
