package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"docdesk/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig
	API       APIConfig
	Server    ServerConfig
	CORS      CORSConfig
	Cache     CacheConfig
	Downloads DownloadsConfig
	S3        S3Config
	Notify    NotifyConfig
	Log       LogConfig
}

// AppConfig holds build-level settings.
type AppConfig struct {
	Environment string `mapstructure:"environment"`
}

// IsDevelopment reports whether this is a development build.
func (a *AppConfig) IsDevelopment() bool {
	return strings.EqualFold(a.Environment, "development")
}

// APIConfig holds settings for talking to the parsing service.
type APIConfig struct {
	// BaseURL is the explicit service address; empty means resolve from the environment.
	BaseURL     string            `mapstructure:"base_url"`
	DefaultKey  string            `mapstructure:"default_key"`
	AuthHeader  domain.AuthHeader `mapstructure:"auth_header"`
	TimeoutSecs int               `mapstructure:"timeout_secs"`
	ListLimit   int               `mapstructure:"list_limit"`
}

// Timeout returns the per-request transport timeout.
func (a *APIConfig) Timeout() time.Duration {
	if a.TimeoutSecs <= 0 {
		return 60 * time.Second
	}
	return time.Duration(a.TimeoutSecs) * time.Second
}

// ServerConfig holds dashboard HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CacheConfig selects the backing store for the local cache and persisted credentials.
type CacheConfig struct {
	// Driver is one of memory, sqlite, postgres.
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
	DSN        string `mapstructure:"dsn"`
	// SessionID pins the cache session; empty means the persisted current session.
	SessionID string `mapstructure:"session_id"`
	MaxOpen   int    `mapstructure:"max_open"`
}

// DownloadsConfig selects where exported files are handed over.
type DownloadsConfig struct {
	// Sink is one of local, s3.
	Sink string `mapstructure:"sink"`
	Dir  string `mapstructure:"dir"`
}

// S3Config holds AWS S3 settings for the export archive sink.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// NotifyConfig holds batch completion notice settings.
type NotifyConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	Recipient   string `mapstructure:"recipient"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Debug reports whether debug logging is on.
func (l *LogConfig) Debug() bool {
	return strings.EqualFold(l.Level, "debug")
}

// Load reads configuration from environment variables with the DOCDESK_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOCDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.environment", "production")

	// API defaults
	v.SetDefault("api.base_url", "")
	v.SetDefault("api.default_key", "dev_123")
	v.SetDefault("api.auth_header", string(domain.AuthHeaderBearer))
	v.SetDefault("api.timeout_secs", 60)
	v.SetDefault("api.list_limit", 10)

	// Server defaults
	v.SetDefault("server.port", ":3000")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")

	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000,http://localhost:3001,http://127.0.0.1:3001")

	// Cache defaults
	v.SetDefault("cache.driver", "sqlite")
	v.SetDefault("cache.sqlite_path", "docdesk.db")
	v.SetDefault("cache.dsn", "")
	v.SetDefault("cache.session_id", "")
	v.SetDefault("cache.max_open", 5)

	// Download defaults
	v.SetDefault("downloads.sink", "local")
	v.SetDefault("downloads.dir", "downloads")

	// S3 defaults
	v.SetDefault("s3.region", "ap-south-1")
	v.SetDefault("s3.bucket", "docdesk-exports")
	v.SetDefault("s3.prefix", "exports")
	v.SetDefault("s3.endpoint", "")

	// Notify defaults
	v.SetDefault("notify.provider", "noop")
	v.SetDefault("notify.region", "ap-south-1")
	v.SetDefault("notify.from_address", "noreply@docdesk.local")
	v.SetDefault("notify.from_name", "DocDesk")
	v.SetDefault("notify.recipient", "")

	v.SetDefault("log.level", "info")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"app.environment":      "DOCDESK_APP_ENVIRONMENT",
		"api.base_url":         "DOCDESK_API_BASE_URL",
		"api.default_key":      "DOCDESK_API_DEFAULT_KEY",
		"api.auth_header":      "DOCDESK_API_AUTH_HEADER",
		"api.timeout_secs":     "DOCDESK_API_TIMEOUT_SECS",
		"api.list_limit":       "DOCDESK_API_LIST_LIMIT",
		"server.port":          "DOCDESK_SERVER_PORT",
		"server.read_timeout":  "DOCDESK_SERVER_READ_TIMEOUT",
		"server.write_timeout": "DOCDESK_SERVER_WRITE_TIMEOUT",
		"cors.allowed_origins": "DOCDESK_CORS_ALLOWED_ORIGINS",
		"cache.driver":         "DOCDESK_CACHE_DRIVER",
		"cache.sqlite_path":    "DOCDESK_CACHE_SQLITE_PATH",
		"cache.dsn":            "DOCDESK_CACHE_DSN",
		"cache.session_id":     "DOCDESK_CACHE_SESSION_ID",
		"cache.max_open":       "DOCDESK_CACHE_MAX_OPEN",
		"downloads.sink":       "DOCDESK_DOWNLOADS_SINK",
		"downloads.dir":        "DOCDESK_DOWNLOADS_DIR",
		"s3.region":            "DOCDESK_S3_REGION",
		"s3.bucket":            "DOCDESK_S3_BUCKET",
		"s3.prefix":            "DOCDESK_S3_PREFIX",
		"s3.endpoint":          "DOCDESK_S3_ENDPOINT",
		"s3.access_key":        "DOCDESK_S3_ACCESS_KEY",
		"s3.secret_key":        "DOCDESK_S3_SECRET_KEY",
		"notify.provider":      "DOCDESK_NOTIFY_PROVIDER",
		"notify.region":        "DOCDESK_NOTIFY_REGION",
		"notify.from_address":  "DOCDESK_NOTIFY_FROM_ADDRESS",
		"notify.from_name":     "DOCDESK_NOTIFY_FROM_NAME",
		"notify.recipient":     "DOCDESK_NOTIFY_RECIPIENT",
		"log.level":            "DOCDESK_LOG_LEVEL",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	cfg.App = AppConfig{
		Environment: v.GetString("app.environment"),
	}
	cfg.API = APIConfig{
		BaseURL:     v.GetString("api.base_url"),
		DefaultKey:  v.GetString("api.default_key"),
		AuthHeader:  domain.AuthHeader(strings.ToLower(v.GetString("api.auth_header"))),
		TimeoutSecs: v.GetInt("api.timeout_secs"),
		ListLimit:   v.GetInt("api.list_limit"),
	}
	cfg.Server = ServerConfig{
		Port:         v.GetString("server.port"),
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	cfg.Cache = CacheConfig{
		Driver:     strings.ToLower(v.GetString("cache.driver")),
		SQLitePath: v.GetString("cache.sqlite_path"),
		DSN:        v.GetString("cache.dsn"),
		SessionID:  v.GetString("cache.session_id"),
		MaxOpen:    v.GetInt("cache.max_open"),
	}
	cfg.Downloads = DownloadsConfig{
		Sink: strings.ToLower(v.GetString("downloads.sink")),
		Dir:  v.GetString("downloads.dir"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Prefix:    v.GetString("s3.prefix"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}
	cfg.Notify = NotifyConfig{
		Provider:    strings.ToLower(v.GetString("notify.provider")),
		Region:      v.GetString("notify.region"),
		FromAddress: v.GetString("notify.from_address"),
		FromName:    v.GetString("notify.from_name"),
		Recipient:   v.GetString("notify.recipient"),
	}
	cfg.Log = LogConfig{
		Level: v.GetString("log.level"),
	}

	if cfg.API.AuthHeader != domain.AuthHeaderAPIKey {
		cfg.API.AuthHeader = domain.AuthHeaderBearer
	}

	return cfg, nil
}
