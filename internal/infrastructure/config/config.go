package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/erp/invoice-export/internal/domain/invoice"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	HTTP      HTTPConfig
	Layout    invoice.LayoutConfig
	Assets    AssetsConfig
	Export    ExportConfig
	Chrome    ChromeConfig
	S3        S3Config
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	LogLevel        string
	SlowThreshold   time.Duration
}

// RedisConfig holds Redis connection settings.
// When disabled the asset cache and export lock stay in process.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxBodySize    int64
	TrustedProxies []string

	CORSAllowOrigins []string

	// Rendering endpoints are limited per client IP
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// AssetsConfig controls remote asset fetching
type AssetsConfig struct {
	DriveBaseURL   string
	Timeout        time.Duration // per asset, retries included
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	CacheTTL       time.Duration
	MaxAssetBytes  int64
	Concurrency    int
}

// ExportConfig controls rendering and artifact storage
type ExportConfig struct {
	Supersample     float64
	PaperSize       string
	Storage         string // filesystem or s3
	SpoolPath       string
	SpoolBaseURL    string
	SpoolRetention  time.Duration
	CleanupInterval time.Duration
	LockTTL         time.Duration
	Timeout         time.Duration
}

// ChromeConfig controls the headless browser print pipeline
type ChromeConfig struct {
	Enabled   bool
	RemoteURL string
	NoSandbox bool
	Timeout   time.Duration
}

// S3Config holds object storage settings
type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	KeyPrefix       string
	PresignExpiry   time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	MetricsEnabled    bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool
}

// Load loads configuration from config.toml and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with INVX_ prefix (e.g., INVX_EXPORT_SUPERSAMPLE)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/invoice-export")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return fromViper(v)
}

// LoadFile loads configuration from an explicit file path plus environment
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("INVX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			LogLevel:        v.GetString("database.log_level"),
			SlowThreshold:   v.GetDuration("database.slow_threshold"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			MaxBodySize:    v.GetInt64("http.max_body_size"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),

			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
		},
		Layout: layoutFromViper(v),
		Assets: AssetsConfig{
			DriveBaseURL:   v.GetString("assets.drive_base_url"),
			Timeout:        v.GetDuration("assets.timeout"),
			MaxRetries:     v.GetInt("assets.max_retries"),
			InitialBackoff: v.GetDuration("assets.initial_backoff"),
			MaxBackoff:     v.GetDuration("assets.max_backoff"),
			CacheTTL:       v.GetDuration("assets.cache_ttl"),
			MaxAssetBytes:  v.GetInt64("assets.max_asset_bytes"),
			Concurrency:    v.GetInt("assets.concurrency"),
		},
		Export: ExportConfig{
			Supersample:     v.GetFloat64("export.supersample"),
			PaperSize:       v.GetString("export.paper_size"),
			Storage:         v.GetString("export.storage"),
			SpoolPath:       v.GetString("export.spool_path"),
			SpoolBaseURL:    v.GetString("export.spool_base_url"),
			SpoolRetention:  v.GetDuration("export.spool_retention"),
			CleanupInterval: v.GetDuration("export.cleanup_interval"),
			LockTTL:         v.GetDuration("export.lock_ttl"),
			Timeout:         v.GetDuration("export.timeout"),
		},
		Chrome: ChromeConfig{
			Enabled:   v.GetBool("chrome.enabled"),
			RemoteURL: v.GetString("chrome.remote_url"),
			NoSandbox: v.GetBool("chrome.no_sandbox"),
			Timeout:   v.GetDuration("chrome.timeout"),
		},
		S3: S3Config{
			Endpoint:        v.GetString("s3.endpoint"),
			Region:          v.GetString("s3.region"),
			Bucket:          v.GetString("s3.bucket"),
			AccessKeyID:     v.GetString("s3.access_key_id"),
			SecretAccessKey: v.GetString("s3.secret_access_key"),
			UsePathStyle:    v.GetBool("s3.use_path_style"),
			KeyPrefix:       v.GetString("s3.key_prefix"),
			PresignExpiry:   v.GetDuration("s3.presign_expiry"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// layoutFromViper starts from the built-in layout and overrides only keys that are set
func layoutFromViper(v *viper.Viper) invoice.LayoutConfig {
	l := invoice.DefaultLayoutConfig()
	floats := map[string]*float64{
		"layout.page_height":           &l.PageHeight,
		"layout.page_padding":          &l.PagePadding,
		"layout.banner_height":         &l.BannerHeight,
		"layout.company_header_height": &l.CompanyHeaderHeight,
		"layout.customer_block_height": &l.CustomerBlockHeight,
		"layout.table_header_height":   &l.TableHeaderHeight,
		"layout.tax_summary_height":    &l.TaxSummaryHeight,
		"layout.footer_height":         &l.FooterHeight,
		"layout.row_height":            &l.RowHeight,
		"layout.charge_row_height":     &l.ChargeRowHeight,
		"layout.image_box_size":        &l.ImageBoxSize,
	}
	for key, dst := range floats {
		if v.IsSet(key) {
			*dst = v.GetFloat64(key)
		}
	}
	if v.IsSet("layout.first_page_capacity") {
		l.FirstPageCapacity = v.GetInt("layout.first_page_capacity")
	}
	if v.IsSet("layout.subsequent_page_capacity") {
		l.SubsequentPageCapacity = v.GetInt("layout.subsequent_page_capacity")
	}
	return l
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "invoice-export"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "invoice_export"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "invoice-export.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}
	if cfg.Database.SlowThreshold == 0 {
		cfg.Database.SlowThreshold = 200 * time.Millisecond
	}

	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	// Exports render and assemble synchronously
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 90 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 30
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 4 << 20
	}

	if cfg.Assets.DriveBaseURL == "" {
		cfg.Assets.DriveBaseURL = "https://www.googleapis.com/drive/v3"
	}
	if cfg.Assets.Timeout == 0 {
		cfg.Assets.Timeout = 10 * time.Second
	}
	if cfg.Assets.MaxRetries == 0 {
		cfg.Assets.MaxRetries = 3
	}
	if cfg.Assets.InitialBackoff == 0 {
		cfg.Assets.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.Assets.MaxBackoff == 0 {
		cfg.Assets.MaxBackoff = 2 * time.Second
	}
	if cfg.Assets.CacheTTL == 0 {
		cfg.Assets.CacheTTL = 10 * time.Minute
	}
	if cfg.Assets.MaxAssetBytes == 0 {
		cfg.Assets.MaxAssetBytes = 5 << 20
	}
	if cfg.Assets.Concurrency == 0 {
		cfg.Assets.Concurrency = 4
	}

	if cfg.Export.Supersample == 0 {
		cfg.Export.Supersample = 2
	}
	if cfg.Export.PaperSize == "" {
		cfg.Export.PaperSize = "A4"
	}
	if cfg.Export.Storage == "" {
		cfg.Export.Storage = "filesystem"
	}
	if cfg.Export.SpoolPath == "" {
		cfg.Export.SpoolPath = "./spool"
	}
	if cfg.Export.SpoolBaseURL == "" {
		cfg.Export.SpoolBaseURL = "/api/v1/export-jobs"
	}
	if cfg.Export.CleanupInterval == 0 {
		cfg.Export.CleanupInterval = time.Hour
	}
	if cfg.Export.LockTTL == 0 {
		cfg.Export.LockTTL = 2 * time.Minute
	}
	if cfg.Export.Timeout == 0 {
		cfg.Export.Timeout = 60 * time.Second
	}

	if cfg.Chrome.Timeout == 0 {
		cfg.Chrome.Timeout = 30 * time.Second
	}

	if cfg.S3.Region == "" {
		cfg.S3.Region = "us-east-1"
	}
	if cfg.S3.PresignExpiry == 0 {
		cfg.S3.PresignExpiry = 15 * time.Minute
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if err := c.Layout.Validate(); err != nil {
		return fmt.Errorf("layout: %w", err)
	}

	if c.Export.Supersample < 1 || c.Export.Supersample > 4 {
		return fmt.Errorf("export.supersample must be between 1 and 4, got %v", c.Export.Supersample)
	}
	switch c.Export.Storage {
	case "filesystem":
	case "s3":
		if c.S3.Bucket == "" {
			return fmt.Errorf("s3.bucket is required when export.storage is s3")
		}
	default:
		return fmt.Errorf("export.storage must be filesystem or s3, got %q", c.Export.Storage)
	}
	if c.Assets.MaxRetries < 0 {
		return fmt.Errorf("assets.max_retries cannot be negative")
	}
	if c.Assets.Concurrency < 1 {
		return fmt.Errorf("assets.concurrency must be positive")
	}

	if c.App.Env == "production" {
		if c.Database.Driver == "postgres" && c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Chrome.Enabled && c.Chrome.NoSandbox && c.Chrome.RemoteURL == "" {
			return fmt.Errorf("chrome.no_sandbox is not allowed for a local browser in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
