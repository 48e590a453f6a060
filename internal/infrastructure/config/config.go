package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Queue     QueueConfig
	Sync      SyncConfig
	AWS       AWSConfig
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
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxBodySize    int64
	TrustedProxies []string
}

// QueueConfig holds durable job queue configuration
type QueueConfig struct {
	// Workers is the size of the worker pool draining the queue
	Workers int
	// PollInterval is how often idle workers look for runnable jobs
	PollInterval time.Duration
	// MaxRetries before a job is parked as failed
	MaxRetries int
	// JobTimeout bounds a single handler invocation
	JobTimeout time.Duration
	// Channel labels jobs for operator filtering
	Channel string
}

// SyncConfig holds scheduled operation intervals. Zero disables an
// operation.
type SyncConfig struct {
	Enabled                bool
	ImportSalesInterval    time.Duration
	ImportProductsInterval time.Duration
	ExportProductsInterval time.Duration
	UpdateStockInterval    time.Duration
	PollMessagesInterval   time.Duration
	DispatchInterval       time.Duration
	SubmitFeedsInterval    time.Duration
	FixDataInterval        time.Duration
	// LockTTL guards fan-out against concurrent scheduler instances
	LockTTL time.Duration
}

// AWSConfig holds settings for the AWS SDK clients (SQS consumer, S3
// report archive). MWS credentials live per backend, not here.
type AWSConfig struct {
	Region string
	// ReportBucket stores fetched report payloads; empty disables archiving
	ReportBucket string
	// SQSWaitTime is the long-poll wait per receive call
	SQSWaitTime time.Duration
	// SQSPollWindow bounds one scheduled polling run
	SQSPollWindow time.Duration
	// EndpointURL overrides the AWS endpoint, for localstack in development
	EndpointURL string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with AMZCONN_ prefix (e.g., AMZCONN_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("AMZCONN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			MaxBodySize:    v.GetInt64("http.max_body_size"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Queue: QueueConfig{
			Workers:      v.GetInt("queue.workers"),
			PollInterval: v.GetDuration("queue.poll_interval"),
			MaxRetries:   v.GetInt("queue.max_retries"),
			JobTimeout:   v.GetDuration("queue.job_timeout"),
			Channel:      v.GetString("queue.channel"),
		},
		Sync: SyncConfig{
			Enabled:                v.GetBool("sync.enabled"),
			ImportSalesInterval:    v.GetDuration("sync.import_sales_interval"),
			ImportProductsInterval: v.GetDuration("sync.import_products_interval"),
			ExportProductsInterval: v.GetDuration("sync.export_products_interval"),
			UpdateStockInterval:    v.GetDuration("sync.update_stock_interval"),
			PollMessagesInterval:   v.GetDuration("sync.poll_messages_interval"),
			DispatchInterval:       v.GetDuration("sync.dispatch_interval"),
			SubmitFeedsInterval:    v.GetDuration("sync.submit_feeds_interval"),
			FixDataInterval:        v.GetDuration("sync.fix_data_interval"),
			LockTTL:                v.GetDuration("sync.lock_ttl"),
		},
		AWS: AWSConfig{
			Region:        v.GetString("aws.region"),
			ReportBucket:  v.GetString("aws.report_bucket"),
			SQSWaitTime:   v.GetDuration("aws.sqs_wait_time"),
			SQSPollWindow: v.GetDuration("aws.sqs_poll_window"),
			EndpointURL:   v.GetString("aws.endpoint_url"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
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

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "amazon-connector"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
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
		cfg.Database.DBName = "amazon_connector"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
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
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if cfg.Queue.Workers == 0 {
		cfg.Queue.Workers = 4
	}
	if cfg.Queue.PollInterval == 0 {
		cfg.Queue.PollInterval = 2 * time.Second
	}
	if cfg.Queue.MaxRetries == 0 {
		cfg.Queue.MaxRetries = 5
	}
	if cfg.Queue.JobTimeout == 0 {
		cfg.Queue.JobTimeout = 10 * time.Minute
	}
	if cfg.Queue.Channel == "" {
		cfg.Queue.Channel = "root.amazon"
	}
	if cfg.Sync.ImportSalesInterval == 0 {
		cfg.Sync.ImportSalesInterval = 15 * time.Minute
	}
	if cfg.Sync.ImportProductsInterval == 0 {
		cfg.Sync.ImportProductsInterval = 12 * time.Hour
	}
	if cfg.Sync.ExportProductsInterval == 0 {
		cfg.Sync.ExportProductsInterval = 6 * time.Hour
	}
	if cfg.Sync.UpdateStockInterval == 0 {
		cfg.Sync.UpdateStockInterval = time.Hour
	}
	if cfg.Sync.PollMessagesInterval == 0 {
		cfg.Sync.PollMessagesInterval = 2 * time.Minute
	}
	if cfg.Sync.DispatchInterval == 0 {
		cfg.Sync.DispatchInterval = 5 * time.Minute
	}
	if cfg.Sync.SubmitFeedsInterval == 0 {
		cfg.Sync.SubmitFeedsInterval = 30 * time.Minute
	}
	if cfg.Sync.FixDataInterval == 0 {
		cfg.Sync.FixDataInterval = 24 * time.Hour
	}
	if cfg.Sync.LockTTL == 0 {
		cfg.Sync.LockTTL = 5 * time.Minute
	}
	if cfg.AWS.Region == "" {
		cfg.AWS.Region = "eu-west-1"
	}
	if cfg.AWS.SQSWaitTime == 0 {
		cfg.AWS.SQSWaitTime = 20 * time.Second
	}
	if cfg.AWS.SQSPollWindow == 0 {
		cfg.AWS.SQSPollWindow = 60 * time.Second
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "amazon-connector"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Queue.Workers <= 0 {
		return fmt.Errorf("queue.workers must be positive")
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.AWS.EndpointURL != "" {
			return fmt.Errorf("aws.endpoint_url overrides are not allowed in production")
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
