package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/samirrijal/crashlens/internal/core/domain"
)

// Dataset sources.
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Dataset   DatasetConfig   `mapstructure:"dataset"`
	Geo       GeoConfig       `mapstructure:"geo"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	BodyLimit    int    `mapstructure:"body_limit"`
	AllowOrigins string `mapstructure:"allow_origins"`
	// RateLimit is requests per minute per IP; 0 disables limiting.
	RateLimit int `mapstructure:"rate_limit"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr   string `mapstructure:"addr"`
	Prefix string `mapstructure:"prefix"`
}

type TelemetryConfig struct {
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	Enabled      bool   `mapstructure:"enabled"`
}

type DatasetConfig struct {
	Source  string `mapstructure:"source"`
	CSVPath string `mapstructure:"csv_path"`
	MaxRows int    `mapstructure:"max_rows"`
}

// GeoConfig tunes map point resolution for one metro area.
type GeoConfig struct {
	MaxPoints      int           `mapstructure:"max_points"`
	LabelThreshold int           `mapstructure:"label_threshold"`
	Bounds         domain.Bounds `mapstructure:"bounds"`
	LatRange       domain.Range  `mapstructure:"lat_range"`
	LonRange       domain.Range  `mapstructure:"lon_range"`
}

type CacheConfig struct {
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type DashboardConfig struct {
	AssetsHost string `mapstructure:"assets_host"`
	Theme      string `mapstructure:"theme"`
}

// Load reads configuration from an optional .env file, an optional config
// file and environment variables, in increasing precedence.
func Load(service string) (*Config, error) {
	_ = godotenv.Load() // OK if missing

	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: CRASHLENS_DATABASE_HOST → database.host
	v.SetEnvPrefix("CRASHLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.body_limit", 1024*1024)
	v.SetDefault("server.allow_origins", "http://localhost:3000, http://localhost:5173")
	v.SetDefault("server.rate_limit", 300)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "crashlens")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "crashlens")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.prefix", "crashlens:")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("dataset.source", SourceCSV)
	v.SetDefault("dataset.csv_path", "data/df_merged_final.csv")
	v.SetDefault("dataset.max_rows", 200000)
	v.SetDefault("geo.max_points", 1500)
	v.SetDefault("geo.label_threshold", 120)
	v.SetDefault("geo.bounds.min_lat", domain.NYCBounds.MinLat)
	v.SetDefault("geo.bounds.max_lat", domain.NYCBounds.MaxLat)
	v.SetDefault("geo.bounds.min_lon", domain.NYCBounds.MinLon)
	v.SetDefault("geo.bounds.max_lon", domain.NYCBounds.MaxLon)
	v.SetDefault("geo.lat_range.min", 10.0)
	v.SetDefault("geo.lat_range.max", 90.0)
	v.SetDefault("geo.lon_range.min", -180.0)
	v.SetDefault("geo.lon_range.max", 0.0)
	v.SetDefault("cache.ttl_seconds", 300)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "crashlens-ingest")
	v.SetDefault("dashboard.assets_host", "https://go-echarts.github.io/go-echarts-assets/assets/")
	v.SetDefault("dashboard.theme", "dark")
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "server.rate_limit must not be negative")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}

	switch c.Dataset.Source {
	case SourceCSV:
		if c.Dataset.CSVPath == "" {
			errs = append(errs, "dataset.csv_path is required for the csv source")
		}
	case SourcePostgres:
	default:
		errs = append(errs, fmt.Sprintf("dataset.source must be csv or postgres, got %q", c.Dataset.Source))
	}
	if c.Dataset.MaxRows < 0 {
		errs = append(errs, "dataset.max_rows must not be negative")
	}

	if c.Geo.MaxPoints <= 0 {
		errs = append(errs, "geo.max_points must be positive")
	}
	b := c.Geo.Bounds
	if b.MinLat >= b.MaxLat || b.MinLon >= b.MaxLon {
		errs = append(errs, "geo.bounds must have min < max on both axes")
	}
	if c.Geo.LatRange.Min >= c.Geo.LatRange.Max || c.Geo.LonRange.Min >= c.Geo.LonRange.Max {
		errs = append(errs, "geo.lat_range and geo.lon_range must have min < max")
	}

	if c.Temporal.TaskQueue == "" {
		errs = append(errs, "temporal.task_queue is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
