package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/labelbridge-backend/internal/data/db"
	"github.com/yungbote/labelbridge-backend/internal/data/repos/session"
	domlabel "github.com/yungbote/labelbridge-backend/internal/domain/labeling"
	"github.com/yungbote/labelbridge-backend/internal/platform/envutil"
)

const DefaultConfigPath = "config.yaml"

const (
	SourceDir      = "dir"
	SourceGCS      = "gcs"
	SourceS3       = "s3"
	SourcePostgres = "postgres"
)

type Config struct {
	LogMode       string              `yaml:"log_mode"`
	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	Database      DatabaseConfig      `yaml:"database"`
	Sources       SourcesConfig       `yaml:"sources"`
	Session       SessionConfig       `yaml:"session"`
	Review        ReviewConfig        `yaml:"review"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Timezone        string        `yaml:"timezone"`
}

type UserConfig struct {
	Username     string `yaml:"username"`
	Name         string `yaml:"name"`
	PasswordHash string `yaml:"password_hash"`
	Role         string `yaml:"role"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	AccessTTL time.Duration `yaml:"access_ttl"`
	Users     []UserConfig  `yaml:"users"`
}

type DatabaseConfig struct {
	Driver        string        `yaml:"driver"`
	DSN           string        `yaml:"dsn"`
	SlowThreshold time.Duration `yaml:"slow_threshold"`
	MaxOpenConns  int           `yaml:"max_open_conns"`
}

type GCSConfig struct {
	Bucket       string `yaml:"bucket"`
	Mode         string `yaml:"mode"`
	EmulatorHost string `yaml:"emulator_host"`
	Credentials  string `yaml:"credentials"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type SourcesConfig struct {
	Kind           string    `yaml:"kind"`
	Dir            string    `yaml:"dir"`
	Prefix         string    `yaml:"prefix"`
	GCS            GCSConfig `yaml:"gcs"`
	S3             S3Config  `yaml:"s3"`
	PostgresDSN    string    `yaml:"postgres_dsn"`
	ReloadSchedule string    `yaml:"reload_schedule"`
}

type SessionConfig struct {
	Backend   string `yaml:"backend"`
	RedisURL  string `yaml:"redis_url"`
	RedisAddr string `yaml:"redis_addr"`
}

type ReviewConfig struct {
	HideReviewed           bool `yaml:"hide_reviewed"`
	ConfidenceFilter       bool `yaml:"confidence_filter"`
	MaxChunksPerConnection int  `yaml:"max_chunks_per_connection"`
}

type ObservabilityConfig struct {
	ServiceName    string  `yaml:"service_name"`
	Environment    string  `yaml:"environment"`
	Version        string  `yaml:"version"`
	TracingEnabled bool    `yaml:"tracing_enabled"`
	OTLPEndpoint   string  `yaml:"otlp_endpoint"`
	OTLPInsecure   bool    `yaml:"otlp_insecure"`
	OTLPHeaders    string  `yaml:"otlp_headers"`
	SampleRatio    float64 `yaml:"sample_ratio"`
	MetricsEnabled bool    `yaml:"metrics_enabled"`
}

// LoadConfig reads path (or CONFIG_PATH, or config.yaml), applies environment
// overrides and defaults, and validates the result. A missing default file is
// not an error; a missing explicit file is.
func LoadConfig(path string) (Config, error) {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = envutil.String("CONFIG_PATH", "")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultConfigPath
	}

	var cfg Config
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.LogMode = envutil.String("LOG_MODE", c.LogMode)

	c.Server.Addr = envutil.String("SERVER_ADDR", c.Server.Addr)
	if port := envutil.String("PORT", ""); port != "" {
		c.Server.Addr = ":" + port
	}
	if origins := envutil.String("CORS_ORIGINS", ""); origins != "" {
		c.Server.CORSOrigins = splitCSV(origins)
	}
	c.Server.ShutdownTimeout = envutil.Seconds("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.Timezone = envutil.String("TIMEZONE", c.Server.Timezone)

	c.Auth.JWTSecret = envutil.String("JWT_SECRET_KEY", c.Auth.JWTSecret)
	c.Auth.AccessTTL = envutil.Seconds("ACCESS_TOKEN_TTL", c.Auth.AccessTTL)

	c.Database.Driver = envutil.String("DB_DRIVER", c.Database.Driver)
	c.Database.DSN = envutil.String("DATABASE_URL", c.Database.DSN)
	c.Database.MaxOpenConns = envutil.Int("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)

	c.Sources.Kind = envutil.String("SOURCE_KIND", c.Sources.Kind)
	c.Sources.Dir = envutil.String("SOURCE_DIR", c.Sources.Dir)
	c.Sources.Prefix = envutil.String("SOURCE_PREFIX", c.Sources.Prefix)
	c.Sources.GCS.Bucket = envutil.String("GCS_BUCKET_NAME", c.Sources.GCS.Bucket)
	c.Sources.GCS.Mode = envutil.String("OBJECT_STORAGE_MODE", c.Sources.GCS.Mode)
	c.Sources.GCS.EmulatorHost = envutil.String("STORAGE_EMULATOR_HOST", c.Sources.GCS.EmulatorHost)
	c.Sources.GCS.Credentials = envutil.String("GCS_CREDENTIALS", c.Sources.GCS.Credentials)
	c.Sources.S3.Endpoint = envutil.String("S3_ENDPOINT", c.Sources.S3.Endpoint)
	c.Sources.S3.Bucket = envutil.String("S3_BUCKET", c.Sources.S3.Bucket)
	c.Sources.S3.AccessKey = envutil.String("S3_ACCESS_KEY", c.Sources.S3.AccessKey)
	c.Sources.S3.SecretKey = envutil.String("S3_SECRET_KEY", c.Sources.S3.SecretKey)
	c.Sources.S3.Region = envutil.String("S3_REGION", c.Sources.S3.Region)
	c.Sources.S3.UseSSL = envutil.Bool("S3_USE_SSL", c.Sources.S3.UseSSL)
	c.Sources.PostgresDSN = envutil.String("SOURCE_POSTGRES_DSN", c.Sources.PostgresDSN)
	c.Sources.ReloadSchedule = envutil.String("SOURCE_RELOAD_SCHEDULE", c.Sources.ReloadSchedule)

	c.Session.Backend = envutil.String("SESSION_BACKEND", c.Session.Backend)
	c.Session.RedisURL = envutil.String("REDIS_URL", c.Session.RedisURL)
	c.Session.RedisAddr = envutil.String("REDIS_ADDR", c.Session.RedisAddr)

	c.Review.HideReviewed = envutil.Bool("REVIEW_HIDE_REVIEWED", c.Review.HideReviewed)
	c.Review.ConfidenceFilter = envutil.Bool("REVIEW_CONFIDENCE_FILTER", c.Review.ConfidenceFilter)
	c.Review.MaxChunksPerConnection = envutil.Int("REVIEW_MAX_CHUNKS_PER_CONNECTION", c.Review.MaxChunksPerConnection)

	c.Observability.ServiceName = envutil.String("OTEL_SERVICE_NAME", c.Observability.ServiceName)
	c.Observability.Environment = envutil.String("APP_ENV", c.Observability.Environment)
	c.Observability.TracingEnabled = envutil.Bool("OTEL_ENABLED", c.Observability.TracingEnabled)
	c.Observability.OTLPEndpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", c.Observability.OTLPEndpoint)
	c.Observability.OTLPInsecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", c.Observability.OTLPInsecure)
	c.Observability.OTLPHeaders = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", c.Observability.OTLPHeaders)
	c.Observability.SampleRatio = envutil.Float("OTEL_SAMPLER_RATIO", c.Observability.SampleRatio)
	c.Observability.MetricsEnabled = envutil.Bool("METRICS_ENABLED", c.Observability.MetricsEnabled)
}

func (c *Config) applyDefaults() {
	if c.LogMode == "" {
		c.LogMode = "development"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Auth.AccessTTL <= 0 {
		c.Auth.AccessTTL = 12 * time.Hour
	}
	if c.Database.Driver == "" {
		c.Database.Driver = db.DriverSQLite
	}
	if c.Sources.Kind == "" {
		c.Sources.Kind = SourceDir
	}
	if c.Sources.Kind == SourceDir && c.Sources.Dir == "" {
		c.Sources.Dir = "data"
	}
	if c.Session.Backend == "" {
		c.Session.Backend = session.BackendMemory
	}
	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = "labelbridge"
	}
	if c.Observability.SampleRatio <= 0 {
		c.Observability.SampleRatio = 0.1
	}
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("auth.jwt_secret (JWT_SECRET_KEY) is required"))
	}
	seen := map[string]bool{}
	for i, u := range c.Auth.Users {
		if strings.TrimSpace(u.Username) == "" {
			errs = append(errs, fmt.Errorf("auth.users[%d]: username is required", i))
			continue
		}
		if seen[u.Username] {
			errs = append(errs, fmt.Errorf("auth.users[%d]: duplicate username %q", i, u.Username))
		}
		seen[u.Username] = true
		if _, ok := domlabel.ParseRole(u.Role); !ok {
			errs = append(errs, fmt.Errorf("auth.users[%d]: unknown role %q", i, u.Role))
		}
		if strings.TrimSpace(u.PasswordHash) == "" {
			errs = append(errs, fmt.Errorf("auth.users[%d]: password_hash is required", i))
		}
	}
	switch c.Database.Driver {
	case db.DriverSQLite:
	case db.DriverPostgres:
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("database.dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not supported", c.Database.Driver))
	}
	switch c.Sources.Kind {
	case SourceDir:
	case SourceGCS:
		if c.Sources.GCS.Bucket == "" {
			errs = append(errs, errors.New("sources.gcs.bucket is required"))
		}
	case SourceS3:
		if c.Sources.S3.Endpoint == "" || c.Sources.S3.Bucket == "" {
			errs = append(errs, errors.New("sources.s3.endpoint and sources.s3.bucket are required"))
		}
	case SourcePostgres:
		if c.Sources.PostgresDSN == "" {
			errs = append(errs, errors.New("sources.postgres_dsn is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("sources.kind %q is not supported", c.Sources.Kind))
	}
	backend, err := session.ParseBackend(c.Session.Backend)
	if err != nil {
		errs = append(errs, err)
	} else if backend == session.BackendRedis && c.Session.RedisURL == "" && c.Session.RedisAddr == "" {
		errs = append(errs, errors.New("session.redis_url or session.redis_addr is required for the redis backend"))
	}
	if c.Review.MaxChunksPerConnection < 0 {
		errs = append(errs, errors.New("review.max_chunks_per_connection must be >= 0"))
	}
	if c.Server.Timezone != "" {
		if _, err := time.LoadLocation(c.Server.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("server.timezone: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Location resolves server.timezone, defaulting to the process local zone.
func (c Config) Location() *time.Location {
	if c.Server.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Server.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func splitCSV(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
