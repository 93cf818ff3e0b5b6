package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hengadev/errsx"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/jwalitptl/medicare-api/pkg/security"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Encryption EncryptionConfig `mapstructure:"encryption"`
	Redis      RedisConfig      `mapstructure:"redis"`
	SMTP       SMTPConfig       `mapstructure:"smtp"`
	Log        LogConfig        `mapstructure:"log"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	CORS       CORSConfig       `mapstructure:"cors"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Debug           bool          `mapstructure:"debug"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	MongoURI        string        `mapstructure:"mongo_uri"`
	MongoDatabase   string        `mapstructure:"mongo_database"`
	PostgresDSN     string        `mapstructure:"postgres_dsn"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

type EncryptionConfig struct {
	Key string `mapstructure:"key"`
}

// RedisConfig enables audit fan-out when URL is set.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
}

// SMTPConfig enables doctor notification mail when Host is set.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type LogConfig struct {
	Level  string        `mapstructure:"level"`
	File   string        `mapstructure:"file"`
	MaxAge time.Duration `mapstructure:"max_age"`
	Rotate time.Duration `mapstructure:"rotate"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// legacyEnv holds the variable names deployments of the service already use.
// Set values take precedence over config.yaml and the structured variables.
type legacyEnv struct {
	MongoURI      string `envconfig:"MONGO_URI"`
	MongoDBName   string `envconfig:"MONGO_DB_NAME"`
	JWTSecretKey  string `envconfig:"JWT_SECRET_KEY"`
	SecretKey     string `envconfig:"SECRET_KEY"`
	EncryptionKey string `envconfig:"ENCRYPTION_KEY"`
	Host          string `envconfig:"HOST"`
	Port          string `envconfig:"PORT"`
	FlaskDebug    string `envconfig:"FLASK_DEBUG"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	RedisURL      string `envconfig:"REDIS_URL"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_body_bytes", 32<<20)

	v.SetDefault("database.driver", DriverMongo)
	v.SetDefault("database.mongo_uri", "")
	v.SetDefault("database.mongo_database", "bharathmedicare")
	v.SetDefault("database.postgres_dsn", "")
	v.SetDefault("database.connect_timeout", 10*time.Second)
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry_hours", 24)

	v.SetDefault("encryption.key", "")

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "noreply@bharathmedicare.in")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_age", 7*24*time.Hour)
	v.SetDefault("log.rotate", 24*time.Hour)

	v.SetDefault("rate_limit.requests_per_second", 1.0)
	v.SetDefault("rate_limit.burst", 10)

	v.SetDefault("cors.allowed_origins", []string{"*"})
}

// Load reads configuration from, in increasing precedence: defaults, an
// optional config.yaml in paths (default . and ./config), SECTION_KEY
// environment variables, and the legacy variables. A .env file in the working
// directory is loaded into the environment first.
func Load(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var legacy legacyEnv
	if err := envconfig.Process("", &legacy); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.applyLegacy(legacy); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyLegacy(env legacyEnv) error {
	if env.MongoURI != "" {
		c.Database.MongoURI = env.MongoURI
	}
	if env.MongoDBName != "" {
		c.Database.MongoDatabase = env.MongoDBName
	}
	if env.DatabaseURL != "" {
		c.Database.PostgresDSN = env.DatabaseURL
	}
	switch {
	case env.JWTSecretKey != "":
		c.JWT.Secret = env.JWTSecretKey
	case env.SecretKey != "" && c.JWT.Secret == "":
		c.JWT.Secret = env.SecretKey
	}
	if env.EncryptionKey != "" {
		c.Encryption.Key = env.EncryptionKey
	}
	if env.Host != "" {
		c.Server.Host = env.Host
	}
	if env.Port != "" {
		port, err := strconv.Atoi(env.Port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", env.Port, err)
		}
		c.Server.Port = port
	}
	if env.FlaskDebug != "" {
		c.Server.Debug = strings.EqualFold(env.FlaskDebug, "true") || env.FlaskDebug == "1"
	}
	if env.RedisURL != "" {
		c.Redis.URL = env.RedisURL
	}
	if c.Server.Debug && c.Log.Level == "info" {
		c.Log.Level = "debug"
	}
	return nil
}

// Validate reports every problem at once, keyed by setting.
func (c *Config) Validate() error {
	errs := errsx.Map{}

	if c.JWT.Secret == "" {
		errs.Set("jwt.secret", errors.New("JWT_SECRET_KEY or SECRET_KEY must be set"))
	}
	if c.JWT.ExpiryHours <= 0 {
		errs.Set("jwt.expiry_hours", fmt.Errorf("must be positive, got %d", c.JWT.ExpiryHours))
	}

	if _, err := security.ParseKey(c.Encryption.Key); err != nil {
		errs.Set("encryption.key", fmt.Errorf("ENCRYPTION_KEY: %w", err))
	}

	switch c.Database.Driver {
	case DriverMongo:
		if c.Database.MongoURI == "" {
			errs.Set("database.mongo_uri", errors.New("MONGO_URI must be set for the mongo driver"))
		}
	case DriverPostgres:
		if c.Database.PostgresDSN == "" {
			errs.Set("database.postgres_dsn", errors.New("DATABASE_URL must be set for the postgres driver"))
		}
	case DriverMemory:
	default:
		errs.Set("database.driver", fmt.Errorf("unknown driver %q", c.Database.Driver))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs.Set("server.port", fmt.Errorf("out of range: %d", c.Server.Port))
	}

	return errs.AsError()
}
