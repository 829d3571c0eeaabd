package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	App        AppConfig        `yaml:"app"`
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Auth       AuthConfig       `yaml:"auth"`
	Payment    PaymentConfig    `yaml:"payment"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "memory".
	Driver   string         `yaml:"driver"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type PostgresConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	DBName         string `yaml:"dbname"`
	SSLMode        string `yaml:"sslmode"`
	MaxConnections int    `yaml:"max_connections"`
	Migrate        bool   `yaml:"migrate"`
}

type RedisConfig struct {
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"pool_size"`
	HotelTTL time.Duration `yaml:"hotel_ttl"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type PaymentConfig struct {
	// Provider is "stripe" or "mock".
	Provider            string        `yaml:"provider"`
	StripeSecretKey     string        `yaml:"stripe_secret_key"`
	WebhookSecret       string        `yaml:"webhook_secret"`
	Currency            string        `yaml:"currency"`
	Timeout             time.Duration `yaml:"timeout"`
	TimeoutPollInterval time.Duration `yaml:"timeout_poll_interval"`
	SweepInterval       time.Duration `yaml:"sweep_interval"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the YAML file at path, expanding ${VAR} references from the
// environment. A .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	expanded := []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "hotel_booking"
	}

	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 5 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 10 * time.Second
	}
	if c.HTTP.IdleTimeout == 0 {
		c.HTTP.IdleTimeout = 120 * time.Second
	}
	if c.HTTP.RequestTimeout == 0 {
		c.HTTP.RequestTimeout = 30 * time.Second
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = 5 * time.Second
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	pg := &c.Database.Postgres
	if pg.Host == "" {
		pg.Host = "localhost"
	}
	if pg.Port == 0 {
		pg.Port = 5432
	}
	if pg.User == "" {
		pg.User = "postgres"
	}
	if pg.DBName == "" {
		pg.DBName = "hotel_booking"
	}
	if pg.SSLMode == "" {
		pg.SSLMode = "disable"
	}
	if pg.MaxConnections == 0 {
		pg.MaxConnections = 25
	}

	if c.Redis.Address == "" {
		c.Redis.Address = "localhost:6379"
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}

	if c.Payment.Provider == "" {
		c.Payment.Provider = "mock"
	}
	if c.Payment.Currency == "" {
		c.Payment.Currency = "USD"
	}
	if c.Payment.Timeout == 0 {
		c.Payment.Timeout = 10 * time.Minute
	}
	if c.Payment.TimeoutPollInterval == 0 {
		c.Payment.TimeoutPollInterval = 5 * time.Second
	}
	if c.Payment.SweepInterval == 0 {
		c.Payment.SweepInterval = time.Minute
	}

	if c.RateLimit.RPS == 0 {
		c.RateLimit.RPS = 10
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 20
	}

	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("database.driver must be postgres or memory, got %q", c.Database.Driver)
	}

	switch c.Payment.Provider {
	case "mock":
	case "stripe":
		if c.Payment.StripeSecretKey == "" {
			return errors.New("payment.stripe_secret_key is required for the stripe provider")
		}
	default:
		return fmt.Errorf("payment.provider must be stripe or mock, got %q", c.Payment.Provider)
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if len(c.Payment.Currency) != 3 {
		return fmt.Errorf("payment.currency must be a 3-letter code, got %q", c.Payment.Currency)
	}

	return nil
}

// DSN builds the lib/pq connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode)
}
