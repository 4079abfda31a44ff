package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Env         string            `mapstructure:"env"`
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Logger      LoggerConfig      `mapstructure:"logger"`
	Requisition RequisitionConfig `mapstructure:"requisition"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres or sqlite
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	Path            string        `mapstructure:"path"` // sqlite file
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// AuthConfig holds token verification settings
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// RequisitionConfig tunes order numbering and duplicate detection
type RequisitionConfig struct {
	Timezone             string        `mapstructure:"timezone"`
	OrderPrefix          string        `mapstructure:"order_prefix"`
	PropertyCodeFallback string        `mapstructure:"property_code_fallback"`
	IdempotencyWindow    time.Duration `mapstructure:"idempotency_window"`
}

// DSN builds the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

// Location resolves the configured order-numbering timezone.
func (r RequisitionConfig) Location() (*time.Location, error) {
	if r.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(r.Timezone)
}

// Load reads .env files, an optional YAML file named by CONFIG_FILE, and
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	loadDotEnv()

	v := viper.New()
	setDefaults(v)

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv loads .env.<APP_ENV> then .env. Existing variables always win
// and missing files are ignored.
func loadDotEnv() {
	if env := os.Getenv("APP_ENV"); env != "" {
		_ = godotenv.Load(".env." + env)
	}
	_ = godotenv.Load(".env")
	_ = godotenv.Load("configs/.env")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "facilityops")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "data/facilityops.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	v.SetDefault("requisition.timezone", "UTC")
	v.SetDefault("requisition.order_prefix", "REQ")
	v.SetDefault("requisition.property_code_fallback", "PROP")
	v.SetDefault("requisition.idempotency_window", 10*time.Second)
}

// bindEnvVars keeps the flat variable names used by existing deployments.
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"env":                            "APP_ENV",
		"server.port":                    "PORT",
		"database.driver":                "DB_DRIVER",
		"database.host":                  "DB_HOST",
		"database.port":                  "DB_PORT",
		"database.user":                  "DB_USER",
		"database.password":              "DB_PASSWORD",
		"database.name":                  "DB_NAME",
		"database.sslmode":               "DB_SSLMODE",
		"database.path":                  "DB_PATH",
		"auth.jwt_secret":                "JWT_SECRET",
		"logger.level":                   "LOG_LEVEL",
		"logger.format":                  "LOG_FORMAT",
		"requisition.timezone":           "REQUISITION_TIMEZONE",
		"requisition.order_prefix":       "REQUISITION_ORDER_PREFIX",
		"requisition.idempotency_window": "REQUISITION_IDEMPOTENCY_WINDOW",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return nil
}

// Validate checks the configuration for values the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Auth.JWTSecret == "" && c.Env == "production" {
		return errors.New("JWT_SECRET is required in production")
	}
	if c.Requisition.IdempotencyWindow <= 0 {
		return errors.New("requisition.idempotency_window must be positive")
	}
	if c.Requisition.OrderPrefix == "" {
		return errors.New("requisition.order_prefix must not be empty")
	}
	if _, err := c.Requisition.Location(); err != nil {
		return fmt.Errorf("invalid requisition.timezone: %w", err)
	}
	return nil
}
