package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Store drivers
const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// Config is the process configuration, read once at startup.
type Config struct {
	Port               string        `mapstructure:"PORT"`
	MongoURI           string        `mapstructure:"MONGO_URI"`
	MongoDatabase      string        `mapstructure:"MONGO_DATABASE"`
	MongoTransactions  bool          `mapstructure:"MONGO_TRANSACTIONS"`
	StoreDriver        string        `mapstructure:"STORE_DRIVER"`
	JWTSecret          string        `mapstructure:"JWT_SECRET"`
	TokenTTL           time.Duration `mapstructure:"TOKEN_TTL"`
	RequestTimeout     time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ShutdownTimeout    time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	SeedOnStart        bool          `mapstructure:"SEED_ON_START"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	LogFormat          string        `mapstructure:"LOG_FORMAT"`
	MetricsEnabled     bool          `mapstructure:"METRICS_ENABLED"`
	CORSAllowedOrigins string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	PostmarkAPIToken   string        `mapstructure:"POSTMARK_API_TOKEN"`
	EmailSender        string        `mapstructure:"EMAIL_SENDER"`
}

var defaults = map[string]interface{}{
	"PORT":                 "5000",
	"MONGO_URI":            "mongodb://localhost:27017",
	"MONGO_DATABASE":       "agrimarket",
	"MONGO_TRANSACTIONS":   true,
	"STORE_DRIVER":         DriverMongo,
	"JWT_SECRET":           "",
	"TOKEN_TTL":            "1h",
	"REQUEST_TIMEOUT":      "5s",
	"SHUTDOWN_TIMEOUT":     "15s",
	"SEED_ON_START":        true,
	"LOG_LEVEL":            "info",
	"LOG_FORMAT":           "json",
	"METRICS_ENABLED":      true,
	"CORS_ALLOWED_ORIGINS": "*",
	"POSTMARK_API_TOKEN":   "",
	"EMAIL_SENDER":         "",
}

// Load reads .env files (if any) and the environment.
func Load(envFiles ...string) (*Config, error) {
	// a missing .env is fine, the environment may carry everything
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.StoreDriver != DriverMongo && c.StoreDriver != DriverMemory {
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverMongo, DriverMemory, c.StoreDriver)
	}
	if c.TokenTTL <= 0 || c.RequestTimeout <= 0 || c.ShutdownTimeout <= 0 {
		return errors.New("TOKEN_TTL, REQUEST_TIMEOUT and SHUTDOWN_TIMEOUT must be positive")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat)
	}
	return nil
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}
