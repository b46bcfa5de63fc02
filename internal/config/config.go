package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	DatabaseURL         string        `mapstructure:"DATABASE_URL"`
	DatabaseReplicaURLs string        `mapstructure:"DATABASE_REPLICA_URLS"`
	JWTSecret           string        `mapstructure:"JWT_SECRET"`
	JWTTTL              time.Duration `mapstructure:"JWT_TTL"`
	Port                string        `mapstructure:"PORT"`
	FrontendURL         string        `mapstructure:"FRONTEND_URL"`
	RedisAddr           string        `mapstructure:"REDIS_ADDR"`
	RedisPassword       string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB             int           `mapstructure:"REDIS_DB"`
	StatsCacheTTL       time.Duration `mapstructure:"STATS_CACHE_TTL"`
	LogLevel            string        `mapstructure:"LOG_LEVEL"`
	GinMode             string        `mapstructure:"GIN_MODE"`
}

var AppConfig *Config

var defaults = map[string]any{
	"DATABASE_URL":          "host=localhost user=postgres password=postgres dbname=abbey port=5432 sslmode=disable TimeZone=UTC",
	"DATABASE_REPLICA_URLS": "",
	"JWT_SECRET":            "",
	"JWT_TTL":               "168h",
	"PORT":                  "5000",
	"FRONTEND_URL":          "http://localhost:3000",
	"REDIS_ADDR":            "",
	"REDIS_PASSWORD":        "",
	"REDIS_DB":              0,
	"STATS_CACHE_TTL":       "30s",
	"LOG_LEVEL":             "info",
	"GIN_MODE":              "debug",
}

// LoadConfig loads the configuration from a .env file in dir and from
// environment variables, which take precedence.
func LoadConfig(dir string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	// Keys must be known to viper for Unmarshal to see env-only values.
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Println("Warning: .env file not found, loading from environment variables")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set")
	}

	AppConfig = &cfg
	return &cfg, nil
}

// ReplicaURLs splits DATABASE_REPLICA_URLS into individual DSNs.
func (c *Config) ReplicaURLs() []string {
	var urls []string
	for _, dsn := range strings.Split(c.DatabaseReplicaURLs, ",") {
		if dsn = strings.TrimSpace(dsn); dsn != "" {
			urls = append(urls, dsn)
		}
	}
	return urls
}
