package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"reelpublisher/internal/core/domain"
)

type Config struct {
	AccessToken     string
	UserID          string
	AppSecret       string
	GraphBaseURL    string
	ProbeTimeout    time.Duration
	APIWriteTimeout time.Duration
	APIReadTimeout  time.Duration
	Poll            domain.PollPolicy
	LogLevel        string
	LogFormat       string
}

func Load() Config {
	def := domain.DefaultPollPolicy()
	return Config{
		AccessToken:     getEnv("ACCESS_TOKEN", ""),
		UserID:          getEnv("IG_USER_ID", ""),
		AppSecret:       getEnv("APP_SECRET", ""),
		GraphBaseURL:    getEnv("GRAPH_API_BASE", "https://graph.facebook.com/v23.0"),
		ProbeTimeout:    getEnvDuration("PROBE_TIMEOUT", 20*time.Second),
		APIWriteTimeout: getEnvDuration("API_WRITE_TIMEOUT", 120*time.Second),
		APIReadTimeout:  getEnvDuration("API_READ_TIMEOUT", 60*time.Second),
		Poll: domain.PollPolicy{
			InitialInterval: getEnvDuration("POLL_INITIAL", def.InitialInterval),
			MaxInterval:     getEnvDuration("POLL_MAX", def.MaxInterval),
			Multiplier:      getEnvFloat("POLL_MULTIPLIER", def.Multiplier),
			MaxWait:         getEnvDuration("POLL_MAX_WAIT", def.MaxWait),
		},
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}
}

// Validate reports every missing required key at once.
func (c Config) Validate() error {
	var missing []string
	if c.AccessToken == "" {
		missing = append(missing, "ACCESS_TOKEN")
	}
	if c.UserID == "" {
		missing = append(missing, "IG_USER_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrConfigMissing, strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 1 {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
