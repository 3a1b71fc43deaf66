package config

import (
	"fmt"
	"strings"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Session SessionConfig
	CORS    CORSConfig
	Log     LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type StorageConfig struct {
	// DataDir holds the lead database; ":memory:" keeps leads in process
	// memory only, which is the default deployment.
	DataDir string
}

type SessionConfig struct {
	// TTL and SweepInterval are duration strings ("30m", "1h") parsed at
	// startup.
	TTL           string
	SweepInterval string
}

type CORSConfig struct {
	// AllowedOrigins is a comma-separated origin list for the browser
	// front-end.
	AllowedOrigins string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Storage: StorageConfig{
			DataDir: ":memory:",
		},
		Session: SessionConfig{
			TTL:           "30m",
			SweepInterval: "5m",
		},
		CORS: CORSConfig{
			AllowedOrigins: "http://localhost:3000,http://127.0.0.1:3000",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults overridden by LEADBOT_*
// environment variables.
func Load() (Config, error) {
	cfg := defaults()
	applyEnvOverrides(&cfg)

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return Config{}, fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}
	return cfg, nil
}

// Origins splits the configured origin list, dropping empty entries.
func (c CORSConfig) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
