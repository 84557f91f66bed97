package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	Publish   PublishConfig   `yaml:"publish"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"` // "stdio" or "http"
}

type AuthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

// PublishConfig is the external publish target. Absence of either Token
// or Repository disables publishing without error.
type PublishConfig struct {
	Token      string `yaml:"token"`
	Repository string `yaml:"repository"`
	Branch     string `yaml:"branch"`
	Path       string `yaml:"path"`
}

// Configured reports whether external publishing is enabled.
func (p PublishConfig) Configured() bool {
	return p.Token != "" && p.Repository != ""
}

type PipelineConfig struct {
	// Active enables ingestion-triggered drains.
	Active bool `yaml:"active"`
	// MaxRetries bounds caller-driven retry on explicit publish triggers.
	MaxRetries int `yaml:"max_retries"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "mongoose.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: "stdio",
		},
		Publish: PublishConfig{
			Branch: "main",
			Path:   "mongoose/activity_log.json",
		},
		Pipeline: PipelineConfig{
			Active:     true,
			MaxRetries: 3,
		},
	}

	if path := os.Getenv("MONGOOSE_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("MONGOOSE_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("MONGOOSE_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MONGOOSE_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("MONGOOSE_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("MONGOOSE_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if mode := os.Getenv("MONGOOSE_TRANSPORT_MODE"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if token := os.Getenv("MONGOOSE_AUTH_TOKEN"); token != "" {
		cfg.Auth.Enabled = true
		cfg.Auth.Token = token
	}
	if token := os.Getenv("MONGOOSE_PUBLISH_TOKEN"); token != "" {
		cfg.Publish.Token = token
	}
	if repo := os.Getenv("MONGOOSE_PUBLISH_REPOSITORY"); repo != "" {
		cfg.Publish.Repository = repo
	}
	if branch := os.Getenv("MONGOOSE_PUBLISH_BRANCH"); branch != "" {
		cfg.Publish.Branch = branch
	}
	if path := os.Getenv("MONGOOSE_PUBLISH_PATH"); path != "" {
		cfg.Publish.Path = path
	}
	if active := os.Getenv("MONGOOSE_PIPELINE_ACTIVE"); active != "" {
		val, err := strconv.ParseBool(active)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MONGOOSE_PIPELINE_ACTIVE: %w", err)
		}
		cfg.Pipeline.Active = val
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
