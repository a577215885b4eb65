package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"server"`
	Pool struct {
		StateFile string `yaml:"state_file"`
	} `yaml:"pool"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Settlement struct {
		BaseURL   string `yaml:"base_url"`
		APIKey    string `yaml:"api_key"`
		BatchSize int    `yaml:"batch_size"`
	} `yaml:"settlement"`
	Notify struct {
		WebhookURL string `yaml:"webhook_url"`
	} `yaml:"notify"`
	Schedule struct {
		SettleCron string `yaml:"settle_cron"`
		ReportCron string `yaml:"report_cron"`
	} `yaml:"schedule"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("POOL_STATE_FILE"); v != "" {
		cfg.Pool.StateFile = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("SETTLEMENT_BASE_URL"); v != "" {
		cfg.Settlement.BaseURL = v
	}
	if v := os.Getenv("SETTLEMENT_API_KEY"); v != "" {
		cfg.Settlement.APIKey = v
	}
	if v := os.Getenv("WEBHOOK_URL"); v != "" {
		cfg.Notify.WebhookURL = v
	}
	if v := os.Getenv("CRON_SETTLE"); v != "" {
		cfg.Schedule.SettleCron = v
	}
	if v := os.Getenv("CRON_REPORT"); v != "" {
		cfg.Schedule.ReportCron = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8085"
	}
	if cfg.Pool.StateFile == "" {
		cfg.Pool.StateFile = "data/pool_state.json"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/matching_pool.db"
	}
	if cfg.Settlement.BatchSize <= 0 {
		cfg.Settlement.BatchSize = 50
	}
	if cfg.Schedule.SettleCron == "" {
		cfg.Schedule.SettleCron = "0 */5 * * * *"
	}
	if cfg.Schedule.ReportCron == "" {
		cfg.Schedule.ReportCron = "0 0 8 * * *"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}
	if c.Pool.StateFile == "" {
		return fmt.Errorf("pool.state_file is required")
	}
	if c.Settlement.BaseURL == "" && c.Settlement.APIKey != "" {
		return fmt.Errorf("settlement.api_key set without settlement.base_url")
	}
	return nil
}
