package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Service       ServiceConfig  `toml:"service"`
	Server        ServerConfig   `toml:"server"`
	Notifications NotifyConfig   `toml:"notifications"`
	Calendar      CalendarConfig `toml:"calendar"`
}

type ServiceConfig struct {
	BaseURL  string `toml:"base_url"`
	Employee string `toml:"employee"`
}

type ServerConfig struct {
	Addr            string `toml:"addr"`
	DBPath          string `toml:"db_path"`
	DefaultEmployee string `toml:"default_employee"`
}

type NotifyConfig struct {
	Enabled    bool   `toml:"enabled"`
	RemindDay  string `toml:"remind_day"`
	RemindTime string `toml:"remind_time"`
}

type CalendarConfig struct {
	Name string `toml:"name"`
}

func DefaultConfig() Config {
	return Config{
		Service: ServiceConfig{
			BaseURL: "http://localhost:8391",
		},
		Server: ServerConfig{
			Addr:            ":8391",
			DefaultEmployee: "EMP-0001",
		},
		Notifications: NotifyConfig{
			Enabled:    true,
			RemindDay:  "Friday",
			RemindTime: "16:00",
		},
		Calendar: CalendarConfig{
			Name: "Timesheet",
		},
	}
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "weeklog"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			applyEnvOverrides(&cfg)
			return &cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WEEKLOG_BASE_URL"); v != "" {
		cfg.Service.BaseURL = v
	}
	if v := os.Getenv("WEEKLOG_EMPLOYEE"); v != "" {
		cfg.Service.Employee = v
	}
	if v := os.Getenv("WEEKLOG_DB_PATH"); v != "" {
		cfg.Server.DBPath = v
	}
}

func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// Save writes the full config back to disk.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	out, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, out, 0644)
}
