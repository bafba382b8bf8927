package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	UI        UIConfig        `mapstructure:"ui"`
	Reports   ReportsConfig   `mapstructure:"reports"`
	Log       LogConfig       `mapstructure:"log"`
	DevServer DevServerConfig `mapstructure:"devserver"`
}

// APIConfig points the client at a backend.
type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	DateFormat     string `mapstructure:"date_format"`
	CurrencySymbol string `mapstructure:"currency_symbol"`
	Timezone       string `mapstructure:"timezone"`
}

// ReportsConfig says where downloaded PDFs land.
type ReportsConfig struct {
	Dir string `mapstructure:"dir"`
}

// LogConfig holds the log file and level.
type LogConfig struct {
	Path  string `mapstructure:"path"`
	Level string `mapstructure:"level"`
}

// DevServerConfig holds settings for the local stub backend.
type DevServerConfig struct {
	Addr         string `mapstructure:"addr"`
	DatabasePath string `mapstructure:"database_path"`
}

// DefaultPath is the config file used when neither a flag nor
// FINPLAN_CONFIG names one.
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "finplan", "config.toml")
}

func resolvePath(path string) string {
	if path != "" {
		return path
	}
	if env := os.Getenv("FINPLAN_CONFIG"); env != "" {
		return env
	}
	return DefaultPath()
}

func setDefaults(v *viper.Viper) {
	share := filepath.Join(os.Getenv("HOME"), ".local", "share", "finplan")
	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("ui.date_format", "02/01/2006")
	v.SetDefault("ui.currency_symbol", "$")
	v.SetDefault("ui.timezone", "Local")
	v.SetDefault("reports.dir", filepath.Join(os.Getenv("HOME"), "Downloads"))
	v.SetDefault("log.path", filepath.Join(share, "finplan.log"))
	v.SetDefault("log.level", "info")
	v.SetDefault("devserver.addr", ":8080")
	v.SetDefault("devserver.database_path", filepath.Join(share, "devserver.db"))
}

// Load reads configuration from file and env. path wins over FINPLAN_CONFIG;
// a missing file is not an error. Env var overrides use prefix FINPLAN_.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	v.SetConfigFile(resolvePath(path))

	v.SetEnvPrefix("FINPLAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(v.ConfigFileUsed()); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.API.BaseURL = strings.TrimSpace(c.API.BaseURL); c.API.BaseURL == "" {
		return Config{}, fmt.Errorf("config: api.base_url is empty")
	}
	return c, nil
}

// Save writes the non-sensitive settings to path (or the resolved default),
// creating the config directory if needed.
func Save(path string, cfg Config) error {
	path = resolvePath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("api.base_url", cfg.API.BaseURL)
	v.Set("ui.date_format", cfg.UI.DateFormat)
	v.Set("ui.currency_symbol", cfg.UI.CurrencySymbol)
	v.Set("ui.timezone", cfg.UI.Timezone)
	v.Set("reports.dir", cfg.Reports.Dir)
	v.Set("log.path", cfg.Log.Path)
	v.Set("log.level", cfg.Log.Level)
	v.Set("devserver.addr", cfg.DevServer.Addr)
	v.Set("devserver.database_path", cfg.DevServer.DatabasePath)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
