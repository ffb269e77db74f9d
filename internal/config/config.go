// Package config handles configuration loading and validation for squid.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for squid.
type Config struct {
	Tables TablesConfig `mapstructure:"tables" yaml:"tables"`
	Output OutputConfig `mapstructure:"output" yaml:"output"`
	Query  QueryConfig  `mapstructure:"query" yaml:"query"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

// TablesConfig says where table files live and how they are named.
type TablesConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
	Ext string `mapstructure:"ext" yaml:"ext"`
}

// OutputConfig controls how query results are rendered.
type OutputConfig struct {
	Format      string `mapstructure:"format" yaml:"format"`
	MaxColWidth int    `mapstructure:"max_col_width" yaml:"max_col_width"`
}

// QueryConfig holds execution defaults applied when a plan leaves them out.
type QueryConfig struct {
	// DefaultLimit caps result rows for plans without an explicit limit.
	// Zero means unlimited.
	DefaultLimit int `mapstructure:"default_limit" yaml:"default_limit"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// Default configuration values
func defaultConfig() *Config {
	return &Config{
		Tables: TablesConfig{
			Dir: "./tables",
			Ext: ".table.json",
		},
		Output: OutputConfig{
			Format:      "table",
			MaxColWidth: 40,
		},
		Query: QueryConfig{
			DefaultLimit: 0,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads configuration from file and environment
func Load(configPath string) (*Config, error) {
	// A local .env may carry SQUID_ variables; missing files are fine.
	_ = godotenv.Load()

	v := viper.New()

	// Set defaults
	cfg := defaultConfig()
	v.SetDefault("tables.dir", cfg.Tables.Dir)
	v.SetDefault("tables.ext", cfg.Tables.Ext)
	v.SetDefault("output.format", cfg.Output.Format)
	v.SetDefault("output.max_col_width", cfg.Output.MaxColWidth)
	v.SetDefault("query.default_limit", cfg.Query.DefaultLimit)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.output", cfg.Log.Output)

	// Environment variable support
	v.SetEnvPrefix("SQUID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file if specified
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		// Search for config in common locations
		v.SetConfigName("squid")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.squid")

		// It's okay if no config file is found - we use defaults
		_ = v.ReadInConfig()
	}

	// Unmarshal into struct
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that configuration values are sensible
func (c *Config) Validate() error {
	if c.Tables.Dir == "" {
		return fmt.Errorf("tables.dir must not be empty")
	}

	if !strings.HasPrefix(c.Tables.Ext, ".") {
		return fmt.Errorf("tables.ext must begin with '.': %s", c.Tables.Ext)
	}

	validFormats := map[string]bool{"table": true, "csv": true, "json": true}
	if !validFormats[strings.ToLower(c.Output.Format)] {
		return fmt.Errorf("invalid output format: %s", c.Output.Format)
	}

	if c.Output.MaxColWidth < 4 {
		return fmt.Errorf("output.max_col_width must be at least 4")
	}

	if c.Query.DefaultLimit < 0 {
		return fmt.Errorf("query.default_limit must not be negative")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	validLogFormats := map[string]bool{"text": true, "json": true}
	if !validLogFormats[strings.ToLower(c.Log.Format)] {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}

	return nil
}

// ValidateTablesDir checks that the table directory exists and is usable.
func ValidateTablesDir(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return fmt.Errorf("tables directory does not exist: %s (run 'squid init' to create it)", dir)
	}
	if err != nil {
		return fmt.Errorf("cannot access tables directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("tables path is not a directory: %s", dir)
	}

	return nil
}

// InitTablesDir creates the table directory if it is missing.
func InitTablesDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create tables directory: %w", err)
	}

	return nil
}

const configHeader = `# squid configuration file
#
# Every key can also be set through a SQUID_-prefixed environment
# variable, e.g. SQUID_TABLES_DIR or SQUID_OUTPUT_FORMAT. Values in
# a local .env file are picked up as well.
#
# output.format:   table, csv or json
# log.level:       debug, info, warn or error
# log.format:      text or json
# log.output:      stderr, stdout or a file path

`

// WriteDefault writes a starter configuration file pointing at tablesDir.
func WriteDefault(path, tablesDir string) error {
	cfg := defaultConfig()
	cfg.Tables.Dir = tablesDir

	body, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode default config: %w", err)
	}

	content := append([]byte(configHeader), body...)
	return os.WriteFile(path, content, 0644)
}
