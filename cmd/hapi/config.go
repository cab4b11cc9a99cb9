package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the hapi configuration file (~/.config/hapi/config.yaml).
// Empty strings and nil pointers mean "not set".
type Config struct {
	// Extraction
	OutputDir string `yaml:"output_dir"`
	Overwrite *bool  `yaml:"overwrite"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "hapi", "config.yaml")
}

// applyExtractConfig applies config file defaults to extract command
// variables when the corresponding CLI flag was not explicitly set.
func applyExtractConfig(c *cli.Command, cfg Config, overwrite *bool) {
	if cfg.Overwrite != nil && !c.IsSet("overwrite") {
		*overwrite = *cfg.Overwrite
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}

// LoadConfig reads the config file. Returns a zero Config if the file doesn't exist.
func LoadConfig() Config {
	return loadConfigFile(configPath())
}

func loadConfigFile(path string) Config {
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}
