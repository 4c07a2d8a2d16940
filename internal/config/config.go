package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ConnectionConfig represents a pre-configured org session in the config file.
type ConnectionConfig struct {
	Name        string `yaml:"name"`
	Role        string `yaml:"role"` // "source" or "destination"
	InstanceURL string `yaml:"instance_url"`
	AccessToken string `yaml:"access_token"`
	APIVersion  string `yaml:"api_version"`
}

// Config holds all configuration (CLI flags + config file).
type Config struct {
	Listen      string
	DBPath      string
	APIVersion  string
	HTTPTimeout time.Duration
	Connections []ConnectionConfig

	// internal: path to config file (from CLI flag)
	configFile string
}

// Parse reads CLI flags, then overlays config file values.
// CLI flags take precedence over config file values.
func Parse() *Config {
	c := &Config{}
	flag.StringVar(&c.configFile, "config", "", "Path to config file (YAML)")
	flag.StringVar(&c.Listen, "listen", "", "HTTP listen address")
	flag.StringVar(&c.DBPath, "db", "", "Path to the history database")
	flag.StringVar(&c.APIVersion, "api-version", "", "Default Salesforce API version")
	flag.DurationVar(&c.HTTPTimeout, "http-timeout", 0, "Overall HTTP timeout per Salesforce call")
	flag.Parse()

	// Load config file if specified
	if c.configFile != "" {
		if err := c.loadFile(c.configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config file: %v\n", err)
			os.Exit(1)
		}
	}

	// Apply defaults for anything still unset
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.DBPath == "" {
		c.DBPath = "workbench.db"
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = 60 * time.Second
	}

	return c
}

// fileConfig is the YAML shape; the timeout is a duration string ("60s").
type fileConfig struct {
	Listen      string             `yaml:"listen"`
	DBPath      string             `yaml:"db_path"`
	APIVersion  string             `yaml:"api_version"`
	HTTPTimeout string             `yaml:"http_timeout"`
	Connections []ConnectionConfig `yaml:"connections"`
}

// loadFile reads a YAML config file. Values from the file are only applied
// if the corresponding CLI flag was not explicitly set.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if c.Listen == "" && file.Listen != "" {
		c.Listen = file.Listen
	}
	if c.DBPath == "" && file.DBPath != "" {
		c.DBPath = file.DBPath
	}
	if c.APIVersion == "" && file.APIVersion != "" {
		c.APIVersion = file.APIVersion
	}
	if c.HTTPTimeout == 0 && file.HTTPTimeout != "" {
		d, err := time.ParseDuration(file.HTTPTimeout)
		if err != nil {
			return fmt.Errorf("parsing http_timeout: %w", err)
		}
		c.HTTPTimeout = d
	}

	// Connections always come from config file
	c.Connections = file.Connections

	return nil
}
