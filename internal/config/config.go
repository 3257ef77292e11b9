// Package config loads handreplay settings from an HCL file.
package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/handreplay/internal/equity"
	"github.com/lox/handreplay/internal/splitter"
)

// Config is the complete configuration.
type Config struct {
	LogLevel         string          `hcl:"log_level,optional"`
	Workers          int             `hcl:"workers,optional"`
	MinFragmentBytes int             `hcl:"min_fragment_bytes,optional"`
	Equity           *EquitySettings `hcl:"equity,block"`
	Server           *ServerSettings `hcl:"server,block"`
}

// EquitySettings bounds equity estimates.
type EquitySettings struct {
	Iterations int    `hcl:"iterations,optional"`
	Timeout    string `hcl:"timeout,optional"`
	Seed       int64  `hcl:"seed,optional"`
	Range      string `hcl:"range,optional"`
}

// ServerSettings configures the HTTP service.
type ServerSettings struct {
	Address      string `hcl:"address,optional"`
	Port         int    `hcl:"port,optional"`
	MaxBodyBytes int64  `hcl:"max_body_bytes,optional"`
}

const (
	defaultAddress      = "localhost"
	defaultPort         = 8080
	defaultMaxBodyBytes = 8 << 20
)

// Default returns the configuration used when no file exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads filename. A missing file yields the defaults.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(src, filename)
}

// Parse decodes HCL source, applies defaults and validates the result.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.MinFragmentBytes == 0 {
		c.MinFragmentBytes = splitter.DefaultMinBytes
	}

	if c.Equity == nil {
		c.Equity = &EquitySettings{}
	}
	if c.Equity.Iterations == 0 {
		c.Equity.Iterations = equity.DefaultIterations
	}
	if c.Equity.Timeout == "" {
		c.Equity.Timeout = equity.DefaultTimeout.String()
	}
	if c.Equity.Range == "" {
		c.Equity.Range = "random"
	}

	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Server.Address == "" {
		c.Server.Address = defaultAddress
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = defaultMaxBodyBytes
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.MinFragmentBytes < 1 {
		return fmt.Errorf("min_fragment_bytes must be positive, got %d", c.MinFragmentBytes)
	}
	if c.Equity.Iterations < 1 {
		return fmt.Errorf("equity: iterations must be positive, got %d", c.Equity.Iterations)
	}
	if d, err := time.ParseDuration(c.Equity.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("equity: invalid timeout %q", c.Equity.Timeout)
	}
	if _, err := equity.ParseRange(c.Equity.Range); err != nil {
		return fmt.Errorf("equity: %w", err)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server: invalid port: %d", c.Server.Port)
	}
	if c.Server.MaxBodyBytes < 1 {
		return fmt.Errorf("server: max_body_bytes must be positive")
	}
	return nil
}

// EquityTimeout returns the parsed equity budget.
func (c *Config) EquityTimeout() time.Duration {
	d, err := time.ParseDuration(c.Equity.Timeout)
	if err != nil {
		return equity.DefaultTimeout
	}
	return d
}

// ServerAddress returns the listen address.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
