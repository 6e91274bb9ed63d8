package config

import (
	"fmt"
	"os"
	"time"

	"github.com/okamoto/ackchat/pkg/protocol"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Client  ClientConfig  `yaml:"client"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig contains TCP server settings
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Backlog         int           `yaml:"backlog"`
	BufferSize      int           `yaml:"buffer_size"`
	ReuseAddr       bool          `yaml:"reuse_addr"`
	ReusePort       bool          `yaml:"reuse_port"`
	KeepAlive       bool          `yaml:"keep_alive"`
	KeepAlivePeriod time.Duration `yaml:"keep_alive_period"`
}

// ClientConfig contains TCP client settings
type ClientConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	BufferSize int    `yaml:"buffer_size"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `yaml:"level"`       // debug, info, warn, error
	Format     string `yaml:"format"`      // json, console
	OutputPath string `yaml:"output_path"` // stdout, stderr, or file path
}

// Load reads and parses the configuration file. Keys missing from the file
// keep their Default values. Each binary validates only its own section, so
// the result is returned unvalidated.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads configPath, or returns Default when configPath is empty
func LoadOrDefault(configPath string) (*Config, error) {
	if configPath == "" {
		return Default(), nil
	}
	return Load(configPath)
}

// ValidateServer checks the server and logging sections. The listen address
// is not checked here: BindAndListen reports it as a bind error.
func (c *Config) ValidateServer() error {
	if c.Server.Backlog <= 0 {
		return fmt.Errorf("invalid configuration: server backlog must be positive")
	}

	if c.Server.BufferSize < protocol.MinBufferSize {
		return fmt.Errorf("invalid configuration: server buffer size must be at least %d", protocol.MinBufferSize)
	}

	return c.validateLogging()
}

// ValidateClient checks the client and logging sections. The server address
// is left to ConnectTo, which reports it as a connect error.
func (c *Config) ValidateClient() error {
	if c.Client.BufferSize < protocol.MinBufferSize {
		return fmt.Errorf("invalid configuration: client buffer size must be at least %d", protocol.MinBufferSize)
	}

	return c.validateLogging()
}

func (c *Config) validateLogging() error {
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid configuration: log level: %w", err)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid configuration: log format %q", c.Logging.Format)
	}

	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            protocol.Wildcard,
			Port:            protocol.DefaultPort,
			Backlog:         3,
			BufferSize:      protocol.DefaultBufferSize,
			ReuseAddr:       true,
			ReusePort:       true,
			KeepAlive:       true,
			KeepAlivePeriod: 60 * time.Second,
		},
		Client: ClientConfig{
			Host:       protocol.Loopback,
			Port:       protocol.DefaultPort,
			BufferSize: protocol.DefaultBufferSize,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stderr",
		},
	}
}
