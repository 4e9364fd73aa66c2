package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/ini.v1"

	"filexfer/protocol"
)

// ServerConfig holds the listener settings
type ServerConfig struct {
	Host        string `ini:"host"`
	Port        int    `ini:"port"`
	BufferSize  int    `ini:"buffer_size"`
	BaseDir     string `ini:"base_dir"`
	LogLevel    string `ini:"log_level"`
	MetricsFile string `ini:"metrics_file"`
}

// DefaultServerConfig returns localhost:8080 with a 1024-byte request buffer
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:       protocol.DefaultHost,
		Port:       protocol.DefaultPort,
		BufferSize: protocol.RequestBufferSize,
		LogLevel:   "info",
	}
}

// Address returns host:port
func (c *ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate checks the configuration before the listener starts
func (c *ServerConfig) Validate() error {
	// port 0 lets the OS pick, used by tests
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid listen port: %d (must be 0-65535)", c.Port)
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("invalid buffer size: %d", c.BufferSize)
	}
	if c.BaseDir != "" {
		info, err := os.Stat(c.BaseDir)
		if err != nil {
			return fmt.Errorf("base directory does not exist: %s", c.BaseDir)
		}
		if !info.IsDir() {
			return fmt.Errorf("base directory is not a directory: %s", c.BaseDir)
		}
	}
	return nil
}

// LoadIni reads an ini file on top of cfg, then applies environment overrides
func LoadIni(cfg *ServerConfig, fileName string) error {
	iniFile, err := ini.Load(fileName)
	if err != nil {
		return fmt.Errorf("failed to load config %s: %w", fileName, err)
	}
	if err := iniFile.Section("server").MapTo(cfg); err != nil {
		return fmt.Errorf("failed to map config %s: %w", fileName, err)
	}
	ApplyEnv(cfg)
	return nil
}

// ApplyEnv overrides host and port from FILEXFER_HOST and FILEXFER_PORT
func ApplyEnv(cfg *ServerConfig) {
	overrideFromEnv(&cfg.Host, "FILEXFER_HOST")
	overrideFromEnvInt(&cfg.Port, "FILEXFER_PORT")
}

func overrideFromEnv(target *string, envName string) {
	if envValue := os.Getenv(envName); envValue != "" {
		*target = envValue
	}
}

func overrideFromEnvInt(target *int, envName string) {
	envValue := os.Getenv(envName)
	if envValue != "" {
		if intValue, err := strconv.Atoi(envValue); err == nil {
			*target = intValue
		}
	}
}

// ClientConfig holds the requester settings
type ClientConfig struct {
	Address string // Example: "localhost:8080"
	Timeout time.Duration
	Retries int
}

// DefaultClientConfig returns a client aimed at the default listener
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Address: net.JoinHostPort(protocol.DefaultHost, strconv.Itoa(protocol.DefaultPort)),
		Timeout: 30 * time.Second,
		Retries: 1,
	}
}

// Validate checks the client configuration
func (c *ClientConfig) Validate() error {
	if _, _, err := net.SplitHostPort(c.Address); err != nil {
		return fmt.Errorf("invalid address %q: %w", c.Address, err)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout: %v", c.Timeout)
	}
	if c.Retries < 1 {
		return fmt.Errorf("retries must be at least 1, got %d", c.Retries)
	}
	return nil
}
