package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Sandbox SandboxConfig `mapstructure:"sandbox"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Transport string `mapstructure:"transport"`
	HTTPPort  int    `mapstructure:"http_port"`
}

// SandboxConfig holds the execution pipeline configuration
type SandboxConfig struct {
	EntryPoint        string   `mapstructure:"entry_point"`
	AmbientPrimitives []string `mapstructure:"ambient_primitives"`
	Target            string   `mapstructure:"target"`
	MaxRenderPasses   int      `mapstructure:"max_render_passes"`
	TimeoutSec        int      `mapstructure:"timeout_sec"`
	ConsoleBuffer     int      `mapstructure:"console_buffer"`
	WindowWidth       int      `mapstructure:"window_width"`
	WindowHeight      int      `mapstructure:"window_height"`
	FetchEnabled      bool     `mapstructure:"fetch_enabled"`
	FetchTimeoutSec   int      `mapstructure:"fetch_timeout_sec"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

// DefaultAmbientPrimitives are the hooks every snippet can use without importing them.
var DefaultAmbientPrimitives = []string{"useState", "useEffect", "useCallback", "useMemo", "useContext"}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

var supportedTargets = map[string]bool{
	"es2015": true,
	"es2016": true,
	"es2017": true,
	"es2018": true,
	"es2019": true,
	"es2020": true,
}

// New loads and validates the application configuration
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("HOOKLAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// If config file not found, continue with defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

// Default returns the configuration New would produce without a config file.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	// Defaults are plain values; decoding them cannot fail.
	_ = v.Unmarshal(&config)
	return &config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.transport", "stdio")
	v.SetDefault("server.http_port", 8080)

	v.SetDefault("sandbox.entry_point", "Component")
	v.SetDefault("sandbox.ambient_primitives", DefaultAmbientPrimitives)
	v.SetDefault("sandbox.target", "es2017")
	v.SetDefault("sandbox.max_render_passes", 50)
	v.SetDefault("sandbox.timeout_sec", 0)
	v.SetDefault("sandbox.console_buffer", 200)
	v.SetDefault("sandbox.window_width", 1024)
	v.SetDefault("sandbox.window_height", 768)
	v.SetDefault("sandbox.fetch_enabled", false)
	v.SetDefault("sandbox.fetch_timeout_sec", 10)

	v.SetDefault("logging.mode", "production")
	v.SetDefault("logging.level", "info")
}

// validate ensures the configuration is valid
func (c *Config) validate() error {
	if c.Server.Transport != "stdio" && c.Server.Transport != "http" {
		return fmt.Errorf("invalid server.transport: %s, must be 'stdio' or 'http'", c.Server.Transport)
	}

	if c.Server.Transport == "http" && (c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535) {
		return fmt.Errorf("invalid server.http_port: %d", c.Server.HTTPPort)
	}

	if !identifierPattern.MatchString(c.Sandbox.EntryPoint) {
		return fmt.Errorf("sandbox.entry_point must be a valid identifier, got: %q", c.Sandbox.EntryPoint)
	}

	for _, name := range c.Sandbox.AmbientPrimitives {
		if !identifierPattern.MatchString(name) {
			return fmt.Errorf("sandbox.ambient_primitives contains an invalid identifier: %q", name)
		}
	}

	if !supportedTargets[c.Sandbox.Target] {
		return fmt.Errorf("unsupported sandbox.target: %s", c.Sandbox.Target)
	}

	if c.Sandbox.MaxRenderPasses <= 0 {
		return fmt.Errorf("sandbox.max_render_passes must be positive, got: %d", c.Sandbox.MaxRenderPasses)
	}

	if c.Sandbox.TimeoutSec < 0 {
		return fmt.Errorf("sandbox.timeout_sec must not be negative, got: %d", c.Sandbox.TimeoutSec)
	}

	if c.Sandbox.ConsoleBuffer <= 0 {
		return fmt.Errorf("sandbox.console_buffer must be positive, got: %d", c.Sandbox.ConsoleBuffer)
	}

	if c.Sandbox.WindowWidth <= 0 || c.Sandbox.WindowHeight <= 0 {
		return fmt.Errorf("sandbox window size must be positive, got: %dx%d", c.Sandbox.WindowWidth, c.Sandbox.WindowHeight)
	}

	if c.Sandbox.FetchEnabled && c.Sandbox.FetchTimeoutSec <= 0 {
		return fmt.Errorf("sandbox.fetch_timeout_sec must be positive when fetch is enabled, got: %d", c.Sandbox.FetchTimeoutSec)
	}

	validModes := map[string]bool{"production": true, "development": true}
	if !validModes[c.Logging.Mode] {
		return fmt.Errorf("invalid logging.mode: %s, must be 'production' or 'development'", c.Logging.Mode)
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
		"dpanic": true, "panic": true, "fatal": true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	return nil
}

// GetTimeout returns the execution timeout as a duration; zero means no timeout
func (c *Config) GetTimeout() time.Duration {
	return time.Duration(c.Sandbox.TimeoutSec) * time.Second
}

// GetFetchTimeout returns the timeout applied to each fetch call made by user code
func (c *Config) GetFetchTimeout() time.Duration {
	return time.Duration(c.Sandbox.FetchTimeoutSec) * time.Second
}
