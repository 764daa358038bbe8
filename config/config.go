package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. COMPILEBOX_SANDBOX_BACKEND.
const EnvPrefix = "COMPILEBOX"

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Sandbox   SandboxConfig   `mapstructure:"sandbox" yaml:"sandbox"`
	Workspace WorkspaceConfig `mapstructure:"workspace" yaml:"workspace"`
	Toolchain ToolchainConfig `mapstructure:"toolchain" yaml:"toolchain"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Transport string `mapstructure:"transport" yaml:"transport"`
	HTTPPort  int    `mapstructure:"http_port" yaml:"http_port"`
}

// SandboxConfig holds the compile/execute budgets and backend selection
type SandboxConfig struct {
	Backend           string `mapstructure:"backend" yaml:"backend"`
	CompileTimeoutSec int    `mapstructure:"compile_timeout_sec" yaml:"compile_timeout_sec"`
	ExecuteTimeoutSec int    `mapstructure:"execute_timeout_sec" yaml:"execute_timeout_sec"`
	MaxConcurrent     int    `mapstructure:"max_concurrent" yaml:"max_concurrent"`
	MaxOutputBytes    int    `mapstructure:"max_output_bytes" yaml:"max_output_bytes"`
	Locale            string `mapstructure:"locale" yaml:"locale"`

	// Container backends only.
	MemoryMB       int    `mapstructure:"memory_mb" yaml:"memory_mb"`
	NetworkEnabled bool   `mapstructure:"network_enabled" yaml:"network_enabled"`
	ContainerImage string `mapstructure:"container_image" yaml:"container_image"`
}

// WorkspaceConfig holds the per-language workspace roots
type WorkspaceConfig struct {
	CRoot    string `mapstructure:"c_root" yaml:"c_root"`
	JavaRoot string `mapstructure:"java_root" yaml:"java_root"`
}

// ToolchainConfig holds the external compiler and runtime settings
type ToolchainConfig struct {
	CPP  CPPToolchain  `mapstructure:"cpp" yaml:"cpp"`
	Java JavaToolchain `mapstructure:"java" yaml:"java"`
}

// CPPToolchain holds C-family compiler configuration
type CPPToolchain struct {
	Compiler      string   `mapstructure:"compiler" yaml:"compiler"`
	StdFlag       string   `mapstructure:"std_flag" yaml:"std_flag"`
	ExecutableExt string   `mapstructure:"executable_ext" yaml:"executable_ext"`
	Environment   []string `mapstructure:"environment" yaml:"environment"`
}

// JavaToolchain holds Java compiler and runtime configuration
type JavaToolchain struct {
	Compiler    string   `mapstructure:"compiler" yaml:"compiler"`
	Runtime     string   `mapstructure:"runtime" yaml:"runtime"`
	Encoding    string   `mapstructure:"encoding" yaml:"encoding"`
	Environment []string `mapstructure:"environment" yaml:"environment"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Mode  string `mapstructure:"mode" yaml:"mode"`
	Level string `mapstructure:"level" yaml:"level"`
}

// New loads and validates the application configuration from the default search paths
func New() (*Config, error) {
	return Load("")
}

// Load reads configuration from path, or from ./config.yaml and ./config/config.yaml
// when path is empty. A missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
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

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.transport", "stdio")
	v.SetDefault("server.http_port", 8080)

	v.SetDefault("sandbox.backend", "local")
	v.SetDefault("sandbox.compile_timeout_sec", 30)
	v.SetDefault("sandbox.execute_timeout_sec", 10)
	v.SetDefault("sandbox.max_concurrent", 0)
	v.SetDefault("sandbox.max_output_bytes", 1<<20)
	v.SetDefault("sandbox.locale", "en")
	v.SetDefault("sandbox.memory_mb", 512)
	v.SetDefault("sandbox.network_enabled", false)
	v.SetDefault("sandbox.container_image", "compilebox-toolchain:latest")

	v.SetDefault("workspace.c_root", "temp_C")
	v.SetDefault("workspace.java_root", "temp_java")

	// C++ defaults
	v.SetDefault("toolchain.cpp.compiler", "g++")
	v.SetDefault("toolchain.cpp.std_flag", "-std=c++11")
	v.SetDefault("toolchain.cpp.executable_ext", ".exe")
	v.SetDefault("toolchain.cpp.environment", []string{})

	// Java defaults
	v.SetDefault("toolchain.java.compiler", "javac")
	v.SetDefault("toolchain.java.runtime", "java")
	v.SetDefault("toolchain.java.encoding", "UTF-8")
	v.SetDefault("toolchain.java.environment", []string{})

	v.SetDefault("logging.mode", "production")
	v.SetDefault("logging.level", "info")
}

// supportedLocales mirrors the message catalogs shipped by the sandbox package.
var supportedLocales = map[string]bool{
	"en": true,
	"zh": true,
}

// validate ensures the configuration is valid
func (c *Config) validate() error {
	switch c.Server.Transport {
	case "stdio", "http", "rest":
	default:
		return fmt.Errorf("invalid server.transport: %s, must be 'stdio', 'http' or 'rest'", c.Server.Transport)
	}

	if c.Server.Transport != "stdio" && (c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535) {
		return fmt.Errorf("invalid server.http_port: %d", c.Server.HTTPPort)
	}

	if c.Sandbox.CompileTimeoutSec <= 0 {
		return fmt.Errorf("sandbox.compile_timeout_sec must be positive, got: %d", c.Sandbox.CompileTimeoutSec)
	}

	if c.Sandbox.ExecuteTimeoutSec <= 0 {
		return fmt.Errorf("sandbox.execute_timeout_sec must be positive, got: %d", c.Sandbox.ExecuteTimeoutSec)
	}

	if c.Sandbox.MaxConcurrent < 0 {
		return fmt.Errorf("sandbox.max_concurrent must not be negative, got: %d", c.Sandbox.MaxConcurrent)
	}

	if c.Sandbox.MaxOutputBytes < 0 {
		return fmt.Errorf("sandbox.max_output_bytes must not be negative, got: %d", c.Sandbox.MaxOutputBytes)
	}

	if !supportedLocales[c.Sandbox.Locale] {
		return fmt.Errorf("unsupported sandbox.locale: %s", c.Sandbox.Locale)
	}

	switch c.Sandbox.Backend {
	case "local":
	case "docker", "podman":
		if c.Sandbox.MemoryMB <= 0 {
			return fmt.Errorf("sandbox.memory_mb must be positive, got: %d", c.Sandbox.MemoryMB)
		}
		if c.Sandbox.ContainerImage == "" {
			return fmt.Errorf("sandbox.container_image is required for backend %s", c.Sandbox.Backend)
		}
	default:
		return fmt.Errorf("unsupported sandbox.backend: %s", c.Sandbox.Backend)
	}

	if c.Workspace.CRoot == "" || c.Workspace.JavaRoot == "" {
		return fmt.Errorf("workspace.c_root and workspace.java_root must be set")
	}

	if c.Toolchain.CPP.Compiler == "" {
		return fmt.Errorf("toolchain.cpp.compiler must be set")
	}

	if c.Toolchain.Java.Compiler == "" || c.Toolchain.Java.Runtime == "" {
		return fmt.Errorf("toolchain.java.compiler and toolchain.java.runtime must be set")
	}

	for _, kv := range append(append([]string{}, c.Toolchain.CPP.Environment...), c.Toolchain.Java.Environment...) {
		if !strings.Contains(kv, "=") || strings.HasPrefix(kv, "=") {
			return fmt.Errorf("invalid toolchain environment entry: %q, must be KEY=VALUE", kv)
		}
	}

	switch c.Logging.Mode {
	case "production", "development":
	default:
		return fmt.Errorf("invalid logging.mode: %s, must be 'production' or 'development'", c.Logging.Mode)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error", "dpanic", "panic", "fatal":
	default:
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	return nil
}

// CompileTimeout returns the compile budget as a duration
func (c *Config) CompileTimeout() time.Duration {
	return time.Duration(c.Sandbox.CompileTimeoutSec) * time.Second
}

// ExecuteTimeout returns the execute budget as a duration
func (c *Config) ExecuteTimeout() time.Duration {
	return time.Duration(c.Sandbox.ExecuteTimeoutSec) * time.Second
}
