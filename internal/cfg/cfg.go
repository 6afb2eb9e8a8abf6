package cfg

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"cardiopredict/internal/common"
)

type Settings struct {
	Host           string
	Port           int
	ModelPath      string
	DeployRoot     string
	DataPath       string
	PredictTimeout time.Duration
	FetchTimeout   time.Duration
	Monitoring     bool
	DashboardPort  int
	LogLevel       string
}

type ConfigFile struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	Model struct {
		Path           string `yaml:"path"`
		DeployRoot     string `yaml:"deployRoot"`
		PredictTimeout string `yaml:"predictTimeout"`
		FetchTimeout   string `yaml:"fetchTimeout"`
	} `yaml:"model"`

	Monitoring struct {
		Enabled       bool `yaml:"enabled"`
		DashboardPort int  `yaml:"dashboardPort"`
	} `yaml:"monitoring"`

	System struct {
		DataPath string `yaml:"dataPath"`
		LogLevel string `yaml:"logLevel"`
	} `yaml:"system"`
}

func Load() (Settings, error) {
	// Try to load from YAML file first
	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	// Fallback to environment variables
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Parse durations
	predictTimeout, err := time.ParseDuration(config.Model.PredictTimeout)
	if err != nil {
		predictTimeout = 2 * time.Second
	}

	fetchTimeout, err := time.ParseDuration(config.Model.FetchTimeout)
	if err != nil {
		fetchTimeout = 30 * time.Second
	}

	settings := Settings{
		Host:           getEnvOrDefault(common.EnvBindHost, withDefault(config.Server.Host, common.DefaultBindHost)),
		Port:           getIntFromEnvOrConfig(common.EnvPort, config.Server.Port, common.DefaultPort),
		ModelPath:      getEnvOrDefault(common.EnvModelPath, withDefault(config.Model.Path, common.DefaultModelPath)),
		DeployRoot:     getEnvOrDefault(common.EnvDeployRoot, withDefault(config.Model.DeployRoot, common.DefaultDeployRoot)),
		DataPath:       getEnvOrDefault(common.EnvDataPath, config.System.DataPath),
		PredictTimeout: getDurationOrDefault(common.EnvPredictTimeout, predictTimeout),
		FetchTimeout:   getDurationOrDefault(common.EnvFetchTimeout, fetchTimeout),
		Monitoring:     getBoolFromEnvOrConfig(common.EnvMonitoring, config.Monitoring.Enabled),
		DashboardPort:  getIntFromEnvOrConfig(common.EnvDashboardPort, config.Monitoring.DashboardPort, common.DefaultDashboardPort),
		LogLevel:       getEnvOrDefault(common.EnvLogLevel, withDefault(config.System.LogLevel, common.DefaultLogLevel)),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	defaultPredict, _ := time.ParseDuration(common.DefaultPredictTimeout)
	defaultFetch, _ := time.ParseDuration(common.DefaultFetchTimeout)

	settings := Settings{
		Host:           getEnvOrDefault(common.EnvBindHost, common.DefaultBindHost),
		Port:           getIntOrDefault(common.EnvPort, common.DefaultPort),
		ModelPath:      getEnvOrDefault(common.EnvModelPath, common.DefaultModelPath),
		DeployRoot:     getEnvOrDefault(common.EnvDeployRoot, common.DefaultDeployRoot),
		DataPath:       os.Getenv(common.EnvDataPath), // optional
		PredictTimeout: getDurationOrDefault(common.EnvPredictTimeout, defaultPredict),
		FetchTimeout:   getDurationOrDefault(common.EnvFetchTimeout, defaultFetch),
		Monitoring:     getBoolOrDefault(common.EnvMonitoring, false),
		DashboardPort:  getIntOrDefault(common.EnvDashboardPort, common.DefaultDashboardPort),
		LogLevel:       getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// ResolveModelPath returns the artifact location the loader should use.
// Remote URLs and absolute paths pass through unchanged; relative paths
// resolve against the deployment root.
func (s *Settings) ResolveModelPath() string {
	if isRemote(s.ModelPath) || filepath.IsAbs(s.ModelPath) {
		return s.ModelPath
	}
	return filepath.Join(s.DeployRoot, s.ModelPath)
}

// Addr returns the host:port the server binds to.
func (s *Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func isRemote(location string) bool {
	return len(location) > 8 && (location[:7] == "http://" || location[:8] == "https://")
}

func withDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getBoolFromEnvOrConfig(key string, configValue bool) bool {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseBool(env); err == nil {
			return val
		}
	}
	return configValue
}

// validateSettings performs comprehensive validation of configuration values
func validateSettings(settings *Settings) error {
	if settings.Host == "" {
		return fmt.Errorf("%s", common.ErrMsgBindHostRequired)
	}
	if settings.ModelPath == "" {
		return fmt.Errorf("%s", common.ErrMsgModelPathRequired)
	}

	// Validate ports
	if settings.Port < common.MinPort || settings.Port > common.MaxPort {
		return fmt.Errorf("port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.Port)
	}
	if settings.Monitoring {
		if settings.DashboardPort < common.MinPort || settings.DashboardPort > common.MaxPort {
			return fmt.Errorf("dashboard port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.DashboardPort)
		}
		if settings.DashboardPort == settings.Port {
			return fmt.Errorf("dashboard port must differ from the server port %d", settings.Port)
		}
	}

	// Validate time durations
	if settings.PredictTimeout < 100*time.Millisecond || settings.PredictTimeout > time.Minute {
		return fmt.Errorf("predict timeout must be between 100ms and 1m, got %v", settings.PredictTimeout)
	}
	if settings.FetchTimeout < time.Second || settings.FetchTimeout > 5*time.Minute {
		return fmt.Errorf("fetch timeout must be between 1s and 5m, got %v", settings.FetchTimeout)
	}

	// Validate log level
	switch settings.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", settings.LogLevel)
	}

	return nil
}
