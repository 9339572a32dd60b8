// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultModels is the generation model preference order, best first.
var DefaultModels = []string{
	"gemini-2.5-flash",
	"gemini-2.0-flash",
	"gemini-1.5-flash",
	"gemini-pro",
}

const DefaultOverlayTopic = "yoga-guide/live/overlay"

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	if cfg.APIs.GenAI.APIKey == "" {
		for _, name := range []string{"GEMINI_API_KEY", "GENAI_API_KEY"} {
			if val := os.Getenv(name); val != "" {
				cfg.APIs.GenAI.APIKey = val
				break
			}
		}
	}

	if cfg.Database.Redis.Address == "" {
		if val := os.Getenv("REDIS_ADDRESS"); val != "" {
			cfg.Database.Redis.Address = val
		}
	}

	if val := os.Getenv("POSE_ESTIMATOR_URL"); val != "" && cfg.APIs.PoseEstimator.BaseURL == "" {
		cfg.APIs.PoseEstimator.BaseURL = val
	}

	if val := os.Getenv("MQTT_BROKER"); val != "" && cfg.MQTT.Broker == "" {
		cfg.MQTT.Broker = val
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "yoga-guide"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 150000
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Redis.KeyPrefix == "" {
		cfg.Database.Redis.KeyPrefix = "yoga-guide:models"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 150000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}

	if cfg.APIs.GenAI.BaseURL == "" {
		cfg.APIs.GenAI.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.APIs.GenAI.AttemptTimeout == 0 {
		cfg.APIs.GenAI.AttemptTimeout = 30000
	}
	if len(cfg.APIs.GenAI.Models) == 0 {
		cfg.APIs.GenAI.Models = append([]string(nil), DefaultModels...)
	}
	if cfg.APIs.GenAI.Timeout == 0 {
		cfg.APIs.GenAI.Timeout = MinBuildTimeout(cfg.APIs.GenAI)
	}
	if cfg.APIs.GenAI.MaxOutputTokens == 0 {
		cfg.APIs.GenAI.MaxOutputTokens = 4096
	}

	if cfg.APIs.PoseEstimator.BaseURL == "" {
		cfg.APIs.PoseEstimator.BaseURL = "http://localhost:8501"
	}
	if cfg.APIs.PoseEstimator.Model == "" {
		cfg.APIs.PoseEstimator.Model = "movenet-singlepose-lightning"
	}
	if cfg.APIs.PoseEstimator.Timeout == 0 {
		cfg.APIs.PoseEstimator.Timeout = 5000
	}

	if cfg.Live.FPS == 0 {
		cfg.Live.FPS = 30
	}
	if cfg.Live.RefreshInterval == 0 {
		cfg.Live.RefreshInterval = 16 // ~60Hz display refresh
	}

	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "yoga-guide-live"
	}
	if cfg.MQTT.Topic == "" {
		cfg.MQTT.Topic = DefaultOverlayTopic
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda is enabled")
	}

	if cfg.MQTT.Enabled && cfg.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
	}
	if cfg.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2")
	}

	for i, m := range cfg.APIs.GenAI.Models {
		if strings.TrimSpace(m) == "" {
			return fmt.Errorf("apis.genai.models[%d] is empty", i)
		}
	}

	if floor := MinBuildTimeout(cfg.APIs.GenAI); cfg.APIs.GenAI.Timeout < floor {
		return fmt.Errorf("apis.genai.timeout (%dms) must cover every model attempt: %d models x %dms = %dms",
			cfg.APIs.GenAI.Timeout, len(cfg.APIs.GenAI.Models), cfg.APIs.GenAI.AttemptTimeout, floor)
	}

	if cfg.Live.FPS < 0 {
		return fmt.Errorf("live.fps must be positive")
	}

	return nil
}

// MinBuildTimeout is the smallest whole-build timeout, in milliseconds, that
// still lets the last model run its full attempt.
func MinBuildTimeout(g GenAIConfig) int {
	return len(g.Models) * g.AttemptTimeout
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       150000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
