// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Server   ServerConfig            `mapstructure:"server"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Database DatabaseConfig          `mapstructure:"database"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	APIs     APIsConfig              `mapstructure:"apis"`
	Live     LiveConfig              `mapstructure:"live"`
	MQTT     MQTTConfig              `mapstructure:"mqtt"`
	Logging  LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address      string `mapstructure:"address"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int    `mapstructure:"write_timeout"` // milliseconds
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig configures the model attempt ledger. An empty address
// disables the ledger.
type RedisConfig struct {
	Address   string `mapstructure:"address"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// APIsConfig holds settings for external API integrations.
type APIsConfig struct {
	GenAI         GenAIConfig         `mapstructure:"genai"`
	PoseEstimator PoseEstimatorConfig `mapstructure:"pose_estimator"`
}

// GenAIConfig configures the generation service. A missing API key is not a
// load error; requests fail with "Missing API Key" instead.
type GenAIConfig struct {
	BaseURL         string   `mapstructure:"base_url"`
	APIKey          string   `mapstructure:"api_key"`
	Timeout         int      `mapstructure:"timeout"`         // milliseconds, whole plan build
	AttemptTimeout  int      `mapstructure:"attempt_timeout"` // milliseconds, one model
	Models          []string `mapstructure:"models"`
	MaxOutputTokens int      `mapstructure:"max_output_tokens"`
	Temperature     float64  `mapstructure:"temperature"`
}

type PoseEstimatorConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// LiveConfig holds settings for the capture/render loop.
type LiveConfig struct {
	FrameDir        string  `mapstructure:"frame_dir"`
	FPS             float64 `mapstructure:"fps"`
	RefreshInterval int     `mapstructure:"refresh_interval"` // milliseconds
	Loop            bool    `mapstructure:"loop"`
}

type MQTTConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	Topic    string `mapstructure:"topic"`
	QoS      byte   `mapstructure:"qos"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
