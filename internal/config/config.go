package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "fusioncli/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Sources   SourcesConfig   `yaml:"sources" envconfig:"SOURCES"`
	Output    OutputConfig    `yaml:"output" envconfig:"OUTPUT"`
	Phase     PhaseConfig     `yaml:"phase" envconfig:"PHASE"`
	Redis     RedisConfig     `yaml:"redis" envconfig:"REDIS"`
	Jobs      []JobConfig     `yaml:"jobs" ignored:"true" validate:"dive"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS" validate:"gte=0"`
	RateLimitBurst  int           `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=stdout stderr file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// TelemetryConfig selects the OpenTelemetry exporters.
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// SourcesConfig selects where bars, observations and calendar events come
// from. The parquet kind reads bars from Parquet and the rest from CSV under
// the same directory.
type SourcesConfig struct {
	Kind         string        `yaml:"kind" envconfig:"KIND" validate:"oneof=csv parquet postgres clickhouse"`
	Dir          string        `yaml:"dir" envconfig:"DIR"`
	DSN          string        `yaml:"dsn" envconfig:"DSN"`
	QPS          float64       `yaml:"qps" envconfig:"QPS" validate:"gte=0"`
	CalendarFrom string        `yaml:"calendar_from" envconfig:"CALENDAR_FROM"`
	Timeout      time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

// OutputConfig controls where and how matrices are written.
type OutputConfig struct {
	Dir     string `yaml:"dir" envconfig:"DIR" validate:"required"`
	Parquet bool   `yaml:"parquet" envconfig:"PARQUET"`
	XLSX    bool   `yaml:"xlsx" envconfig:"XLSX"`
	BOM     bool   `yaml:"bom" envconfig:"BOM"`
}

// PhaseConfig holds the event phase windows in minutes and how often the
// phase server reclassifies on its own.
type PhaseConfig struct {
	BlackoutBefore float64       `yaml:"blackout_before" envconfig:"BLACKOUT_BEFORE" validate:"gte=0,ltefield=Imminent"`
	Imminent       float64       `yaml:"imminent" envconfig:"IMMINENT" validate:"ltefield=Approach"`
	Approach       float64       `yaml:"approach" envconfig:"APPROACH"`
	BlackoutAfter  float64       `yaml:"blackout_after" envconfig:"BLACKOUT_AFTER" validate:"gte=0,ltefield=Digesting"`
	Digesting      float64       `yaml:"digesting" envconfig:"DIGESTING" validate:"ltefield=Settled"`
	Settled        float64       `yaml:"settled" envconfig:"SETTLED"`
	PollInterval   time.Duration `yaml:"poll_interval" envconfig:"POLL_INTERVAL" validate:"gte=0"`
}

// RedisConfig configures the optional phase transition publisher.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" envconfig:"ENABLED"`
	Addr     string `yaml:"addr" envconfig:"ADDR" validate:"required_if=Enabled true"`
	Password string `yaml:"password" envconfig:"PASSWORD"`
	DB       int    `yaml:"db" envconfig:"DB" validate:"gte=0"`
	Channel  string `yaml:"channel" envconfig:"CHANNEL"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            DefaultPort,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimitRPS:    50,
			RateLimitBurst:  100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "fusion",
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
		Sources: SourcesConfig{
			Kind:    SourceCSV,
			Dir:     DefaultDataDir,
			Timeout: DefaultBuildTimeout,
		},
		Output: OutputConfig{
			Dir: DefaultOutputDir,
		},
		Phase: PhaseConfig{
			BlackoutBefore: 5,
			Imminent:       15,
			Approach:       60,
			BlackoutAfter:  5,
			Digesting:      30,
			Settled:        90,
			PollInterval:   30 * time.Second,
		},
		Redis: RedisConfig{
			Channel: DefaultRedisChannel,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (or FUSION_CONFIG, or config.yaml when present), then FUSION_* environment
// variables. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("failed to load config file %s", path), err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigurationError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg. Absent keys keep their value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if p := os.Getenv(ConfigFileEnv); p != "" {
		return p
	}
	for _, location := range []string{"config.yaml", "configs/config.yaml"} {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

var validate = validator.New()

// Validate checks field constraints and the source settings each kind needs.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return apperrors.NewConfigurationError("config validation failed", err)
	}

	if (c.Logging.Output == "file" || c.Logging.Output == "both") && c.Logging.FilePath == "" {
		return apperrors.NewConfigurationError("logging.file_path is required for file output", nil)
	}

	switch c.Sources.Kind {
	case SourcePostgres, SourceClickHouse:
		if c.Sources.DSN == "" {
			return apperrors.NewConfigurationError(fmt.Sprintf("sources.dsn is required for %s", c.Sources.Kind), nil)
		}
	default:
		if c.Sources.Dir == "" {
			return apperrors.NewConfigurationError(fmt.Sprintf("sources.dir is required for %s", c.Sources.Kind), nil)
		}
	}

	if c.Sources.CalendarFrom != "" {
		if _, err := time.Parse(time.DateOnly, c.Sources.CalendarFrom); err != nil {
			return apperrors.NewConfigurationError("sources.calendar_from must be YYYY-MM-DD", err)
		}
	}
	return nil
}
