package config

import "time"

// Application constants
const (
	AppName    = "Fusion"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable, e.g. FUSION_SERVER_PORT.
	EnvPrefix = "FUSION"

	// ConfigFileEnv names the variable holding an explicit config file path.
	ConfigFileEnv = "FUSION_CONFIG"
)

// Source kinds
const (
	SourceCSV        = "csv"
	SourceParquet    = "parquet"
	SourcePostgres   = "postgres"
	SourceClickHouse = "clickhouse"
)

// Defaults
const (
	DefaultPort             = 8090
	DefaultDataDir          = "data"
	DefaultOutputDir        = "output"
	DefaultCalendarLookback = 3 * 366 * 24 * time.Hour
	DefaultBuildTimeout     = 30 * time.Minute
	DefaultRedisChannel     = "fusion:phase"
)

// API endpoints
const (
	APIBasePath     = "/api/v1"
	PhaseEndpoint   = "/api/v1/phase"
	HealthEndpoint  = "/api/v1/health"
	MetricsEndpoint = "/metrics"
)
