package common

// Environment variable keys
const (
	EnvConfigFile     = "CONFIG_FILE"
	EnvBindHost       = "BIND_HOST"
	EnvPort           = "PORT"
	EnvModelPath      = "MODEL_PATH"
	EnvDeployRoot     = "DEPLOY_ROOT"
	EnvDataPath       = "DATA_PATH"
	EnvPredictTimeout = "PREDICT_TIMEOUT"
	EnvFetchTimeout   = "FETCH_TIMEOUT"
	EnvMonitoring     = "MONITORING"
	EnvDashboardPort  = "DASHBOARD_PORT"
	EnvLogLevel       = "LOG_LEVEL"
)

// Configuration defaults
const (
	DefaultBindHost       = "0.0.0.0"
	DefaultPort           = 8000
	DefaultModelPath      = "models/heart_pipeline.json"
	DefaultDeployRoot     = "."
	DefaultDashboardPort  = 8090
	DefaultLogLevel       = "info"
	DefaultPredictTimeout = "2s"
	DefaultFetchTimeout   = "30s"
)

// Common error messages
const (
	ErrMsgModelPathRequired = "model path is required"
	ErrMsgBindHostRequired  = "bind host cannot be empty"
)

// Validation constants
const (
	MinPort = 1024
	MaxPort = 65535
)

// MaxArtifactBytes bounds how large a fetched model artifact may be.
const MaxArtifactBytes = 64 << 20
