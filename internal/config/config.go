package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/issue-lottery/internal/platform/logging"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                     string
	ServiceName                string
	ServiceVersion             string
	HTTPAddr                   string
	ReadTimeout                time.Duration
	WriteTimeout               time.Duration
	LogLevel                   logging.Level
	StorageDriver              string
	DBURL                      string
	DBDisablePreparedBinary    bool
	LotteryConfigPath          string
	LotteryConfigCacheTTL      time.Duration
	DrawSchedulerEnabled       bool
	DrawCron                   string
	DrawTimezone               string
	DrawLocation               *time.Location
	DrawRunTimeout             time.Duration
	DrawChunkSize              int
	GitHubBaseURL              string
	GitHubToken                string
	GitHubTimeout              time.Duration
	GitHubPageSize             int
	GitHubRequestsPerSecond    float64
	GitHubRetryAttempts        int
	GitHubRetryBackoff         time.Duration
	InternalJobToken           string
	UptraceEnabled             bool
	UptraceDSN                 string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	storageDriver := strings.ToLower(strings.TrimSpace(getEnv("STORAGE_DRIVER", StorageMemory)))
	switch storageDriver {
	case StorageMemory, StoragePostgres:
	default:
		return Config{}, fmt.Errorf("invalid STORAGE_DRIVER %q: valid values are %s, %s", storageDriver, StorageMemory, StoragePostgres)
	}
	dbURL := strings.TrimSpace(getEnv("DB_URL", ""))
	if storageDriver == StoragePostgres && dbURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required when STORAGE_DRIVER=postgres")
	}
	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	lotteryConfigPath := strings.TrimSpace(getEnv("LOTTERY_CONFIG_PATH", "lottery.yaml"))
	lotteryConfigCacheTTL, err := time.ParseDuration(getEnv("LOTTERY_CONFIG_CACHE_TTL", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LOTTERY_CONFIG_CACHE_TTL: %w", err)
	}
	if lotteryConfigCacheTTL < 0 {
		return Config{}, fmt.Errorf("LOTTERY_CONFIG_CACHE_TTL must be >= 0")
	}

	drawSchedulerEnabled, err := strconv.ParseBool(getEnv("DRAW_SCHEDULER_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DRAW_SCHEDULER_ENABLED: %w", err)
	}
	drawCron := strings.TrimSpace(getEnv("DRAW_CRON", "0 * * * *"))
	drawTimezone := strings.TrimSpace(getEnv("DRAW_TIMEZONE", "UTC"))
	drawLocation, err := time.LoadLocation(drawTimezone)
	if err != nil {
		return Config{}, fmt.Errorf("parse DRAW_TIMEZONE: %w", err)
	}
	drawRunTimeout, err := time.ParseDuration(getEnv("DRAW_RUN_TIMEOUT", "30m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DRAW_RUN_TIMEOUT: %w", err)
	}
	if drawRunTimeout <= 0 {
		return Config{}, fmt.Errorf("DRAW_RUN_TIMEOUT must be > 0")
	}
	drawChunkSize, err := getEnvAsInt("DRAW_CHUNK_SIZE", 20)
	if err != nil {
		return Config{}, fmt.Errorf("parse DRAW_CHUNK_SIZE: %w", err)
	}
	if drawChunkSize < 1 {
		return Config{}, fmt.Errorf("DRAW_CHUNK_SIZE must be >= 1")
	}

	githubTimeout, err := time.ParseDuration(getEnv("GITHUB_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse GITHUB_TIMEOUT: %w", err)
	}
	if githubTimeout <= 0 {
		return Config{}, fmt.Errorf("GITHUB_TIMEOUT must be > 0")
	}
	githubPageSize, err := getEnvAsInt("GITHUB_PAGE_SIZE", 50)
	if err != nil {
		return Config{}, fmt.Errorf("parse GITHUB_PAGE_SIZE: %w", err)
	}
	if githubPageSize < 1 || githubPageSize > 100 {
		return Config{}, fmt.Errorf("GITHUB_PAGE_SIZE must be between 1 and 100")
	}
	githubRPS, err := strconv.ParseFloat(getEnv("GITHUB_REQUESTS_PER_SECOND", "0.5"), 64)
	if err != nil {
		return Config{}, fmt.Errorf("parse GITHUB_REQUESTS_PER_SECOND: %w", err)
	}
	if githubRPS < 0 {
		return Config{}, fmt.Errorf("GITHUB_REQUESTS_PER_SECOND must be >= 0")
	}
	githubRetryAttempts, err := getEnvAsInt("GITHUB_RETRY_ATTEMPTS", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse GITHUB_RETRY_ATTEMPTS: %w", err)
	}
	if githubRetryAttempts < 1 {
		return Config{}, fmt.Errorf("GITHUB_RETRY_ATTEMPTS must be >= 1")
	}
	githubRetryBackoff, err := time.ParseDuration(getEnv("GITHUB_RETRY_BACKOFF", "61s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse GITHUB_RETRY_BACKOFF: %w", err)
	}
	if githubRetryBackoff < 0 {
		return Config{}, fmt.Errorf("GITHUB_RETRY_BACKOFF must be >= 0")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	cfg := Config{
		AppEnv:                     appEnv,
		ServiceName:                getEnv("APP_SERVICE_NAME", "issue-lottery"),
		ServiceVersion:             getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                   getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:                readTimeout,
		WriteTimeout:               writeTimeout,
		LogLevel:                   parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
		StorageDriver:              storageDriver,
		DBURL:                      dbURL,
		DBDisablePreparedBinary:    dbDisablePreparedBinary,
		LotteryConfigPath:          lotteryConfigPath,
		LotteryConfigCacheTTL:      lotteryConfigCacheTTL,
		DrawSchedulerEnabled:       drawSchedulerEnabled,
		DrawCron:                   drawCron,
		DrawTimezone:               drawTimezone,
		DrawLocation:               drawLocation,
		DrawRunTimeout:             drawRunTimeout,
		DrawChunkSize:              drawChunkSize,
		GitHubBaseURL:              strings.TrimSpace(getEnv("GITHUB_BASE_URL", "https://api.github.com")),
		GitHubToken:                strings.TrimSpace(getEnv("GITHUB_TOKEN", "")),
		GitHubTimeout:              githubTimeout,
		GitHubPageSize:             githubPageSize,
		GitHubRequestsPerSecond:    githubRPS,
		GitHubRetryAttempts:        githubRetryAttempts,
		GitHubRetryBackoff:         githubRetryBackoff,
		InternalJobToken:           strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if appEnv == EnvProd && cfg.GitHubToken == "" {
		return Config{}, fmt.Errorf("GITHUB_TOKEN is required when APP_ENV=prod")
	}

	return cfg, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
