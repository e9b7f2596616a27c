package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/federation-scraper/internal/platform/logging"
)

const (
	SinkFile     = "file"
	SinkPostgres = "postgres"
	SinkBoth     = "both"

	TransportNetHTTP  = "nethttp"
	TransportFastHTTP = "fasthttp"
)

// Config stores runtime configuration for the scraper.
type Config struct {
	AppEnv                     string
	ServiceName                string
	ServiceVersion             string
	LogLevel                   logging.Level
	LogFormat                  logging.Format
	BaseURL                    string
	PayloadElementID           string
	UserAgent                  string
	HTTPTimeout                time.Duration
	Transport                  string
	RateLimitBackoff           time.Duration
	Concurrency                int
	GroupConcurrency           int
	MaxRound                   int
	OutputDir                  string
	Sink                       string
	SeasonID                   string
	GameType                   string
	CompetitionID              string
	GroupIDs                   []string
	DBURL                      string
	DBDisablePreparedBinary    bool
	UptraceEnabled             bool
	UptraceDSN                 string
	UptraceLogsEnabled         bool
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

// UsesFile reports whether datasets are written to the output directory.
func (c Config) UsesFile() bool {
	return c.Sink == SinkFile || c.Sink == SinkBoth
}

// UsesPostgres reports whether datasets are written to DB_URL.
func (c Config) UsesPostgres() bool {
	return c.Sink == SinkPostgres || c.Sink == SinkBoth
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	httpTimeout, err := time.ParseDuration(getEnv("SCRAPER_HTTP_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SCRAPER_HTTP_TIMEOUT: %w", err)
	}
	if httpTimeout <= 0 {
		return Config{}, fmt.Errorf("SCRAPER_HTTP_TIMEOUT must be > 0")
	}

	rateLimitBackoff, err := time.ParseDuration(getEnv("SCRAPER_RATE_LIMIT_BACKOFF", "100ms"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SCRAPER_RATE_LIMIT_BACKOFF: %w", err)
	}
	if rateLimitBackoff <= 0 {
		return Config{}, fmt.Errorf("SCRAPER_RATE_LIMIT_BACKOFF must be > 0")
	}

	transport, err := parseTransport(getEnv("SCRAPER_TRANSPORT", TransportNetHTTP))
	if err != nil {
		return Config{}, err
	}

	concurrency, err := getEnvAsInt("SCRAPER_CONCURRENCY", 0)
	if err != nil {
		return Config{}, fmt.Errorf("parse SCRAPER_CONCURRENCY: %w", err)
	}
	if concurrency < 0 {
		return Config{}, fmt.Errorf("SCRAPER_CONCURRENCY must be >= 0")
	}

	groupConcurrency, err := getEnvAsInt("SCRAPER_GROUP_CONCURRENCY", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse SCRAPER_GROUP_CONCURRENCY: %w", err)
	}
	if groupConcurrency < 1 {
		return Config{}, fmt.Errorf("SCRAPER_GROUP_CONCURRENCY must be >= 1")
	}

	maxRound, err := getEnvAsInt("SCRAPER_MAX_ROUND", 0)
	if err != nil {
		return Config{}, fmt.Errorf("parse SCRAPER_MAX_ROUND: %w", err)
	}
	if maxRound < 0 {
		return Config{}, fmt.Errorf("SCRAPER_MAX_ROUND must be >= 0")
	}

	sink, err := parseSink(getEnv("SCRAPER_SINK", SinkFile))
	if err != nil {
		return Config{}, err
	}

	dbURL := strings.TrimSpace(getEnv("DB_URL", ""))
	if (sink == SinkPostgres || sink == SinkBoth) && dbURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required when SCRAPER_SINK=%s", sink)
	}
	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
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
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
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
		ServiceName:                getEnv("APP_SERVICE_NAME", "federation-scraper"),
		ServiceVersion:             getEnv("APP_SERVICE_VERSION", "dev"),
		LogLevel:                   logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
		LogFormat:                  logging.ParseFormat(getEnv("APP_LOG_FORMAT", string(logging.FormatJSON))),
		BaseURL:                    strings.TrimSpace(getEnv("SCRAPER_BASE_URL", "https://www.rffm.es")),
		PayloadElementID:           strings.TrimSpace(getEnv("SCRAPER_PAYLOAD_ELEMENT_ID", "__NEXT_DATA__")),
		UserAgent:                  strings.TrimSpace(getEnv("SCRAPER_USER_AGENT", "")),
		HTTPTimeout:                httpTimeout,
		Transport:                  transport,
		RateLimitBackoff:           rateLimitBackoff,
		Concurrency:                concurrency,
		GroupConcurrency:           groupConcurrency,
		MaxRound:                   maxRound,
		OutputDir:                  strings.TrimSpace(getEnv("SCRAPER_OUTPUT_DIR", "./data")),
		Sink:                       sink,
		SeasonID:                   strings.TrimSpace(getEnv("SCRAPER_SEASON_ID", "")),
		GameType:                   strings.TrimSpace(getEnv("SCRAPER_GAME_TYPE", "1")),
		CompetitionID:              strings.TrimSpace(getEnv("SCRAPER_COMPETITION_ID", "")),
		GroupIDs:                   splitCSV(getEnv("SCRAPER_GROUP_IDS", "")),
		DBURL:                      dbURL,
		DBDisablePreparedBinary:    dbDisablePreparedBinary,
		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		UptraceLogsEnabled:         uptraceLogsEnabled,
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
	if cfg.UsesFile() && cfg.OutputDir == "" {
		return Config{}, fmt.Errorf("SCRAPER_OUTPUT_DIR cannot be empty when SCRAPER_SINK=%s", sink)
	}

	return cfg, nil
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

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseSink(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case SinkFile, SinkPostgres, SinkBoth:
		return value, nil
	default:
		return "", fmt.Errorf("invalid SCRAPER_SINK %q: valid values are %s, %s, %s", v, SinkFile, SinkPostgres, SinkBoth)
	}
}

func parseTransport(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case TransportNetHTTP, TransportFastHTTP:
		return value, nil
	default:
		return "", fmt.Errorf("invalid SCRAPER_TRANSPORT %q: valid values are %s, %s", v, TransportNetHTTP, TransportFastHTTP)
	}
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
