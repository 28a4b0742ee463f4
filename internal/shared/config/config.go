package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string
	DatabaseURL     string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioBucket     string
	MinioUseSSL     bool

	LLMAPIKey      string
	LLMModel       string
	LLMBaseURL     string
	LLMMaxTokens   int
	LLMTemperature float64
	LLMMaxRetries  int
	LLMTimeout     time.Duration

	JWTSecret           string
	ReconcileDelay      time.Duration
	AnalysisMinInterval time.Duration
	MaxUploadBytes      int64
	QueueURL            string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:             env,
		DatabaseURL:     dbURL,

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),
		MinioEndpoint:   getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:  getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:  getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:     getEnv("MINIO_BUCKET", "pdf-reports"),
		MinioUseSSL:     getEnvBool("MINIO_USE_SSL", false),

		LLMAPIKey:      strings.TrimSpace(os.Getenv("GROQ_API_KEY")),
		LLMModel:       getEnv("LLM_MODEL", "llama-3.1-8b-instant"),
		LLMBaseURL:     getEnv("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
		LLMMaxTokens:   getEnvInt("LLM_MAX_TOKENS", 4000),
		LLMTemperature: getEnvFloat("LLM_TEMPERATURE", 0.3),
		LLMMaxRetries:  getEnvInt("LLM_MAX_RETRIES", 3),
		LLMTimeout:     time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 120)) * time.Second,

		JWTSecret:           strings.TrimSpace(os.Getenv("JWT_SECRET")),
		ReconcileDelay:      time.Duration(getEnvInt("REVIEW_RECONCILE_DELAY_MS", 1000)) * time.Millisecond,
		AnalysisMinInterval: time.Duration(getEnvInt("ANALYSIS_MIN_INTERVAL_MS", 5000)) * time.Millisecond,
		MaxUploadBytes:      int64(getEnvInt("MAX_UPLOAD_MB", 50)) << 20,
		QueueURL:            strings.TrimSpace(os.Getenv("GI_SQS_QUEUE_URL")),
	}
}

// IsDevLike reports whether the environment allows in-memory fallbacks.
func (c Config) IsDevLike() bool {
	switch c.Env {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 0 {
		log.Printf("config: %s invalid int %q, using %d", key, raw, def)
		return def
	}
	return val
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("config: %s invalid float %q, using %v", key, raw, def)
		return def
	}
	return val
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "minio":
		return "minio"
	default:
		return "local"
	}
}
