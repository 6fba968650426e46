package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultChunkSize matches the 255 KiB segment size used by GridFS.
const DefaultChunkSize = 255 * 1024

// Config holds application configuration.
type Config struct {
	Port              string
	CORSAllowOrigin   []string
	Env               string
	DatabaseURL       string
	JWTSecret         string
	AdminSubject      string
	ChunkStoreType    string
	LocalStoreDir     string
	StagingDir        string
	ChunkSizeBytes    int
	MaxUploadBytes    int64
	AWSRegion         string
	S3Bucket          string
	S3Prefix          string
	S3Endpoint        string
	LogLevel          string
	RateLimitRPS      float64
	RateLimitBurst    int
	ShutdownTimeout   time.Duration
	DeleteConcurrency int
}

// Load reads configuration from environment variables with sensible defaults.
// Values from the YAML file named by VAULT_CONFIG_FILE sit between the defaults and the environment.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	file, err := loadFile(os.Getenv("VAULT_CONFIG_FILE"))
	if err != nil {
		log.Printf("config file ignored: %v", err)
	}

	env := normalizeEnv(getEnv("ENV", file.Env, "dev"))
	dbURL := getEnv("DATABASE_URL", file.DatabaseURL, "")
	secret := getEnv("JWT_SECRET", file.JWTSecret, "")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:              getEnv("PORT", file.Port, "8080"),
		CORSAllowOrigin:   splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", strings.Join(file.CORSAllowOrigins, ","), "http://localhost:5173")),
		Env:               env,
		DatabaseURL:       dbURL,
		JWTSecret:         secret,
		AdminSubject:      getEnv("ADMIN_SUBJECT", file.AdminSubject, "admin_statefree"),
		ChunkStoreType:    NormalizeChunkStore(getEnv("CHUNK_STORE", file.ChunkStore, "local")),
		LocalStoreDir:     getEnv("LOCAL_STORE_DIR", file.LocalStoreDir, "./data"),
		StagingDir:        getEnv("STAGING_DIR", file.StagingDir, ""),
		ChunkSizeBytes:    getEnvInt("CHUNK_SIZE_BYTES", file.ChunkSizeBytes, DefaultChunkSize),
		MaxUploadBytes:    int64(getEnvInt("MAX_UPLOAD_BYTES", int(file.MaxUploadBytes), 0)),
		AWSRegion:         getEnv("AWS_REGION", file.AWSRegion, ""),
		S3Bucket:          getEnv("S3_BUCKET", file.S3Bucket, ""),
		S3Prefix:          getEnv("S3_PREFIX", file.S3Prefix, "chunks"),
		S3Endpoint:        getEnv("S3_ENDPOINT", file.S3Endpoint, ""),
		LogLevel:          getEnv("LOG_LEVEL", file.LogLevel, "info"),
		RateLimitRPS:      getEnvFloat("RATE_LIMIT_RPS", file.RateLimitRPS, 0),
		RateLimitBurst:    getEnvInt("RATE_LIMIT_BURST", file.RateLimitBurst, 0),
		ShutdownTimeout:   getEnvDuration("SHUTDOWN_TIMEOUT", file.ShutdownTimeout, 10*time.Second),
		DeleteConcurrency: getEnvInt("DELETE_CONCURRENCY", file.DeleteConcurrency, 4),
	}
}

// IsDevLike reports whether env allows development fallbacks.
func IsDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

// getEnv prefers the environment, then the config file value, then def.
func getEnv(key, fileVal, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if strings.TrimSpace(fileVal) != "" {
		return fileVal
	}
	return def
}

func getEnvInt(key string, fileVal, def int) int {
	if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
		val, err := strconv.Atoi(raw)
		if err == nil {
			return val
		}
		log.Printf("config %s invalid int: %v", key, err)
	}
	if fileVal != 0 {
		return fileVal
	}
	return def
}

func getEnvFloat(key string, fileVal, def float64) float64 {
	if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
		val, err := strconv.ParseFloat(raw, 64)
		if err == nil {
			return val
		}
		log.Printf("config %s invalid float: %v", key, err)
	}
	if fileVal != 0 {
		return fileVal
	}
	return def
}

func getEnvDuration(key, fileVal string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		raw = strings.TrimSpace(fileVal)
	}
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config %s invalid duration: %v", key, err)
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

// NormalizeChunkStore maps a raw CHUNK_STORE value to a supported backend name.
func NormalizeChunkStore(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "sql", "db", "database":
		return "sql"
	case "memory", "mem":
		return "memory"
	default:
		return "local"
	}
}
