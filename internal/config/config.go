package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI    string
	DBName      string
	Port        string
	GinMode     string
	CORSOrigins []string

	// Upload handling
	MaxFileSize int64
	AllowedExts []string
	UploadDir   string
	SlidesDir   string

	// Renderer (LibreOffice) settings
	RendererBin     string
	RendererTimeout int // seconds, per external call
	InstallRenderer bool

	// Derived index resync
	IndexResyncMinutes int

	// Redis Configuration (rate limiting)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	RateLimitReqs   int
	RateLimitWindow int

	// Tracing
	OTLPEndpoint   string
	TracingEnabled bool
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017/slide_deck"),
		DBName:      getEnv("DB_NAME", "slide_deck"),
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		MaxFileSize: getEnvInt64("MAX_FILE_SIZE", 52428800), // 50MB upload cap
		AllowedExts: strings.Split(getEnv("ALLOWED_EXTENSIONS", ".ppt,.pptx,.key"), ","),
		UploadDir:   getEnv("UPLOAD_DIR", "./uploads"),
		SlidesDir:   getEnv("SLIDES_DIR", "./slides"),

		RendererBin:     getEnv("RENDERER_BIN", "soffice"),
		RendererTimeout: getEnvInt("RENDERER_TIMEOUT", 120),
		InstallRenderer: getEnvBool("RENDERER_AUTO_INSTALL", true),

		IndexResyncMinutes: getEnvInt("INDEX_RESYNC_MINUTES", 15),

		RedisURL:        getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", "localhost:4317"),
		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
