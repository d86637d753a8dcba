package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv        string
	Port          string
	DefaultLocale string
	GeoIPDBPath   string
	CORSOrigins   []string

	ImageProvider string
	KeyFile       string
	ReferenceDir  string
	ScenesFile    string

	OpenAIModel   string
	OpenAIBaseURL string
	OpenAIOrg     string
	OpenAISize    string
	OpenAIQuality string
	GeminiModel   string
	GeminiBaseURL string
	GeminiAspect  string

	RenderTimeout    time.Duration
	MaxUploadBytes   int64
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		DefaultLocale:    getEnv("DEFAULT_LOCALE", "de"),
		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		CORSOrigins:      splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		ImageProvider:    strings.ToLower(getEnv("IMAGE_PROVIDER", "openai")),
		KeyFile:          getEnv("KEY_FILE", "key.txt"),
		ReferenceDir:     getEnv("REFERENCE_DIR", "Referenz"),
		ScenesFile:       os.Getenv("SCENES_FILE"),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-image-1"),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:        os.Getenv("OPENAI_ORG"),
		OpenAISize:       getEnv("OPENAI_IMAGE_SIZE", "1024x1536"),
		OpenAIQuality:    getEnv("OPENAI_IMAGE_QUALITY", "high"),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash-image"),
		GeminiBaseURL:    os.Getenv("GEMINI_BASE_URL"),
		GeminiAspect:     getEnv("GEMINI_ASPECT_RATIO", "2:3"),
		RenderTimeout:    time.Second * time.Duration(getEnvInt("RENDER_TIMEOUT_SECONDS", 60)),
		MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_BYTES", 25<<20)),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 90)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	switch cfg.ImageProvider {
	case "openai", "gemini":
	default:
		return nil, fmt.Errorf("IMAGE_PROVIDER must be openai or gemini, got %q", cfg.ImageProvider)
	}
	if cfg.RenderTimeout <= 0 {
		return nil, fmt.Errorf("RENDER_TIMEOUT_SECONDS must be positive")
	}
	if cfg.HTTPWriteTimeout <= cfg.RenderTimeout {
		cfg.HTTPWriteTimeout = cfg.RenderTimeout + 30*time.Second
	}

	return cfg, nil
}

// Provider HTTP clients outlive the render deadline by this margin.
const upstreamTimeoutMargin = 5 * time.Second

// UpstreamHTTPTimeout is the http.Client timeout for the image providers.
func (c *Config) UpstreamHTTPTimeout() time.Duration {
	return c.RenderTimeout + upstreamTimeoutMargin
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
