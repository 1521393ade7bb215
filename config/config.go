// Package config provides configuration for the agent backend.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the backend configuration.
type Config struct {
	// Server settings
	HTTPPort         int
	CORSAllowOrigins []string

	// Storage
	DataDir     string
	DatabaseURL string

	// LLM backend
	OllamaBaseURL string
	OllamaModel   string
	LLMTimeout    time.Duration

	// OCR
	OCRProvider  string
	OCRLang      string
	PDFRenderDPI float64
	OCRWorkers   int

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	dataDir := absPath(getEnv("DATA_DIR", "storage"))
	cfg := &Config{
		HTTPPort:         getEnvInt("HTTP_PORT", 8080),
		CORSAllowOrigins: getEnvList("CORS_ALLOW_ORIGINS", []string{"http://localhost:3000", "http://localhost:8501"}),
		DataDir:          dataDir,
		DatabaseURL:      getEnv("DATABASE_URL", filepath.Join(dataDir, "agentd.db")),
		OllamaBaseURL:    getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:      getEnv("OLLAMA_MODEL", "llama3"),
		LLMTimeout:       time.Duration(getEnvInt("LLM_TIMEOUT_MS", 60000)) * time.Millisecond,
		OCRProvider:      getEnv("OCR_PROVIDER", "tesseract"),
		OCRLang:          getEnv("OCR_LANG", "eng"),
		PDFRenderDPI:     getEnvFloat("PDF_RENDER_DPI", 300),
		OCRWorkers:       getEnvInt("OCR_WORKERS", 4),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}
	return cfg
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if floatVal, err := strconv.ParseFloat(val, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	if val := os.Getenv(key); val != "" {
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultVal
}
