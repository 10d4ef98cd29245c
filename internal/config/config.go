package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Completion provider
	Provider         string
	OpenRouterAPIKey string
	OpenRouterURL    string
	GeminiAPIKey     string
	Model            string
	VisionModel      string

	// Run defaults
	UseVision          bool
	ResponseFormat     string
	ContextDescription string
	ExportScale        float64

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// State
	RunTTL            time.Duration
	SettingsPath      string
	DocumentCacheSize int
}

// File is the optional YAML overlay named by LAYERNAME_CONFIG. Environment
// variables win over file values.
type File struct {
	Port              string  `yaml:"port,omitempty"`
	Provider          string  `yaml:"provider,omitempty"`
	OpenRouterURL     string  `yaml:"openrouterURL,omitempty"`
	Model             string  `yaml:"model,omitempty"`
	VisionModel       string  `yaml:"visionModel,omitempty"`
	UseVision         *bool   `yaml:"useVision,omitempty"`
	ResponseFormat    string  `yaml:"responseFormat,omitempty"`
	Context           string  `yaml:"context,omitempty"`
	ExportScale       float64 `yaml:"exportScale,omitempty"`
	WorkerCount       int     `yaml:"workerCount,omitempty"`
	MaxQueueSize      int     `yaml:"maxQueueSize,omitempty"`
	SettingsPath      string  `yaml:"settingsPath,omitempty"`
	DocumentCacheSize int     `yaml:"documentCacheSize,omitempty"`
}

func LoadFile(path string) (File, error) {
	var f File
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parse config %s: %w", path, err)
	}
	return f, nil
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var f File
	if path := os.Getenv("LAYERNAME_CONFIG"); path != "" {
		var err error
		if f, err = LoadFile(path); err != nil {
			return Config{}, err
		}
	}

	useVision := false
	if f.UseVision != nil {
		useVision = *f.UseVision
	}

	cfg := Config{
		Port: envOr("PORT", or(f.Port, "8090")),

		APIKey: os.Getenv("LAYERNAME_API_KEY"),

		Provider:         envOr("LLM_PROVIDER", or(f.Provider, "openrouter")),
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterURL:    envOr("OPENROUTER_URL", or(f.OpenRouterURL, "https://openrouter.ai/api/v1")),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		Model:            envOr("LLM_MODEL", or(f.Model, "openai/gpt-4o-mini")),
		VisionModel:      envOr("LLM_VISION_MODEL", or(f.VisionModel, "openai/gpt-4o")),

		UseVision:          envBool("USE_VISION", useVision),
		ResponseFormat:     envOr("RESPONSE_FORMAT", or(f.ResponseFormat, "auto")),
		ContextDescription: envOr("CONTEXT_DESCRIPTION", f.Context),
		ExportScale:        envFloat("EXPORT_SCALE", orFloat(f.ExportScale, 1)),

		WorkerCount:  envInt("WORKER_COUNT", orInt(f.WorkerCount, 2)),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", orInt(f.MaxQueueSize, 50)),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 20971520), // 20MB

		RunTTL:            envDuration("RUN_TTL", 1*time.Hour),
		SettingsPath:      envOr("SETTINGS_PATH", or(f.SettingsPath, "data/settings.db")),
		DocumentCacheSize: envInt("DOCUMENT_CACHE_SIZE", orInt(f.DocumentCacheSize, 256)),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20971520
	}
	if cfg.RunTTL <= 0 {
		cfg.RunTTL = 1 * time.Hour
	}
	if cfg.DocumentCacheSize <= 0 {
		cfg.DocumentCacheSize = 256
	}
	if cfg.ExportScale <= 0 {
		cfg.ExportScale = 1
	}

	return cfg, nil
}

// ProviderAPIKey returns the configured key for the selected provider.
func (c Config) ProviderAPIKey() string {
	if c.Provider == "gemini" {
		return c.GeminiAPIKey
	}
	return c.OpenRouterAPIKey
}

// Validate checks the settings every entry point needs. The provider key may
// still come from the settings store, so it is not required here.
func (c Config) Validate() error {
	switch c.Provider {
	case "openrouter", "gemini":
	default:
		return fmt.Errorf("LLM_PROVIDER must be openrouter or gemini, got %q", c.Provider)
	}
	switch c.ResponseFormat {
	case "outline", "mapping", "auto":
	default:
		return fmt.Errorf("RESPONSE_FORMAT must be outline, mapping or auto, got %q", c.ResponseFormat)
	}
	return nil
}

// ValidateServe additionally requires the API auth key.
func (c Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("LAYERNAME_API_KEY is required")
	}
	return nil
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func orInt(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}

func orFloat(v, fallback float64) float64 {
	if v != 0 {
		return v
	}
	return fallback
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
