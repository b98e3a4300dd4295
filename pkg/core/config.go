package core

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config contains the complete configuration for an assistant client.
//
// Example:
//
//	config := &core.Config{
//	    BaseDir: "/home/me/.config/tabzero",
//	    Mode:    "Work",
//	    Locale:  "en-US",
//	    Storage: core.StorageConfig{
//	        Provider: "sqlite",
//	        Config: map[string]interface{}{
//	            "db_path": "/home/me/.config/tabzero/assistant.db",
//	        },
//	    },
//	    Inference: core.InferenceConfig{
//	        Provider: "sidecar",
//	        BaseURL:  "http://127.0.0.1:8765",
//	    },
//	}
type Config struct {
	// BaseDir is the application-private directory holding the wrapped
	// master key and, by default, the database file.
	BaseDir string `json:"base_dir"`

	// Mode is the active assistant mode, e.g. "Work", "Study", "Evening".
	Mode string `json:"mode"`

	// Locale selects the language for fallback replies, e.g. "en-US".
	Locale string `json:"locale"`

	// TrackWindowTitles controls whether self-usage events carry a
	// window title. Off by default.
	TrackWindowTitles bool `json:"track_window_titles"`

	// Storage contains record store configuration.
	Storage StorageConfig `json:"storage"`

	// Inference contains inference provider configuration.
	Inference InferenceConfig `json:"inference"`
}

// StorageConfig contains configuration for the record store.
//
// Supported providers: sqlite (default), postgres, mysql.
type StorageConfig struct {
	// Provider is the store backend name.
	Provider string `json:"provider"`

	// Config contains provider-specific configuration.
	// For SQLite: db_path
	// For PostgreSQL: host, port, user, password, db_name, ssl_mode
	// For MySQL: host, port, user, password, db_name
	Config map[string]interface{} `json:"config"`
}

// InferenceConfig contains configuration for the inference provider.
//
// Supported providers: sidecar (default), openai.
type InferenceConfig struct {
	// Provider is the inference backend name.
	Provider string `json:"provider"`

	// BaseURL is the sidecar address or an OpenAI-compatible base URL.
	BaseURL string `json:"base_url,omitempty"`

	// APIKey is the API key for direct providers.
	APIKey string `json:"api_key,omitempty"`

	// Model is the model name for direct providers.
	Model string `json:"model,omitempty"`

	// Timeout bounds each remote call. Zero means the transport default.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.BaseDir == "" {
		return NewAssistantError("Validate", ErrInvalidConfig)
	}
	switch c.Storage.Provider {
	case "sqlite", "postgres", "mysql":
	default:
		return NewAssistantError("Validate", ErrInvalidConfig)
	}
	switch c.Inference.Provider {
	case "sidecar", "openai":
	default:
		return NewAssistantError("Validate", ErrInvalidConfig)
	}
	return nil
}

// DefaultBaseDir returns the per-user application directory.
func DefaultBaseDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "./tabzero"
	}
	return filepath.Join(configDir, "TabZero")
}

// LoadConfigFromEnv loads configuration from environment variables.
//
// A .env file in the working directory is loaded first when present.
//
// Supported environment variables:
//   - TABZERO_BASE_DIR, TABZERO_MODE, TABZERO_LOCALE, TABZERO_TRACK_WINDOW_TITLES
//   - DATABASE_PROVIDER (sqlite, postgres, mysql)
//   - SQLITE_PATH
//   - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_USER, POSTGRES_PASSWORD,
//     POSTGRES_DATABASE, POSTGRES_SSLMODE
//   - MYSQL_HOST, MYSQL_PORT, MYSQL_USER, MYSQL_PASSWORD, MYSQL_DATABASE
//   - INFERENCE_PROVIDER (sidecar, openai)
//   - SIDECAR_BASE_URL, SIDECAR_TIMEOUT_SECONDS
//   - LLM_API_KEY, LLM_MODEL, LLM_BASE_URL
//
// Example:
//
//	config, err := core.LoadConfigFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
func LoadConfigFromEnv() (*Config, error) {
	_ = godotenv.Load()

	baseDir := getEnvOrDefault("TABZERO_BASE_DIR", DefaultBaseDir())

	provider := getEnvOrDefault("DATABASE_PROVIDER", "sqlite")
	storageConfig := make(map[string]interface{})

	switch provider {
	case "sqlite":
		storageConfig = map[string]interface{}{
			"db_path": getEnvOrDefault("SQLITE_PATH", filepath.Join(baseDir, "assistant.db")),
		}
	case "postgres":
		port, _ := strconv.Atoi(getEnvOrDefault("POSTGRES_PORT", "5432"))
		storageConfig = map[string]interface{}{
			"host":     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			"port":     port,
			"user":     getEnvOrDefault("POSTGRES_USER", "postgres"),
			"password": os.Getenv("POSTGRES_PASSWORD"),
			"db_name":  getEnvOrDefault("POSTGRES_DATABASE", "tabzero"),
			"ssl_mode": getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
		}
	case "mysql":
		port, _ := strconv.Atoi(getEnvOrDefault("MYSQL_PORT", "3306"))
		storageConfig = map[string]interface{}{
			"host":     getEnvOrDefault("MYSQL_HOST", "127.0.0.1"),
			"port":     port,
			"user":     getEnvOrDefault("MYSQL_USER", "root"),
			"password": os.Getenv("MYSQL_PASSWORD"),
			"db_name":  getEnvOrDefault("MYSQL_DATABASE", "tabzero"),
		}
	}

	inferenceProvider := getEnvOrDefault("INFERENCE_PROVIDER", "sidecar")
	inference := InferenceConfig{Provider: inferenceProvider}
	switch inferenceProvider {
	case "openai":
		inference.APIKey = os.Getenv("LLM_API_KEY")
		inference.Model = getEnvOrDefault("LLM_MODEL", "gpt-4o-mini")
		inference.BaseURL = os.Getenv("LLM_BASE_URL")
	default:
		inference.BaseURL = getEnvOrDefault("SIDECAR_BASE_URL", "http://127.0.0.1:8765")
		if seconds, err := strconv.Atoi(getEnvOrDefault("SIDECAR_TIMEOUT_SECONDS", "0")); err == nil && seconds > 0 {
			inference.Timeout = time.Duration(seconds) * time.Second
		}
	}

	config := &Config{
		BaseDir:           baseDir,
		Mode:              getEnvOrDefault("TABZERO_MODE", "Work"),
		Locale:            getEnvOrDefault("TABZERO_LOCALE", "en"),
		TrackWindowTitles: os.Getenv("TABZERO_TRACK_WINDOW_TITLES") == "true",
		Storage: StorageConfig{
			Provider: provider,
			Config:   storageConfig,
		},
		Inference: inference,
	}

	return config, nil
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
