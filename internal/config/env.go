package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Credentials holds the session credentials for the two remote services.
type Credentials struct {
	WazoHost     string
	WazoToken    string
	WazoUserUUID string
}

// LoadEnv loads environment variables from .env file if it exists
func LoadEnv() error {
	// Try to load .env file from current directory or project root
	envPaths := []string{
		".env",
		".env.local",
		"../.env",
		"../../.env",
	}

	// Look for .env file, but don't fail if not found (environment variables might be set system-wide)
	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return fmt.Errorf("error loading %s file: %w", envPath, err)
			}
			break
		}
	}

	return nil
}

// STTServerURL returns the transcription service base URL.
func STTServerURL() string {
	if v := strings.TrimSpace(os.Getenv("STT_SERVER_URL")); v != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://localhost:8000"
}

// GetCredentials retrieves and validates session credentials from environment
// variables. Implements fail-fast: returns error immediately if required
// values are missing.
func GetCredentials() (*Credentials, error) {
	creds := &Credentials{
		WazoHost:     strings.TrimSpace(os.Getenv("WAZO_HOST")),
		WazoToken:    strings.TrimSpace(os.Getenv("WAZO_TOKEN")),
		WazoUserUUID: strings.TrimSpace(os.Getenv("WAZO_USER_UUID")),
	}

	if creds.WazoHost == "" {
		return nil, fmt.Errorf("WAZO_HOST must be set in environment or .env file")
	}
	if creds.WazoToken == "" {
		return nil, fmt.Errorf("WAZO_TOKEN must be set in environment or .env file")
	}
	if creds.WazoUserUUID == "" {
		return nil, fmt.Errorf("WAZO_USER_UUID must be set in environment or .env file")
	}

	return creds, nil
}

// StoreBackend returns the configured persistence backend for completed
// transcriptions: jsonfile (default), sqlite, postgres or redis.
func StoreBackend() string {
	if v := strings.TrimSpace(os.Getenv("STT_STORE")); v != "" {
		return strings.ToLower(v)
	}
	return "jsonfile"
}

// StoreDSN returns the backend-specific location: a file path for jsonfile
// and sqlite, a connection string for postgres, an address for redis.
func StoreDSN() string {
	if v := strings.TrimSpace(os.Getenv("STT_STORE_DSN")); v != "" {
		return v
	}
	switch StoreBackend() {
	case "sqlite":
		return "data/transcriptions.db"
	case "redis":
		return "localhost:6379"
	default:
		return "data/transcriptions.json"
	}
}
