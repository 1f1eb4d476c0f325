package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables that override config values.
const (
	EnvAPIKey        = "WLX_API_KEY"
	EnvClientVersion = "WLX_CLIENT_VERSION"
	EnvVisitorData   = "WLX_VISITOR_DATA"
	EnvHeadersPath   = "WLX_HEADERS_PATH"
	EnvDatabasePath  = "WLX_DB_PATH"
	EnvExportDir     = "WLX_EXPORT_DIR"
)

// LoadEnvFile loads variables from a dotenv file into the process environment.
//
// A missing file is not an error; variables already set are not overwritten.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides config values with any WLX_* variables present in the environment.
func ApplyEnv(c *Config) {
	override := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	override(EnvAPIKey, &c.Credentials.YouTube.APIKey)
	override(EnvClientVersion, &c.Credentials.YouTube.ClientVersion)
	override(EnvVisitorData, &c.Credentials.YouTube.VisitorData)
	override(EnvHeadersPath, &c.Credentials.YouTube.HeadersPath)
	override(EnvDatabasePath, &c.Database.Path)
	override(EnvExportDir, &c.Export.Dir)
}
