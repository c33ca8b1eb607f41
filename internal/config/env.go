package config

import (
	"log/slog"

	"github.com/joho/godotenv"
)

// loadEnvFiles overlays .env/.env.local into the process environment.
// Existing variables are not overwritten; a missing file is not an error.
func loadEnvFiles() {
	for _, path := range []string{".env", ".env.local"} {
		if err := godotenv.Load(path); err == nil {
			slog.Debug("Loaded environment variables", "path", path)
			return
		}
	}
}
