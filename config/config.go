package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config carries the process-level settings resolved from the
// environment at startup.
type Config struct {
	ListenAddr string
	// DataDir holds config.json, the password store and backup logs.
	DataDir string
	// ResticBin is the restic executable name or absolute path.
	ResticBin string
	// BaseURL is the externally reachable address scheduled triggers
	// call back into.
	BaseURL string
	// CommandTimeout bounds one-shot restic calls (init, version).
	// Streaming backup/restore runs have no timeout.
	CommandTimeout time.Duration
	// MaxConcurrentJobs caps simultaneously running restic subprocesses.
	MaxConcurrentJobs int
}

func Load() *Config {
	return &Config{
		ListenAddr:        getEnv("RESTIC_API_LISTEN", ":5000"),
		DataDir:           dataDir(),
		ResticBin:         getEnv("RESTIC_API_BIN", "restic"),
		BaseURL:           getEnv("RESTIC_API_BASE_URL", "http://localhost:5000"),
		CommandTimeout:    getDuration("RESTIC_API_COMMAND_TIMEOUT", 30*time.Second),
		MaxConcurrentJobs: getInt("RESTIC_API_MAX_JOBS", 8),
	}
}

func dataDir() string {
	if dir := os.Getenv("RESTIC_API_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".restic-api"
	}
	return filepath.Join(home, ".restic-api")
}

// getEnv retrieves an environment variable or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
