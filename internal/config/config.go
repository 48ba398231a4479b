package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all configuration for the scraper system
type Config struct {
	Dirs    DirConfig
	Scraper ScraperConfig
}

type DirConfig struct {
	// Search result cache files
	CacheDir string
	// Persistent browser profiles (linkedin, research)
	ProfileDir string
	// Per-source scraper config JSON files
	ConfigDir string
	// Failure screenshots; empty disables them
	DebugDir string
}

type ScraperConfig struct {
	// Courtesy delay between page fetches
	RequestDelay time.Duration
	// User agent for plain HTTP requests
	UserAgent string
	// Remote URL serving research extraction snippets
	SnippetBaseURL string
}

// Load creates a Config from environment variables with defaults
func Load() *Config {
	dataDir := getEnv("SCRAPER_DATA_DIR", "data")
	return &Config{
		Dirs: DirConfig{
			CacheDir:   getEnv("SCRAPER_CACHE_DIR", filepath.Join(dataDir, "runtime", "searches")),
			ProfileDir: getEnv("SCRAPER_PROFILE_DIR", filepath.Join(dataDir, "profiles")),
			ConfigDir:  getEnv("SCRAPER_CONFIG_DIR", filepath.Join(dataDir, "scrapers")),
			DebugDir:   getEnv("SCRAPER_DEBUG_DIR", ""),
		},
		Scraper: ScraperConfig{
			RequestDelay:   time.Duration(getEnvInt("SCRAPER_DELAY_MS", 1000)) * time.Millisecond,
			UserAgent:      getEnv("SCRAPER_USER_AGENT", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
			SnippetBaseURL: getEnv("SCRAPER_SNIPPET_URL", ""),
		},
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
