// Package config builds the application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything the application needs, built once at startup and
// passed into each component.
type Config struct {
	Port string

	MoviesPath string
	ShowsPath  string
	ImagesPath string
	TrashPath  string

	TMDBAPIKey  string
	FFProbePath string

	// ScanInterval enables periodic library rescans when > 0.
	ScanInterval time.Duration

	JackettURL    string
	JackettAPIKey string

	QBittorrentURL      string
	QBittorrentUsername string
	QBittorrentPassword string

	SeedboxAddr      string
	SeedboxUser      string
	SeedboxPassword  string
	SeedboxRemoteDir string
	SeedboxLocalDir  string
}

// Load reads the configuration from environment variables. MOVIES_PATH,
// SHOWS_PATH and TMDB_API_KEY are required; everything else has a default or
// disables the corresponding integration when empty.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		MoviesPath:          os.Getenv("MOVIES_PATH"),
		ShowsPath:           os.Getenv("SHOWS_PATH"),
		ImagesPath:          getEnv("IMAGES_PATH", "images"),
		TrashPath:           getEnv("TRASH_PATH", ".trash"),
		TMDBAPIKey:          os.Getenv("TMDB_API_KEY"),
		FFProbePath:         getEnv("FFPROBE_PATH", "ffprobe"),
		JackettURL:          getEnv("JACKETT_URL", "http://localhost:9117"),
		JackettAPIKey:       os.Getenv("JACKETT_API_KEY"),
		QBittorrentURL:      getEnv("QBITTORRENT_URL", "http://localhost:8081"),
		QBittorrentUsername: os.Getenv("QBITTORRENT_USERNAME"),
		QBittorrentPassword: os.Getenv("QBITTORRENT_PASSWORD"),
		SeedboxAddr:         os.Getenv("SEEDBOX_FTP_ADDR"),
		SeedboxUser:         os.Getenv("SEEDBOX_FTP_USER"),
		SeedboxPassword:     os.Getenv("SEEDBOX_FTP_PASSWORD"),
		SeedboxRemoteDir:    getEnv("SEEDBOX_REMOTE_DIR", "/"),
		SeedboxLocalDir:     getEnv("SEEDBOX_LOCAL_DIR", "downloads"),
	}

	if cfg.MoviesPath == "" {
		return nil, fmt.Errorf("MOVIES_PATH environment variable is required")
	}
	if cfg.ShowsPath == "" {
		return nil, fmt.Errorf("SHOWS_PATH environment variable is required")
	}
	if cfg.TMDBAPIKey == "" {
		return nil, fmt.Errorf("TMDB_API_KEY environment variable is required")
	}

	if minutes := os.Getenv("SCAN_INTERVAL_MINUTES"); minutes != "" {
		n, err := strconv.Atoi(minutes)
		if err != nil {
			return nil, fmt.Errorf("invalid SCAN_INTERVAL_MINUTES %q: %w", minutes, err)
		}
		cfg.ScanInterval = time.Duration(n) * time.Minute
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
