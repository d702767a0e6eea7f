// Package config loads settings from a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	xdgAppName  = "tasklist"
	storageFile = "storage.json"
	historyFile = "history"

	StorageJSON     = "json"
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	Storage     string // json, memory, or postgres
	File        string // JSON backend file
	Key         string // storage slot holding the task list
	DBURL       string
	HistoryFile string
	AutoRender  bool
	GeminiKey   string
	Model       string
}

// Load reads envFiles (default ".env") into the environment without
// overriding variables that are already set, then builds a Config.
// Missing env files are ignored.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	return FromEnv()
}

// FromEnv builds a Config from environment variables
func FromEnv() (*Config, error) {
	base, err := configDir()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Storage:     strings.ToLower(getenv("TASKLIST_STORAGE", StorageJSON)),
		File:        getenv("TASKLIST_FILE", filepath.Join(base, storageFile)),
		Key:         getenv("TASKLIST_KEY", "tasks"),
		DBURL:       os.Getenv("TASKLIST_DB_URL"),
		HistoryFile: getenv("TASKLIST_HISTORY", filepath.Join(base, historyFile)),
		AutoRender:  true,
		GeminiKey:   os.Getenv("GEMINI_API_KEY"),
		Model:       os.Getenv("TASKLIST_MODEL"),
	}

	if v := os.Getenv("TASKLIST_AUTO_RENDER"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("TASKLIST_AUTO_RENDER must be true or false, got %q", v)
		}
		cfg.AutoRender = b
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the combination of settings
func (c *Config) Validate() error {
	switch c.Storage {
	case StorageJSON:
		if c.File == "" {
			return errors.New("TASKLIST_FILE is required for json storage")
		}
	case StorageMemory:
	case StoragePostgres:
		if c.DBURL == "" {
			return errors.New("TASKLIST_DB_URL is required for postgres storage")
		}
	default:
		return fmt.Errorf("TASKLIST_STORAGE must be json, memory, or postgres, got %q", c.Storage)
	}

	if strings.TrimSpace(c.Key) == "" {
		return errors.New("TASKLIST_KEY cannot be empty")
	}
	return nil
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find home directory: %w", err)
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
