// Package config holds the persisted user configuration and the process
// settings read from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

// KeyStoreLocation is the key of the last-used plan database.
const KeyStoreLocation = "PLAN_DB"

// =============================================================================
// PERSISTED CONFIGURATION
// =============================================================================

// File is a small key-value record kept on disk in dotenv format.
// It is safe for concurrent use.
type File struct {
	path string

	mu     sync.RWMutex
	values map[string]string
}

// Load reads the configuration at path. A missing file yields an empty
// configuration.
func Load(path string) (*File, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		values = map[string]string{}
	}
	return &File{path: path, values: values}, nil
}

// Path returns where the configuration is saved.
func (f *File) Path() string {
	return f.path
}

func (f *File) Get(key string) string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.values[key]
}

// Set stores value under key and saves the file.
func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, had := f.values[key]
	f.values[key] = value
	if err := f.saveLocked(); err != nil {
		if had {
			f.values[key] = prev
		} else {
			delete(f.values, key)
		}
		return err
	}
	return nil
}

// StoreLocation returns the last-used plan database, or "".
func (f *File) StoreLocation() string {
	return f.Get(KeyStoreLocation)
}

// SetStoreLocation records the plan database and saves immediately.
func (f *File) SetStoreLocation(path string) error {
	return f.Set(KeyStoreLocation, path)
}

func (f *File) saveLocked() error {
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
	}
	if err := godotenv.Write(f.values, f.path); err != nil {
		return fmt.Errorf("save config %s: %w", f.path, err)
	}
	return nil
}

// =============================================================================
// PROCESS SETTINGS
// =============================================================================

// Settings are the process-level options of the server binary.
type Settings struct {
	ListenAddr string
	ConfigFile string

	// PlanDB, when set, overrides the persisted store location at startup.
	PlanDB string

	// ShutdownSeconds bounds graceful shutdown.
	ShutdownSeconds int
}

// FromEnv reads Settings from the environment, after loading a .env file
// from the working directory when one exists.
func FromEnv() Settings {
	_ = godotenv.Load() // optional

	return Settings{
		ListenAddr:      GetString("LISTEN_ADDR", ":8080"),
		ConfigFile:      GetString("CONFIG_FILE", "config.env"),
		PlanDB:          GetString(KeyStoreLocation, ""),
		ShutdownSeconds: GetInt("SHUTDOWN_TIMEOUT", 10),
	}
}

func GetString(key, fallback string) string {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	return val
}

func GetInt(key string, fallback int) int {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}
