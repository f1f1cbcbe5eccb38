package configs

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/PolarWolf314/sopsmith/internal/sops"
)

const (
	DefaultSopsBinary      = "sops"
	DefaultAgeKeygenBinary = "age-keygen"
	DefaultAutoLockMinutes = 15
)

type Config struct {
	SopsBinary      string   `toml:"sops_binary"`
	AgeKeygenBinary string   `toml:"age_keygen_binary"`
	KeyFile         string   `toml:"key_file,omitempty"`
	AutoLockMinutes int      `toml:"auto_lock_minutes"`
	Favorites       []string `toml:"favorites"`
	Manifest        Manifest `toml:"manifest"`
}

type Manifest struct {
	EncryptedRegex string `toml:"encrypted_regex"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		SopsBinary:      DefaultSopsBinary,
		AgeKeygenBinary: DefaultAgeKeygenBinary,
		AutoLockMinutes: DefaultAutoLockMinutes,
		Manifest:        Manifest{EncryptedRegex: sops.DefaultEncryptedRegex},
	}
}

// LoadConfig loads the user configuration. Missing fields keep their
// defaults.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(UserSettings.ConfigPath)
}

// LoadConfigFrom loads the configuration at path.
func LoadConfigFrom(path string) (*Config, error) {
	config := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}

	if err := LoadTOML(path, config); err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	if config.SopsBinary == "" {
		config.SopsBinary = DefaultSopsBinary
	}
	if config.AgeKeygenBinary == "" {
		config.AgeKeygenBinary = DefaultAgeKeygenBinary
	}
	if config.AutoLockMinutes < 0 {
		config.AutoLockMinutes = 0
	}
	return config, nil
}

// SaveConfig saves the user configuration.
func SaveConfig(config *Config) error {
	return SaveConfigTo(UserSettings.ConfigPath, config)
}

// SaveConfigTo saves the configuration to path.
func SaveConfigTo(path string, config *Config) error {
	if err := SaveTOML(path, config); err != nil {
		return fmt.Errorf("failed to save config %s: %w", path, err)
	}
	return nil
}

// ResolveKeyFile returns the age key file to use.
func (c *Config) ResolveKeyFile() string {
	if env := os.Getenv("SOPS_AGE_KEY_FILE"); env != "" {
		return env
	}
	if c.KeyFile != "" {
		return expandHome(c.KeyFile)
	}
	return UserSettings.DefaultKeyFile
}

// AutoLock returns the idle interval before a session locks.
func (c *Config) AutoLock() time.Duration {
	return time.Duration(c.AutoLockMinutes) * time.Minute
}

// AddFavorite records path as a favorite. It reports false if it already
// was one.
func (c *Config) AddFavorite(path string) bool {
	path = absPath(path)
	if slices.Contains(c.Favorites, path) {
		return false
	}
	c.Favorites = append(c.Favorites, path)
	return true
}

// RemoveFavorite removes path from the favorites. It reports false if it
// was not a favorite.
func (c *Config) RemoveFavorite(path string) bool {
	path = absPath(path)
	i := slices.Index(c.Favorites, path)
	if i < 0 {
		return false
	}
	c.Favorites = slices.Delete(c.Favorites, i, i+1)
	return true
}

func absPath(path string) string {
	if abs, err := filepath.Abs(expandHome(path)); err == nil {
		return abs
	}
	return path
}

func expandHome(path string) string {
	if path == "~" || len(path) > 1 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
