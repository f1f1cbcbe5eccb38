package configs

import (
	"log"
	"os"
	"path/filepath"

	"github.com/PolarWolf314/sopsmith/internal/utils"
)

type Settings struct {
	ConfigPath     string
	StatePath      string
	DefaultKeyFile string
	Username       string
}

// UserSettings holds the paths resolved at startup.
var UserSettings *Settings

func init() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("error getting home directory: %s", err)
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		log.Fatalf("error getting config directory: %s", err)
	}

	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		stateDir = filepath.Join(homeDir, ".local", "state")
	}

	username, err := utils.GetUsername()
	if err != nil {
		username = ""
	}

	UserSettings = &Settings{
		ConfigPath:     filepath.Join(configDir, "sopsmith", "config.toml"),
		StatePath:      filepath.Join(stateDir, "sopsmith"),
		DefaultKeyFile: filepath.Join(configDir, "sops", "age", "keys.txt"),
		Username:       username,
	}
}
