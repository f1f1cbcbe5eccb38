// Package configs manages sopsmith's user configuration.
//
// Configuration is stored in TOML format at:
//
//	$XDG_CONFIG_HOME/sopsmith/config.toml
//
// A missing file is not an error: every field has a default, and the file
// is only written when the user changes something (for example by adding
// a favorite).
//
// # Fields
//
//   - sops_binary: sops executable, default "sops"
//   - age_keygen_binary: age-keygen executable, default "age-keygen"
//   - key_file: age key file, default the sops location
//   - auto_lock_minutes: idle minutes before a session locks, 0 disables
//   - favorites: documents the user opens often
//   - [manifest] encrypted_regex: default for newly written .sops.yaml files
//
// # Key File Resolution
//
// The age key file is resolved in this order:
//
//  1. SOPS_AGE_KEY_FILE environment variable
//  2. key_file from the config
//  3. $XDG_CONFIG_HOME/sops/age/keys.txt
//
// # Settings
//
// Paths are initialized at startup in UserSettings. Tests may replace the
// pointer to redirect the config, state and audit locations.
package configs
