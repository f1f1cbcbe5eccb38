// Package sops is the boundary between sopsmith and the sops binary.
//
// It runs sops to decrypt documents to JSON and to encrypt a plaintext JSON
// intermediate in place, discovers the .sops.yaml key manifest that governs
// a file, and reads encrypted documents directly to find which fields hold
// ciphertext and which age recipients may decrypt them.
//
// # Encrypted fields
//
// sops marks every encrypted scalar with the prefix "ENC[". For JSON and
// YAML the document tree is walked; for dotenv and INI the raw lines are
// scanned, since those files are not structured on disk:
//
//	fields, err := sops.EncryptedFields("secrets.env")
//	if fields.Has("API_KEY") { ... }
//
// The result drives display masking only. It never decides whether a value
// may be edited.
//
// # Process model
//
// Every call blocks until the external process exits. Runner accepts a
// context so callers can bound the wait, but the CLI uses
// context.Background(): a hung sops hangs the command.
package sops
