// Package workflows provides high-level orchestration for sopsmith commands.
//
// Workflows coordinate the engine packages (transcode, sops, keys, store)
// with configuration and the audit log to implement complete user-facing
// features. Each workflow handles a single command's logic, independent of
// CLI concerns like flag parsing, spinners, and output formatting.
//
// # Design Philosophy
//
// The cmd/ package should be a thin layer that:
//   - Parses command-line flags and arguments
//   - Builds Tools from the loaded configuration
//   - Calls the appropriate workflow function
//   - Formats the result for display
//
// Workflows handle everything else:
//   - Picking a key for the document and decrypting it
//   - Editing the entries through a store.Session
//   - Saving through the transactional save protocol
//   - Recording audit trail entries
//
// # Available Workflows
//
//   - Open: decrypt a document and flatten it into entries
//   - Edit: set and unset entries, then save
//   - Export: write the decrypted entries as plaintext
//   - Import: merge or replace entries from a plaintext file, then save
//   - Create: create a new encrypted document from a template
//   - InitManifest: write a .sops.yaml for selected public keys
//   - Status: report the sops documents below a directory
//   - ListKeys, GenerateKey, DeleteKey, MatchKeys: manage the age key file
//
// # Error Handling
//
// Workflows return typed errors from the internal/errors package, allowing
// the CLI layer to provide appropriate user-facing messages without string
// matching:
//
//	result, err := workflows.Open(ctx, opts)
//	var mismatch *workflows.KeyMismatchError
//	if errors.As(err, &mismatch) {
//	    // Suggest --key-index with mismatch.Candidates
//	}
//
// # Context Usage
//
// All workflow functions that run external processes accept a
// context.Context as their first parameter.
package workflows
