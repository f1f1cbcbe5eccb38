// Package errors provides typed error values for sopsmith.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching.
//
// # Error Categories
//
// Errors are grouped by category:
//
//   - I/O errors: reading, writing or copying a document failed (ErrIO)
//   - Process errors: the sops or age-keygen binary failed (ErrProcessFailed, ErrBinaryNotFound)
//   - Parse errors: decrypted text is not valid structured data (ErrParse)
//   - Structure errors: flattened paths cannot be rebuilt (ErrStructureConflict, ErrArrayPath)
//   - Key errors: no usable key for a document (ErrKeyMismatch, ErrKeyNotFound)
//
// # Usage
//
// Wrap errors with additional context:
//
//	return fmt.Errorf("entry %q: %w", path, errors.ErrStructureConflict)
//
// Handle errors in the CLI layer:
//
//	result, err := workflows.Open(ctx, opts)
//	if errors.Is(err, kerrors.ErrKeyMismatch) {
//	    // Ask the user to pick a key explicitly
//	}
package errors
