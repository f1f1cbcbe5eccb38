package errors

import "errors"

// I/O errors indicate a failed read, write or copy of a document.
var (
	// ErrIO indicates a filesystem operation failed before any state changed.
	ErrIO = errors.New("file operation failed")

	// ErrFileNotFound indicates a specific file could not be located.
	ErrFileNotFound = errors.New("file not found")
)

// Process errors indicate failures of the external sops or age-keygen tools.
var (
	// ErrBinaryNotFound indicates the external tool is not installed or not on PATH.
	ErrBinaryNotFound = errors.New("external binary not found")

	// ErrProcessFailed indicates the external tool exited with a non-zero status.
	ErrProcessFailed = errors.New("external process failed")

	// ErrEncryptFailed indicates sops could not encrypt a document in place.
	ErrEncryptFailed = errors.New("failed to encrypt document")

	// ErrDecryptFailed indicates sops could not decrypt a document.
	ErrDecryptFailed = errors.New("failed to decrypt document")
)

// Document errors indicate problems with document content or structure.
var (
	// ErrParse indicates structured text could not be parsed.
	ErrParse = errors.New("malformed document")

	// ErrStructureConflict indicates two flattened paths cannot coexist in one tree,
	// for example "a" holding a value while "a.b" also exists.
	ErrStructureConflict = errors.New("path conflicts with existing structure")

	// ErrArrayPath indicates a flattened path addresses an array element,
	// which cannot be written back.
	ErrArrayPath = errors.New("array paths cannot be saved")

	// ErrUnsupportedFormat indicates the document format cannot be determined.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrNoDocumentOpen indicates an operation needs an open document.
	ErrNoDocumentOpen = errors.New("no document is open")

	// ErrEntryNotFound indicates a secret path does not exist in the open document.
	ErrEntryNotFound = errors.New("secret not found")

	// ErrInvalidPath indicates a secret path is empty or malformed.
	ErrInvalidPath = errors.New("invalid secret path")

	// ErrFileExists indicates a new document would overwrite an existing file.
	ErrFileExists = errors.New("file already exists")
)

// Audit errors indicate problems reading the audit log.
var (
	// ErrNoAuditLog indicates nothing has been logged yet.
	ErrNoAuditLog = errors.New("no audit log found")

	// ErrInvalidDateFormat indicates a date filter is not YYYY-MM-DD.
	ErrInvalidDateFormat = errors.New("invalid date format")
)

// Key errors indicate that no usable key is available.
var (
	// ErrKeyMismatch indicates the chosen key could not decrypt the document.
	// It is not fatal: the caller should ask for an explicit key.
	ErrKeyMismatch = errors.New("key does not decrypt this document")

	// ErrKeyNotFound indicates the requested key index or key file does not exist.
	ErrKeyNotFound = errors.New("age key not found")

	// ErrInvalidKey indicates key material is malformed.
	ErrInvalidKey = errors.New("invalid age key")
)

// Manifest errors indicate problems with the .sops.yaml key manifest.
var (
	// ErrManifestNotFound indicates no .sops.yaml exists in the directory or any ancestor.
	ErrManifestNotFound = errors.New("no .sops.yaml found")

	// ErrManifestExists indicates a .sops.yaml already exists where one would be created.
	ErrManifestExists = errors.New(".sops.yaml already exists")

	// ErrNoRecipients indicates no public keys were provided for a manifest.
	ErrNoRecipients = errors.New("no recipients selected")
)
