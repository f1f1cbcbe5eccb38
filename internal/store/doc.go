// Package store holds the secrets of the one document open in a session
// and saves them back through sops.
//
// A Session is owned by its caller and passed explicitly; the package keeps
// no process-wide state. Loading a document replaces whatever was open
// before. Any Add, Edit, Set, Delete or Unset marks the session modified
// until the next successful Save or Load.
//
// # Saving
//
// Save is all-or-nothing from the caller's point of view:
//
//  1. The entries are rebuilt into a JSON intermediate. Structure conflicts
//     and array paths fail here, before any file is touched.
//  2. The encrypted file is copied to a backup that did not exist before,
//     BackupPath(path) or a numbered sibling of it.
//  3. The plaintext intermediate is written over the file.
//  4. sops encrypts the file in place.
//  5. On success the backup is removed, the session becomes clean and the
//     encrypted field set is refreshed.
//  6. On failure the file is restored from the backup, the backup is
//     removed and the session stays modified.
//
// Between steps 3 and 4 the file on disk holds plaintext. If the process
// dies in that window the backup is the only encrypted copy and must be
// restored by hand. The swap is not atomic.
package store
