package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/PolarWolf314/sopsmith/internal/document"
	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
	"github.com/PolarWolf314/sopsmith/internal/sops"
	"github.com/PolarWolf314/sopsmith/internal/transcode"
)

// SaveResult describes a completed save.
type SaveResult struct {
	Path    string
	Entries int

	// RefreshErr is set when the file was saved but its encrypted fields
	// could not be re-read. The previous field set is kept.
	RefreshErr error

	// RemovedTemp lists sops leftovers removed next to the file.
	RemovedTemp []string
}

// BackupPath returns the preferred sibling backup used while saving path.
// The extension is replaced by .bak; names without an extension, dotfiles
// such as .env, and files already ending in .bak get .bak appended so the
// result never equals path.
func BackupPath(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext == "" || ext == base || strings.EqualFold(ext, ".bak") {
		return path + ".bak"
	}
	return strings.TrimSuffix(path, ext) + ".bak"
}

// maxBackupAttempts bounds the numbered fallbacks tried by createBackup.
const maxBackupAttempts = 100

// createBackup copies path to a backup file that did not exist before. An
// existing file at BackupPath(path) belongs to the user and is never
// overwritten; numbered names such as secrets.bak.1 are tried instead.
func (s *Session) createBackup(path string, perm fs.FileMode) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	preferred := BackupPath(path)
	for i := 0; i < maxBackupAttempts; i++ {
		name := preferred
		if i > 0 {
			name = fmt.Sprintf("%s.%d", preferred, i)
		}
		f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
		if stderrors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		if i > 0 {
			s.log.Warnf("%s already exists, backing up to %s instead", preferred, name)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(name)
			return "", err
		}
		if err := f.Close(); err != nil {
			os.Remove(name)
			return "", err
		}
		return name, nil
	}
	return "", fmt.Errorf("no free backup name next to %s", path)
}

// Save writes the entries back to the open document and re-encrypts it.
// On any failure after the backup is taken the original bytes are put
// back and the session stays modified.
func (s *Session) Save(ctx context.Context) (*SaveResult, error) {
	if s.doc == nil {
		return nil, kerrors.ErrNoDocumentOpen
	}
	doc := s.doc
	s.Touch()

	intermediate, err := transcode.BuildIntermediate(doc.Format, doc.Entries)
	if err != nil {
		return nil, err
	}
	plaintext, err := document.EncodeJSON(intermediate)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(doc.Path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrFileNotFound, doc.Path)
		}
		return nil, fmt.Errorf("%w: %v", kerrors.ErrIO, err)
	}
	perm := info.Mode().Perm()

	backup, err := s.createBackup(doc.Path, perm)
	if err != nil {
		return nil, fmt.Errorf("%w: creating backup of %s: %v", kerrors.ErrIO, doc.Path, err)
	}
	s.log.Debugf("Backed up %s to %s", doc.Path, backup)

	if err := os.WriteFile(doc.Path, plaintext, perm); err != nil {
		return nil, s.rollback(doc.Path, backup, perm, fmt.Errorf("%w: writing %s: %v", kerrors.ErrIO, doc.Path, err))
	}

	if err := s.encryptor.EncryptInPlace(ctx, doc.Path, doc.Format, doc.Key); err != nil {
		if !stderrors.Is(err, kerrors.ErrEncryptFailed) {
			err = fmt.Errorf("%w: %w", kerrors.ErrEncryptFailed, err)
		}
		return nil, s.rollback(doc.Path, backup, perm, err)
	}

	if err := os.Remove(backup); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		s.log.Warnf("Could not remove backup %s: %v", backup, err)
	}
	s.modified = false

	result := &SaveResult{Path: doc.Path, Entries: len(doc.Entries)}

	removed, err := sops.CleanupTempFiles(doc.Path)
	if err != nil {
		s.log.Warnf("Could not clean up temporary files next to %s: %v", doc.Path, err)
	}
	result.RemovedTemp = removed

	fields, err := s.refresh(doc.Path, doc.Format)
	if err != nil {
		s.log.Warnf("Saved %s but could not refresh encrypted fields: %v", doc.Path, err)
		result.RefreshErr = err
		return result, nil
	}
	doc.Encrypted = fields
	return result, nil
}

// rollback restores path from backup and removes the backup. If the
// restore itself fails the backup is left in place for manual recovery.
func (s *Session) rollback(path, backup string, perm fs.FileMode, cause error) error {
	if err := copyFile(backup, path, perm); err != nil {
		s.log.Errorf("Could not restore %s, the encrypted original is kept at %s", path, backup)
		return fmt.Errorf("%w (restore failed: %v)", cause, err)
	}
	if err := os.Remove(backup); err != nil {
		s.log.Warnf("Could not remove backup %s: %v", backup, err)
	}
	return cause
}

func copyFile(src, dst string, perm fs.FileMode) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, perm)
}
