package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
	logger "github.com/PolarWolf314/sopsmith/internal/logging"
	"github.com/PolarWolf314/sopsmith/internal/sops"
	"github.com/PolarWolf314/sopsmith/internal/transcode"
)

// Encryptor encrypts a plaintext JSON file in place.
type Encryptor interface {
	EncryptInPlace(ctx context.Context, path string, format transcode.Format, ageKey string) error
}

// FieldRefresher recomputes the encrypted fields of a file after a save.
type FieldRefresher func(path string, format transcode.Format) (sops.FieldSet, error)

// Document is a decrypted document ready to be loaded into a Session.
type Document struct {
	Path       string
	Format     transcode.Format
	Entries    []transcode.Entry
	Encrypted  sops.FieldSet
	Recipients []string

	// Key is the age private key used to decrypt, reused to encrypt.
	// Empty means the configured key file.
	Key string
}

// Session is the editing state of one open document.
type Session struct {
	doc      *Document
	modified bool

	autoLock     time.Duration
	lastActivity time.Time
	now          func() time.Time

	encryptor Encryptor
	refresh   FieldRefresher
	log       logger.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithFieldRefresher replaces sops.EncryptedFieldsAs as the post-save refresh.
func WithFieldRefresher(fn FieldRefresher) Option {
	return func(s *Session) { s.refresh = fn }
}

// WithAutoLock locks the session after d without activity. Zero disables it.
func WithAutoLock(d time.Duration) Option {
	return func(s *Session) { s.autoLock = d }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// NewSession returns an empty session that encrypts through enc.
func NewSession(enc Encryptor, log logger.Logger, opts ...Option) *Session {
	s := &Session{
		encryptor: enc,
		refresh:   sops.EncryptedFieldsAs,
		now:       time.Now,
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastActivity = s.now()
	return s
}

// Load replaces the open document, discarding any unsaved entries.
func (s *Session) Load(doc Document) {
	if s.doc != nil && s.modified {
		s.log.Debugf("Discarding unsaved changes to %s", s.doc.Path)
	}
	d := doc
	d.Entries = append([]transcode.Entry(nil), doc.Entries...)
	s.doc = &d
	s.modified = false
	s.Touch()
}

// Lock forgets the open document and its entries.
func (s *Session) Lock() {
	s.doc = nil
	s.modified = false
}

func (s *Session) IsOpen() bool { return s.doc != nil }

func (s *Session) Modified() bool { return s.modified }

// Path returns the path of the open document, or "".
func (s *Session) Path() string {
	if s.doc == nil {
		return ""
	}
	return s.doc.Path
}

// Format returns the format of the open document.
func (s *Session) Format() transcode.Format {
	if s.doc == nil {
		return transcode.JSON
	}
	return s.doc.Format
}

// Recipients returns the recipients read from the document metadata.
func (s *Session) Recipients() []string {
	if s.doc == nil {
		return nil
	}
	return s.doc.Recipients
}

// Entries returns a copy of the entries in display order.
func (s *Session) Entries() []transcode.Entry {
	if s.doc == nil {
		return nil
	}
	return append([]transcode.Entry(nil), s.doc.Entries...)
}

// Len returns the number of entries.
func (s *Session) Len() int {
	if s.doc == nil {
		return 0
	}
	return len(s.doc.Entries)
}

// IsEncrypted reports whether path was ciphertext on disk at the last
// load or save. It is used for masking only.
func (s *Session) IsEncrypted(path string) bool {
	return s.doc != nil && s.doc.Encrypted.Has(path)
}

// Find returns the index of the first entry with path.
func (s *Session) Find(path string) (int, bool) {
	if s.doc == nil {
		return 0, false
	}
	for i, e := range s.doc.Entries {
		if e.Path == path {
			return i, true
		}
	}
	return 0, false
}

// Add appends a new entry.
func (s *Session) Add(path, value string) error {
	if s.doc == nil {
		return kerrors.ErrNoDocumentOpen
	}
	s.doc.Entries = append(s.doc.Entries, transcode.Entry{Path: path, Value: value})
	s.changed()
	return nil
}

// Edit replaces the entry at index i.
func (s *Session) Edit(i int, path, value string) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	s.doc.Entries[i] = transcode.Entry{Path: path, Value: value}
	s.changed()
	return nil
}

// Delete removes the entry at index i.
func (s *Session) Delete(i int) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	s.doc.Entries = append(s.doc.Entries[:i], s.doc.Entries[i+1:]...)
	s.changed()
	return nil
}

// Set updates the first entry with path, or appends one.
func (s *Session) Set(path, value string) error {
	if i, ok := s.Find(path); ok {
		return s.Edit(i, path, value)
	}
	return s.Add(path, value)
}

// Unset deletes the first entry with path.
func (s *Session) Unset(path string) error {
	if s.doc == nil {
		return kerrors.ErrNoDocumentOpen
	}
	i, ok := s.Find(path)
	if !ok {
		return fmt.Errorf("%w: %s", kerrors.ErrEntryNotFound, path)
	}
	return s.Delete(i)
}

// Search returns the indexes of entries whose path or value matches query:
// a case-insensitive substring, or a regular expression when useRegex is
// set. An empty query matches everything.
func (s *Session) Search(query string, useRegex bool) ([]int, error) {
	if s.doc == nil {
		return nil, nil
	}

	match := func(e transcode.Entry) bool { return true }
	switch {
	case query == "":
	case useRegex:
		re, err := regexp.Compile(query)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid search pattern: %v", kerrors.ErrParse, err)
		}
		match = func(e transcode.Entry) bool { return re.MatchString(e.Path) || re.MatchString(e.Value) }
	default:
		q := strings.ToLower(query)
		match = func(e transcode.Entry) bool {
			return strings.Contains(strings.ToLower(e.Path), q) || strings.Contains(strings.ToLower(e.Value), q)
		}
	}

	var out []int
	for i, e := range s.doc.Entries {
		if match(e) {
			out = append(out, i)
		}
	}
	return out, nil
}

// Touch records user activity for auto-lock.
func (s *Session) Touch() {
	s.lastActivity = s.now()
}

// ShouldAutoLock reports whether the open session has been idle longer
// than the auto-lock interval.
func (s *Session) ShouldAutoLock() bool {
	if s.doc == nil || s.autoLock <= 0 {
		return false
	}
	return s.now().Sub(s.lastActivity) >= s.autoLock
}

func (s *Session) checkIndex(i int) error {
	if s.doc == nil {
		return kerrors.ErrNoDocumentOpen
	}
	if i < 0 || i >= len(s.doc.Entries) {
		return fmt.Errorf("%w: index %d", kerrors.ErrEntryNotFound, i)
	}
	return nil
}

func (s *Session) changed() {
	s.modified = true
	s.Touch()
}
