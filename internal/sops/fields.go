package sops

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/PolarWolf314/sopsmith/internal/document"
	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
	"github.com/PolarWolf314/sopsmith/internal/transcode"
)

// CiphertextMarker prefixes every value sops has encrypted.
const CiphertextMarker = "ENC["

// FieldSet is a set of flattened paths.
type FieldSet map[string]struct{}

// NewFieldSet builds a set from paths.
func NewFieldSet(paths ...string) FieldSet {
	s := make(FieldSet, len(paths))
	for _, p := range paths {
		s[p] = struct{}{}
	}
	return s
}

// Has reports whether path is in the set. A nil set holds nothing.
func (s FieldSet) Has(path string) bool {
	_, ok := s[path]
	return ok
}

// Sorted returns the paths in lexical order.
func (s FieldSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// EncryptedFields reads the encrypted document at path and returns the
// paths whose values are still ciphertext. The format comes from the
// file name.
func EncryptedFields(path string) (FieldSet, error) {
	return EncryptedFieldsAs(path, transcode.DetectFormat(path))
}

// EncryptedFieldsAs is EncryptedFields with an explicit format.
func EncryptedFieldsAs(path string, format transcode.Format) (FieldSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", kerrors.ErrIO, path, err)
	}

	if format.IsLineOriented() {
		return LineEncryptedFields(string(data), format), nil
	}

	v, err := decodeStructural(format, data)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return StructuralEncryptedFields(v), nil
}

func decodeStructural(format transcode.Format, data []byte) (document.Value, error) {
	if format == transcode.YAML {
		return document.DecodeYAML(data)
	}
	return document.DecodeJSON(data)
}

// StructuralEncryptedFields walks a JSON or YAML document and collects the
// paths of string values starting with CiphertextMarker. The top-level
// metadata key is skipped.
func StructuralEncryptedFields(v document.Value) FieldSet {
	set := FieldSet{}
	walkEncrypted(v, "", true, set)
	return set
}

func walkEncrypted(v document.Value, prefix string, root bool, set FieldSet) {
	switch v.Kind() {
	case document.Object:
		for _, m := range v.Members() {
			if root && m.Key == transcode.MetadataKey {
				continue
			}
			child := m.Key
			if prefix != "" {
				child = prefix + "." + m.Key
			}
			walkEncrypted(m.Value, child, false, set)
		}
	case document.Array:
		for i, item := range v.Items() {
			walkEncrypted(item, prefix+"["+strconv.Itoa(i)+"]", false, set)
		}
	case document.String:
		if strings.HasPrefix(v.Str(), CiphertextMarker) {
			set[prefix] = struct{}{}
		}
	case document.Null, document.Bool, document.Number:
	}
}

// LineEncryptedFields scans dotenv or INI text for keys whose value
// contains CiphertextMarker. Blank lines, comments starting with # or ;,
// section headers and sops metadata are skipped.
//
// INI keys are reported the way they are shown after decryption, as
// transcode.INIPath of their section and key.
func LineEncryptedFields(text string, format transcode.Format) FieldSet {
	set := FieldSet{}
	section := ""

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if format == transcode.INI && strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(line[1 : len(line)-1])
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if isMetadataKey(format, section, key) {
			continue
		}
		if !strings.Contains(value, CiphertextMarker) {
			continue
		}

		if format == transcode.INI {
			key = transcode.INIPath(section, key)
		}
		set[key] = struct{}{}
	}
	return set
}

func isMetadataKey(format transcode.Format, section, key string) bool {
	if format == transcode.INI {
		return section == transcode.MetadataKey
	}
	return strings.HasPrefix(key, transcode.MetadataKey+"_")
}
