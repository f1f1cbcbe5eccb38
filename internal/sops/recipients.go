package sops

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/PolarWolf314/sopsmith/internal/document"
	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
	"github.com/PolarWolf314/sopsmith/internal/transcode"
)

// Recipients returns the age public keys listed in the metadata of the
// encrypted document at path, in file order without duplicates.
func Recipients(path string) ([]string, error) {
	return RecipientsAs(path, transcode.DetectFormat(path))
}

// RecipientsAs is Recipients for a document whose format is not implied by
// its file name.
func RecipientsAs(path string, format transcode.Format) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", kerrors.ErrIO, path, err)
	}

	if format.IsLineOriented() {
		return lineRecipients(string(data), format), nil
	}

	v, err := decodeStructural(format, data)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return StructuralRecipients(v), nil
}

// StructuralRecipients reads sops.age[].recipient from a decoded document.
func StructuralRecipients(v document.Value) []string {
	meta, ok := v.Get(transcode.MetadataKey)
	if !ok {
		return nil
	}
	ageList, ok := meta.Get("age")
	if !ok || ageList.Kind() != document.Array {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	for _, item := range ageList.Items() {
		r, ok := item.Get("recipient")
		if !ok || r.Kind() != document.String || seen[r.Str()] {
			continue
		}
		seen[r.Str()] = true
		out = append(out, r.Str())
	}
	return out
}

// lineRecipients reads recipients from flattened sops metadata. Dotenv
// stores them as sops_age__list_N__map_recipient=...; INI stores them in a
// [sops] section as age__list_N__map_recipient = ....
func lineRecipients(text string, format transcode.Format) []string {
	var out []string
	seen := make(map[string]bool)
	section := ""

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if format == transcode.INI && strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(line[1 : len(line)-1])
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if format == transcode.INI {
			if section != transcode.MetadataKey {
				continue
			}
			key = transcode.MetadataKey + "_" + key
		}
		if !strings.HasPrefix(key, "sops_age__list_") || !strings.HasSuffix(key, "__map_recipient") {
			continue
		}

		r := transcode.Unquote(value)
		if r != "" && !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}
