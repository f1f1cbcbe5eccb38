package transcode

import (
	"strconv"
	"strings"

	"github.com/PolarWolf314/sopsmith/internal/document"
)

// Flatten walks v depth-first and returns one Entry per scalar, in document
// order. Object keys extend the prefix with ".key" and array elements with
// "[i]". The top-level MetadataKey subtree is skipped.
func Flatten(v document.Value, prefix string) []Entry {
	var out []Entry
	flatten(v, prefix, true, &out)
	return out
}

func flatten(v document.Value, prefix string, root bool, out *[]Entry) {
	switch v.Kind() {
	case document.Object:
		for _, m := range v.Members() {
			if root && m.Key == MetadataKey {
				continue
			}
			child := m.Key
			if prefix != "" {
				child = prefix + "." + m.Key
			}
			flatten(m.Value, child, false, out)
		}
	case document.Array:
		for i, item := range v.Items() {
			flatten(item, prefix+"["+strconv.Itoa(i)+"]", false, out)
		}
	case document.Null, document.Bool, document.Number, document.String:
		*out = append(*out, Entry{Path: prefix, Value: v.Text()})
	}
}

// FromDocument flattens a decrypted document the way it is shown to the
// user. INI paths are rewritten with INIPath, so plain keys of the default
// section lose their "DEFAULT." prefix.
func FromDocument(format Format, v document.Value) []Entry {
	entries := Flatten(v, "")
	if format != INI {
		return entries
	}
	for i := range entries {
		if section, key, ok := strings.Cut(entries[i].Path, "."); ok {
			entries[i].Path = INIPath(section, key)
		}
	}
	return entries
}
