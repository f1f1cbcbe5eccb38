package transcode

import (
	"fmt"
	"strings"

	"github.com/PolarWolf314/sopsmith/internal/document"
	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
)

// BuildIntermediate turns the edited entries into the JSON tree handed to
// sops for encryption.
//
//   - JSON and YAML are rebuilt as nested objects with Unflatten.
//   - Dotenv is a flat object; dotted keys are kept verbatim.
//   - INI is one object per section, see SplitINIPath.
//
// Values are typed with Infer in every format.
func BuildIntermediate(format Format, entries []Entry) (document.Value, error) {
	switch format {
	case Dotenv:
		b := newObjectBuilder()
		for _, e := range entries {
			s, _ := b.slot(e.Path)
			s.leaf = Infer(e.Value)
		}
		return b.value(), nil
	case INI:
		return iniSections(entries)
	default:
		return Unflatten(entries)
	}
}

// INIPath is the flattened path of key in section. Keys of the default
// section are shown bare unless they contain a dot themselves.
func INIPath(section, key string) string {
	if (section == "" || section == DefaultSection) && !strings.Contains(key, ".") {
		return key
	}
	if section == "" {
		section = DefaultSection
	}
	return section + "." + key
}

// SplitINIPath is the inverse of INIPath: the first dot separates the
// section from the key, and paths without a dot live in DEFAULT.
func SplitINIPath(path string) (section, key string) {
	if section, key, ok := strings.Cut(path, "."); ok {
		return section, key
	}
	return DefaultSection, path
}

// iniSections groups entries by section. Two different paths landing on
// the same section and key, such as "x" and "DEFAULT.x", are a conflict.
func iniSections(entries []Entry) (document.Value, error) {
	root := newObjectBuilder()
	origin := map[[2]string]string{}

	for _, e := range entries {
		section, key := SplitINIPath(e.Path)
		at := [2]string{section, key}
		if prev, ok := origin[at]; ok && prev != e.Path {
			return document.Value{}, fmt.Errorf("%w: %q and %q are both %q in section [%s]",
				kerrors.ErrStructureConflict, prev, e.Path, key, section)
		}
		origin[at] = e.Path

		s, _ := root.slot(section)
		if s.child == nil {
			s.child = newObjectBuilder()
		}
		leaf, _ := s.child.slot(key)
		leaf.leaf = Infer(e.Value)
	}

	if len(root.keys) == 0 {
		s, _ := root.slot(DefaultSection)
		s.child = newObjectBuilder()
	}
	return root.value(), nil
}
