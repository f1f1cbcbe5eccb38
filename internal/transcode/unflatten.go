package transcode

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PolarWolf314/sopsmith/internal/document"
	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
)

var arraySegment = regexp.MustCompile(`\[\d+\]$`)

// objectBuilder accumulates an Object while remembering key order.
type objectBuilder struct {
	keys  []string
	slots map[string]*slot
}

// slot holds either a leaf value or a nested object, never both.
type slot struct {
	leaf  document.Value
	child *objectBuilder
}

func newObjectBuilder() *objectBuilder {
	return &objectBuilder{slots: make(map[string]*slot)}
}

func (b *objectBuilder) slot(key string) (*slot, bool) {
	s, ok := b.slots[key]
	if !ok {
		s = &slot{}
		b.slots[key] = s
		b.keys = append(b.keys, key)
	}
	return s, ok
}

func (b *objectBuilder) value() document.Value {
	members := make([]document.Member, 0, len(b.keys))
	for _, k := range b.keys {
		s := b.slots[k]
		if s.child != nil {
			members = append(members, document.Member{Key: k, Value: s.child.value()})
		} else {
			members = append(members, document.Member{Key: k, Value: s.leaf})
		}
	}
	return document.ObjectValue(members...)
}

// Unflatten rebuilds a nested Object from entries, splitting each path on
// "." and inferring the leaf type with Infer. A repeated path keeps its
// first position and its last value.
//
// It returns ErrStructureConflict when one path needs a nested object where
// another path stored a scalar, and ErrArrayPath for bracketed array paths.
// Both are detected before anything is returned, so callers can abort a
// save without side effects.
func Unflatten(entries []Entry) (document.Value, error) {
	root := newObjectBuilder()

	for _, e := range entries {
		segments := strings.Split(e.Path, ".")
		for _, seg := range segments {
			if arraySegment.MatchString(seg) {
				return document.Value{}, fmt.Errorf("%w: %q", kerrors.ErrArrayPath, e.Path)
			}
		}

		cur := root
		for i, seg := range segments[:len(segments)-1] {
			s, existed := cur.slot(seg)
			if existed && s.child == nil {
				return document.Value{}, fmt.Errorf("%w: %q needs %q to be an object",
					kerrors.ErrStructureConflict, e.Path, strings.Join(segments[:i+1], "."))
			}
			if s.child == nil {
				s.child = newObjectBuilder()
			}
			cur = s.child
		}

		s, _ := cur.slot(segments[len(segments)-1])
		if s.child != nil {
			return document.Value{}, fmt.Errorf("%w: %q already holds nested keys",
				kerrors.ErrStructureConflict, e.Path)
		}
		s.leaf = Infer(e.Value)
	}

	return root.value(), nil
}
