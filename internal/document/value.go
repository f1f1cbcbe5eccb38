package document

import (
	"math"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Member is one key/value pair of an Object.
type Member struct {
	Key   string
	Value Value
}

// Value is an immutable node of a document tree. The zero Value is Null.
type Value struct {
	kind    Kind
	boolean bool
	text    string // string content, or the canonical literal of a number
	items   []Value
	members []Member
}

// NullValue returns the Null value.
func NullValue() Value { return Value{kind: Null} }

// BoolValue wraps b.
func BoolValue(b bool) Value { return Value{kind: Bool, boolean: b} }

// StringValue wraps s.
func StringValue(s string) Value { return Value{kind: String, text: s} }

// IntValue wraps an integer.
func IntValue(n int64) Value {
	return Value{kind: Number, text: strconv.FormatInt(n, 10)}
}

// FloatValue wraps a finite float. ok is false for NaN and infinities,
// which have no JSON representation.
func FloatValue(f float64) (v Value, ok bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, false
	}
	return Value{kind: Number, text: strconv.FormatFloat(f, 'f', -1, 64)}, true
}

// NumberLiteral wraps a number given in its textual form. The literal must
// be a valid JSON number; callers that cannot guarantee that should use
// IntValue or FloatValue.
func NumberLiteral(lit string) Value {
	return Value{kind: Number, text: lit}
}

// ArrayValue builds an Array from items in order.
func ArrayValue(items ...Value) Value {
	return Value{kind: Array, items: items}
}

// ObjectValue builds an Object from members in order.
func ObjectValue(members ...Member) Value {
	return Value{kind: Object, members: members}
}

func (v Value) Kind() Kind { return v.kind }

// Bool returns the boolean content; false for non-Bool values.
func (v Value) Bool() bool { return v.boolean }

// Str returns the string content of a String, or the literal of a Number.
func (v Value) Str() string { return v.text }

// Float returns the numeric content of a Number.
func (v Value) Float() float64 {
	f, _ := strconv.ParseFloat(v.text, 64)
	return f
}

// Items returns the elements of an Array.
func (v Value) Items() []Value { return v.items }

// Members returns the members of an Object in document order.
func (v Value) Members() []Member { return v.members }

// Get looks up key in an Object. Duplicate keys resolve to the last one,
// matching how JSON decoders treat them.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != Object {
		return Value{}, false
	}
	for i := len(v.members) - 1; i >= 0; i-- {
		if v.members[i].Key == key {
			return v.members[i].Value, true
		}
	}
	return Value{}, false
}

// Text returns the canonical textual form of a scalar: string content
// without quotes, "true"/"false", the number literal, or "null".
// Containers return an empty string.
func (v Value) Text() string {
	switch v.kind {
	case Null:
		return "null"
	case Bool:
		return strconv.FormatBool(v.boolean)
	case Number, String:
		return v.text
	case Array, Object:
		return ""
	default:
		return ""
	}
}

// IsScalar reports whether v is neither an Array nor an Object.
func (v Value) IsScalar() bool {
	return v.kind != Array && v.kind != Object
}

// Equal reports whether two trees hold the same data. Numbers compare by
// value, so 3.0 equals 3.00.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Null:
		return true
	case Bool:
		return v.boolean == o.boolean
	case Number:
		if v.text == o.text {
			return true
		}
		return v.Float() == o.Float()
	case String:
		return v.text == o.text
	case Array:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case Object:
		if len(v.members) != len(o.members) {
			return false
		}
		for i := range v.members {
			if v.members[i].Key != o.members[i].Key || !v.members[i].Value.Equal(o.members[i].Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
