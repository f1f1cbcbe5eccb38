package transcode

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PolarWolf314/sopsmith/internal/document"
)

// Infer converts a raw value into a typed scalar. The first matching rule
// wins:
//
//  1. wrapped in matching " or ' quotes: string with the quotes removed
//  2. "true" or "false": boolean
//  3. a base-10 int64: integer number
//  4. a finite decimal float64: float number; hex floats such as 0x1p4
//     stay strings
//  5. "null": null
//  6. anything else: the raw string
func Infer(raw string) document.Value {
	if IsWrapped(raw) {
		return document.StringValue(raw[1 : len(raw)-1])
	}

	if raw == "true" || raw == "false" {
		return document.BoolValue(raw == "true")
	}

	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return document.IntValue(n)
	}

	if f, err := strconv.ParseFloat(raw, 64); err == nil && !isHex(raw) {
		// Keep the user's spelling when it is already valid JSON.
		if json.Valid([]byte(raw)) {
			if _, ok := document.FloatValue(f); ok {
				return document.NumberLiteral(raw)
			}
		}
		if v, ok := document.FloatValue(f); ok {
			return v
		}
	}

	if raw == "null" {
		return document.NullValue()
	}

	return document.StringValue(raw)
}

func isHex(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")
}

// IsWrapped reports whether s is at least two bytes long and starts and ends
// with the same quote character.
func IsWrapped(s string) bool {
	if len(s) < 2 {
		return false
	}
	first, last := s[0], s[len(s)-1]
	return first == last && (first == '"' || first == '\'')
}
