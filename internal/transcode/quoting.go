package transcode

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var quoteEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// NeedsQuoting reports whether v must be wrapped in double quotes to
// survive a dotenv or INI line intact: it holds a comment marker, a quote,
// a line break, a tab or a space, starts or ends with whitespace, or
// starts with a quote character.
func NeedsQuoting(v string) bool {
	if v == "" {
		return false
	}
	if strings.ContainsAny(v, "#;\"\n\r\t ") {
		return true
	}
	first, _ := utf8.DecodeRuneInString(v)
	last, _ := utf8.DecodeLastRuneInString(v)
	if unicode.IsSpace(first) || unicode.IsSpace(last) {
		return true
	}
	return first == '\''
}

// Quote wraps v in double quotes, escaping backslashes, quotes and control
// whitespace, when NeedsQuoting(v). Otherwise v is returned unchanged.
func Quote(v string) string {
	if !NeedsQuoting(v) {
		return v
	}
	return `"` + quoteEscaper.Replace(v) + `"`
}

// Unquote reverses Quote. A value wrapped in matching quotes is stripped
// and its escapes decoded; anything else is only trimmed.
func Unquote(v string) string {
	trimmed := strings.TrimSpace(v)
	if !IsWrapped(trimmed) {
		return trimmed
	}
	return unescape(trimmed[1 : len(trimmed)-1])
}

// unescape decodes \n, \r, \t, \", \' and \\ in one pass. Unknown escapes
// are kept verbatim.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case '"', '\'', '\\':
			b.WriteByte(s[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
