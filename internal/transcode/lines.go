package transcode

import (
	"bufio"
	"strings"
)

// RenderDotenv writes entries as KEY=value lines, quoting values with
// Quote. Paths are used verbatim as keys.
func RenderDotenv(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Path)
		b.WriteByte('=')
		b.WriteString(Quote(e.Value))
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderINI writes entries as INI. Paths without a dot come first, outside
// any section; "section.key" paths are grouped under [section] in order of
// first appearance.
func RenderINI(entries []Entry) string {
	type section struct {
		name  string
		lines []string
	}
	var global []string
	var sections []*section
	byName := map[string]*section{}

	for _, e := range entries {
		line := func(key string) string { return key + " = " + Quote(e.Value) }
		name, key, ok := strings.Cut(e.Path, ".")
		if !ok {
			global = append(global, line(e.Path))
			continue
		}
		s, seen := byName[name]
		if !seen {
			s = &section{name: name}
			byName[name] = s
			sections = append(sections, s)
		}
		s.lines = append(s.lines, line(key))
	}

	var b strings.Builder
	for _, l := range global {
		b.WriteString(l + "\n")
	}
	for i, s := range sections {
		if i > 0 || len(global) > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("[" + s.name + "]\n")
		for _, l := range s.lines {
			b.WriteString(l + "\n")
		}
	}
	return b.String()
}

// ParseDotenv reads plaintext KEY=value lines. Blank lines, # comments and
// an optional "export " prefix are skipped, values go through Unquote and
// sops metadata keys are dropped.
func ParseDotenv(text string) []Entry {
	var entries []Entry
	scanLines(text, func(line string) {
		if strings.HasPrefix(line, "#") {
			return
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" || strings.HasPrefix(key, MetadataKey+"_") {
			return
		}
		entries = append(entries, Entry{Path: key, Value: Unquote(value)})
	})
	return entries
}

// ParseINI reads plaintext INI. Paths are built with INIPath, so keys in
// the DEFAULT section or before any section keep their name and others
// become "section.key". Comments start with # or ;, and the sops section
// is dropped.
func ParseINI(text string) []Entry {
	var entries []Entry
	section := ""
	scanLines(text, func(line string) {
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			return
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(line[1 : len(line)-1])
			return
		}
		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" || section == MetadataKey {
			return
		}
		entries = append(entries, Entry{Path: INIPath(section, key), Value: Unquote(value)})
	})
	return entries
}

func scanLines(text string, fn func(line string)) {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			fn(line)
		}
	}
}
