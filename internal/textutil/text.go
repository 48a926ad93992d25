// Package textutil holds small string helpers shared by the judge-output
// parsers and log formatting.
package textutil

import (
	"strings"
	"unicode/utf8"
)

// Truncate returns s unchanged if len(s) <= maxLen (measured in bytes).
// Otherwise it cuts at maxLen without splitting a UTF-8 sequence and
// appends suffix.
func Truncate(s string, maxLen int, suffix string) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 0 {
		maxLen = 0
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + suffix
}

// StripCodeFences removes a markdown code fence (optionally tagged json)
// around a model response. Responses that already start with '{' are
// returned trimmed, since a fence inside a string value must survive.
func StripCodeFences(s string) string {
	text := strings.TrimSpace(s)
	if text == "" || text[0] == '{' {
		return text
	}
	idx := strings.Index(text, "```")
	if idx < 0 {
		return text
	}
	text = text[idx+3:]
	text = strings.TrimPrefix(text, "json")
	text = strings.TrimPrefix(text, "JSON")
	if end := strings.LastIndex(text, "```"); end >= 0 {
		text = text[:end]
	}
	return strings.TrimSpace(text)
}

// SanitizeJSON repairs the mistakes models commonly make in otherwise valid
// JSON: curly quotes used as delimiters, raw newlines and tabs inside
// string literals, and trailing commas before a closing bracket. Text
// before the first '{' is dropped.
func SanitizeJSON(s string) string {
	if i := strings.IndexByte(s, '{'); i > 0 {
		s = s[i:]
	}
	s = strings.NewReplacer("“", `"`, "”", `"`).Replace(s)

	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			case c == '\n':
				b.WriteString(`\n`)
				continue
			case c == '\r':
				continue
			case c == '\t':
				b.WriteString(`\t`)
				continue
			}
			b.WriteByte(c)
			continue
		}
		switch c {
		case '"':
			inString = true
		case ',':
			if next := nextNonSpace(s, i+1); next == '}' || next == ']' {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

func nextNonSpace(s string, from int) byte {
	for i := from; i < len(s); i++ {
		switch s[i] {
		case ' ', '\n', '\r', '\t':
			continue
		default:
			return s[i]
		}
	}
	return 0
}
