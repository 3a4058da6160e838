package payload

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// maxAssignmentSteps bounds how many JS tokens are skipped after a marker.
const maxAssignmentSteps = 64

// ExtractBalancedBraceJSON returns source[start:] up to the brace matching the
// '{' at start. Braces inside double-quoted strings are ignored.
func ExtractBalancedBraceJSON(source string, start int) (string, bool) {
	if start < 0 || start >= len(source) || source[start] != '{' {
		return "", false
	}
	end := balancedEnd(source, start)
	if end < 0 {
		return "", false
	}
	return source[start : end+1], true
}

// balancedEnd finds the closer of the '{' or '[' at start, or -1.
func balancedEnd(source string, start int) int {
	depth := 0
	inStr := false
	escaped := false
	for i := start; i < len(source); i++ {
		c := source[i]
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i
			}
			if depth < 0 {
				return -1
			}
		}
	}
	return -1
}

// ExtractJSONFromAssignment finds markerText in source and returns the JSON value
// assigned after it. It skips the JS that typically sits between the name and the
// value: "=", wrapping parens, "||" fallbacks, member chains such as window.X or
// window["X"], and JSON.parse(...)/decodeURIComponent(...) calls around a string
// literal. Every occurrence of the marker is tried in order.
func ExtractJSONFromAssignment(source, markerText string) (json.RawMessage, bool) {
	if markerText == "" {
		return nil, false
	}
	from := 0
	for {
		idx := strings.Index(source[from:], markerText)
		if idx < 0 {
			return nil, false
		}
		pos := from + idx + len(markerText)
		if raw, ok := valueAfter(source, pos); ok {
			return raw, true
		}
		from = pos
	}
}

func valueAfter(source string, pos int) (json.RawMessage, bool) {
	// window["name"] = ... when the marker stops inside the brackets.
	if strings.HasPrefix(source[pos:], `"]`) || strings.HasPrefix(source[pos:], `']`) {
		pos += 2
	}
	for step := 0; step < maxAssignmentSteps && pos < len(source); step++ {
		c := source[pos]
		switch {
		case isSpace(c):
			pos++
		case strings.IndexByte("=()!|&?:+,", c) >= 0:
			pos++
		case c == '{' || c == '[':
			end := balancedEnd(source, pos)
			if end < 0 {
				return nil, false
			}
			if candidate := source[pos : end+1]; json.Valid([]byte(candidate)) {
				return json.RawMessage(candidate), true
			}
			pos = end + 1
		case c == '"' || c == '\'' || c == '`':
			end := stringLiteralEnd(source, pos)
			if end < 0 {
				return nil, false
			}
			if raw, ok := jsonFromLiteral(source[pos : end+1]); ok {
				return raw, true
			}
			pos = end + 1
		case isIdentStart(c):
			pos = skipIdentifierChain(source, pos)
		default:
			// ';', newline-terminated statements and anything else end the expression.
			return nil, false
		}
	}
	return nil, false
}

// jsonFromLiteral decodes a quoted literal and accepts it when it holds JSON,
// directly or after percent-decoding.
func jsonFromLiteral(literal string) (json.RawMessage, bool) {
	decoded, ok := engine.DecodeEscapedStringLiteral(literal)
	if !ok {
		return nil, false
	}
	decoded = strings.TrimSpace(decoded)
	if isJSONContainer(decoded) {
		return json.RawMessage(decoded), true
	}
	if unescaped, err := url.PathUnescape(decoded); err == nil {
		unescaped = strings.TrimSpace(unescaped)
		if isJSONContainer(unescaped) {
			return json.RawMessage(unescaped), true
		}
	}
	return nil, false
}

func isJSONContainer(s string) bool {
	if s == "" || (s[0] != '{' && s[0] != '[') {
		return false
	}
	return json.Valid([]byte(s))
}

// stringLiteralEnd returns the index of the quote closing the literal at start.
func stringLiteralEnd(source string, start int) int {
	q := source[start]
	for i := start + 1; i < len(source); i++ {
		switch source[i] {
		case '\\':
			i++
		case q:
			return i
		}
	}
	return -1
}

// skipIdentifierChain advances past foo, foo.bar, foo["bar"], foo[0] and similar.
func skipIdentifierChain(source string, pos int) int {
	for pos < len(source) && isIdentPart(source[pos]) {
		pos++
	}
	for pos < len(source) {
		switch source[pos] {
		case '.':
			next := pos + 1
			if next >= len(source) || !isIdentStart(source[next]) {
				return pos
			}
			pos = next
			for pos < len(source) && isIdentPart(source[pos]) {
				pos++
			}
		case '[':
			end := bracketAccessEnd(source, pos)
			if end < 0 {
				return pos
			}
			pos = end + 1
		default:
			return pos
		}
	}
	return pos
}

// bracketAccessEnd matches a member access like ["key"] or [0]; -1 if it is not one.
func bracketAccessEnd(source string, pos int) int {
	i := pos + 1
	if i < len(source) && (source[i] == '"' || source[i] == '\'') {
		end := stringLiteralEnd(source, i)
		if end < 0 || end+1 >= len(source) || source[end+1] != ']' {
			return -1
		}
		return end + 1
	}
	for i < len(source) && (isIdentPart(source[i]) || source[i] == '.') {
		i++
	}
	if i < len(source) && source[i] == ']' && i > pos+1 {
		return i
	}
	return -1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
