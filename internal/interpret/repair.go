package interpret

import "strings"

// repairJSON fixes the two defects chat models most often introduce into
// otherwise well-formed JSON: unquoted object keys (`query:` or `query":`
// instead of `"query":`) and a trailing comma before a closing bracket.
// Anything it cannot recognize passes through untouched and fails at the
// decoder instead.
func repairJSON(s string) string {
	return dropTrailingCommas(quoteBareKeys(s))
}

func quoteBareKeys(s string) string {
	var out strings.Builder
	out.Grow(len(s) + 16)

	runes := []rune(s)
	inString := false
	escaped := false
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		if inString {
			out.WriteRune(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
			out.WriteRune(ch)
		case '{', ',':
			out.WriteRune(ch)
			j := i + 1
			for j < len(runes) && isSpace(runes[j]) {
				out.WriteRune(runes[j])
				j++
			}
			// A bare identifier followed by ": lost its opening quote; one
			// followed directly by : lost both. Consume through any existing
			// closing quote so string tracking stays balanced.
			if k := bareKeyEnd(runes, j); k > j {
				switch {
				case k+1 < len(runes) && runes[k] == '"' && runes[k+1] == ':':
					out.WriteRune('"')
					out.WriteString(string(runes[j:k]))
					out.WriteRune('"')
					j = k + 1
				case k < len(runes) && runes[k] == ':':
					out.WriteRune('"')
					out.WriteString(string(runes[j:k]))
					out.WriteRune('"')
					j = k
				}
			}
			i = j - 1
		default:
			out.WriteRune(ch)
		}
	}
	return out.String()
}

func bareKeyEnd(runes []rune, start int) int {
	i := start
	for i < len(runes) && (isIdent(runes[i]) || runes[i] == '_') {
		i++
	}
	return i
}

func dropTrailingCommas(s string) string {
	var out strings.Builder
	out.Grow(len(s))

	runes := []rune(s)
	inString := false
	escaped := false
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		if inString {
			out.WriteRune(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		if ch == '"' {
			inString = true
			out.WriteRune(ch)
			continue
		}
		if ch == ',' {
			j := i + 1
			for j < len(runes) && isSpace(runes[j]) {
				j++
			}
			if j < len(runes) && (runes[j] == '}' || runes[j] == ']') {
				continue // drop the comma, keep the whitespace run
			}
		}
		out.WriteRune(ch)
	}
	return out.String()
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isIdent(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}
