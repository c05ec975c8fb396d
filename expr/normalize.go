package expr

import "strings"

// normalizeSource rewrites the JavaScript-flavoured spellings that field
// authors commonly use into HCL syntax: single-quoted strings become
// double-quoted, and `===` / `!==` become `==` / `!=`. Text inside
// double-quoted strings is copied verbatim. An unterminated single quote
// leaves the source unchanged so the parser reports it.
func normalizeSource(src string) string {
	var sb strings.Builder
	sb.Grow(len(src))

	inDouble := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case inDouble:
			sb.WriteByte(c)
			if c == '\\' && i+1 < len(src) {
				i++
				sb.WriteByte(src[i])
			} else if c == '"' {
				inDouble = false
			}
		case c == '"':
			inDouble = true
			sb.WriteByte(c)
		case c == '\'':
			end, lit, ok := singleQuoted(src, i)
			if !ok {
				return src
			}
			sb.WriteString(lit)
			i = end
		case strings.HasPrefix(src[i:], "==="):
			sb.WriteString("==")
			i += 2
		case strings.HasPrefix(src[i:], "!=="):
			sb.WriteString("!=")
			i += 2
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// singleQuoted converts the single-quoted literal starting at src[start] into
// an HCL double-quoted literal. It returns the index of the closing quote.
func singleQuoted(src string, start int) (int, string, bool) {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := start + 1; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '\'':
			sb.WriteByte('"')
			return i, sb.String(), true
		case c == '\\' && i+1 < len(src):
			i++
			if src[i] == '\'' {
				sb.WriteByte('\'')
			} else {
				sb.WriteByte('\\')
				sb.WriteByte(src[i])
			}
		case c == '"':
			sb.WriteString(`\"`)
		case (c == '$' || c == '%') && i+1 < len(src) && src[i+1] == '{':
			// Template sequences have no meaning in the source syntax.
			sb.WriteByte(c)
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}
	return 0, "", false
}
