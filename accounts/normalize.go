package accounts

import "strings"

var pythonLiterals = map[string]string{
	"True":  "true",
	"False": "false",
	"None":  "null",
}

// Normalize turns the Python repr of a list of dicts, as found in the
// linked_accounts export column, into JSON. Single quotes become double
// quotes, and the bare words True, False and None become JSON literals.
// Words inside string literals are left alone.
func Normalize(text string) string {
	s := strings.ReplaceAll(text, "'", `"`)

	var b strings.Builder
	b.Grow(len(s))
	inString := false
	for i := 0; i < len(s); {
		c := s[i]
		if inString {
			b.WriteByte(c)
			if c == '\\' && i+1 < len(s) {
				b.WriteByte(s[i+1])
				i += 2
				continue
			}
			if c == '"' {
				inString = false
			}
			i++
			continue
		}
		if c == '"' {
			inString = true
			b.WriteByte(c)
			i++
			continue
		}
		if isIdentByte(c) {
			j := i
			for j < len(s) && isIdentByte(s[j]) {
				j++
			}
			word := s[i:j]
			if lit, ok := pythonLiterals[word]; ok {
				b.WriteString(lit)
			} else {
				b.WriteString(word)
			}
			i = j
			continue
		}
		b.WriteByte(c)
		i++
	}
	return b.String()
}

func isIdentByte(c byte) bool {
	return c == '_' ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z') ||
		('0' <= c && c <= '9')
}
