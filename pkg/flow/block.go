package flow

import "strings"

// blockAfter returns the brace-delimited block that starts at the first '{'
// at or after pos, braces included. Braces inside strings and comments are
// counted like any other, so this is a heuristic. An unbalanced block, or no
// '{' at all, yields "".
func blockAfter(content string, pos int) string {
	if pos < 0 || pos >= len(content) {
		return ""
	}
	open := strings.IndexByte(content[pos:], '{')
	if open < 0 {
		return ""
	}
	start := pos + open

	depth := 0
	for i := start; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return ""
}
