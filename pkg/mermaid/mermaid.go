// Package mermaid holds the identifier and label rules shared by every
// Mermaid diagram the tool renders.
//
// Node identifiers match [A-Za-z_][A-Za-z0-9_]{0,49}. Labels are placed
// inside double quotes, so backslashes and quotes are escaped and line
// breaks dropped.
package mermaid

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// MaxIDLen caps node identifiers.
	MaxIDLen = 50
	// ShortLabelMax caps labels on integration nodes and generic labels.
	ShortLabelMax = 40
	// FileLabelMax caps file-name labels in dependency diagrams.
	FileLabelMax = 60

	ellipsis = "..."
)

// SanitizeID turns arbitrary text into a valid node identifier.
func SanitizeID(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		ok := r == '_' || r < utf8.RuneSelf && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
		if !ok || r == '_' {
			if !lastUnderscore {
				b.WriteByte('_')
			}
			lastUnderscore = true
			continue
		}
		b.WriteRune(r)
		lastUnderscore = false
	}

	id := strings.Trim(b.String(), "_")
	if id == "" {
		return "node"
	}
	if id[0] >= '0' && id[0] <= '9' {
		id = "_" + id
	}
	if len(id) > MaxIDLen {
		id = id[:MaxIDLen]
	}
	return id
}

// EscapeLabel escapes s for use inside a quoted label and caps it at max
// runes. Truncated labels end in "..." and never split an escape sequence.
func EscapeLabel(s string, max int) string {
	s = strings.NewReplacer("\r", "", "\n", "").Replace(s)

	units := make([]string, 0, len(s))
	for _, r := range s {
		switch r {
		case '\\':
			units = append(units, `\\`)
		case '"':
			units = append(units, `\"`)
		default:
			units = append(units, string(r))
		}
	}

	total := 0
	for _, u := range units {
		total += utf8.RuneCountInString(u)
	}
	if total <= max {
		return strings.Join(units, "")
	}

	budget := max - len(ellipsis)
	var b strings.Builder
	used := 0
	for _, u := range units {
		n := utf8.RuneCountInString(u)
		if used+n > budget {
			break
		}
		b.WriteString(u)
		used += n
	}
	if max < len(ellipsis) {
		return b.String()
	}
	return b.String() + ellipsis
}

// IDs hands out unique, stable identifiers for keys. The same key always
// gets the same identifier; colliding keys get a numeric suffix.
type IDs struct {
	byKey map[string]string
	taken map[string]bool
}

// NewIDs creates an empty allocator.
func NewIDs() *IDs {
	return &IDs{byKey: make(map[string]string), taken: make(map[string]bool)}
}

// ID returns the identifier for key, sanitising prefix+text on first use.
func (a *IDs) ID(key, prefix, text string) string {
	if id, ok := a.byKey[key]; ok {
		return id
	}
	base := SanitizeID(prefix + text)
	id := base
	for n := 2; a.taken[id]; n++ {
		suffix := fmt.Sprintf("_%d", n)
		trimmed := base
		if len(trimmed)+len(suffix) > MaxIDLen {
			trimmed = trimmed[:MaxIDLen-len(suffix)]
		}
		id = trimmed + suffix
	}
	a.byKey[key] = id
	a.taken[id] = true
	return id
}

// Node renders a node declaration line body: id["label"].
func Node(id, label string) string {
	return fmt.Sprintf(`%s["%s"]`, id, label)
}
