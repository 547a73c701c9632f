package shell

import "strings"

// Escape quotes s for display in a shell command line.
// It is used for logging only; exec.Command does not need it.
func Escape(s string) string {
	if s == "" {
		return "''"
	}

	if !strings.ContainsFunc(s, isSpecialChar) {
		return s
	}

	// Embedded single quotes become '"'"' (close, quoted quote, reopen).
	var result strings.Builder

	result.WriteByte('\'')

	for _, c := range s {
		if c == '\'' {
			result.WriteString(`'"'"'`)
		} else {
			result.WriteRune(c)
		}
	}

	result.WriteByte('\'')

	return result.String()
}

// EscapeCommand renders a binary and its arguments as one shell-safe line.
func EscapeCommand(binary string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, Escape(binary))

	for _, arg := range args {
		parts = append(parts, Escape(arg))
	}

	return strings.Join(parts, " ")
}

func isSpecialChar(c rune) bool {
	switch c {
	case ' ', '\t', '\'', '"', '$', '`', '\\', '!', '*', '?', '[', ']',
		'(', ')', '{', '}', '|', ';', '<', '>', '&', '~', '#', '%', '\n', '\r':
		return true
	default:
		return false
	}
}
