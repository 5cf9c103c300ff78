package common

import (
	"strings"
	"unicode/utf8"
)

// MaxMessageLength is the Discord limit for a single message body
const MaxMessageLength = 2000

// FormatHandle builds the human readable handle stored for a participant:
// "@username" followed by the display name when it differs.
func FormatHandle(username, globalName string) string {
	parts := make([]string, 0, 2)
	if username != "" {
		parts = append(parts, "@"+username)
	}
	if globalName != "" && globalName != username {
		parts = append(parts, globalName)
	}
	return strings.Join(parts, " ")
}

// SplitMessage cuts text into chunks that fit in one message, preferring line breaks
func SplitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		lineLen := utf8.RuneCountInString(line)
		if currentLen+lineLen > limit {
			flush()
		}

		// A single line longer than the limit is hard wrapped
		for lineLen > limit {
			runes := []rune(line)
			chunks = append(chunks, string(runes[:limit]))
			line = string(runes[limit:])
			lineLen -= limit
		}

		current.WriteString(line)
		currentLen += lineLen
	}
	flush()

	return chunks
}
