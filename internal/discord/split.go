package discord

import "strings"

const maxMessageLength = 2000

// splitContent cuts msg into parts of at most limit runes, preferring line breaks.
func splitContent(msg string, limit int) []string {
	var parts []string
	for {
		msg = strings.TrimSpace(msg)
		runes := []rune(msg)
		if len(runes) <= limit {
			break
		}
		head := string(runes[:limit])
		cut := strings.LastIndex(head, "\n")
		if cut <= 0 {
			cut = len(head)
		}
		parts = append(parts, strings.TrimSpace(msg[:cut]))
		msg = msg[cut:]
	}
	if msg != "" {
		parts = append(parts, msg)
	}
	return parts
}
