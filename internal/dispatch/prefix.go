package dispatch

import (
	"strings"
	"unicode"
)

// mention returns the leading "<@id>" or "<@!id>" of content, or "".
func mention(content, selfID string) string {
	if selfID == "" {
		return ""
	}
	for _, m := range [...]string{"<@" + selfID + ">", "<@!" + selfID + ">"} {
		if strings.HasPrefix(content, m) {
			return m
		}
	}
	return ""
}

// isAloneMention reports whether content is only a mention of selfID.
func isAloneMention(content, selfID string) bool {
	trimmed := strings.TrimSpace(content)
	m := mention(trimmed, selfID)
	return m != "" && len(m) == len(trimmed)
}

// mentionPrefix returns the mention plus any whitespace following it.
func mentionPrefix(content, selfID string) string {
	m := mention(content, selfID)
	if m == "" {
		return ""
	}
	rest := strings.TrimLeftFunc(content[len(m):], unicode.IsSpace)
	return content[:len(content)-len(rest)]
}

// matchPrefix returns the first prefix content starts with, ignoring case.
func matchPrefix(content string, prefixes []string) (string, bool) {
	for _, p := range prefixes {
		if len(content) >= len(p) && strings.EqualFold(content[:len(p)], p) {
			return content[:len(p)], true
		}
	}
	return "", false
}

// tokenize splits what follows the prefix into the invoke word and the rest.
func tokenize(rest string) (string, []string) {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}
