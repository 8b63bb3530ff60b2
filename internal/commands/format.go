package commands

import (
	"fmt"
	"regexp"
	"strings"
)

// tokenPattern matches one bracketed span. Nested brackets are not card
// syntax, so the innermost span wins.
var tokenPattern = regexp.MustCompile(`\[([^\[\]]+)\]`)

// ExtractTokens returns the contents of every [...] span in content, trimmed
// and lower-cased, in order of appearance. Blank spans are skipped.
func ExtractTokens(content string) []string {
	matches := tokenPattern.FindAllStringSubmatch(content, -1)
	tokens := make([]string, 0, len(matches))
	for _, m := range matches {
		token := strings.ToLower(strings.TrimSpace(m[1]))
		if token == "" {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// Format joins reply lines into one message. It returns false when there is
// nothing to send.
func Format(lines []string) (string, bool) {
	if len(lines) == 0 {
		return "", false
	}
	return strings.Join(lines, "\n"), true
}

// HelpText describes the commands available with the given keywords.
func HelpText(k Keywords) string {
	var b strings.Builder
	b.WriteString("Put part of a card name in square brackets and I'll link it, e.g. [lightning bolt].\n")
	b.WriteString("An exact name always wins; otherwise legendary creatures come first.")
	if k.Random != "" {
		fmt.Fprintf(&b, "\n[%s] links a random card.", k.Random)
	}
	if k.RandomCommander != "" {
		fmt.Fprintf(&b, "\n[%s] links a random legendary creature.", k.RandomCommander)
	}
	if k.Help != "" {
		fmt.Fprintf(&b, "\n[%s] shows this message.", k.Help)
	}
	return b.String()
}
