package commands

import (
	"strings"
	"unicode/utf8"
)

// Split breaks a reply into chunks of at most limit bytes, cutting on line
// boundaries. A single line longer than limit is cut mid-line, never inside
// a UTF-8 sequence.
func Split(message string, limit int) []string {
	if limit <= 0 || len(message) <= limit {
		return []string{message}
	}

	var chunks []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, line := range strings.Split(message, "\n") {
		for len(line) > limit {
			flush()
			cut := limit
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			if cut == 0 {
				cut = limit
			}
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		extra := len(line)
		if current.Len() > 0 {
			extra++ // newline
		}
		if current.Len()+extra > limit {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	flush()
	return chunks
}
