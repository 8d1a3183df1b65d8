package app

import (
	"errors"
	"strings"
)

// ErrNoTranscript means the call log held no turn with text.
var ErrNoTranscript = errors.New("no transcript to analyze")

// NormalizeTranscript renders turns as "role: text" lines in order,
// skipping turns without text.
func NormalizeTranscript(turns []Turn) (string, error) {
	var b strings.Builder
	n := 0
	for _, t := range turns {
		if t.Transcript == nil || strings.TrimSpace(*t.Transcript) == "" {
			continue
		}
		if n > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(t.Role)
		b.WriteString(": ")
		b.WriteString(*t.Transcript)
		n++
	}
	if n == 0 {
		return "", ErrNoTranscript
	}
	return b.String(), nil
}
