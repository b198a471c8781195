package tui

import "unicode/utf8"

// maxInputLen is the maximum number of runes allowed in form inputs.
const maxInputLen = 2000

// dropLastRune removes the final rune of text, if any.
func dropLastRune(text string) string {
	_, size := utf8.DecodeLastRuneInString(text)
	return text[:len(text)-size]
}

// appendRunes adds typed or pasted runes, dropping control characters and
// anything past maxInputLen.
func appendRunes(text string, runes []rune) string {
	n := utf8.RuneCountInString(text)
	out := []rune(text)
	for _, r := range runes {
		if n >= maxInputLen {
			break
		}
		if r < 0x20 || r == 0x7f {
			continue
		}
		out = append(out, r)
		n++
	}
	return string(out)
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}
