package util

import (
	"regexp"
	"strings"
)

var reSpaces = regexp.MustCompile(`[\s\p{Zs}]+`)

// NormalizeSpaces collapses every whitespace run, newlines included, into a
// single space and trims the ends.
func NormalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

// TruncateRunes cuts s to at most max runes without splitting a character.
func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func RemoveChars(s, chars string) string {
	if s == "" || chars == "" {
		return s
	}
	out := strings.Builder{}
	out.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(chars, r) {
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}

// SafeFileComponent replaces characters that are illegal in file names.
func SafeFileComponent(input string, max int) string {
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", "\"", "_", " ", "_")
	return TruncateRunes(repl.Replace(input), max)
}
