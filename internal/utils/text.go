package utils

import (
	"strings"
	"unicode/utf8"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE/ILIKE wildcards so the input matches literally
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Excerpt shortens s to at most max runes, cutting on a word boundary when
// one is close enough, and appends "..." when anything was dropped.
func Excerpt(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:max])
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "..."
}

// RuneLen counts characters, not bytes
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}
