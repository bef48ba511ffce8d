package strx

import "strings"

// Coalesce returns s if non-empty, otherwise d.
func Coalesce(s, d string) string {
	if s == "" {
		return d
	}
	return s
}

// Sub returns up to n bytes of s starting at start, clipped to the end of s.
// A start beyond the end yields "".
func Sub(s string, start, n int) string {
	if start < 0 || start >= len(s) || n <= 0 {
		return ""
	}
	end := start + n
	if end > len(s) {
		end = len(s)
	}
	return s[start:end]
}

// Quoted returns the text between the first and the last double quote.
func Quoted(s string) (string, bool) {
	first := strings.IndexByte(s, '"')
	last := strings.LastIndexByte(s, '"')
	if first < 0 || last <= first {
		return "", false
	}
	return s[first+1 : last], true
}
