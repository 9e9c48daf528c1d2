package ignore

import "strings"

// normalize converts a path or pattern to slash-separated segments.
// Backslashes become slashes, empty and "." segments are dropped.
func normalize(p string) []string {
	p = strings.ReplaceAll(p, `\`, "/")
	parts := strings.Split(p, "/")
	segs := parts[:0]
	for _, s := range parts {
		if s == "" || s == "." {
			continue
		}
		segs = append(segs, s)
	}
	return segs
}

// matchSegment matches one path segment against a pattern where '*' matches
// any run of characters, including none. All other bytes are literal.
func matchSegment(name, pattern string) bool {
	px, nx := 0, 0
	star, mark := -1, 0
	for nx < len(name) {
		switch {
		case px < len(pattern) && pattern[px] == '*':
			star, mark = px, nx
			px++
		case px < len(pattern) && pattern[px] == name[nx]:
			px++
			nx++
		case star >= 0:
			mark++
			nx = mark
			px = star + 1
		default:
			return false
		}
	}
	for px < len(pattern) && pattern[px] == '*' {
		px++
	}
	return px == len(pattern)
}

// matchSegments matches a path against a pattern, both split into segments.
// A "**" pattern segment matches zero or more path segments.
func matchSegments(path, pattern []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			for len(pattern) > 0 && pattern[0] == "**" {
				pattern = pattern[1:]
			}
			if len(pattern) == 0 {
				return true
			}
			for i := 0; i <= len(path); i++ {
				if matchSegments(path[i:], pattern) {
					return true
				}
			}
			return false
		}
		if len(path) == 0 || !matchSegment(path[0], pattern[0]) {
			return false
		}
		path, pattern = path[1:], pattern[1:]
	}
	return len(path) == 0
}
