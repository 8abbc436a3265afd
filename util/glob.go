// Package util provides small helpers shared across packages.
package util

import (
	"regexp"
	"strings"
)

// GlobMatch reports whether name matches the shell-style pattern. '*'
// matches any run of characters including path separators, '?' matches
// exactly one character, and '[...]' matches a character class with '!'
// negation. A pattern that cannot be compiled matches nothing.
func GlobMatch(pattern, name string) bool {
	re, err := regexp.Compile(translateGlob(pattern))
	if err != nil {
		return false
	}
	return re.MatchString(name)
}

// GlobMatchAny reports whether name matches any of the patterns.
func GlobMatchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if GlobMatch(p, name) {
			return true
		}
	}
	return false
}

// translateGlob converts a shell-style pattern to an anchored regexp.
func translateGlob(pattern string) string {
	var b strings.Builder
	b.WriteString(`(?s)^`)
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch c {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteByte('.')
		case '[':
			j := i + 1
			if j < len(pattern) && (pattern[j] == '!' || pattern[j] == '^') {
				j++
			}
			if j < len(pattern) && pattern[j] == ']' {
				j++
			}
			for j < len(pattern) && pattern[j] != ']' {
				j++
			}
			if j >= len(pattern) {
				b.WriteString(`\[`)
				break
			}
			set := strings.Replace(pattern[i+1:j], `\`, `\\`, -1)
			if strings.HasPrefix(set, "!") {
				set = "^" + set[1:]
			} else if strings.HasPrefix(set, "^") {
				set = `\` + set
			}
			b.WriteString("[" + set + "]")
			i = j
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteByte('$')
	return b.String()
}
