package samplename

import (
	"regexp"

	"github.com/grailbio/base/log"
	"github.com/grailbio/qc/util"
)

// IgnoreList drops samples the run is configured to skip. Glob patterns
// match the whole name; regexp patterns match at the start of it.
type IgnoreList struct {
	globs []string
	res   []*regexp.Regexp
}

// NewIgnoreList compiles the ignore patterns. Malformed regexps are
// logged and dropped.
func NewIgnoreList(globs, regexps []string) *IgnoreList {
	il := &IgnoreList{globs: globs}
	for _, p := range regexps {
		re, err := regexp.Compile(`\A(?:` + p + `)`)
		if err != nil {
			log.Error.Printf("sample ignore regexp %q: %v", p, err)
			continue
		}
		il.res = append(il.res, re)
	}
	return il
}

// Match reports whether name is configured to be ignored. A nil list
// ignores nothing.
func (il *IgnoreList) Match(name string) bool {
	if il == nil {
		return false
	}
	if util.GlobMatchAny(il.globs, name) {
		return true
	}
	for _, re := range il.res {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}
