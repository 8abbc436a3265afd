package samplename

import (
	"regexp"
	"strings"

	"github.com/grailbio/base/log"
)

// ReplacementRule is one hard name substitution.
type ReplacementRule struct {
	Search  string
	Replace string
}

// ReplacerOpts configures a Replacer. The three flags apply to the
// whole table, not per rule.
type ReplacerOpts struct {
	// Rules apply in order.
	Rules []ReplacementRule
	// UseRegex compiles every Search as a regexp.
	UseRegex bool
	// ExactMatchOnly skips rules whose Search does not match the whole
	// name (equality, or a full regexp match under UseRegex).
	ExactMatchOnly bool
	// CompleteNameSwap replaces the whole name with Replace when Search
	// occurs anywhere in it. Only meaningful in plain-string mode.
	CompleteNameSwap bool
}

// Replacer applies hard replacements to cleaned sample names. It is the
// final step of the cleaning pipeline.
type Replacer struct {
	opts ReplacerOpts
	res  []*regexp.Regexp // compiled Search per rule; nil when plain or malformed
	full []*regexp.Regexp // anchored variant for exact matching
}

// NewReplacer compiles the rule table. In regexp mode a malformed
// Search is logged and its rule never fires.
func NewReplacer(opts ReplacerOpts) *Replacer {
	r := &Replacer{
		opts: opts,
		res:  make([]*regexp.Regexp, len(opts.Rules)),
		full: make([]*regexp.Regexp, len(opts.Rules)),
	}
	if !opts.UseRegex {
		return r
	}
	for i, rule := range opts.Rules {
		re, err := regexp.Compile(rule.Search)
		if err != nil {
			log.Error.Printf("sample name replacement regexp %q: %v", rule.Search, err)
			continue
		}
		r.res[i] = re
		if full, err := regexp.Compile(`\A(?:` + rule.Search + `)\z`); err == nil {
			r.full[i] = full
		}
	}
	return r
}

// Replace applies the substitution table to name.
func (r *Replacer) Replace(name string) string {
	for i, rule := range r.opts.Rules {
		if r.opts.UseRegex {
			re := r.res[i]
			if re == nil {
				continue
			}
			if r.opts.ExactMatchOnly && (r.full[i] == nil || !r.full[i].MatchString(name)) {
				continue
			}
			name = re.ReplaceAllString(name, rule.Replace)
			continue
		}
		if r.opts.ExactMatchOnly && name != rule.Search {
			continue
		}
		if r.opts.CompleteNameSwap {
			if strings.Contains(name, rule.Search) {
				name = rule.Replace
			}
			continue
		}
		name = strings.Replace(name, rule.Search, rule.Replace, -1)
	}
	return name
}
