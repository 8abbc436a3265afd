package samplename

import (
	"regexp"
	"strings"

	"github.com/grailbio/base/log"
	"gopkg.in/yaml.v3"
)

// RuleKind identifies how a CleanRule transforms a working name.
type RuleKind string

const (
	// KindTruncate keeps the part of the name before the first
	// occurrence of the pattern.
	KindTruncate RuleKind = "truncate"
	// KindRemove deletes every occurrence of the pattern.
	KindRemove RuleKind = "remove"
	// KindRegex deletes the first regexp match.
	KindRegex RuleKind = "regex"
	// KindRegexKeep replaces the name with the first regexp match, when
	// there is one.
	KindRegexKeep RuleKind = "regex_keep"
)

// CleanRule is one entry of an ordered name-cleaning table. In YAML a
// bare string decodes as a truncate rule; the mapping form carries an
// explicit type, a pattern, and an optional module scope.
type CleanRule struct {
	Kind    RuleKind
	Pattern string
	Modules []string // anchors the rule is limited to; empty applies everywhere
}

// UnmarshalYAML accepts either a scalar pattern or a
// {type, pattern, module} mapping.
func (r *CleanRule) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*r = CleanRule{Kind: KindTruncate, Pattern: s}
		return nil
	}
	var raw struct {
		Type    string     `yaml:"type"`
		Pattern string     `yaml:"pattern"`
		Module  StringList `yaml:"module"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*r = CleanRule{Kind: RuleKind(raw.Type), Pattern: raw.Pattern, Modules: []string(raw.Module)}
	return nil
}

// apply runs the rule against name on behalf of the module anchor.
// Rules scoped to other modules leave the name unchanged. A rule with a
// missing pattern, an unknown kind or a malformed regexp logs an error
// and is skipped.
func (r *CleanRule) apply(name, anchor string, stripped *[]string) string {
	if len(r.Modules) > 0 && !contains(r.Modules, anchor) {
		return name
	}
	if r.Kind == "" {
		log.Error.Printf("name cleaning rule with pattern %q is missing a type", r.Pattern)
		return name
	}
	if r.Pattern == "" {
		log.Error.Printf("name cleaning rule %q has an empty pattern", r.Kind)
		return name
	}
	switch r.Kind {
	case KindTruncate:
		if i := strings.Index(name, r.Pattern); i >= 0 {
			record(stripped, name[i:])
			name = name[:i]
		}
	case KindRemove, "replace":
		if r.Kind == "replace" {
			log.Printf("name cleaning rule type \"replace\" is deprecated, use %q", KindRemove)
		}
		if strings.Contains(name, r.Pattern) {
			record(stripped, r.Pattern)
			name = strings.Replace(name, r.Pattern, "", -1)
		}
	case KindRegex:
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			log.Error.Printf("bad regexp in name cleaning rule: %v", err)
			return name
		}
		if loc := re.FindStringIndex(name); loc != nil {
			record(stripped, name[loc[0]:loc[1]])
			name = name[:loc[0]] + name[loc[1]:]
		}
	case KindRegexKeep:
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			log.Error.Printf("bad regexp in name cleaning rule: %v", err)
			return name
		}
		if loc := re.FindStringIndex(name); loc != nil {
			name = name[loc[0]:loc[1]]
		}
	default:
		log.Error.Printf("unrecognised name cleaning rule type %q", r.Kind)
	}
	return name
}

func record(stripped *[]string, token string) {
	if stripped != nil && token != "" {
		*stripped = append(*stripped, token)
	}
}

// StringList decodes a YAML scalar as a one-element list.
type StringList []string

// UnmarshalYAML accepts either a scalar or a sequence of scalars.
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*l = StringList{s}
		return nil
	}
	var v []string
	if err := node.Decode(&v); err != nil {
		return err
	}
	*l = v
	return nil
}
