// Package samplename normalizes the sample names found in bioinformatics
// tool output. Raw names arrive as filenames or as strings pulled from
// file contents; cleaning strips the run- and pipeline-specific noise
// around them so that output about the same sample lines up across
// tools.
package samplename

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrEmptyNameList is returned by CleanNames when no names are given.
var ErrEmptyNameList = errors.New("empty list of sample names")

// Source describes where a raw sample name came from. The zero value
// stands for a name with no file provenance.
type Source struct {
	Root      string // directory the originating file was found under
	Filename  string // basename of the originating file
	SearchKey string // key of the search pattern that matched the file
	Module    string // anchor of the calling module, for scoped rules
}

// Identity records how one raw sample name was normalized. Group and
// Labels stay empty until a resolver assigns them.
type Identity struct {
	Original string
	Name     string
	Stripped []string // tokens removed during cleaning, in order
	Group    string
	Labels   []string
}

// CleanerOpts configures a Cleaner.
type CleanerOpts struct {
	// Enabled gates the Rules and Trims tables. Basename reduction,
	// directory prepending, whitespace stripping and hard replacements
	// apply regardless.
	Enabled bool
	// Rules is the ordered cleaning table.
	Rules []CleanRule
	// Trims lists literals stripped from the ends of the name after
	// Rules have run.
	Trims []string
	// UseFilename replaces names sourced from file contents with the
	// originating filename.
	UseFilename bool
	// UseFilenameKeys enables the UseFilename behavior for specific
	// search pattern keys only.
	UseFilenameKeys []string
	// PrependDirs prefixes the name with components of the source
	// directory.
	PrependDirs bool
	// PrependDirsDepth limits the prefix: positive keeps that many
	// trailing components, negative keeps that many leading ones, zero
	// keeps all.
	PrependDirsDepth int
	// PrependDirsSep joins the prefix components. Defaults to "_".
	PrependDirsSep string
	// Replacer applies hard name replacements as the final step. May be
	// nil.
	Replacer *Replacer
}

// Cleaner derives canonical sample names from raw ones.
//
// Cleaning is referentially transparent: the same name, source and
// configuration always produce the same result, and no state is carried
// between calls.
type Cleaner struct {
	opts CleanerOpts
}

// NewCleaner returns a Cleaner for the given options.
func NewCleaner(opts CleanerOpts) *Cleaner {
	if opts.PrependDirsSep == "" {
		opts.PrependDirsSep = "_"
	}
	return &Cleaner{opts: opts}
}

// CleanName strips a raw sample name down to its canonical form.
func (c *Cleaner) CleanName(name string, src Source) string {
	return c.clean(name, src, c.opts.Rules, c.opts.Trims, c.opts.PrependDirs, nil)
}

// CleanIdentity is CleanName plus a record of what was stripped.
func (c *Cleaner) CleanIdentity(name string, src Source) Identity {
	id := Identity{Original: name}
	id.Name = c.clean(name, src, c.opts.Rules, c.opts.Trims, c.opts.PrependDirs, &id.Stripped)
	return id
}

// CleanNameScoped cleans with a caller-supplied rule table instead of
// the configured one, with no trims and no directory prepending. Hard
// replacements still apply.
func (c *Cleaner) CleanNameScoped(name string, src Source, rules []CleanRule) string {
	return c.clean(name, src, rules, nil, false, nil)
}

// CleanNames derives a single name from several raw names that describe
// the same sample, such as the two files of a FASTQ pair. Every name is
// cleaned individually first and duplicates collapse; when exactly two
// distinct names remain they are tried as a read pair, and any other
// outcome joins the distinct names with "_".
func (c *Cleaner) CleanNames(names []string, src Source) (string, error) {
	if len(names) == 0 {
		return "", ErrEmptyNameList
	}
	var distinct []string
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		cn := c.CleanName(n, src)
		if !seen[cn] {
			seen[cn] = true
			distinct = append(distinct, cn)
		}
	}
	if len(distinct) == 1 {
		return distinct[0], nil
	}
	if len(distinct) == 2 {
		if stem, ok := MatchPair(distinct[0], distinct[1]); ok {
			return stem, nil
		}
	}
	return strings.Join(distinct, "_"), nil
}

func (c *Cleaner) clean(name string, src Source, rules []CleanRule, trims []string, prependDirs bool, stripped *[]string) string {
	original := name

	if src.Filename != "" &&
		(c.opts.UseFilename || (src.SearchKey != "" && contains(c.opts.UseFilenameKeys, src.SearchKey))) {
		name = src.Filename
	}

	// Names read from file contents may carry a path.
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}

	if prependDirs {
		name = c.prependDirs(name, src.Root)
	}

	if c.opts.Enabled {
		for i := range rules {
			name = rules[i].apply(name, src.Module, stripped)
		}
		for _, t := range trims {
			if t == "" {
				continue
			}
			if strings.HasSuffix(name, t) {
				record(stripped, t)
				name = name[:len(name)-len(t)]
			}
			if strings.HasPrefix(name, t) {
				name = name[len(t):]
			}
		}
	}

	name = strings.TrimSpace(name)

	// Never clean down to nothing.
	if name == "" {
		name = original
	}

	if c.opts.Replacer != nil {
		name = c.opts.Replacer.Replace(name)
	}
	return name
}

// prependDirs prefixes name with the components of root, limited by the
// configured depth.
func (c *Cleaner) prependDirs(name, root string) string {
	var dirs []string
	for _, d := range strings.Split(root, "/") {
		if d = strings.TrimSpace(d); d != "" {
			dirs = append(dirs, d)
		}
	}
	if depth := c.opts.PrependDirsDepth; depth != 0 {
		if depth > 0 {
			if depth < len(dirs) {
				dirs = dirs[len(dirs)-depth:]
			}
		} else if -depth < len(dirs) {
			dirs = dirs[:-depth]
		}
	}
	if len(dirs) == 0 {
		return name
	}
	sep := c.opts.PrependDirsSep
	return strings.Join(dirs, sep) + sep + name
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
