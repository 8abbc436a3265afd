// Package search discovers the input files a run will parse. Roots are
// walked recursively; candidates pass ignore and size filters, files
// with already-seen contents are dropped, and the first search pattern
// whose specs hold claims each file.
package search

import (
	"context"
	"regexp"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/qc/util"
	"github.com/minio/highwayhash"
)

// Spec is one alternative of a search pattern. Every field that is set
// must hold for the spec to match: fn and fn_re against the basename,
// contents and contents_re against the file text (contents_re is tried
// line by line).
type Spec struct {
	Fn         string `yaml:"fn"`
	FnRe       string `yaml:"fn_re"`
	Contents   string `yaml:"contents"`
	ContentsRe string `yaml:"contents_re"`
}

// Pattern names a list of alternative specs under one key. A file is
// claimed when any spec matches.
type Pattern struct {
	Key   string
	Specs []Spec
}

// Opts configures a search run.
type Opts struct {
	// Patterns is the ordered pattern table; the first matching key
	// claims each file.
	Patterns []Pattern
	// IgnoreDirs skips files with a directory component matching any of
	// these globs.
	IgnoreDirs []string
	// IgnorePaths skips files whose whole path matches any of these
	// globs.
	IgnorePaths []string
	// FilesizeLimit skips files larger than this many bytes. Zero means
	// no limit.
	FilesizeLimit int64
}

// File is one discovered input file.
type File struct {
	Path      string // full path as walked
	Root      string // directory part of Path
	Filename  string // basename of Path
	SearchKey string // key of the claiming pattern
	Contents  string // text contents, decompressed when gzipped
}

// Stats counts the outcomes of one search run.
type Stats struct {
	Seen       int // files listed under the roots
	Ignored    int // skipped by ignore globs
	Oversized  int // skipped by the size limit
	Duplicates int // skipped as duplicate contents
	Unreadable int // skipped after read errors
	Matched    int // claimed by a pattern
}

// Merge adds other's counts into s.
func (s *Stats) Merge(other Stats) {
	s.Seen += other.Seen
	s.Ignored += other.Ignored
	s.Oversized += other.Oversized
	s.Duplicates += other.Duplicates
	s.Unreadable += other.Unreadable
	s.Matched += other.Matched
}

type hashKey = [highwayhash.Size]uint8

// compiledSpec holds a spec with its regexes compiled up front so that
// a malformed pattern is reported once, not once per file.
type compiledSpec struct {
	spec       Spec
	fnRe       *regexp.Regexp
	contentsRe *regexp.Regexp
	bad        bool
}

type compiledPattern struct {
	key   string
	specs []compiledSpec
}

func compile(patterns []Pattern) []compiledPattern {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		cp := compiledPattern{key: p.Key}
		for _, spec := range p.Specs {
			cs := compiledSpec{spec: spec}
			var err error
			if spec.FnRe != "" {
				if cs.fnRe, err = regexp.Compile(spec.FnRe); err != nil {
					log.Error.Printf("search pattern %s: fn_re %q: %v", p.Key, spec.FnRe, err)
					cs.bad = true
				}
			}
			if spec.ContentsRe != "" {
				if cs.contentsRe, err = regexp.Compile(spec.ContentsRe); err != nil {
					log.Error.Printf("search pattern %s: contents_re %q: %v", p.Key, spec.ContentsRe, err)
					cs.bad = true
				}
			}
			cp.specs = append(cp.specs, cs)
		}
		compiled = append(compiled, cp)
	}
	return compiled
}

// Run walks every root and returns the claimed files in walk order.
// Two files with byte-identical contents are reported once: the same
// log reached through different roots must not be parsed twice.
func Run(ctx context.Context, opts Opts, roots []string) ([]*File, Stats, error) {
	var (
		files    []*File
		stats    Stats
		zeroSeed = hashKey{}
		seen     = make(map[hashKey]bool)
		patterns = compile(opts.Patterns)
	)
	for _, root := range roots {
		lister := file.List(ctx, root, true)
		for lister.Scan() {
			path := lister.Path()
			stats.Seen++
			if ignored(opts, root, path) {
				stats.Ignored++
				continue
			}
			if opts.FilesizeLimit > 0 {
				stat, err := file.Stat(ctx, path)
				if err != nil {
					log.Debug.Printf("stat %v: %v", path, err)
					stats.Unreadable++
					continue
				}
				if stat.Size() > opts.FilesizeLimit {
					log.Debug.Printf("skipping %v: %d bytes is over the filesize limit", path, stat.Size())
					stats.Oversized++
					continue
				}
			}
			data, err := readContents(ctx, path)
			if err != nil {
				log.Debug.Printf("read %v: %v", path, err)
				stats.Unreadable++
				continue
			}
			key := highwayhash.Sum(data, zeroSeed[:])
			if seen[key] {
				log.Debug.Printf("skipping %v: duplicate contents", path)
				stats.Duplicates++
				continue
			}
			seen[key] = true

			f := &File{
				Path:     path,
				Contents: string(data),
			}
			if i := strings.LastIndex(path, "/"); i >= 0 {
				f.Root, f.Filename = path[:i], path[i+1:]
			} else {
				f.Filename = path
			}
			if key, ok := match(patterns, f); ok {
				f.SearchKey = key
				files = append(files, f)
				stats.Matched++
			}
		}
		if err := lister.Err(); err != nil {
			return nil, stats, err
		}
	}
	return files, stats, nil
}

// ignored applies the directory and path ignore globs. Directory globs
// are tried against every directory component, path globs against the
// whole path relative to the walked root.
func ignored(opts Opts, root, path string) bool {
	rel := strings.TrimPrefix(strings.TrimPrefix(path, root), "/")
	if len(opts.IgnoreDirs) > 0 {
		dir := ""
		if i := strings.LastIndex(rel, "/"); i >= 0 {
			dir = rel[:i]
		}
		for _, comp := range strings.Split(dir, "/") {
			if comp != "" && util.GlobMatchAny(opts.IgnoreDirs, comp) {
				return true
			}
		}
	}
	return util.GlobMatchAny(opts.IgnorePaths, rel)
}

// match finds the first pattern claiming f.
func match(patterns []compiledPattern, f *File) (string, bool) {
	for _, p := range patterns {
		for _, spec := range p.specs {
			if spec.match(f) {
				return p.key, true
			}
		}
	}
	return "", false
}

func (cs *compiledSpec) match(f *File) bool {
	if cs.bad {
		return false
	}
	hit := false
	if cs.spec.Fn != "" {
		if !util.GlobMatch(cs.spec.Fn, f.Filename) {
			return false
		}
		hit = true
	}
	if cs.fnRe != nil {
		if !cs.fnRe.MatchString(f.Filename) {
			return false
		}
		hit = true
	}
	if cs.spec.Contents != "" {
		if !strings.Contains(f.Contents, cs.spec.Contents) {
			return false
		}
		hit = true
	}
	if cs.contentsRe != nil {
		found := false
		for _, line := range strings.Split(f.Contents, "\n") {
			if cs.contentsRe.MatchString(line) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
		hit = true
	}
	return hit
}
