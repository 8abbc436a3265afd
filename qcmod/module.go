// Package qcmod is the harness tool modules run under. An Env binds the
// run configuration, the discovered files, the sample name machinery
// and the report being assembled; a Module wraps the Env with one
// tool's identity and provides the operations all tools share.
package qcmod

import (
	"context"
	"sort"

	"github.com/grailbio/qc/aggregate"
	"github.com/grailbio/qc/config"
	"github.com/grailbio/qc/grouping"
	"github.com/grailbio/qc/report"
	"github.com/grailbio/qc/samplename"
	"github.com/grailbio/qc/search"
	"github.com/grailbio/qc/util"
	"github.com/pkg/errors"
)

// ErrNoSamplesFound is returned by a tool module that parsed no usable
// samples from the files it claimed.
var ErrNoSamplesFound = errors.New("no samples found")

// Env is the shared state of one run.
type Env struct {
	Config  *config.Config
	State   *report.State
	Files   []*search.File
	DataDir string

	cleaner  *samplename.Cleaner
	ignore   *samplename.IgnoreList
	registry *samplename.Registry
}

// NewEnv binds configuration, discovered files and report state into a
// run environment.
func NewEnv(cfg *config.Config, state *report.State, files []*search.File, dataDir string) *Env {
	return &Env{
		Config:   cfg,
		State:    state,
		Files:    files,
		DataDir:  dataDir,
		cleaner:  samplename.NewCleaner(cfg.CleanerOpts()),
		ignore:   cfg.IgnoreList(),
		registry: samplename.NewRegistry(),
	}
}

// Registry exposes the run's interned sample identities.
func (e *Env) Registry() *samplename.Registry { return e.registry }

// Info identifies a tool module.
type Info struct {
	Name   string // display name ("Bowtie 2")
	Anchor string // stable id ("bowtie2"), consulted by module-scoped rules
	Href   string // tool homepage
	Info   string // one-line description
	DOI    string // publication DOI, empty when none
}

// Module is the per-tool harness.
type Module struct {
	Info Info
	env  *Env
}

// NewModule wraps env with one tool's identity.
func NewModule(env *Env, info Info) *Module {
	return &Module{Info: info, env: env}
}

// PathFilters restricts Files to paths matching any Include glob (all
// paths when empty) and no Exclude glob.
type PathFilters struct {
	Include []string
	Exclude []string
}

func (f PathFilters) match(path string) bool {
	if len(f.Include) > 0 && !util.GlobMatchAny(f.Include, path) {
		return false
	}
	return !util.GlobMatchAny(f.Exclude, path)
}

// Files returns the discovered files claimed by the given search key,
// in discovery order.
func (m *Module) Files(key string, filters PathFilters) []*search.File {
	var out []*search.File
	for _, f := range m.env.Files {
		if f.SearchKey == key && filters.match(f.Path) {
			out = append(out, f)
		}
	}
	return out
}

func (m *Module) source(f *search.File) samplename.Source {
	src := samplename.Source{Module: m.Info.Anchor}
	if f != nil {
		src.Root = f.Root
		src.Filename = f.Filename
		src.SearchKey = f.SearchKey
	}
	return src
}

// CleanName normalizes one raw sample name and interns the result.
func (m *Module) CleanName(raw string, f *search.File) string {
	id := m.env.cleaner.CleanIdentity(raw, m.source(f))
	return m.env.registry.Record(id).Name
}

// CleanNames normalizes several raw names that describe the same
// sample, such as the files of a read pair.
func (m *Module) CleanNames(raws []string, f *search.File) (string, error) {
	name, err := m.env.cleaner.CleanNames(raws, m.source(f))
	if err != nil {
		return "", err
	}
	m.env.registry.Record(samplename.Identity{Original: raws[0], Name: name})
	return name, nil
}

// IsIgnored reports whether a cleaned sample name is dropped by
// configuration.
func (m *Module) IsIgnored(name string) bool {
	return m.env.ignore.Match(name)
}

// AddDataSource records f as the origin of a sample's metrics. section
// defaults to "all_sections". Ignored samples are not recorded.
func (m *Module) AddDataSource(f *search.File, name, section string) {
	if m.IsIgnored(name) {
		return
	}
	if section == "" {
		section = "all_sections"
	}
	path := ""
	if f != nil {
		path = f.Path
	}
	m.env.State.AddDataSource(m.Info.Name, section, name, path)
}

// AddSoftwareVersion records a detected tool version. software defaults
// to the module name; versions for ignored samples, and all versions
// when detection is disabled, are dropped.
func (m *Module) AddSoftwareVersion(sample, software, version string) {
	if m.env.Config.DisableVersionDetection {
		return
	}
	if sample != "" && m.IsIgnored(sample) {
		return
	}
	if software == "" {
		software = m.Info.Name
	}
	m.env.State.AddSoftwareVersion(m.Info.Name, software, version)
}

// AddSection appends a report section attributed to this module.
func (m *Module) AddSection(sec report.Section) {
	if sec.Name == "" {
		sec.Name = m.Info.Name
	}
	if sec.Anchor == "" {
		sec.Anchor = m.Info.Anchor + "-section"
	}
	sec.Module = m.Info.Name
	m.env.State.AddSection(sec)
}

// WriteDataFile writes a sample-keyed table into the run's data
// directory.
func (m *Module) WriteDataFile(ctx context.Context, name string, data map[string]map[string]aggregate.Value) error {
	_, err := m.env.State.WriteDataFile(ctx, m.env.DataDir, name, data)
	return err
}

// GeneralStatsAddCols contributes columns to the general statistics
// table. Without grouping configuration every sample keeps its own row;
// with it, rows resolve to groups and merge under the given policy.
// Headers absent from the given map are guessed from the data.
func (m *Module) GeneralStatsAddCols(data map[string]map[string]aggregate.Value, headers map[string]report.Header, policy aggregate.Policy) {
	rows := make(map[string]map[string]aggregate.Value, len(data))
	groupRules := m.env.Config.MergeGroupRules()
	if len(groupRules) == 0 {
		for sample, row := range data {
			rows[sample] = scalarCells(row)
		}
	} else {
		names := make([]string, 0, len(data))
		for name := range data {
			names = append(names, name)
		}
		resolver := grouping.NewResolver(groupRules, m.env.cleaner, m.Info.Anchor)
		groups := resolver.ResolveAll(names)
		for _, gr := range aggregate.Aggregate(data, groups, policy) {
			for _, row := range gr.Rows {
				rows[row.Sample] = row.Data
			}
		}
	}

	var cols []string
	if len(headers) > 0 {
		for col := range headers {
			cols = append(cols, col)
		}
	} else {
		seen := make(map[string]bool)
		for _, row := range rows {
			for col := range row {
				if !seen[col] {
					seen[col] = true
					cols = append(cols, col)
				}
			}
		}
	}
	sort.Strings(cols)

	final := make(map[string]report.Header, len(cols))
	for _, col := range cols {
		h := headers[col]
		if h.Title == "" {
			h.Title = col
		}
		if h.Description == "" {
			h.Description = h.Title
		}
		if h.Namespace == "" {
			h.Namespace = m.Info.Name
		} else {
			h.Namespace = m.Info.Name + ": " + h.Namespace
		}
		final[col] = h
	}
	m.env.State.AddGeneralStats(report.GeneralStatsSection{Data: rows, Cols: cols, Headers: final})
}

// scalarCells filters a row down to its scalar cells. Explicit nils
// pass through; the table renders them as missing.
func scalarCells(row map[string]aggregate.Value) map[string]aggregate.Value {
	out := make(map[string]aggregate.Value, len(row))
	for col, v := range row {
		if aggregate.IsScalar(v) {
			out[col] = v
		}
	}
	return out
}
