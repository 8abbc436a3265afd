// Package report accumulates run-wide output state. Tool modules append
// general statistics sections, data sources, report sections and
// software versions while they run; the writer drains the state into
// data files at the end of the run.
package report

import (
	"fmt"

	"github.com/grailbio/qc/aggregate"
)

// Header describes one column of the general statistics table.
type Header struct {
	// Namespace prefixes the column title with its module of origin.
	Namespace string
	// Title is the column heading. Defaults to the column id.
	Title string
	// Description is the long-form column help. Defaults to the title.
	Description string
	// Suffix is appended to rendered values ("%").
	Suffix string
	// Hidden drops the column from the main table while keeping it in
	// data files.
	Hidden bool
}

// GeneralStatsSection is one module's contribution to the general
// statistics table.
type GeneralStatsSection struct {
	// Data maps sample name to column id to value.
	Data map[string]map[string]aggregate.Value
	// Cols is the column emission order.
	Cols []string
	// Headers describes each column in Cols.
	Headers map[string]Header
}

// DataSource records where one sample's metrics came from.
type DataSource struct {
	Module  string
	Section string
	Sample  string
	Path    string
}

// Section is one report section emitted by a module.
type Section struct {
	Name        string
	Anchor      string
	Module      string
	Description string
	Content     string
}

// Opts configures a report State.
type Opts struct {
	// RemoveSections drops sections whose name or anchor is listed.
	RemoveSections []string
	// DataFormat selects the data file format: "tsv" (default), "json"
	// or "yaml".
	DataFormat string
	// PreserveRawData retains written payloads in SavedRawData.
	PreserveRawData bool
}

// State is the shared mutable state of one report run. Methods are
// append-only; nothing is removed once recorded.
type State struct {
	opts Opts

	// GeneralStats lists the general statistics sections in the order
	// modules added them.
	GeneralStats []GeneralStatsSection
	// DataSources lists recorded metric provenance in insertion order.
	DataSources []DataSource
	// Sections lists report sections in insertion order.
	Sections []Section
	// SavedRawData holds written data file payloads by final file name.
	SavedRawData map[string]map[string]map[string]aggregate.Value
	// Checksum fingerprints every written table cell.
	Checksum Checksum

	versionGroups []string
	versionTools  map[string][]string
	versions      map[string]map[string]*versionList

	anchors map[string]bool
	written map[string]bool
}

// NewState returns an empty State.
func NewState(opts Opts) *State {
	if opts.DataFormat == "" {
		opts.DataFormat = "tsv"
	}
	return &State{
		opts:         opts,
		SavedRawData: make(map[string]map[string]map[string]aggregate.Value),
		versionTools: make(map[string][]string),
		versions:     make(map[string]map[string]*versionList),
		anchors:      make(map[string]bool),
		written:      make(map[string]bool),
	}
}

// AddGeneralStats appends one general statistics section.
func (s *State) AddGeneralStats(sec GeneralStatsSection) {
	s.GeneralStats = append(s.GeneralStats, sec)
}

// AddDataSource records the path a sample's metrics were parsed from.
func (s *State) AddDataSource(module, section, sample, path string) {
	s.DataSources = append(s.DataSources, DataSource{
		Module:  module,
		Section: section,
		Sample:  sample,
		Path:    path,
	})
}

// AddSection appends a report section. Anchors already taken get a
// "-1", "-2", ... suffix; sections disabled by configuration are
// dropped.
func (s *State) AddSection(sec Section) {
	for _, name := range s.opts.RemoveSections {
		if name == sec.Name || name == sec.Anchor {
			return
		}
	}
	base := sec.Anchor
	for i := 1; s.anchors[sec.Anchor]; i++ {
		sec.Anchor = fmt.Sprintf("%s-%d", base, i)
	}
	s.anchors[sec.Anchor] = true
	s.Sections = append(s.Sections, sec)
}
