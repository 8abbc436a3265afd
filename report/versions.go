package report

import (
	"sort"

	"github.com/Masterminds/semver/v3"
)

// versionList accumulates the distinct versions reported for one tool.
type versionList struct {
	raws []string
	sems []*semver.Version // index-aligned with raws, nil when unparseable
}

// AddSoftwareVersion records a detected software version under a group
// heading. software defaults to the group name when empty, matching
// tools that report only their own version. Duplicate version strings
// collapse.
func (s *State) AddSoftwareVersion(group, software, version string) {
	if version == "" {
		return
	}
	if software == "" {
		software = group
	}
	tools, ok := s.versions[group]
	if !ok {
		tools = make(map[string]*versionList)
		s.versions[group] = tools
		s.versionGroups = append(s.versionGroups, group)
	}
	vl, ok := tools[software]
	if !ok {
		vl = &versionList{}
		tools[software] = vl
		s.versionTools[group] = append(s.versionTools[group], software)
	}
	for _, raw := range vl.raws {
		if raw == version {
			return
		}
	}
	sem, err := semver.NewVersion(version)
	if err != nil {
		sem = nil
	}
	vl.raws = append(vl.raws, version)
	vl.sems = append(vl.sems, sem)
}

// VersionRow is one row of the software versions table.
type VersionRow struct {
	Group    string
	Software string
	// Versions lists the recorded versions newest first; strings that
	// do not parse as versions follow in insertion order.
	Versions []string
}

// VersionsTable lists all recorded software versions. Groups and tools
// appear in insertion order.
func (s *State) VersionsTable() []VersionRow {
	var rows []VersionRow
	for _, group := range s.versionGroups {
		for _, software := range s.versionTools[group] {
			vl := s.versions[group][software]
			type entry struct {
				raw string
				sem *semver.Version
				idx int
			}
			entries := make([]entry, len(vl.raws))
			for i := range vl.raws {
				entries[i] = entry{raw: vl.raws[i], sem: vl.sems[i], idx: i}
			}
			sort.SliceStable(entries, func(i, j int) bool {
				a, b := entries[i], entries[j]
				switch {
				case a.sem != nil && b.sem != nil:
					return a.sem.GreaterThan(b.sem)
				case a.sem != nil:
					return true
				case b.sem != nil:
					return false
				}
				return a.idx < b.idx
			})
			versions := make([]string, len(entries))
			for i, e := range entries {
				versions[i] = e.raw
			}
			rows = append(rows, VersionRow{Group: group, Software: software, Versions: versions})
		}
	}
	return rows
}
