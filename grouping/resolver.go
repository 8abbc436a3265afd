// Package grouping assigns cleaned sample names to logical groups using
// an ordered list of label-scoped cleaning rule sets. A sample matches
// the first label whose rules strip something from its name; samples
// matching no label stay in singleton groups of their own.
package grouping

import (
	"sort"

	"github.com/grailbio/qc/samplename"
)

// LabelRules binds a group label to the cleaning rules that detect it.
type LabelRules struct {
	Label string
	Rules []samplename.CleanRule
}

// Member is one sample inside a resolved group.
type Member struct {
	Label    string // matched label, "" when the sample matched none
	Display  string // name shown for the member's row
	Original string // sample name as keyed in the input data
}

// Group is an ordered set of samples that resolved to the same name.
// Every input sample lands in exactly one group per resolution.
type Group struct {
	Name    string
	Members []Member
}

// Resolver maps sample names to groups.
type Resolver struct {
	groups  []LabelRules
	cleaner *samplename.Cleaner
	anchor  string
}

// NewResolver returns a Resolver over the configured label rule sets.
// cleaner runs both the label-scoped stripping passes and the default
// cleanup of the resulting group names. anchor is the calling module's
// anchor, consulted by module-scoped rules.
func NewResolver(groups []LabelRules, cleaner *samplename.Cleaner, anchor string) *Resolver {
	return &Resolver{groups: groups, cleaner: cleaner, anchor: anchor}
}

// ResolveOne maps name to its group name and matched label. The first
// label whose rules change the name wins; the group name is the
// stripped name cleaned again under the default rules. Without any
// configured rule sets, or when no label matches, the name is its own
// group with no label.
func (r *Resolver) ResolveOne(name string) (group, label string) {
	if len(r.groups) == 0 {
		return name, ""
	}
	src := samplename.Source{Module: r.anchor}
	for _, lr := range r.groups {
		if len(lr.Rules) == 0 {
			continue
		}
		stripped := r.cleaner.CleanNameScoped(name, src, lr.Rules)
		if stripped != name {
			return r.cleaner.CleanName(stripped, src), lr.Label
		}
	}
	return name, ""
}

// ResolveAll resolves every name and buckets the results into ordered
// groups. Input names are sorted first so the outcome does not depend
// on their order; groups come out bucketed by label in first-seen order
// and then by group name in first-seen order. Members of groups with
// more than one sample display as "group (label)".
func (r *Resolver) ResolveAll(names []string) []Group {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	type resolved struct {
		label    string
		group    string
		original string
	}
	var labelOrder []string
	byLabel := make(map[string][]resolved)
	for _, name := range sorted {
		group, label := r.ResolveOne(name)
		if _, ok := byLabel[label]; !ok {
			labelOrder = append(labelOrder, label)
		}
		byLabel[label] = append(byLabel[label], resolved{label, group, name})
	}

	// Labeled samples bucket by group name, merging across labels.
	// Unlabeled samples never merge; each keeps a singleton bucket even
	// when its name matches a labeled group.
	type bucket struct {
		name    string
		members []resolved
	}
	var order []*bucket
	labeled := make(map[string]*bucket)
	for _, label := range labelOrder {
		for _, res := range byLabel[label] {
			if res.label == "" {
				order = append(order, &bucket{name: res.group, members: []resolved{res}})
				continue
			}
			b, ok := labeled[res.group]
			if !ok {
				b = &bucket{name: res.group}
				labeled[res.group] = b
				order = append(order, b)
			}
			b.members = append(b.members, res)
		}
	}

	groups := make([]Group, 0, len(order))
	for _, b := range order {
		g := Group{Name: b.name, Members: make([]Member, 0, len(b.members))}
		for _, res := range b.members {
			display := b.name
			if len(b.members) > 1 {
				display = b.name + " (" + res.label + ")"
			}
			g.Members = append(g.Members, Member{Label: res.label, Display: display, Original: res.original})
		}
		groups = append(groups, g)
	}
	return groups
}
