package samplename

import (
	"github.com/antzucaro/matchr"
	"github.com/grailbio/base/log"
)

// Registry interns every canonical sample identity seen during a run.
// Recording a name that sits within Levenshtein distance 1 of a
// different sample's name logs a hint, since that usually means a
// cleaning rule is stripping too much or too little.
type Registry struct {
	byName map[string]*Identity
	names  []string // first-seen order
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Identity)}
}

// Record stores id under its canonical name and returns the stored
// identity. A name already present keeps its first-recorded identity.
func (r *Registry) Record(id Identity) *Identity {
	if got, ok := r.byName[id.Name]; ok {
		return got
	}
	for _, n := range r.names {
		other := r.byName[n]
		if other.Original == id.Original {
			continue
		}
		if matchr.Levenshtein(n, id.Name) == 1 {
			log.Printf("samples %q and %q differ by one character; check the cleaning rules if they are the same sample", n, id.Name)
		}
	}
	stored := id
	r.byName[id.Name] = &stored
	r.names = append(r.names, id.Name)
	return &stored
}

// Lookup returns the identity recorded under name.
func (r *Registry) Lookup(name string) (*Identity, bool) {
	id, ok := r.byName[name]
	return id, ok
}

// Names returns the canonical names in first-seen order. The returned
// slice is shared; callers must not modify it.
func (r *Registry) Names() []string {
	return r.names
}

// Len returns the number of distinct identities recorded.
func (r *Registry) Len() int {
	return len(r.names)
}
