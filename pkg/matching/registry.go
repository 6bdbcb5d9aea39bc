package matching

import (
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// entry is one registry institution with its comparable text forms
// precomputed once at snapshot load.
type entry struct {
	inst     *models.CanonicalInstitution
	name     string // canonical text form of the current name
	previous string // canonical text form of the previous name, "" if none
	state    string // normalized state
}

// Registry is an immutable snapshot of the canonical institution registry,
// indexed by normalized state. The registry is owned by an external service;
// a snapshot is loaded once per matching session and is safe for concurrent
// readers.
type Registry struct {
	entries []entry
	byState map[string][]*entry
}

// NewRegistry builds a registry snapshot from canonical institutions.
func NewRegistry(institutions []models.CanonicalInstitution) *Registry {
	r := &Registry{
		entries: make([]entry, len(institutions)),
		byState: make(map[string][]*entry),
	}

	for i := range institutions {
		inst := &institutions[i]
		e := entry{
			inst:  inst,
			name:  normalizers.Canonical(inst.Name),
			state: normalizers.NormalizeState(inst.State),
		}
		if inst.PreviousName != nil {
			e.previous = normalizers.Canonical(*inst.PreviousName)
		}
		r.entries[i] = e
	}

	for i := range r.entries {
		e := &r.entries[i]
		r.byState[e.state] = append(r.byState[e.state], e)
	}

	return r
}

// Len returns the number of institutions in the snapshot.
func (r *Registry) Len() int {
	return len(r.entries)
}

// InState returns the entries whose normalized state matches state.
func (r *Registry) InState(state string) []*entry {
	return r.byState[state]
}

// All returns every entry in the snapshot.
func (r *Registry) All() []*entry {
	all := make([]*entry, len(r.entries))
	for i := range r.entries {
		all[i] = &r.entries[i]
	}
	return all
}
