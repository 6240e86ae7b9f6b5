package hxbridge

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps (component type, component id) to live instances. Each
// component type has its own table, so "t1" may be used by a table and a
// selector at once while a second table "t1" is refused.
//
// A Registry belongs to one Surface and dies with it; there is no
// package-level instance.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]map[string]*Instance
}

// Entry is one (type, id) association in a Registry snapshot.
type Entry struct {
	Type     string
	ID       string
	Instance *Instance
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tables: make(map[string]map[string]*Instance)}
}

// Register inserts inst under (typ, id). If the id is already registered
// for typ the existing instance is returned with created=false and inst is
// discarded; entries are never overwritten.
func (r *Registry) Register(typ, id string, inst *Instance) (existing *Instance, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	table, ok := r.tables[typ]
	if !ok {
		table = make(map[string]*Instance)
		r.tables[typ] = table
	}
	if cur, ok := table[id]; ok {
		return cur, false
	}
	table[id] = inst
	metricInstancesActive.Inc()
	return inst, true
}

// Lookup returns the instance registered under (typ, id).
func (r *Registry) Lookup(typ, id string) (*Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.tables[typ][id]
	return inst, ok
}

// Resolve finds the instance for a component id across all types.
// Envelopes carry only the id; ids are unique per panel, so more than one
// match means the document was not produced by a single panel and the
// envelope cannot be routed.
func (r *Registry) Resolve(id string) (*Instance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *Instance
	for typ, table := range r.tables {
		inst, ok := table[id]
		if !ok {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: id %q is registered for %q and %q", ErrUnknownComponent, id, found.typ, typ)
		}
		found = inst
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownComponent, id)
	}
	return found, nil
}

// Remove deletes (typ, id) and reports whether it existed.
func (r *Registry) Remove(typ, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	table, ok := r.tables[typ]
	if !ok {
		return false
	}
	if _, ok := table[id]; !ok {
		return false
	}
	delete(table, id)
	if len(table) == 0 {
		delete(r.tables, typ)
	}
	metricInstancesActive.Dec()
	return true
}

// Entries returns a snapshot sorted by type then id.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Entry
	for typ, table := range r.tables {
		for id, inst := range table {
			out = append(out, Entry{Type: typ, ID: id, Instance: inst})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Count returns the number of registered instances.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, table := range r.tables {
		n += len(table)
	}
	return n
}

// Reset empties the registry and returns what it held, in Entries order.
func (r *Registry) Reset() []*Instance {
	entries := r.Entries()

	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Instance, 0, len(entries))
	for _, e := range entries {
		if _, ok := r.tables[e.Type][e.ID]; ok {
			out = append(out, e.Instance)
			metricInstancesActive.Dec()
		}
	}
	r.tables = make(map[string]map[string]*Instance)
	return out
}
