package widgets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/pthm/hxbridge"
)

// ErrNotFound is returned by MemorySource.Get for unknown keys.
var ErrNotFound = errors.New("widgets: record not found")

// MemorySource is an in-memory DataSource keyed by one record field.
// Records are returned in key order.
type MemorySource struct {
	key string

	mu      sync.RWMutex
	records map[string]hxbridge.Record
	err     error
}

// NewMemorySource creates a source keyed by the given field.
func NewMemorySource(key string, records ...hxbridge.Record) *MemorySource {
	m := &MemorySource{key: key, records: make(map[string]hxbridge.Record)}
	m.Put(records...)
	return m
}

// Put adds or replaces records.
func (m *MemorySource) Put(records ...hxbridge.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.records[fmt.Sprint(r[m.key])] = r
	}
}

// Fail makes every later call return err. A nil err clears it.
func (m *MemorySource) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MemorySource) Get(ctx context.Context, key string) (hxbridge.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	r, ok := m.records[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return r, nil
}

// List returns records whose fields equal every filter value.
func (m *MemorySource) List(ctx context.Context, filter map[string]string) ([]hxbridge.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}

	keys := make([]string, 0, len(m.records))
	for k := range m.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]hxbridge.Record, 0, len(keys))
	for _, k := range keys {
		r := m.records[k]
		if matches(r, filter) {
			out = append(out, r)
		}
	}
	return out, nil
}

func matches(r hxbridge.Record, filter map[string]string) bool {
	for field, want := range filter {
		if fmt.Sprint(r[field]) != want {
			return false
		}
	}
	return true
}
