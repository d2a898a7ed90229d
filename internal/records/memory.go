package records

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"
)

// Memory is a process-local Store. Only the tables named in NewMemory exist.
type Memory struct {
	mu     sync.Mutex
	tables map[string][]Record
	now    func() time.Time
}

// NewMemory returns a memory store with the given tables pre-created.
func NewMemory(tables ...string) *Memory {
	m := &Memory{tables: make(map[string][]Record), now: time.Now}
	for _, t := range tables {
		m.tables[t] = nil
	}
	return m
}

func (m *Memory) Select(_ context.Context, table string, f Filter) ([]Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if err := checkFilter(f); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rows, ok := m.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableMissing, table)
	}
	out := []Record{}
	for _, r := range rows {
		if matches(r, f) {
			out = append(out, maps.Clone(r))
		}
	}
	return out, nil
}

func (m *Memory) Insert(_ context.Context, table string, r Record) (Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	r, err := normalize(prepare(r, m.now()))
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rows, ok := m.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableMissing, table)
	}
	if i := slices.IndexFunc(rows, func(x Record) bool { return x.ID() == r.ID() }); i >= 0 {
		rows[i] = r
	} else {
		m.tables[table] = append(rows, r)
	}
	return maps.Clone(r), nil
}

func (m *Memory) Update(_ context.Context, table, id string, patch Record) (Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	patch, err := normalize(patch)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rows, ok := m.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableMissing, table)
	}
	i := slices.IndexFunc(rows, func(x Record) bool { return x.ID() == id })
	if i < 0 {
		return nil, ErrNotFound
	}
	maps.Copy(rows[i], patch)
	rows[i]["id"] = id
	return maps.Clone(rows[i]), nil
}

// normalize round-trips r through JSON so stored values have the same types a
// SQL-backed store would return.
func normalize(r Record) (Record, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	return unmarshalRecord(b)
}

func matches(r Record, f Filter) bool {
	for k, want := range f {
		got, ok := r[k]
		if !ok {
			return false
		}
		switch w := want.(type) {
		case int:
			want = float64(w)
		case int64:
			want = float64(w)
		}
		if got != want {
			return false
		}
	}
	return true
}
