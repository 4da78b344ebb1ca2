package services

import (
	"sort"
	"sync"

	"linkpurge/internal/domain"
)

// InodeRecord is created the first time an identity is observed during a
// scan. DiskUsage is captured once; Paths lists every appearance within
// scan scope.
type InodeRecord struct {
	Identity  domain.FileIdentity
	SizeBytes int64
	DiskUsage int64
	Nlink     uint64
	Paths     []string
	// OwnerPath is the lexicographically first path, set by Finalize. It
	// is the one appearance that credits DiskUsage to ancestor aggregates.
	OwnerPath string
}

// Registry tracks every distinct FileIdentity seen during a scan. It is an
// explicit object passed into scan and purge calls, never a package global.
// Observe is safe for concurrent walkers.
type Registry struct {
	mu      sync.Mutex
	records map[domain.FileIdentity]*InodeRecord
}

func NewRegistry() *Registry {
	return &Registry{records: make(map[domain.FileIdentity]*InodeRecord)}
}

// Observe records one path for an identity. Size, usage and link count are
// captured on first observation only; hardlinks share them by definition.
func (reg *Registry) Observe(id domain.FileIdentity, path string, size, usage int64, nlink uint64) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	record, ok := reg.records[id]
	if !ok {
		record = &InodeRecord{
			Identity:  id,
			SizeBytes: size,
			DiskUsage: usage,
			Nlink:     nlink,
		}
		reg.records[id] = record
	}
	record.Paths = append(record.Paths, path)
}

// Finalize sorts every record's paths and fixes the owner. Owner choice is
// lexicographic byte order of the absolute path, so aggregates do not
// depend on directory enumeration order.
func (reg *Registry) Finalize() {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for _, record := range reg.records {
		sort.Strings(record.Paths)
		if len(record.Paths) > 0 {
			record.OwnerPath = record.Paths[0]
		}
	}
}

func (reg *Registry) Record(id domain.FileIdentity) (*InodeRecord, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	record, ok := reg.records[id]
	return record, ok
}

func (reg *Registry) IsOwner(id domain.FileIdentity, path string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	record, ok := reg.records[id]
	return ok && record.OwnerPath == path
}

func (reg *Registry) Identities() []domain.FileIdentity {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	ids := make([]domain.FileIdentity, 0, len(reg.records))
	for id := range reg.records {
		ids = append(ids, id)
	}
	return ids
}

func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.records)
}

// TotalDedupBytes sums disk usage once per identity.
func (reg *Registry) TotalDedupBytes() int64 {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	var total int64
	for _, record := range reg.records {
		total += record.DiskUsage
	}
	return total
}

// Each calls fn for every record. Do not retain the record past the call.
func (reg *Registry) Each(fn func(*InodeRecord)) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for _, record := range reg.records {
		fn(record)
	}
}
