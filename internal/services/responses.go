package services

import (
	"time"

	"linkpurge/internal/domain"
)

type ScanResult struct {
	RootPath    string
	DeviceID    uint64
	Xdev        bool
	Apparent    bool
	GeneratedAt time.Time
	Tree        domain.TreeIndex
	Registry    *Registry
	// EntryErrors counts per-entry stat/read failures that were skipped;
	// ErrorSample keeps the first few for the end-of-run summary.
	EntryErrors int
	ErrorSample []string
	Duration    time.Duration
}

// PurgeInode is one identity targeted for removal together with every path
// found for it during the purge walk. Computed fresh per purge, never
// persisted.
type PurgeInode struct {
	Identity  domain.FileIdentity
	DiskUsage int64
	Paths     []string
}

type PurgeResult struct {
	SearchRoot string
	Inodes     map[domain.FileIdentity]*PurgeInode
	// Missing lists targets found nowhere during the walk (deleted
	// externally since the scan). Dropped with a warning, not fatal.
	Missing        []domain.FileIdentity
	PathCount      int
	EstimatedBytes int64
	EntryErrors    int
	Duration       time.Duration
}

// SortedPaths returns every discovered path in lexicographic order, for
// preview display and deterministic deletion order.
func (result PurgeResult) SortedPaths() []string {
	paths := make([]string, 0, result.PathCount)
	for _, inode := range result.Inodes {
		paths = append(paths, inode.Paths...)
	}
	sortStrings(paths)
	return paths
}

type DeleteResult struct {
	DeletedPaths int
	FailedPaths  int
	// EstimatedFreedBytes is credited once per identity when its last
	// known path is removed. If a hardlink exists outside the search
	// boundary the inode survives and this over-reports; it is an
	// estimate, not a guarantee.
	EstimatedFreedBytes int64
	// MeasuredFreedBytes is the free-space delta on the containing mount,
	// best effort, zero when unavailable or on dry runs.
	MeasuredFreedBytes int64
	DryRun             bool
	Cancelled          bool
	Errors             []string
	Duration           time.Duration
}

type ScanProgress struct {
	Scanned   int64
	Current   string
	Completed bool
}

type SymlinkEntry struct {
	Path      string
	SizeBytes int64
}
