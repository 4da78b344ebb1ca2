package services

import "linkpurge/internal/domain"

type ScanRequest struct {
	RootPath string
	// Xdev refuses to descend into directories on a different device.
	Xdev bool
	// Apparent credits st_size instead of allocated blocks.
	Apparent bool
}

type PurgeRequest struct {
	Targets []domain.FileIdentity
	// Registry from the originating scan; supplies per-identity usage so
	// the estimate does not depend on re-statting discovered paths.
	Registry *Registry
	// SearchRoot for the discovery walk. Empty means the mount root of
	// ScanRoot, found by walking parents while the device id is unchanged.
	// The walk only descends onto devices that hold a target identity;
	// other devices cannot hold a matching hardlink.
	SearchRoot string
	ScanRoot   string
}

type DeleteRequest struct {
	// Inodes drive hardlink-group deletion with freed-byte accounting.
	Inodes map[domain.FileIdentity]*PurgeInode
	// Links is a plain batch (symlink sweep); each entry credits its own
	// size when removed, no identity accounting.
	Links     []SymlinkEntry
	DryRun    bool
	SafeMode  bool
	Confirmed bool
}
