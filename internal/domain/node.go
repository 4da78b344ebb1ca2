package domain

import "fmt"

type NodeKind int

const (
	KindFile NodeKind = iota
	KindDir
	KindSymlink
	KindOther
)

// FileIdentity is a (device, inode) pair. Every path sharing an identity
// refers to the same on-disk data; removing all of them frees its disk
// usage exactly once.
type FileIdentity struct {
	Dev uint64
	Ino uint64
}

func (id FileIdentity) String() string {
	return fmt.Sprintf("%d:%d", id.Dev, id.Ino)
}

// ParseIdentity reverses String. Used for registry keys in saved scans.
func ParseIdentity(s string) (FileIdentity, error) {
	var id FileIdentity
	if _, err := fmt.Sscanf(s, "%d:%d", &id.Dev, &id.Ino); err != nil {
		return FileIdentity{}, fmt.Errorf("bad identity %q: %w", s, err)
	}
	return id, nil
}

type Node struct {
	ID          string
	Name        string
	Path        string
	Kind        NodeKind
	SizeBytes   int64
	DiskUsage   int64
	AccumBytes  int64
	Nlink       uint64
	Identity    FileIdentity
	HasIdentity bool
	// Owner marks the lexicographically first path of an identity; only
	// owners credit their usage to ancestor aggregates.
	Owner       bool
	ParentID    string
	ChildrenIDs []string
	ChildCount  int
	FileCount   int
	// NotScanned flags a directory on a different device that was listed
	// but not descended into (xdev policy).
	NotScanned bool
}

type TreeIndex struct {
	Nodes  map[string]*Node
	RootID string
}
