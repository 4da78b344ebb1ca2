package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"

	"linkpurge/internal/domain"
)

const (
	snapshotVersion   = 1
	snapshotGenerator = "linkpurge"
)

type snapshotNode struct {
	Name        string   `json:"name"`
	Kind        int      `json:"kind"`
	SizeBytes   int64    `json:"size"`
	DiskUsage   int64    `json:"disk_usage"`
	AccumBytes  int64    `json:"accum"`
	Nlink       uint64   `json:"nlink,omitempty"`
	Identity    string   `json:"identity,omitempty"`
	Owner       bool     `json:"owner,omitempty"`
	ParentID    string   `json:"parent,omitempty"`
	ChildrenIDs []string `json:"children,omitempty"`
	NotScanned  bool     `json:"not_scanned,omitempty"`
}

type snapshotRecord struct {
	SizeBytes int64    `json:"size"`
	DiskUsage int64    `json:"disk_usage"`
	LinkCount uint64   `json:"link_count"`
	Paths     []string `json:"paths"`
}

type snapshotPayload struct {
	RootPath string                    `json:"root_path"`
	RootID   string                    `json:"tree_root"`
	DeviceID uint64                    `json:"device_id"`
	Xdev     bool                      `json:"xdev"`
	Apparent bool                      `json:"apparent"`
	Tree     map[string]snapshotNode   `json:"tree"`
	Registry map[string]snapshotRecord `json:"inode_registry"`
}

type snapshotFile struct {
	Version     int             `json:"schema_version"`
	Generator   string          `json:"generator"`
	GeneratedAt time.Time       `json:"generated_at"`
	Checksum    string          `json:"checksum"`
	Payload     json.RawMessage `json:"payload"`
}

// SaveScan writes a completed scan to disk. Load(Save(x)) reproduces an
// equivalent tree with identical aggregates without re-walking anything.
func SaveScan(path string, result ScanResult) error {
	payload := snapshotPayload{
		RootPath: result.RootPath,
		RootID:   result.Tree.RootID,
		DeviceID: result.DeviceID,
		Xdev:     result.Xdev,
		Apparent: result.Apparent,
		Tree:     make(map[string]snapshotNode, len(result.Tree.Nodes)),
		Registry: make(map[string]snapshotRecord),
	}
	for id, node := range result.Tree.Nodes {
		stored := snapshotNode{
			Name:        node.Name,
			Kind:        int(node.Kind),
			SizeBytes:   node.SizeBytes,
			DiskUsage:   node.DiskUsage,
			AccumBytes:  node.AccumBytes,
			Nlink:       node.Nlink,
			Owner:       node.Owner,
			ParentID:    node.ParentID,
			ChildrenIDs: node.ChildrenIDs,
			NotScanned:  node.NotScanned,
		}
		if node.HasIdentity {
			stored.Identity = node.Identity.String()
		}
		payload.Tree[id] = stored
	}
	result.Registry.Each(func(record *InodeRecord) {
		payload.Registry[record.Identity.String()] = snapshotRecord{
			SizeBytes: record.SizeBytes,
			DiskUsage: record.DiskUsage,
			LinkCount: record.Nlink,
			Paths:     record.Paths,
		}
	})

	raw, err := json.Marshal(payload)
	if err != nil {
		return &domain.SerializationError{Path: path, Err: err}
	}
	file := snapshotFile{
		Version:     snapshotVersion,
		Generator:   snapshotGenerator,
		GeneratedAt: result.GeneratedAt,
		Checksum:    fmt.Sprintf("%016x", xxhash.Sum64(raw)),
		Payload:     raw,
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return &domain.SerializationError{Path: path, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &domain.SerializationError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &domain.SerializationError{Path: path, Err: err}
	}
	return nil
}

// LoadScan restores a saved scan. Corrupt or incompatible input fails the
// load call only; nothing is re-walked.
func LoadScan(path string) (ScanResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ScanResult{}, &domain.SerializationError{Path: path, Err: err}
	}
	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		return ScanResult{}, &domain.SerializationError{Path: path, Err: err}
	}
	if file.Version != snapshotVersion {
		return ScanResult{}, &domain.SerializationError{
			Path: path,
			Err:  fmt.Errorf("unsupported schema version %d", file.Version),
		}
	}
	// The checksum covers the compact payload; indentation added by the
	// outer MarshalIndent is stripped before verifying.
	var compact bytes.Buffer
	if err := json.Compact(&compact, file.Payload); err != nil {
		return ScanResult{}, &domain.SerializationError{Path: path, Err: err}
	}
	if sum := fmt.Sprintf("%016x", xxhash.Sum64(compact.Bytes())); sum != file.Checksum {
		return ScanResult{}, &domain.SerializationError{
			Path: path,
			Err:  fmt.Errorf("checksum mismatch"),
		}
	}
	var payload snapshotPayload
	if err := json.Unmarshal(file.Payload, &payload); err != nil {
		return ScanResult{}, &domain.SerializationError{Path: path, Err: err}
	}

	nodes := make(map[string]*domain.Node, len(payload.Tree))
	for id, stored := range payload.Tree {
		node := &domain.Node{
			ID:          id,
			Name:        stored.Name,
			Path:        id,
			Kind:        domain.NodeKind(stored.Kind),
			SizeBytes:   stored.SizeBytes,
			DiskUsage:   stored.DiskUsage,
			AccumBytes:  stored.AccumBytes,
			Nlink:       stored.Nlink,
			Owner:       stored.Owner,
			ParentID:    stored.ParentID,
			ChildrenIDs: stored.ChildrenIDs,
			NotScanned:  stored.NotScanned,
		}
		if stored.Identity != "" {
			identity, idErr := domain.ParseIdentity(stored.Identity)
			if idErr != nil {
				return ScanResult{}, &domain.SerializationError{Path: path, Err: idErr}
			}
			node.Identity = identity
			node.HasIdentity = true
		}
		nodes[id] = node
	}

	registry := NewRegistry()
	for key, stored := range payload.Registry {
		identity, idErr := domain.ParseIdentity(key)
		if idErr != nil {
			return ScanResult{}, &domain.SerializationError{Path: path, Err: idErr}
		}
		for _, recordPath := range stored.Paths {
			registry.Observe(identity, recordPath, stored.SizeBytes, stored.DiskUsage, stored.LinkCount)
		}
	}
	registry.Finalize()

	for _, node := range nodes {
		if node.Kind == domain.KindDir {
			for _, childID := range node.ChildrenIDs {
				if child, ok := nodes[childID]; ok {
					if child.Kind == domain.KindDir {
						node.ChildCount++
					}
				}
			}
		}
	}
	applyFileCounts(nodes)

	return ScanResult{
		RootPath:    payload.RootPath,
		DeviceID:    payload.DeviceID,
		Xdev:        payload.Xdev,
		Apparent:    payload.Apparent,
		GeneratedAt: file.GeneratedAt,
		Tree:        domain.TreeIndex{Nodes: nodes, RootID: payload.RootID},
		Registry:    registry,
	}, nil
}
