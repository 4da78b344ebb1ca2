package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"linkpurge/internal/domain"
)

const errorSampleLimit = 5

// FSScanner walks a directory tree and produces the deduplicated node
// table plus the inode registry. The walk is a DFS over sorted ReadDir
// listings, so enumeration order is deterministic; hardlink ownership is
// additionally fixed by a lexicographic pass in Registry.Finalize, making
// aggregates independent of any ordering at all.
type FSScanner struct {
	log      *logrus.Logger
	excludes []string

	mu       sync.RWMutex
	progress chan ScanProgress
}

func NewFSScanner(log *logrus.Logger, excludes []string) *FSScanner {
	return &FSScanner{log: log, excludes: excludes}
}

// Progress is read from the UI goroutine while Scan runs on another.
func (scanner *FSScanner) Progress() <-chan ScanProgress {
	scanner.mu.RLock()
	defer scanner.mu.RUnlock()
	return scanner.progress
}

func (scanner *FSScanner) setProgress(ch chan ScanProgress) {
	scanner.mu.Lock()
	scanner.progress = ch
	scanner.mu.Unlock()
}

type scanWalk struct {
	req         ScanRequest
	rootDev     uint64
	nodes       map[string]*domain.Node
	registry    *Registry
	scanned     int64
	entryErrors int
	errorSample []string
	progress    chan ScanProgress
}

func (scanner *FSScanner) Scan(ctx context.Context, req ScanRequest) (ScanResult, error) {
	start := time.Now()
	root := cleanPath(req.RootPath)

	info, err := os.Lstat(root)
	if err != nil {
		return ScanResult{}, &domain.PathError{Path: root, Err: err}
	}
	if !info.IsDir() {
		return ScanResult{}, &domain.PathError{Path: root, Err: errors.New("not a directory")}
	}
	rootStat := extractStat(info)

	scanner.log.WithFields(logrus.Fields{
		"root":     root,
		"xdev":     req.Xdev,
		"apparent": req.Apparent,
	}).Info("scan start")

	progress := make(chan ScanProgress, 64)
	scanner.setProgress(progress)
	defer close(progress)

	walk := &scanWalk{
		req:      req,
		rootDev:  rootStat.dev,
		nodes:    make(map[string]*domain.Node),
		registry: NewRegistry(),
		progress: progress,
	}

	rootNode := &domain.Node{
		ID:   root,
		Name: filepath.Base(root),
		Path: root,
		Kind: domain.KindDir,
	}
	if rootNode.Name == "." || rootNode.Name == string(filepath.Separator) {
		rootNode.Name = root
	}
	walk.nodes[root] = rootNode

	walkErr := scanner.walkDir(ctx, walk, root)

	walk.registry.Finalize()
	markOwners(walk.nodes, walk.registry)
	applyAccumulation(walk.nodes, walk.registry)
	applyFileCounts(walk.nodes)

	result := ScanResult{
		RootPath:    root,
		DeviceID:    rootStat.dev,
		Xdev:        req.Xdev,
		Apparent:    req.Apparent,
		GeneratedAt: time.Now(),
		Tree:        domain.TreeIndex{Nodes: walk.nodes, RootID: root},
		Registry:    walk.registry,
		EntryErrors: walk.entryErrors,
		ErrorSample: walk.errorSample,
		Duration:    time.Since(start),
	}

	if walk.entryErrors > 0 {
		scanner.log.WithFields(logrus.Fields{
			"skipped": walk.entryErrors,
			"sample":  walk.errorSample,
		}).Warn("entries skipped during scan")
	}

	if walkErr != nil {
		// Cancellation: the gathered tree is partial but consistent.
		return result, walkErr
	}
	progressNonBlocking(progress, ScanProgress{Scanned: walk.scanned, Completed: true})
	return result, nil
}

func (scanner *FSScanner) walkDir(ctx context.Context, walk *scanWalk, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		walk.entryErrors++
		walk.errorSample = sampleAppend(walk.errorSample, err.Error(), errorSampleLimit)
		scanner.log.WithField("path", dir).WithError(err).Warn("cannot read directory")
		return nil
	}

	parent := walk.nodes[dir]
	for _, entry := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		name := entry.Name()
		if scanner.isExcluded(name) {
			continue
		}
		path := filepath.Join(dir, name)
		info, infoErr := entry.Info()
		if infoErr != nil {
			walk.entryErrors++
			walk.errorSample = sampleAppend(walk.errorSample, infoErr.Error(), errorSampleLimit)
			scanner.log.WithField("path", path).WithError(infoErr).Warn("cannot stat entry")
			continue
		}
		stat := extractStat(info)
		usage := stat.diskUsage
		if walk.req.Apparent {
			usage = stat.size
		}

		node := &domain.Node{
			ID:        path,
			Name:      name,
			Path:      path,
			ParentID:  dir,
			SizeBytes: stat.size,
			DiskUsage: usage,
			Nlink:     stat.nlink,
		}
		if stat.ok {
			node.Identity = domain.FileIdentity{Dev: stat.dev, Ino: stat.ino}
			node.HasIdentity = true
		}

		mode := info.Mode()
		descend := false
		switch {
		case mode.IsDir():
			node.Kind = domain.KindDir
			if walk.req.Xdev && stat.ok && stat.dev != walk.rootDev {
				node.NotScanned = true
				scanner.log.WithField("path", path).Debug("different filesystem, not descending")
			} else {
				descend = true
			}
		case mode&os.ModeSymlink != 0:
			// Recorded by its own identity, never followed and never a
			// hardlink target.
			node.Kind = domain.KindSymlink
			node.AccumBytes = usage
		case mode.IsRegular():
			node.Kind = domain.KindFile
			if node.HasIdentity {
				walk.registry.Observe(node.Identity, path, stat.size, usage, stat.nlink)
			} else {
				node.AccumBytes = usage
			}
		default:
			node.Kind = domain.KindOther
			node.AccumBytes = usage
		}

		walk.nodes[path] = node
		if parent != nil {
			parent.ChildrenIDs = append(parent.ChildrenIDs, path)
			if node.Kind == domain.KindDir {
				parent.ChildCount++
			}
		}

		walk.scanned++
		if walk.scanned%200 == 0 {
			progressNonBlocking(walk.progress, ScanProgress{Scanned: walk.scanned, Current: path})
		}

		if descend {
			if err := scanner.walkDir(ctx, walk, path); err != nil {
				return err
			}
		}
	}
	return nil
}

func (scanner *FSScanner) isExcluded(name string) bool {
	for _, pattern := range scanner.excludes {
		if matched, err := filepath.Match(pattern, name); err == nil && matched {
			return true
		}
	}
	return false
}

func markOwners(nodes map[string]*domain.Node, registry *Registry) {
	for _, node := range nodes {
		if node.Kind == domain.KindFile && node.HasIdentity {
			node.Owner = registry.IsOwner(node.Identity, node.Path)
		}
	}
}

// bottomUpOrder sorts node paths so every child precedes its parent.
// Depth alone cannot order a tree rooted at "/": the root and its direct
// children all contain one separator, so path length breaks the tie (a
// child path is always longer than its parent's).
func bottomUpOrder(nodes map[string]*domain.Node) []string {
	paths := make([]string, 0, len(nodes))
	for path := range nodes {
		paths = append(paths, path)
	}
	sort.Slice(paths, func(i, j int) bool {
		di, dj := depth(paths[i]), depth(paths[j])
		if di != dj {
			return di > dj
		}
		return len(paths[i]) > len(paths[j])
	})
	return paths
}

// applyAccumulation fills AccumBytes bottom-up: a directory's aggregate is
// the sum over children of (file: usage if owner, else 0; directory: its
// aggregate; symlink/other: own usage). A not-scanned boundary directory
// stays at zero.
func applyAccumulation(nodes map[string]*domain.Node, registry *Registry) {
	for _, path := range bottomUpOrder(nodes) {
		node := nodes[path]
		switch node.Kind {
		case domain.KindFile:
			if !node.HasIdentity {
				continue
			}
			node.AccumBytes = 0
			if node.Owner {
				if record, ok := registry.Record(node.Identity); ok {
					node.AccumBytes = record.DiskUsage
				}
			}
		case domain.KindDir:
			if node.NotScanned {
				node.AccumBytes = 0
				continue
			}
			var total int64
			for _, childID := range node.ChildrenIDs {
				if child, ok := nodes[childID]; ok {
					total += child.AccumBytes
				}
			}
			node.AccumBytes = total
		}
	}
}

func applyFileCounts(nodes map[string]*domain.Node) {
	for _, path := range bottomUpOrder(nodes) {
		node := nodes[path]
		if node.Kind != domain.KindDir {
			node.FileCount = 1
			continue
		}
		count := 0
		for _, childID := range node.ChildrenIDs {
			if child, ok := nodes[childID]; ok {
				count += child.FileCount
			}
		}
		node.FileCount = count
	}
}
