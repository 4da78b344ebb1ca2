package services

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"linkpurge/internal/domain"
)

// FSPurger walks a search region and finds every path still sharing the
// target identities. The region defaults to the mount root containing the
// scanned path, since hardlinks can exist anywhere on the same device; the
// full path list must be known before any deletion.
type FSPurger struct {
	log *logrus.Logger
}

func NewFSPurger(log *logrus.Logger) *FSPurger {
	return &FSPurger{log: log}
}

// purgeSink merges per-subtree discoveries. Merges are order-independent
// set unions, so the subtree walks can run in any order or in parallel.
type purgeSink struct {
	mu          sync.Mutex
	targets     map[domain.FileIdentity]struct{}
	hits        map[domain.FileIdentity]*PurgeInode
	entryErrors int
}

func (sink *purgeSink) add(id domain.FileIdentity, path string, usage int64) {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	inode, ok := sink.hits[id]
	if !ok {
		inode = &PurgeInode{Identity: id, DiskUsage: usage}
		sink.hits[id] = inode
	}
	inode.Paths = append(inode.Paths, path)
}

func (sink *purgeSink) countError() {
	sink.mu.Lock()
	sink.entryErrors++
	sink.mu.Unlock()
}

func (sink *purgeSink) wants(id domain.FileIdentity) bool {
	_, ok := sink.targets[id]
	return ok
}

func (purger *FSPurger) FindPaths(ctx context.Context, req PurgeRequest) (PurgeResult, error) {
	start := time.Now()

	searchRoot := req.SearchRoot
	if searchRoot == "" {
		detected, err := DetectMountRoot(req.ScanRoot)
		if err != nil {
			return PurgeResult{}, &domain.PathError{Path: req.ScanRoot, Err: err}
		}
		searchRoot = detected
	}
	searchRoot = cleanPath(searchRoot)
	rootDev, err := deviceOf(searchRoot)
	if err != nil {
		return PurgeResult{}, &domain.PathError{Path: searchRoot, Err: err}
	}

	sink := &purgeSink{
		targets: make(map[domain.FileIdentity]struct{}, len(req.Targets)),
		hits:    make(map[domain.FileIdentity]*PurgeInode),
	}
	// Descent is allowed on the search root's device plus any device a
	// target lives on; other devices cannot hold a matching hardlink.
	allowedDevs := map[uint64]struct{}{rootDev: {}}
	for _, id := range req.Targets {
		sink.targets[id] = struct{}{}
		allowedDevs[id.Dev] = struct{}{}
	}

	purger.log.WithFields(logrus.Fields{
		"search_root": searchRoot,
		"identities":  len(sink.targets),
	}).Info("purge discovery start")

	entries, err := os.ReadDir(searchRoot)
	if err != nil {
		return PurgeResult{}, &domain.PathError{Path: searchRoot, Err: err}
	}

	// Fan out over first-level subdirectories; files directly under the
	// root are handled inline before the group runs.
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.NumCPU())
	for _, entry := range entries {
		path := filepath.Join(searchRoot, entry.Name())
		info, infoErr := entry.Info()
		if infoErr != nil {
			sink.countError()
			continue
		}
		stat := extractStat(info)
		if stat.ok {
			if _, ok := allowedDevs[stat.dev]; !ok {
				continue
			}
		}
		if info.IsDir() {
			subdir := path
			group.Go(func() error {
				return purger.walkPurge(groupCtx, sink, subdir, allowedDevs, req.Registry)
			})
			continue
		}
		if info.Mode().IsRegular() {
			purger.matchFile(sink, path, stat, req.Registry)
		}
	}
	walkErr := group.Wait()

	result := PurgeResult{
		SearchRoot:  searchRoot,
		Inodes:      sink.hits,
		EntryErrors: sink.entryErrors,
	}
	for _, inode := range sink.hits {
		sortStrings(inode.Paths)
		result.PathCount += len(inode.Paths)
		result.EstimatedBytes += inode.DiskUsage
	}
	for id := range sink.targets {
		if _, ok := sink.hits[id]; !ok {
			result.Missing = append(result.Missing, id)
			purger.log.WithField("identity", id.String()).Warn("target identity not found, dropped")
		}
	}
	result.Duration = time.Since(start)

	purger.log.WithFields(logrus.Fields{
		"paths":      result.PathCount,
		"identities": len(result.Inodes),
	}).Info("purge discovery complete")

	if walkErr != nil {
		// Cancellation: the path lists gathered so far remain usable.
		return result, walkErr
	}
	return result, nil
}

func (purger *FSPurger) walkPurge(ctx context.Context, sink *purgeSink, dir string, allowedDevs map[uint64]struct{}, registry *Registry) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		sink.countError()
		purger.log.WithField("path", dir).WithError(err).Debug("cannot read directory")
		return nil
	}
	for _, entry := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		path := filepath.Join(dir, entry.Name())
		info, infoErr := entry.Info()
		if infoErr != nil {
			sink.countError()
			continue
		}
		stat := extractStat(info)
		if stat.ok {
			if _, ok := allowedDevs[stat.dev]; !ok {
				continue
			}
		}
		if info.IsDir() {
			if err := purger.walkPurge(ctx, sink, path, allowedDevs, registry); err != nil {
				return err
			}
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		purger.matchFile(sink, path, stat, registry)
	}
	return nil
}

func (purger *FSPurger) matchFile(sink *purgeSink, path string, stat statInfo, registry *Registry) {
	if !stat.ok {
		return
	}
	id := domain.FileIdentity{Dev: stat.dev, Ino: stat.ino}
	if !sink.wants(id) {
		return
	}
	usage := stat.diskUsage
	if registry != nil {
		if record, ok := registry.Record(id); ok {
			usage = record.DiskUsage
		}
	}
	sink.add(id, path, usage)
}

// FindContained returns the identities from a scan whose filesystem-wide
// link count equals the number of paths seen inside scan scope: deleting
// the in-scope paths removes the data entirely, no global walk needed.
func FindContained(result ScanResult) map[domain.FileIdentity]*PurgeInode {
	contained := make(map[domain.FileIdentity]*PurgeInode)
	result.Registry.Each(func(record *InodeRecord) {
		if record.Nlink == 0 || record.Nlink != uint64(len(record.Paths)) {
			return
		}
		contained[record.Identity] = &PurgeInode{
			Identity:  record.Identity,
			DiskUsage: record.DiskUsage,
			Paths:     append([]string{}, record.Paths...),
		}
	})
	return contained
}
