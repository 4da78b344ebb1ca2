package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"linkpurge/internal/domain"
)

// FSDeleter removes discovered paths as a best-effort batch. Per-path
// failures are counted and the batch continues; cancellation is checked
// between paths, never mid-unlink.
type FSDeleter struct {
	log *logrus.Logger
}

func NewFSDeleter(log *logrus.Logger) *FSDeleter {
	return &FSDeleter{log: log}
}

func (deleter *FSDeleter) Execute(ctx context.Context, req DeleteRequest) (DeleteResult, error) {
	start := time.Now()
	result := DeleteResult{DryRun: req.DryRun}

	if !req.DryRun && !req.Confirmed {
		return result, fmt.Errorf("delete requires confirmation")
	}
	if req.SafeMode {
		if err := checkCriticalPaths(req); err != nil {
			return result, err
		}
	}

	if req.DryRun {
		// Same report, zero unlink calls. DeletedPaths carries the
		// would-delete count.
		for _, inode := range req.Inodes {
			result.EstimatedFreedBytes += inode.DiskUsage
		}
		for _, link := range req.Links {
			result.EstimatedFreedBytes += link.SizeBytes
		}
		result.DeletedPaths = pathCount(req.Inodes) + len(req.Links)
		result.Duration = time.Since(start)
		deleter.log.WithFields(logrus.Fields{
			"identities": len(req.Inodes),
			"paths":      result.DeletedPaths,
		}).Info("dry run, nothing deleted")
		return result, nil
	}

	measureFrom := measureBase(req)
	freeBefore, measured := FreeBytes(measureFrom)

	for _, inode := range req.Inodes {
		remaining := len(inode.Paths)
		for _, path := range inode.Paths {
			if ctx.Err() != nil {
				result.Cancelled = true
				result.Duration = time.Since(start)
				return result, nil
			}
			if err := os.Remove(path); err != nil {
				result.FailedPaths++
				result.Errors = append(result.Errors, err.Error())
				deleter.log.WithField("path", path).WithError(err).Error("delete failed")
				continue
			}
			result.DeletedPaths++
			remaining--
			deleter.log.WithField("path", path).Info("deleted")
		}
		// The identity's usage is freed only once its last known path is
		// gone. A link outside the search boundary makes this an estimate.
		if remaining == 0 {
			result.EstimatedFreedBytes += inode.DiskUsage
		}
	}

	for _, link := range req.Links {
		if ctx.Err() != nil {
			result.Cancelled = true
			break
		}
		if err := os.Remove(link.Path); err != nil {
			result.FailedPaths++
			result.Errors = append(result.Errors, err.Error())
			deleter.log.WithField("path", link.Path).WithError(err).Error("delete failed")
			continue
		}
		result.DeletedPaths++
		result.EstimatedFreedBytes += link.SizeBytes
		deleter.log.WithField("path", link.Path).Info("deleted")
	}

	if measured {
		if freeAfter, ok := FreeBytes(measureFrom); ok && freeAfter > freeBefore {
			result.MeasuredFreedBytes = int64(freeAfter - freeBefore)
		}
	}

	result.Duration = time.Since(start)
	deleter.log.WithFields(logrus.Fields{
		"deleted": result.DeletedPaths,
		"failed":  result.FailedPaths,
		"freed":   result.EstimatedFreedBytes,
	}).Info("delete complete")
	return result, nil
}

func pathCount(inodes map[domain.FileIdentity]*PurgeInode) int {
	count := 0
	for _, inode := range inodes {
		count += len(inode.Paths)
	}
	return count
}

func measureBase(req DeleteRequest) string {
	for _, inode := range req.Inodes {
		if len(inode.Paths) > 0 {
			return inode.Paths[0]
		}
	}
	if len(req.Links) > 0 {
		return req.Links[0].Path
	}
	return string(filepath.Separator)
}

func checkCriticalPaths(req DeleteRequest) error {
	check := func(path string) error {
		if isCriticalPath(path) {
			return fmt.Errorf("blocked critical path: %s", path)
		}
		return nil
	}
	for _, inode := range req.Inodes {
		for _, path := range inode.Paths {
			if err := check(path); err != nil {
				return err
			}
		}
	}
	for _, link := range req.Links {
		if err := check(link.Path); err != nil {
			return err
		}
	}
	return nil
}

// isCriticalPath blocks files living under system directories; user data
// areas stay deletable. The roots themselves, direct children of / and the
// home directory root are always blocked.
func isCriticalPath(path string) bool {
	path = filepath.Clean(path)
	if path == "/" || filepath.Dir(path) == "/" {
		return true
	}
	if home, err := os.UserHomeDir(); err == nil && path == filepath.Clean(home) {
		return true
	}
	critical := []string{"/etc", "/usr", "/var", "/boot", "/bin", "/sbin"}
	for _, root := range critical {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
