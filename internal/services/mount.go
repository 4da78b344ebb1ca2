package services

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
)

// deviceOf returns the device id of path without following symlinks.
func deviceOf(path string) (uint64, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return 0, err
	}
	return extractStat(info).dev, nil
}

// DetectMountRoot walks up from path to the highest directory on the same
// device. That directory bounds the region where hardlinks to anything
// under path can exist.
func DetectMountRoot(path string) (string, error) {
	current := cleanPath(path)
	dev, err := deviceOf(current)
	if err != nil {
		return "", err
	}
	for {
		parent := filepath.Dir(current)
		if parent == current {
			return current, nil
		}
		parentDev, err := deviceOf(parent)
		if err != nil || parentDev != dev {
			return current, nil
		}
		current = parent
	}
}

// MountPointFor resolves the mount point containing path from the system
// mount table, longest prefix wins. Falls back to "/" when the table is
// unavailable.
func MountPointFor(path string) string {
	path = cleanPath(path)
	partitions, err := disk.Partitions(false)
	if err != nil {
		return string(filepath.Separator)
	}
	best := string(filepath.Separator)
	for _, partition := range partitions {
		mount := partition.Mountpoint
		if mount == path || strings.HasPrefix(path, strings.TrimSuffix(mount, "/")+"/") || mount == "/" {
			if len(mount) > len(best) {
				best = mount
			}
		}
	}
	return best
}

// FreeBytes reports free space on the mount containing path, best effort.
func FreeBytes(path string) (uint64, bool) {
	usage, err := disk.Usage(MountPointFor(path))
	if err != nil {
		return 0, false
	}
	return usage.Free, true
}
