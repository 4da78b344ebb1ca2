//go:build unix

package services

import (
	"os"
	"syscall"
)

// statInfo holds the platform fields the scanner needs beyond os.FileInfo.
type statInfo struct {
	dev       uint64
	ino       uint64
	size      int64
	diskUsage int64
	nlink     uint64
	ok        bool
}

// extractStat pulls device, inode, allocated size and link count out of the
// underlying Stat_t. st_blocks are 512-byte units on every Unix we build for.
func extractStat(info os.FileInfo) statInfo {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok || stat == nil {
		return statInfo{size: info.Size(), diskUsage: info.Size()}
	}
	return statInfo{
		dev:       uint64(stat.Dev),
		ino:       uint64(stat.Ino),
		size:      info.Size(),
		diskUsage: int64(stat.Blocks) * 512,
		nlink:     uint64(stat.Nlink),
		ok:        true,
	}
}
