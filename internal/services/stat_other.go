//go:build !unix

package services

import "os"

type statInfo struct {
	dev       uint64
	ino       uint64
	size      int64
	diskUsage int64
	nlink     uint64
	ok        bool
}

func extractStat(info os.FileInfo) statInfo {
	return statInfo{size: info.Size(), diskUsage: info.Size()}
}
