package services

import (
	"path/filepath"
	"sort"
	"strings"
)

func cleanPath(path string) string {
	if path == "" {
		return path
	}
	clean := filepath.Clean(path)
	abs, err := filepath.Abs(clean)
	if err != nil {
		return clean
	}
	return abs
}

func depth(path string) int {
	return strings.Count(filepath.Clean(path), string(filepath.Separator))
}

func sortStrings(values []string) {
	sort.Strings(values)
}

func progressNonBlocking(ch chan<- ScanProgress, msg ScanProgress) {
	if ch == nil {
		return
	}
	select {
	case ch <- msg:
	default:
	}
}

func sampleAppend(sample []string, message string, limit int) []string {
	if len(sample) >= limit {
		return sample
	}
	return append(sample, message)
}
