package services

import (
	"sort"

	"linkpurge/internal/domain"
)

// CollectSymlinks lists every symlink recorded in a scan with its own
// size. The list feeds the same confirm/dry-run/delete pipeline as any
// other path batch.
func CollectSymlinks(result ScanResult) []SymlinkEntry {
	var links []SymlinkEntry
	for _, node := range result.Tree.Nodes {
		if node.Kind == domain.KindSymlink {
			links = append(links, SymlinkEntry{Path: node.Path, SizeBytes: node.SizeBytes})
		}
	}
	sort.Slice(links, func(i, j int) bool { return links[i].Path < links[j].Path })
	return links
}
