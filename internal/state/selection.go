package state

import (
	"linkpurge/internal/domain"
	"linkpurge/internal/services"
)

// Selection tracks operator-marked nodes. Marking a directory selects its
// whole subtree as one logical unit; the aggregate deduplicates by
// FileIdentity across the entire selection, not per subtree.
type Selection struct {
	marked map[string]bool
}

func NewSelection() *Selection {
	return &Selection{marked: make(map[string]bool)}
}

func (sel *Selection) Mark(id string)   { sel.marked[id] = true }
func (sel *Selection) Unmark(id string) { delete(sel.marked, id) }

func (sel *Selection) Toggle(id string) bool {
	if sel.marked[id] {
		delete(sel.marked, id)
		return false
	}
	sel.marked[id] = true
	return true
}

func (sel *Selection) Clear() {
	sel.marked = make(map[string]bool)
}

func (sel *Selection) IsMarked(id string) bool { return sel.marked[id] }
func (sel *Selection) Len() int                { return len(sel.marked) }

// Prune drops marks that no longer resolve in the tree (after a rescan).
func (sel *Selection) Prune(tree domain.TreeIndex) {
	for id := range sel.marked {
		if _, ok := tree.Nodes[id]; !ok {
			delete(sel.marked, id)
		}
	}
}

// Aggregate returns the number of files in the selection and their
// deduplicated byte total. An identity reachable under two separately
// marked subtrees counts once.
func (sel *Selection) Aggregate(tree domain.TreeIndex, registry *services.Registry) (int, int64) {
	files := 0
	var bytes int64
	seenIdentity := make(map[domain.FileIdentity]bool)
	sel.visit(tree, func(node *domain.Node) {
		switch node.Kind {
		case domain.KindFile:
			files++
			if node.HasIdentity && !seenIdentity[node.Identity] {
				seenIdentity[node.Identity] = true
				if record, ok := registry.Record(node.Identity); ok {
					bytes += record.DiskUsage
				} else {
					bytes += node.DiskUsage
				}
			}
		case domain.KindSymlink, domain.KindOther:
			files++
			bytes += node.DiskUsage
		}
	})
	return files, bytes
}

// Identities returns the distinct file identities reachable under the
// marked nodes: exactly what a purge targets, no more, no less.
func (sel *Selection) Identities(tree domain.TreeIndex) []domain.FileIdentity {
	seen := make(map[domain.FileIdentity]bool)
	var ids []domain.FileIdentity
	sel.visit(tree, func(node *domain.Node) {
		if node.Kind == domain.KindFile && node.HasIdentity && !seen[node.Identity] {
			seen[node.Identity] = true
			ids = append(ids, node.Identity)
		}
	})
	return ids
}

// SymlinkPaths returns marked symlinks (directly or under marked dirs).
func (sel *Selection) SymlinkPaths(tree domain.TreeIndex) []string {
	var paths []string
	sel.visit(tree, func(node *domain.Node) {
		if node.Kind == domain.KindSymlink {
			paths = append(paths, node.Path)
		}
	})
	return paths
}

// visit walks every node reachable from the marked set exactly once.
func (sel *Selection) visit(tree domain.TreeIndex, fn func(*domain.Node)) {
	visited := make(map[string]bool)
	var walk func(id string)
	walk = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		node, ok := tree.Nodes[id]
		if !ok {
			return
		}
		fn(node)
		if node.Kind == domain.KindDir {
			for _, childID := range node.ChildrenIDs {
				walk(childID)
			}
		}
	}
	for id := range sel.marked {
		walk(id)
	}
}
