package state

import (
	"sort"

	"linkpurge/internal/domain"
	"linkpurge/internal/services"
)

// Mode is the UI state machine. Transitions are explicit: the model only
// reacts to keys valid in the current mode.
type Mode int

const (
	ModeBrowsing Mode = iota
	ModeScanning
	ModeConfirmingDelete
	ModeDeleting
	ModeShowingResult
	ModeQuitting
)

func (m Mode) String() string {
	switch m {
	case ModeBrowsing:
		return "browsing"
	case ModeScanning:
		return "scanning"
	case ModeConfirmingDelete:
		return "confirming-delete"
	case ModeDeleting:
		return "deleting"
	case ModeShowingResult:
		return "showing-result"
	case ModeQuitting:
		return "quitting"
	}
	return "unknown"
}

// Prefs are the browse-time toggles the operator can flip per session.
type Prefs struct {
	SortMode domain.SortMode
	DryRun   bool
	SafeMode bool
}

// State holds everything the interactive browser displays: the scanned
// tree, the cursor position within the current directory, and the marks.
type State struct {
	Mode      Mode
	RootPath  string
	Tree      domain.TreeIndex
	Registry  *services.Registry
	Selection *Selection
	Prefs     Prefs

	CurrentID string
	Cursor    int

	Preview *services.PurgeResult
	Result  *services.DeleteResult
	Status  string
}

func New(prefs Prefs) *State {
	return &State{
		Mode:      ModeScanning,
		Selection: NewSelection(),
		Prefs:     prefs,
	}
}

// SetScan installs a fresh scan result and resets navigation to the root.
// Marks pointing at paths that vanished are dropped.
func (st *State) SetScan(result services.ScanResult) {
	st.Tree = result.Tree
	st.Registry = result.Registry
	st.RootPath = result.RootPath
	st.CurrentID = result.Tree.RootID
	st.Cursor = 0
	st.Selection.Prune(result.Tree)
	st.Mode = ModeBrowsing
}

// Current returns the directory node the browser is listing.
func (st *State) Current() *domain.Node {
	if st.Tree.Nodes == nil {
		return nil
	}
	return st.Tree.Nodes[st.CurrentID]
}

// VisibleNodes lists the children of the current directory in the active
// sort order. Size sort is by deduplicated subtree bytes, largest first.
func (st *State) VisibleNodes() []*domain.Node {
	current := st.Current()
	if current == nil {
		return nil
	}
	nodes := make([]*domain.Node, 0, len(current.ChildrenIDs))
	for _, id := range current.ChildrenIDs {
		if child, ok := st.Tree.Nodes[id]; ok {
			nodes = append(nodes, child)
		}
	}
	switch st.Prefs.SortMode {
	case domain.SortByName:
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })
	default:
		sort.Slice(nodes, func(i, j int) bool {
			if nodes[i].AccumBytes != nodes[j].AccumBytes {
				return nodes[i].AccumBytes > nodes[j].AccumBytes
			}
			return nodes[i].Name < nodes[j].Name
		})
	}
	return nodes
}

// CursorNode returns the node under the cursor, or nil on an empty dir.
func (st *State) CursorNode() *domain.Node {
	nodes := st.VisibleNodes()
	if st.Cursor < 0 || st.Cursor >= len(nodes) {
		return nil
	}
	return nodes[st.Cursor]
}

func (st *State) MoveCursor(delta int) {
	count := len(st.VisibleNodes())
	if count == 0 {
		st.Cursor = 0
		return
	}
	st.Cursor += delta
	if st.Cursor < 0 {
		st.Cursor = 0
	}
	if st.Cursor >= count {
		st.Cursor = count - 1
	}
}

// EnterDir descends into the directory under the cursor. Non-directories
// and pruned mount points are ignored.
func (st *State) EnterDir() bool {
	node := st.CursorNode()
	if node == nil || node.Kind != domain.KindDir || node.NotScanned {
		return false
	}
	st.CurrentID = node.ID
	st.Cursor = 0
	return true
}

// LeaveDir ascends to the parent, placing the cursor on the directory we
// came from. At the scan root it does nothing.
func (st *State) LeaveDir() bool {
	current := st.Current()
	if current == nil || current.ID == st.Tree.RootID || current.ParentID == "" {
		return false
	}
	fromID := current.ID
	st.CurrentID = current.ParentID
	st.Cursor = 0
	for i, node := range st.VisibleNodes() {
		if node.ID == fromID {
			st.Cursor = i
			break
		}
	}
	return true
}

// ToggleSort flips between size and name ordering, keeping the cursor on
// the same node when possible.
func (st *State) ToggleSort() {
	keep := st.CursorNode()
	if st.Prefs.SortMode == domain.SortBySize {
		st.Prefs.SortMode = domain.SortByName
	} else {
		st.Prefs.SortMode = domain.SortBySize
	}
	if keep == nil {
		st.Cursor = 0
		return
	}
	for i, node := range st.VisibleNodes() {
		if node.ID == keep.ID {
			st.Cursor = i
			return
		}
	}
	st.Cursor = 0
}

// ToggleMark flips the mark on the node under the cursor.
func (st *State) ToggleMark() bool {
	node := st.CursorNode()
	if node == nil {
		return false
	}
	st.Selection.Toggle(node.ID)
	return true
}

// SelectionSummary reports the marked file count and deduplicated bytes.
func (st *State) SelectionSummary() (int, int64) {
	if st.Registry == nil {
		return 0, 0
	}
	return st.Selection.Aggregate(st.Tree, st.Registry)
}
