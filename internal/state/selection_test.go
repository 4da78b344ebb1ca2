package state

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"linkpurge/internal/services"
)

func scanFixture(t *testing.T, root string) services.ScanResult {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	scanner := services.NewFSScanner(log, nil)
	result, err := scanner.Scan(context.Background(), services.ScanRequest{RootPath: root, Apparent: true})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	return result
}

func mustWrite(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
}

func mustLink(t *testing.T, oldPath, newPath string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Link(oldPath, newPath); err != nil {
		t.Fatal(err)
	}
}

func TestSelection_DirMarkCoversSubtree(t *testing.T) {
	tmp := t.TempDir()
	mustWrite(t, filepath.Join(tmp, "dir", "one.bin"), 100)
	mustWrite(t, filepath.Join(tmp, "dir", "sub", "two.bin"), 200)
	mustWrite(t, filepath.Join(tmp, "other.bin"), 400)

	scan := scanFixture(t, tmp)
	sel := NewSelection()
	sel.Mark(filepath.Join(tmp, "dir"))

	files, bytes := sel.Aggregate(scan.Tree, scan.Registry)
	if files != 2 {
		t.Errorf("files = %d, want 2", files)
	}
	if bytes != 300 {
		t.Errorf("bytes = %d, want 300", bytes)
	}
}

func TestSelection_CrossSubtreeHardlinkCountedOnce(t *testing.T) {
	tmp := t.TempDir()
	shared := filepath.Join(tmp, "left", "shared.bin")
	mustWrite(t, shared, 1000)
	mustLink(t, shared, filepath.Join(tmp, "right", "shared.bin"))
	mustWrite(t, filepath.Join(tmp, "right", "own.bin"), 50)

	scan := scanFixture(t, tmp)
	sel := NewSelection()
	sel.Mark(filepath.Join(tmp, "left"))
	sel.Mark(filepath.Join(tmp, "right"))

	files, bytes := sel.Aggregate(scan.Tree, scan.Registry)
	if files != 3 {
		t.Errorf("files = %d, want 3", files)
	}
	// The shared identity appears under both marked dirs but is one inode.
	if bytes != 1050 {
		t.Errorf("bytes = %d, want 1050", bytes)
	}

	ids := sel.Identities(scan.Tree)
	if len(ids) != 2 {
		t.Errorf("identities = %d, want 2", len(ids))
	}
}

func TestSelection_NestedMarksNotDoubleCounted(t *testing.T) {
	tmp := t.TempDir()
	mustWrite(t, filepath.Join(tmp, "dir", "sub", "file.bin"), 500)

	scan := scanFixture(t, tmp)
	sel := NewSelection()
	sel.Mark(filepath.Join(tmp, "dir"))
	sel.Mark(filepath.Join(tmp, "dir", "sub"))

	files, bytes := sel.Aggregate(scan.Tree, scan.Registry)
	if files != 1 {
		t.Errorf("files = %d, want 1", files)
	}
	if bytes != 500 {
		t.Errorf("bytes = %d, want 500", bytes)
	}
}

func TestSelection_ToggleAndClear(t *testing.T) {
	tmp := t.TempDir()
	file := filepath.Join(tmp, "file.bin")
	mustWrite(t, file, 10)

	scan := scanFixture(t, tmp)
	sel := NewSelection()

	if marked := sel.Toggle(file); !marked {
		t.Error("first toggle did not mark")
	}
	if !sel.IsMarked(file) {
		t.Error("IsMarked false after toggle")
	}
	if marked := sel.Toggle(file); marked {
		t.Error("second toggle did not unmark")
	}

	sel.Mark(file)
	sel.Clear()
	if sel.Len() != 0 {
		t.Errorf("Len = %d after Clear, want 0", sel.Len())
	}
	files, bytes := sel.Aggregate(scan.Tree, scan.Registry)
	if files != 0 || bytes != 0 {
		t.Errorf("aggregate after clear = %d/%d, want 0/0", files, bytes)
	}
}

func TestSelection_PruneDropsVanishedNodes(t *testing.T) {
	tmp := t.TempDir()
	keep := filepath.Join(tmp, "keep.bin")
	gone := filepath.Join(tmp, "gone.bin")
	mustWrite(t, keep, 10)
	mustWrite(t, gone, 10)

	_ = scanFixture(t, tmp)
	sel := NewSelection()
	sel.Mark(keep)
	sel.Mark(gone)

	if err := os.Remove(gone); err != nil {
		t.Fatal(err)
	}
	rescan := scanFixture(t, tmp)
	sel.Prune(rescan.Tree)

	if !sel.IsMarked(keep) {
		t.Error("surviving mark was pruned")
	}
	if sel.IsMarked(gone) {
		t.Error("stale mark survived prune")
	}
}
