package services

import (
	"context"
	"path/filepath"
	"testing"

	"linkpurge/internal/domain"
)

// Purge tests pass an explicit SearchRoot so discovery never escapes the
// temp directory.
func TestFindPaths_AllLinksDiscovered(t *testing.T) {
	tmp := t.TempDir()
	scanRoot := filepath.Join(tmp, "project")
	file := filepath.Join(scanRoot, "data.bin")
	writeFile(t, file, 1000)
	// Links outside the scanned subtree but inside the search region.
	link(t, file, filepath.Join(tmp, "mirror", "data.bin"))
	link(t, file, filepath.Join(tmp, "archive", "old", "data.bin"))

	scan := scanTree(t, scanRoot)
	targets := scan.Registry.Identities()
	if len(targets) != 1 {
		t.Fatalf("targets = %d, want 1", len(targets))
	}

	purger := NewFSPurger(testLogger())
	result, err := purger.FindPaths(context.Background(), PurgeRequest{
		Targets:    targets,
		Registry:   scan.Registry,
		SearchRoot: tmp,
		ScanRoot:   scanRoot,
	})
	if err != nil {
		t.Fatalf("FindPaths: %v", err)
	}

	if result.PathCount != 3 {
		t.Errorf("PathCount = %d, want 3 (one per hardlink)", result.PathCount)
	}
	inode, ok := result.Inodes[targets[0]]
	if !ok {
		t.Fatal("target identity missing from result")
	}
	if len(inode.Paths) != 3 {
		t.Fatalf("paths = %d, want 3", len(inode.Paths))
	}
	want := []string{
		filepath.Join(tmp, "archive", "old", "data.bin"),
		filepath.Join(tmp, "mirror", "data.bin"),
		file,
	}
	for i, path := range want {
		if inode.Paths[i] != path {
			t.Errorf("paths[%d] = %q, want %q", i, inode.Paths[i], path)
		}
	}
	// Usage comes from the scan registry, so an apparent-mode scan yields
	// an exact byte estimate.
	if result.EstimatedBytes != 1000 {
		t.Errorf("EstimatedBytes = %d, want 1000", result.EstimatedBytes)
	}
	if len(result.Missing) != 0 {
		t.Errorf("Missing = %v, want none", result.Missing)
	}
}

func TestFindPaths_UntargetedFilesIgnored(t *testing.T) {
	tmp := t.TempDir()
	scanRoot := filepath.Join(tmp, "scan")
	target := filepath.Join(scanRoot, "wanted.bin")
	writeFile(t, target, 100)
	writeFile(t, filepath.Join(tmp, "other", "bystander.bin"), 100)

	scan := scanTree(t, scanRoot)
	purger := NewFSPurger(testLogger())
	result, err := purger.FindPaths(context.Background(), PurgeRequest{
		Targets:    scan.Registry.Identities(),
		Registry:   scan.Registry,
		SearchRoot: tmp,
		ScanRoot:   scanRoot,
	})
	if err != nil {
		t.Fatalf("FindPaths: %v", err)
	}
	if result.PathCount != 1 {
		t.Errorf("PathCount = %d, want 1", result.PathCount)
	}
}

func TestFindPaths_MissingTargetDropped(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, filepath.Join(tmp, "present.bin"), 10)

	ghost := domain.FileIdentity{Dev: ^uint64(0), Ino: ^uint64(0)}
	purger := NewFSPurger(testLogger())
	result, err := purger.FindPaths(context.Background(), PurgeRequest{
		Targets:    []domain.FileIdentity{ghost},
		SearchRoot: tmp,
		ScanRoot:   tmp,
	})
	if err != nil {
		t.Fatalf("FindPaths: %v", err)
	}
	if len(result.Inodes) != 0 {
		t.Errorf("Inodes = %d, want 0", len(result.Inodes))
	}
	if len(result.Missing) != 1 || result.Missing[0] != ghost {
		t.Errorf("Missing = %v, want the ghost identity", result.Missing)
	}
}

func TestFindPaths_MissingSearchRoot(t *testing.T) {
	purger := NewFSPurger(testLogger())
	_, err := purger.FindPaths(context.Background(), PurgeRequest{
		SearchRoot: filepath.Join(t.TempDir(), "absent"),
		ScanRoot:   t.TempDir(),
	})
	if err == nil {
		t.Fatal("FindPaths succeeded on missing search root")
	}
}

func TestFindContained(t *testing.T) {
	tmp := t.TempDir()
	scanRoot := filepath.Join(tmp, "scan")

	// Fully contained: both links inside the scanned tree.
	inner := filepath.Join(scanRoot, "a", "inner.bin")
	writeFile(t, inner, 200)
	link(t, inner, filepath.Join(scanRoot, "b", "inner.bin"))

	// Escaping: one link lives outside the scanned tree.
	escaping := filepath.Join(scanRoot, "a", "escaping.bin")
	writeFile(t, escaping, 300)
	link(t, escaping, filepath.Join(tmp, "outside.bin"))

	scan := scanTree(t, scanRoot)
	contained := FindContained(scan)

	innerID := scan.Tree.Nodes[inner].Identity
	escapingID := scan.Tree.Nodes[escaping].Identity

	inode, ok := contained[innerID]
	if !ok {
		t.Fatal("fully-contained identity not returned")
	}
	if len(inode.Paths) != 2 {
		t.Errorf("contained paths = %d, want 2", len(inode.Paths))
	}
	if _, ok := contained[escapingID]; ok {
		t.Error("identity with an external link reported as contained")
	}
}

func TestFindPaths_Cancelled(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, filepath.Join(tmp, "sub", "file.bin"), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	purger := NewFSPurger(testLogger())
	_, err := purger.FindPaths(ctx, PurgeRequest{
		Targets:    []domain.FileIdentity{{Dev: 1, Ino: 1}},
		SearchRoot: tmp,
		ScanRoot:   tmp,
	})
	if err == nil {
		t.Fatal("FindPaths ignored a cancelled context")
	}
}
