package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"linkpurge/internal/domain"
)

func purgeInodes(t *testing.T, scanRoot string) (map[domain.FileIdentity]*PurgeInode, ScanResult) {
	t.Helper()
	scan := scanTree(t, scanRoot)
	purger := NewFSPurger(testLogger())
	result, err := purger.FindPaths(context.Background(), PurgeRequest{
		Targets:    scan.Registry.Identities(),
		Registry:   scan.Registry,
		SearchRoot: scanRoot,
		ScanRoot:   scanRoot,
	})
	if err != nil {
		t.Fatalf("FindPaths: %v", err)
	}
	return result.Inodes, scan
}

func TestExecute_RequiresConfirmation(t *testing.T) {
	deleter := NewFSDeleter(testLogger())
	_, err := deleter.Execute(context.Background(), DeleteRequest{
		Links: []SymlinkEntry{{Path: filepath.Join(t.TempDir(), "whatever")}},
	})
	if err == nil {
		t.Fatal("unconfirmed delete was executed")
	}
}

func TestExecute_DryRunLeavesFilesAlone(t *testing.T) {
	tmp := t.TempDir()
	file := filepath.Join(tmp, "data.bin")
	writeFile(t, file, 700)
	link(t, file, filepath.Join(tmp, "copy.bin"))

	inodes, _ := purgeInodes(t, tmp)
	deleter := NewFSDeleter(testLogger())
	result, err := deleter.Execute(context.Background(), DeleteRequest{
		Inodes: inodes,
		DryRun: true,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.DryRun {
		t.Error("result not flagged as dry run")
	}
	if result.EstimatedFreedBytes != 700 {
		t.Errorf("EstimatedFreedBytes = %d, want 700", result.EstimatedFreedBytes)
	}
	if result.DeletedPaths != 2 {
		t.Errorf("DeletedPaths = %d, want 2 would-delete paths", result.DeletedPaths)
	}
	if _, err := os.Lstat(file); err != nil {
		t.Error("dry run removed a file")
	}
	if _, err := os.Lstat(filepath.Join(tmp, "copy.bin")); err != nil {
		t.Error("dry run removed the hardlink")
	}
}

func TestExecute_DeletesAllLinksAndCreditsOnce(t *testing.T) {
	tmp := t.TempDir()
	file := filepath.Join(tmp, "a", "data.bin")
	writeFile(t, file, 1000)
	link(t, file, filepath.Join(tmp, "b", "data.bin"))
	link(t, file, filepath.Join(tmp, "c", "data.bin"))

	inodes, _ := purgeInodes(t, tmp)
	deleter := NewFSDeleter(testLogger())
	result, err := deleter.Execute(context.Background(), DeleteRequest{
		Inodes:    inodes,
		Confirmed: true,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.DeletedPaths != 3 {
		t.Errorf("DeletedPaths = %d, want 3", result.DeletedPaths)
	}
	if result.FailedPaths != 0 {
		t.Errorf("FailedPaths = %d, want 0", result.FailedPaths)
	}
	// Three unlinks free one copy of the data.
	if result.EstimatedFreedBytes != 1000 {
		t.Errorf("EstimatedFreedBytes = %d, want 1000", result.EstimatedFreedBytes)
	}
	for _, path := range []string{file, filepath.Join(tmp, "b", "data.bin"), filepath.Join(tmp, "c", "data.bin")} {
		if _, err := os.Lstat(path); !os.IsNotExist(err) {
			t.Errorf("%s still exists after delete", path)
		}
	}
}

func TestExecute_PartialFailureContinues(t *testing.T) {
	tmp := t.TempDir()
	real := filepath.Join(tmp, "real.bin")
	writeFile(t, real, 100)

	inodes := map[domain.FileIdentity]*PurgeInode{
		{Dev: 1, Ino: 1}: {
			Identity:  domain.FileIdentity{Dev: 1, Ino: 1},
			DiskUsage: 100,
			Paths:     []string{filepath.Join(tmp, "ghost.bin"), real},
		},
	}
	deleter := NewFSDeleter(testLogger())
	result, err := deleter.Execute(context.Background(), DeleteRequest{
		Inodes:    inodes,
		Confirmed: true,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.FailedPaths != 1 {
		t.Errorf("FailedPaths = %d, want 1", result.FailedPaths)
	}
	if result.DeletedPaths != 1 {
		t.Errorf("DeletedPaths = %d, want 1", result.DeletedPaths)
	}
	// A surviving known path means the identity is not credited as freed.
	if result.EstimatedFreedBytes != 0 {
		t.Errorf("EstimatedFreedBytes = %d, want 0 with a failed path", result.EstimatedFreedBytes)
	}
	if len(result.Errors) != 1 {
		t.Errorf("Errors = %d, want 1", len(result.Errors))
	}
}

func TestExecute_LinkBatchCreditsSizes(t *testing.T) {
	tmp := t.TempDir()
	one := filepath.Join(tmp, "one")
	two := filepath.Join(tmp, "two")
	writeFile(t, one, 10)
	writeFile(t, two, 30)

	deleter := NewFSDeleter(testLogger())
	result, err := deleter.Execute(context.Background(), DeleteRequest{
		Links: []SymlinkEntry{
			{Path: one, SizeBytes: 10},
			{Path: two, SizeBytes: 30},
		},
		Confirmed: true,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.DeletedPaths != 2 {
		t.Errorf("DeletedPaths = %d, want 2", result.DeletedPaths)
	}
	if result.EstimatedFreedBytes != 40 {
		t.Errorf("EstimatedFreedBytes = %d, want 40", result.EstimatedFreedBytes)
	}
}

func TestExecute_LinkBatchDryRunReportsSizes(t *testing.T) {
	tmp := t.TempDir()
	one := filepath.Join(tmp, "one")
	writeFile(t, one, 10)

	deleter := NewFSDeleter(testLogger())
	result, err := deleter.Execute(context.Background(), DeleteRequest{
		Links:  []SymlinkEntry{{Path: one, SizeBytes: 10}},
		DryRun: true,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.EstimatedFreedBytes != 10 {
		t.Errorf("EstimatedFreedBytes = %d, want 10", result.EstimatedFreedBytes)
	}
	if _, err := os.Lstat(one); err != nil {
		t.Error("dry run removed a file")
	}
}

func TestExecute_CancelledBeforeStart(t *testing.T) {
	tmp := t.TempDir()
	file := filepath.Join(tmp, "data.bin")
	writeFile(t, file, 10)

	inodes, _ := purgeInodes(t, tmp)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	deleter := NewFSDeleter(testLogger())
	result, err := deleter.Execute(ctx, DeleteRequest{
		Inodes:    inodes,
		Confirmed: true,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.Cancelled {
		t.Error("result not flagged as cancelled")
	}
	if _, err := os.Lstat(file); err != nil {
		t.Error("cancelled delete removed a file")
	}
}

func TestExecute_SafeModeBlocksCriticalPaths(t *testing.T) {
	deleter := NewFSDeleter(testLogger())
	_, err := deleter.Execute(context.Background(), DeleteRequest{
		Links:     []SymlinkEntry{{Path: "/etc/passwd"}},
		SafeMode:  true,
		Confirmed: true,
	})
	if err == nil {
		t.Fatal("safe mode let a critical path through")
	}
}
