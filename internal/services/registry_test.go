package services

import (
	"testing"

	"linkpurge/internal/domain"
)

func TestRegistry_OwnerIsLexicographic(t *testing.T) {
	id := domain.FileIdentity{Dev: 1, Ino: 42}

	orders := [][]string{
		{"/data/a.bin", "/data/b.bin", "/backup/a.bin"},
		{"/backup/a.bin", "/data/b.bin", "/data/a.bin"},
		{"/data/b.bin", "/backup/a.bin", "/data/a.bin"},
	}

	for _, order := range orders {
		registry := NewRegistry()
		for _, path := range order {
			registry.Observe(id, path, 100, 100, 3)
		}
		registry.Finalize()

		record, ok := registry.Record(id)
		if !ok {
			t.Fatal("record not found after Observe")
		}
		if record.OwnerPath != "/backup/a.bin" {
			t.Errorf("order %v: owner = %q, want /backup/a.bin", order, record.OwnerPath)
		}
		if !registry.IsOwner(id, "/backup/a.bin") {
			t.Errorf("order %v: IsOwner false for lexicographic first path", order)
		}
		if registry.IsOwner(id, "/data/a.bin") {
			t.Errorf("order %v: IsOwner true for non-owner path", order)
		}
	}
}

func TestRegistry_SizeCapturedOnce(t *testing.T) {
	registry := NewRegistry()
	id := domain.FileIdentity{Dev: 1, Ino: 7}

	registry.Observe(id, "/x/one", 500, 512, 2)
	// Later observations of the same identity must not change the totals.
	registry.Observe(id, "/x/two", 999, 4096, 2)
	registry.Finalize()

	if got := registry.TotalDedupBytes(); got != 512 {
		t.Errorf("TotalDedupBytes = %d, want 512", got)
	}
	record, _ := registry.Record(id)
	if len(record.Paths) != 2 {
		t.Errorf("paths = %d, want 2", len(record.Paths))
	}
}

func TestRegistry_DistinctIdentities(t *testing.T) {
	registry := NewRegistry()
	registry.Observe(domain.FileIdentity{Dev: 1, Ino: 1}, "/a", 10, 10, 1)
	registry.Observe(domain.FileIdentity{Dev: 1, Ino: 2}, "/b", 20, 20, 1)
	registry.Observe(domain.FileIdentity{Dev: 2, Ino: 1}, "/c", 40, 40, 1)
	registry.Finalize()

	if registry.Len() != 3 {
		t.Errorf("Len = %d, want 3", registry.Len())
	}
	if got := registry.TotalDedupBytes(); got != 70 {
		t.Errorf("TotalDedupBytes = %d, want 70", got)
	}
	if len(registry.Identities()) != 3 {
		t.Errorf("Identities = %d, want 3", len(registry.Identities()))
	}
}

func TestParseIdentity_RoundTrip(t *testing.T) {
	id := domain.FileIdentity{Dev: 2049, Ino: 131072}
	parsed, err := domain.ParseIdentity(id.String())
	if err != nil {
		t.Fatalf("ParseIdentity: %v", err)
	}
	if parsed != id {
		t.Errorf("parsed %v, want %v", parsed, id)
	}
	if _, err := domain.ParseIdentity("garbage"); err == nil {
		t.Error("ParseIdentity accepted garbage input")
	}
}
