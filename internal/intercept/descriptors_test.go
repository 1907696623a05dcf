package intercept

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"dupeguard/internal/logging"
)

func TestDescriptorStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pending.json")
	store := NewDescriptorStore(path, logging.NewNop())

	descriptor := PendingOverride{
		OriginalID:     "acq-1",
		DisplayName:    "report.pdf",
		SourceLocation: "https://example.com/report.pdf",
		MatchBasis:     "name_size",
	}
	if err := store.Put(descriptor); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, found := store.Get("acq-1")
	if !found {
		t.Fatal("descriptor not found after Put")
	}
	if got.SourceLocation != descriptor.SourceLocation {
		t.Errorf("SourceLocation = %q", got.SourceLocation)
	}
	if got.BlockedAt.IsZero() {
		t.Error("BlockedAt should default to now")
	}

	// A fresh store instance sees the persisted file.
	reloaded := NewDescriptorStore(path, logging.NewNop())
	if _, found := reloaded.Get("acq-1"); !found {
		t.Fatal("descriptor must survive reload")
	}

	removed, err := reloaded.Remove("acq-1")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !removed {
		t.Fatal("Remove should report true for existing descriptor")
	}
	removed, err = reloaded.Remove("acq-1")
	if err != nil {
		t.Fatalf("Remove second time: %v", err)
	}
	if removed {
		t.Fatal("Remove should report false once consumed")
	}
}

func TestDescriptorStoreListNewestFirst(t *testing.T) {
	store := NewDescriptorStore("", logging.NewNop())
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := store.Put(PendingOverride{OriginalID: id, BlockedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatalf("Put %s: %v", id, err)
		}
	}
	list := store.List()
	if len(list) != 3 {
		t.Fatalf("List returned %d, want 3", len(list))
	}
	if list[0].OriginalID != "c" || list[2].OriginalID != "a" {
		t.Fatalf("expected newest first, got %v", list)
	}
}

func TestDescriptorStoreRejectsEmptyID(t *testing.T) {
	store := NewDescriptorStore("", logging.NewNop())
	if err := store.Put(PendingOverride{OriginalID: "  "}); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestDescriptorStoreCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pending.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	store := NewDescriptorStore(path, logging.NewNop())
	if got := len(store.List()); got != 0 {
		t.Fatalf("corrupt file should start empty, got %d entries", got)
	}
}

func TestExclusionPolicy(t *testing.T) {
	policy := newExclusionPolicy([]string{"tmp", ".ISO"})

	tests := []struct {
		name string
		want bool
	}{
		{"movie.mkv.crdownload", true},
		{"archive.part", true},
		{"Unconfirmed 83945.download", true},
		{"scratch.tmp", true},
		{"disc.iso", true},
		{"report.pdf", false},
		{"", false},
		{"   ", false},
	}
	for _, tt := range tests {
		if got := policy.Excluded(tt.name); got != tt.want {
			t.Errorf("Excluded(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
