package records

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dupeguard/internal/config"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = dir
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	store, err := Open(&cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteInsertAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	record := FileRecord{
		ID:             "rec-1",
		DisplayName:    "Report Final.pdf",
		Size:           500000,
		StoragePath:    "/downloads/Report Final.pdf",
		SourceLocation: "https://example.com/report.pdf",
		Fingerprint:    "abc123",
	}
	if err := store.Insert(ctx, record); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := store.Get(ctx, "rec-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("Get returned nil for existing record")
	}
	if got.DisplayName != record.DisplayName {
		t.Errorf("DisplayName = %q, want %q", got.DisplayName, record.DisplayName)
	}
	if got.NormalizedName != "report final.pdf" {
		t.Errorf("NormalizedName = %q, want derived %q", got.NormalizedName, "report final.pdf")
	}
	if got.RegisteredAt.IsZero() {
		t.Error("RegisteredAt should default to insert time")
	}
}

func TestSQLiteGetMissing(t *testing.T) {
	store := openTestStore(t)
	got, err := store.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing record, got %+v", got)
	}
}

func TestSQLiteInsertRejectsDuplicateID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	record := FileRecord{ID: "dup", DisplayName: "a.txt"}
	if err := store.Insert(ctx, record); err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	if err := store.Insert(ctx, record); err == nil {
		t.Fatal("expected error inserting duplicate id")
	}
}

func TestSQLiteListOrderAndCount(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, name := range []string{"first.txt", "second.txt", "third.txt"} {
		record := FileRecord{
			ID:           name,
			DisplayName:  name,
			RegisteredAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Insert(ctx, record); err != nil {
			t.Fatalf("Insert %s: %v", name, err)
		}
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("List returned %d records, want 3", len(list))
	}
	for i, want := range []string{"first.txt", "second.txt", "third.txt"} {
		if list[i].DisplayName != want {
			t.Errorf("list[%d] = %q, want %q", i, list[i].DisplayName, want)
		}
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Errorf("Count = %d, want 3", count)
	}
}

func TestSQLiteRemoveAndRemoveAll(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Insert(ctx, FileRecord{ID: id, DisplayName: id + ".bin"}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	removed, err := store.Remove(ctx, "b")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !removed {
		t.Error("Remove should report true for existing id")
	}
	removed, err = store.Remove(ctx, "b")
	if err != nil {
		t.Fatalf("Remove second time: %v", err)
	}
	if removed {
		t.Error("Remove should report false for missing id")
	}

	cleared, err := store.RemoveAll(ctx)
	if err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	if cleared != 2 {
		t.Errorf("RemoveAll removed %d, want 2", cleared)
	}
}

func TestExportCSV(t *testing.T) {
	var buf strings.Builder
	list := []FileRecord{{
		ID:             "rec-1",
		DisplayName:    "notes.txt",
		Size:           42,
		StoragePath:    "/d/notes.txt",
		SourceLocation: "https://example.com/notes.txt",
		RegisteredAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}}
	if err := ExportCSV(&buf, list); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "id,name,size,path,url,fingerprint,registered_at\n") {
		t.Errorf("missing header, got %q", out)
	}
	if !strings.Contains(out, "rec-1,notes.txt,42,/d/notes.txt,https://example.com/notes.txt,,2026-03-01T12:00:00Z") {
		t.Errorf("missing row, got %q", out)
	}
}
