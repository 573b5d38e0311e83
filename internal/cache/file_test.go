package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSetThenGetFresh(t *testing.T) {
	c, err := New(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Set("https://example.test/models", &Entry{Body: []byte("[]"), ETag: `"v1"`, StatusCode: 200}); err != nil {
		t.Fatal(err)
	}

	entry, fresh := c.Get("https://example.test/models")
	if !fresh {
		t.Fatal("expected fresh entry")
	}
	if string(entry.Body) != "[]" || entry.ETag != `"v1"` {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.URL != "https://example.test/models" {
		t.Errorf("URL = %q", entry.URL)
	}
}

func TestGetExpiredReturnsStale(t *testing.T) {
	c, err := New(t.TempDir(), time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	if err := c.Set("k", &Entry{Body: []byte("x"), ETag: "e"}); err != nil {
		t.Fatal(err)
	}

	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	entry, fresh := c.Get("k")
	if fresh {
		t.Error("expected stale entry")
	}
	if entry == nil || entry.ETag != "e" {
		t.Errorf("stale entry should be returned for revalidation, got %+v", entry)
	}
}

func TestGetMissAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	if entry, fresh := c.Get("missing"); entry != nil || fresh {
		t.Errorf("expected miss, got %+v %v", entry, fresh)
	}

	path := c.path("corrupt")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if entry, _ := c.Get("corrupt"); entry != nil {
		t.Errorf("corrupt entry should be a miss, got %+v", entry)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestPurge(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(k, &Entry{Body: []byte(k)}); err != nil {
			t.Fatal(err)
		}
	}
	// Files not owned by the cache survive a purge.
	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := c.Purge()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("purged %d entries, want 3", n)
	}
	if _, fresh := c.Get("a"); fresh {
		t.Error("entry should be gone after purge")
	}
	if _, err := os.Stat(filepath.Join(dir, "README")); err != nil {
		t.Errorf("unrelated file removed: %v", err)
	}
}
