package cache

import (
	"path/filepath"
	"testing"
	"time"
)

const testDOI = "10.1109/test.2023.123456"
const testBibtex = "@article{x,\n  title = {Cached},\n}\n"

func newTestStores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	fs, err := NewFileStore(filepath.Join(dir, "cache"), 0)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	ss, err := NewSQLiteStore(filepath.Join(dir, "cache.db"), 0)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { ss.Close() })

	return map[string]Store{"file": fs, "sqlite": ss}
}

func TestRoundTrip(t *testing.T) {
	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := store.Get(testDOI); err != nil || ok {
				t.Fatalf("Get before Put = ok %v, err %v", ok, err)
			}

			if err := store.Put(testDOI, testBibtex); err != nil {
				t.Fatalf("Put() error = %v", err)
			}

			got, ok, err := store.Get(testDOI)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if !ok {
				t.Fatal("Get() ok = false after Put")
			}
			if got != testBibtex {
				t.Errorf("Get() = %q, want %q", got, testBibtex)
			}
		})
	}
}

func TestExpiry(t *testing.T) {
	dir := t.TempDir()

	fs, err := NewFileStore(filepath.Join(dir, "cache"), 30*24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	ss, err := NewSQLiteStore(filepath.Join(dir, "cache.db"), 30*24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	defer ss.Close()

	base := time.Now()
	fs.now = func() time.Time { return base }
	ss.now = func() time.Time { return base }

	stores := map[string]Store{"file": fs, "sqlite": ss}
	advance := func(d time.Duration) {
		fs.now = func() time.Time { return base.Add(d) }
		ss.now = func() time.Time { return base.Add(d) }
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			advance(0)
			if err := store.Put(testDOI, testBibtex); err != nil {
				t.Fatal(err)
			}

			// Just inside the window
			advance(29 * 24 * time.Hour)
			if _, ok, _ := store.Get(testDOI); !ok {
				t.Error("entry expired before the 30-day window")
			}

			// Past the window
			advance(31 * 24 * time.Hour)
			if _, ok, _ := store.Get(testDOI); ok {
				t.Error("entry still returned after expiry window")
			}
		})
	}
}

func TestOverwrite(t *testing.T) {
	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Put(testDOI, "old"); err != nil {
				t.Fatal(err)
			}
			if err := store.Put(testDOI, "new"); err != nil {
				t.Fatal(err)
			}
			got, ok, _ := store.Get(testDOI)
			if !ok || got != "new" {
				t.Errorf("Get() = %q, %v; want \"new\", true", got, ok)
			}
		})
	}
}

func TestFileStoreSanitizesDOI(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir, 0)
	if err != nil {
		t.Fatal(err)
	}

	// DOIs always contain a slash; the path must stay inside the cache dir
	p := fs.path("10.1145/345\\6789")
	if filepath.Dir(p) != dir {
		t.Errorf("cache path %q escapes cache dir %q", p, dir)
	}
}
