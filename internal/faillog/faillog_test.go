package faillog

import (
	"path/filepath"
	"sync"
	"testing"
)

func TestAppendAndRead(t *testing.T) {
	log, err := Open(filepath.Join(t.TempDir(), "data", "failed_dois.json"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if err := log.Append("10.1109/x.1", "smith2023", "IEEE", "HTTP 404", 404); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := log.Append("", "doe2022", "", "no DOI found in entry", 0); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	entries, err := log.Entries()
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}

	first := entries[0]
	if first.DOI != "10.1109/x.1" || first.Publisher != "IEEE" || first.HTTPStatus != 404 {
		t.Errorf("first entry = %+v", first)
	}
	if first.Timestamp == "" {
		t.Error("timestamp not set")
	}

	// Empty DOI and publisher are normalized for triage
	second := entries[1]
	if second.DOI != "N/A" || second.Publisher != "Unknown" {
		t.Errorf("second entry = %+v", second)
	}
}

func TestAppendSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed_dois.json")

	log1, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := log1.Append("10.1145/a", "e1", "ACM", "err", 0); err != nil {
		t.Fatal(err)
	}

	log2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := log2.Append("10.1145/b", "e2", "ACM", "err", 0); err != nil {
		t.Fatal(err)
	}

	entries, err := log2.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("len(entries) = %d after reopen, want 2", len(entries))
	}
}

func TestConcurrentAppends(t *testing.T) {
	log, err := Open(filepath.Join(t.TempDir(), "failed_dois.json"))
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = log.Append("10.1109/c", "id", "IEEE", "err", 0)
		}()
	}
	wg.Wait()

	entries, err := log.Entries()
	if err != nil {
		t.Fatalf("Entries() error = %v (file corrupted?)", err)
	}
	if len(entries) != 8 {
		t.Errorf("len(entries) = %d, want 8", len(entries))
	}
}
