package storage

import (
	"path/filepath"
	"testing"
)

func TestHistoryDB_SaveAndList(t *testing.T) {
	db, err := NewHistoryDB(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	defer db.Close()

	if err := db.SaveJob("job-1", "first clip", "upload", "COMPLETED", "/out/job-1_captioned.mp4", 12.5); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := db.SaveJob("job-2", "second clip", "url", "FAILED", "", 0); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	entries, err := db.ListJobs(50)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	byID := map[string]HistoryEntry{}
	for _, e := range entries {
		byID[e.JobID] = e
	}
	if e := byID["job-1"]; e.Status != "COMPLETED" || e.Duration != 12.5 || e.OutputPath == "" {
		t.Errorf("job-1 entry = %+v", e)
	}
	if e := byID["job-2"]; e.Status != "FAILED" || e.OutputPath != "" {
		t.Errorf("job-2 entry = %+v", e)
	}
}

func TestHistoryDB_DuplicateJobIDRejected(t *testing.T) {
	db, err := NewHistoryDB(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	defer db.Close()

	if err := db.SaveJob("job-1", "clip", "upload", "COMPLETED", "out.mp4", 1); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := db.SaveJob("job-1", "clip", "upload", "COMPLETED", "out.mp4", 1); err == nil {
		t.Error("duplicate job id accepted")
	}
}
