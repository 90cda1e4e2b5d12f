package storage

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// stubIndex hands the guardian a fixed set of evictable job ids.
type stubIndex struct {
	evictable []string
	removed   []string
}

func (s *stubIndex) TerminalBefore(cutoff time.Time) []string {
	return s.evictable
}

func (s *stubIndex) Remove(id string) bool {
	s.removed = append(s.removed, id)
	return true
}

func newTestLayout(t *testing.T) *Layout {
	t.Helper()
	layout, err := NewLayout(filepath.Join(t.TempDir(), "managed"))
	if err != nil {
		t.Fatalf("failed to create layout: %v", err)
	}
	return layout
}

func writeJobFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestGuardian_UsageSumsBothAreas(t *testing.T) {
	layout := newTestLayout(t)
	g := NewGuardian(layout, &stubIndex{}, 1<<20, time.Minute, time.Minute, 0.8)

	if got := g.Usage(); got != 0 {
		t.Fatalf("empty root usage = %d, want 0", got)
	}

	writeJobFile(t, layout.InboundPath("job-1", "source.mp4"), 100)
	writeJobFile(t, layout.OutboundPath("job-1", "captioned.mp4"), 250)

	if got := g.Usage(); got != 350 {
		t.Errorf("usage = %d, want 350", got)
	}
}

func TestGuardian_AdmitUnderCeiling(t *testing.T) {
	layout := newTestLayout(t)
	g := NewGuardian(layout, &stubIndex{}, 1000, time.Minute, time.Minute, 0.8)

	writeJobFile(t, layout.InboundPath("job-1", "source.mp4"), 400)

	if err := g.Admit(500); err != nil {
		t.Errorf("admission under ceiling refused: %v", err)
	}
}

func TestGuardian_AdmitRefusedWhenReclaimCannotFree(t *testing.T) {
	layout := newTestLayout(t)
	g := NewGuardian(layout, &stubIndex{}, 1000, time.Minute, time.Minute, 0.8)

	// The only occupant is not evictable (nothing terminal in the index).
	writeJobFile(t, layout.InboundPath("in-flight", "source.mp4"), 900)

	err := g.Admit(500)
	cErr, ok := err.(*CapacityError)
	if !ok {
		t.Fatalf("got %v, want CapacityError", err)
	}
	if cErr.Needed != 500 || cErr.Ceiling != 1000 {
		t.Errorf("error detail = %+v", cErr)
	}

	// The in-flight job's files are untouched.
	if _, err := os.Stat(layout.InboundPath("in-flight", "source.mp4")); err != nil {
		t.Errorf("in-flight file was touched: %v", err)
	}
}

func TestGuardian_AdmitAcceptedAfterReclaimFrees(t *testing.T) {
	layout := newTestLayout(t)
	index := &stubIndex{evictable: []string{"old-job"}}
	g := NewGuardian(layout, index, 1000, time.Minute, time.Minute, 0.8)

	writeJobFile(t, layout.InboundPath("old-job", "source.mp4"), 500)
	writeJobFile(t, layout.OutboundPath("old-job", "captioned.mp4"), 400)

	if err := g.Admit(500); err != nil {
		t.Fatalf("admission refused despite evictable job: %v", err)
	}

	if len(index.removed) != 1 || index.removed[0] != "old-job" {
		t.Errorf("records forgotten = %v, want [old-job]", index.removed)
	}
	if _, err := os.Stat(layout.InboundPath("old-job", "source.mp4")); !os.IsNotExist(err) {
		t.Error("evicted inbound file still present")
	}
	if _, err := os.Stat(layout.OutboundPath("old-job", "captioned.mp4")); !os.IsNotExist(err) {
		t.Error("evicted outbound file still present")
	}
}

func TestGuardian_ReclaimOnlyTouchesJobPrefix(t *testing.T) {
	layout := newTestLayout(t)
	index := &stubIndex{evictable: []string{"gone"}}
	g := NewGuardian(layout, index, 1<<20, time.Minute, time.Minute, 0.8)

	writeJobFile(t, layout.InboundPath("gone", "source.mp4"), 10)
	writeJobFile(t, layout.InboundPath("kept", "source.mp4"), 10)
	writeJobFile(t, layout.OutboundPath("kept", "captioned.mp4"), 10)

	g.Reclaim()

	if _, err := os.Stat(layout.InboundPath("gone", "source.mp4")); !os.IsNotExist(err) {
		t.Error("evicted job file still present")
	}
	if _, err := os.Stat(layout.InboundPath("kept", "source.mp4")); err != nil {
		t.Errorf("unrelated inbound file removed: %v", err)
	}
	if _, err := os.Stat(layout.OutboundPath("kept", "captioned.mp4")); err != nil {
		t.Errorf("unrelated outbound file removed: %v", err)
	}
}

func TestGuardian_SweepReclaimsOnlyAboveHighWater(t *testing.T) {
	layout := newTestLayout(t)
	index := &stubIndex{evictable: []string{"old-job"}}
	g := NewGuardian(layout, index, 1000, time.Minute, 10*time.Millisecond, 0.5)

	// 100 bytes against the 1000-byte ceiling stays under the 0.5
	// high-water mark, so ticks pass without touching the evictable job.
	writeJobFile(t, layout.InboundPath("old-job", "source.mp4"), 100)
	g.Start()
	defer g.Stop()

	time.Sleep(60 * time.Millisecond)
	if _, err := os.Stat(layout.InboundPath("old-job", "source.mp4")); err != nil {
		t.Fatalf("sweep reclaimed below the high-water mark: %v", err)
	}

	// Crossing the mark makes a following tick reclaim.
	writeJobFile(t, layout.OutboundPath("old-job", "captioned.mp4"), 600)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(layout.InboundPath("old-job", "source.mp4")); os.IsNotExist(err) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("sweep never reclaimed above the high-water mark")
}

func TestGuardian_ConcurrentAdmissionsReclaimOnce(t *testing.T) {
	layout := newTestLayout(t)
	index := &stubIndex{evictable: []string{"old-job"}}
	g := NewGuardian(layout, index, 1000, time.Minute, time.Minute, 0.8)

	// One evictable occupant fills most of the ceiling. The first admission
	// to get the lock reclaims it; the rest see the freed space and admit
	// without another eviction pass.
	writeJobFile(t, layout.InboundPath("old-job", "source.mp4"), 950)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = g.Admit(100)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("admission %d refused: %v", i, err)
		}
	}
	if len(index.removed) != 1 {
		t.Errorf("eviction ran %d times, want 1", len(index.removed))
	}
}

func TestLayout_RemoveJobFilesIsIdempotent(t *testing.T) {
	layout := newTestLayout(t)

	writeJobFile(t, layout.InboundPath("job-1", "source.mp4"), 10)
	layout.RemoveJobFiles("job-1")
	layout.RemoveJobFiles("job-1") // nothing left, still fine
	layout.RemoveJobFiles("never-existed")

	if _, err := os.Stat(layout.InboundPath("job-1", "source.mp4")); !os.IsNotExist(err) {
		t.Error("job file still present after removal")
	}
}

func TestLayout_PathsCarryJobPrefix(t *testing.T) {
	layout := newTestLayout(t)

	in := layout.InboundPath("abc", "source.mp4")
	out := layout.OutboundPath("abc", "captioned.mp4")

	if filepath.Base(in) != "abc_source.mp4" {
		t.Errorf("inbound name = %s", filepath.Base(in))
	}
	if filepath.Base(out) != "abc_captioned.mp4" {
		t.Errorf("outbound name = %s", filepath.Base(out))
	}
	if filepath.Dir(in) == filepath.Dir(out) {
		t.Error("inbound and outbound share a directory")
	}
}

func TestLayout_Teardown(t *testing.T) {
	layout := newTestLayout(t)
	writeJobFile(t, layout.InboundPath("job-1", "source.mp4"), 10)

	layout.Teardown()

	if _, err := os.Stat(layout.Root()); !os.IsNotExist(err) {
		t.Error("managed root survived teardown")
	}
}
