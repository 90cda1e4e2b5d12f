package storage

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// CapacityError rejects an admission that would push the managed root past
// its ceiling even after one reclamation pass.
type CapacityError struct {
	Needed  int64
	Used    int64
	Ceiling int64
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("storage full: %d bytes needed, %d of %d in use", e.Needed, e.Used, e.Ceiling)
}

// JobIndex is the registry view the guardian needs: which jobs are safe to
// evict, and how to forget one after its files are gone.
type JobIndex interface {
	TerminalBefore(cutoff time.Time) []string
	Remove(id string) bool
}

// Guardian keeps total bytes under the managed root at or below the
// configured ceiling. It checks on demand before every admission and on a
// periodic sweep, evicting terminal jobs older than the retention window.
type Guardian struct {
	layout    *Layout
	index     JobIndex
	ceiling   int64
	retention time.Duration
	interval  time.Duration
	highWater float64
	stopChan  chan struct{}

	// mu serializes admission decisions and reclamation passes, so two
	// concurrent submissions cannot interleave inside the
	// check-reclaim-recheck sequence.
	mu sync.Mutex
}

// NewGuardian creates a guardian for the layout. highWater is the fraction
// of the ceiling above which the periodic sweep bothers reclaiming.
func NewGuardian(layout *Layout, index JobIndex, ceiling int64, retention, interval time.Duration, highWater float64) *Guardian {
	return &Guardian{
		layout:    layout,
		index:     index,
		ceiling:   ceiling,
		retention: retention,
		interval:  interval,
		highWater: highWater,
		stopChan:  make(chan struct{}),
	}
}

// Ceiling returns the configured byte limit.
func (g *Guardian) Ceiling() int64 {
	return g.ceiling
}

// Usage walks the managed root and sums file sizes.
func (g *Guardian) Usage() int64 {
	var total int64
	filepath.Walk(g.layout.Root(), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip files we can't stat
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total
}

// Admit checks whether estimated bytes fit under the ceiling. When they
// don't, one reclamation pass runs; if usage is still too high afterwards
// the admission is refused. The whole decision holds the guardian's lock,
// so concurrent admissions reclaim at most once between them.
func (g *Guardian) Admit(estimated int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	used := g.Usage()
	if used+estimated <= g.ceiling {
		return nil
	}

	g.reclaim()

	used = g.Usage()
	if used+estimated > g.ceiling {
		return &CapacityError{Needed: estimated, Used: used, Ceiling: g.ceiling}
	}
	return nil
}

// Reclaim evicts terminal jobs older than the retention window: their
// files go first, then the record. Non-terminal jobs are never listed by
// the index, so in-flight files are never touched.
func (g *Guardian) Reclaim() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reclaim()
}

func (g *Guardian) reclaim() {
	cutoff := time.Now().Add(-g.retention)
	ids := g.index.TerminalBefore(cutoff)

	for _, id := range ids {
		g.layout.RemoveJobFiles(id)
		g.index.Remove(id)
		log.Printf("Reclaimed storage for job %s", id)
	}

	if len(ids) > 0 {
		log.Printf("Reclamation complete: %d jobs evicted, usage now %d bytes", len(ids), g.Usage())
	}
}

// Start launches the periodic sweep. The sweep only reclaims when usage is
// above the high-water fraction of the ceiling, so an idle server doesn't
// churn the disk every tick.
func (g *Guardian) Start() {
	ticker := time.NewTicker(g.interval)

	go func() {
		for {
			select {
			case <-ticker.C:
				if used := g.Usage(); float64(used) > g.highWater*float64(g.ceiling) {
					log.Printf("Storage sweep: %d bytes in use, reclaiming", used)
					g.Reclaim()
				}
			case <-g.stopChan:
				ticker.Stop()
				return
			}
		}
	}()

	log.Printf("Storage guardian started (ceiling: %dMB, retention: %s, sweep: %s)",
		g.ceiling/(1024*1024), g.retention, g.interval)
}

// Stop halts the periodic sweep.
func (g *Guardian) Stop() {
	close(g.stopChan)
}
