package jobs

import (
	"sort"
	"sync"
	"time"

	"github.com/scrideo/scrideo/internal/types"
)

// Job is one submitted video's lifecycle record.
type Job struct {
	ID           string    `json:"id"`
	SourceLabel  string    `json:"name"`
	SourceType   string    `json:"source_type"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	CompletedAt  time.Time `json:"completed_at,omitempty"`
	ErrorMessage string    `json:"error,omitempty"`
	OutputPath   string    `json:"-"`
	Transcript   string    `json:"-"`
	Duration     float64   `json:"duration_seconds,omitempty"`
}

// Registry owns the in-process job table. One mutex guards every read and
// write of the table; it is never held across an adapter call, only around
// the record mutation itself. Exactly one pipeline goroutine ever writes a
// given id, so read-modify-write under the mutex is race-free per job.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Job)}
}

// Create inserts a fresh record in the RECEIVED state.
func (r *Registry) Create(id, label, sourceType string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jobs[id] = &Job{
		ID:          id,
		SourceLabel: label,
		SourceType:  sourceType,
		Status:      types.StatusReceived,
		CreatedAt:   time.Now(),
	}
}

// Snapshot returns a copy of the record, so callers never see a
// half-written job.
func (r *Registry) Snapshot(id string) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Advance moves the job to the next pipeline status. The move is refused
// when the record has been deleted, the job is already terminal, or the
// new status would not be a forward step; the caller treats a refusal as
// "stop working on this job".
func (r *Registry) Advance(id, status string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return false
	}
	if types.IsTerminal(job.Status) || types.StatusRank(status) <= types.StatusRank(job.Status) {
		return false
	}
	job.Status = status
	return true
}

// SetLabel replaces the source label, used when retrieval resolves a title.
func (r *Registry) SetLabel(id, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if job, ok := r.jobs[id]; ok && label != "" {
		job.SourceLabel = label
	}
}

// Fail marks the job failed with a human-readable message. Returns false if
// the record is gone or already terminal.
func (r *Registry) Fail(id, message string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok || types.IsTerminal(job.Status) {
		return false
	}
	job.Status = types.StatusFailed
	job.ErrorMessage = message
	job.CompletedAt = time.Now()
	return true
}

// Complete marks the job done with its output artifact. Returns false if
// the record was deleted while the task ran, so the task knows not to
// resurrect it.
func (r *Registry) Complete(id, outputPath, transcript string, duration float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok || types.IsTerminal(job.Status) {
		return false
	}
	job.Status = types.StatusCompleted
	job.OutputPath = outputPath
	job.Transcript = transcript
	job.Duration = duration
	job.CompletedAt = time.Now()
	return true
}

// Remove deletes the record. Idempotent.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[id]; !ok {
		return false
	}
	delete(r.jobs, id)
	return true
}

// TerminalBefore lists ids of completed/failed jobs whose terminal
// timestamp is older than the cutoff, oldest first. In-flight jobs are
// never returned, which keeps reclamation away from files a running task
// still needs.
func (r *Registry) TerminalBefore(cutoff time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []*Job
	for _, job := range r.jobs {
		if types.IsTerminal(job.Status) && job.CompletedAt.Before(cutoff) {
			expired = append(expired, job)
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].CompletedAt.Before(expired[j].CompletedAt)
	})

	ids := make([]string, len(expired))
	for i, job := range expired {
		ids[i] = job.ID
	}
	return ids
}
