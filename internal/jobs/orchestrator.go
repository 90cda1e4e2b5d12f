package jobs

import (
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"runtime/debug"
	"strings"

	"github.com/google/uuid"

	"github.com/scrideo/scrideo/internal/captions"
	"github.com/scrideo/scrideo/internal/storage"
	"github.com/scrideo/scrideo/internal/types"
)

// Transcriber turns a media file into timed speech segments.
type Transcriber interface {
	Transcribe(mediaPath, language string) (*types.TranscribeResult, error)
}

// Fetcher downloads a remote video to destPath and reports its title.
type Fetcher interface {
	Fetch(rawURL, destPath string) (title string, err error)
}

// Renderer burns the caption markup into the video.
type Renderer interface {
	Render(inputPath, markupPath, outputPath string) error
}

// Archiver optionally mirrors a rendered video to external storage after
// completion.
type Archiver interface {
	Upload(name, videoPath string) (string, error)
}

// Spawner launches one independent task per job. A bounded worker pool can
// replace GoSpawner without touching the orchestrator.
type Spawner interface {
	Spawn(fn func())
}

// GoSpawner runs each task on its own goroutine.
type GoSpawner struct{}

func (GoSpawner) Spawn(fn func()) { go fn() }

// SubmitRequest carries one video submission. Exactly one of URL or File
// must be set.
type SubmitRequest struct {
	Label    string
	Settings captions.Settings
	Language string

	URL string

	File     io.Reader
	FileSize int64
	FileExt  string
}

// Orchestrator owns the job table and drives each job through the pipeline
// download → transcribe → compile captions → render.
type Orchestrator struct {
	registry    *Registry
	layout      *storage.Layout
	guardian    *storage.Guardian
	transcriber Transcriber
	fetcher     Fetcher
	renderer    Renderer
	spawner     Spawner

	history *storage.HistoryDB // optional
	archive Archiver           // optional

	maxUploadBytes int64
	urlEstimate    int64
	language       string
}

// Options configures an Orchestrator beyond its required collaborators.
type Options struct {
	History          *storage.HistoryDB
	Archive          Archiver
	MaxUploadBytes   int64
	URLEstimateBytes int64
	Language         string
}

// NewOrchestrator wires the orchestrator with its collaborators.
func NewOrchestrator(
	registry *Registry,
	layout *storage.Layout,
	guardian *storage.Guardian,
	transcriber Transcriber,
	fetcher Fetcher,
	renderer Renderer,
	spawner Spawner,
	opts Options,
) *Orchestrator {
	if opts.Language == "" {
		opts.Language = "en"
	}
	return &Orchestrator{
		registry:       registry,
		layout:         layout,
		guardian:       guardian,
		transcriber:    transcriber,
		fetcher:        fetcher,
		renderer:       renderer,
		spawner:        spawner,
		history:        opts.History,
		archive:        opts.Archive,
		maxUploadBytes: opts.MaxUploadBytes,
		urlEstimate:    opts.URLEstimateBytes,
		language:       opts.Language,
	}
}

// Submit validates the request, admits it against the storage ceiling,
// creates the job record and launches its task. It returns as soon as the
// record exists; progress is observed through GetStatus.
func (o *Orchestrator) Submit(req SubmitRequest) (string, error) {
	sourceType, estimate, err := o.validate(&req)
	if err != nil {
		return "", err
	}

	if err := o.guardian.Admit(estimate); err != nil {
		return "", err
	}

	jobID := uuid.New().String()

	var mediaPath string
	if sourceType == types.SourceUpload {
		mediaPath = o.layout.InboundPath(jobID, "source"+req.FileExt)
		if err := saveStream(mediaPath, req.File); err != nil {
			o.layout.RemoveFile(mediaPath)
			return "", fmt.Errorf("failed to save upload: %w", err)
		}
	}

	o.registry.Create(jobID, req.Label, sourceType)

	o.spawner.Spawn(func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC processing job %s: %v\n%s", jobID, r, string(debug.Stack()))
				o.fail(jobID, mediaPath, fmt.Sprintf("internal error: %v", r))
			}
		}()
		o.runPipeline(jobID, req, mediaPath)
	})

	log.Printf("Job %s submitted (source: %s, name: %s)", jobID, sourceType, req.Label)
	return jobID, nil
}

// validate checks the request shape and returns the source type plus the
// byte estimate used for admission.
func (o *Orchestrator) validate(req *SubmitRequest) (string, int64, error) {
	if req.Label == "" {
		req.Label = "untitled"
	}
	if req.Language == "" {
		req.Language = o.language
	}

	switch {
	case req.URL != "" && req.File != nil:
		return "", 0, &ValidationError{Reason: "both url and file given"}

	case req.URL != "":
		u, err := url.Parse(req.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return "", 0, &ValidationError{Reason: "malformed video url"}
		}
		return types.SourceURL, o.urlEstimate, nil

	case req.File != nil:
		if !ValidVideoExt(req.FileExt) {
			return "", 0, &ValidationError{Reason: "unsupported video format " + req.FileExt}
		}
		if req.FileSize <= 0 {
			return "", 0, &ValidationError{Reason: "empty upload"}
		}
		if o.maxUploadBytes > 0 && req.FileSize > o.maxUploadBytes {
			return "", 0, &ValidationError{
				Reason: fmt.Sprintf("file too large (max %dMB)", o.maxUploadBytes/(1024*1024)),
			}
		}
		return types.SourceUpload, req.FileSize, nil

	default:
		return "", 0, &ValidationError{Reason: "no video source given"}
	}
}

// GetStatus returns an immutable snapshot of the job record.
func (o *Orchestrator) GetStatus(jobID string) (Job, error) {
	snap, ok := o.registry.Snapshot(jobID)
	if !ok {
		return Job{}, &NotFoundError{ID: jobID}
	}
	return snap, nil
}

// Delete removes the record and every file the job owns. The running task,
// if any, is not interrupted; its next status write will see the missing
// record and stop. Idempotent.
func (o *Orchestrator) Delete(jobID string) {
	o.registry.Remove(jobID)
	o.layout.RemoveJobFiles(jobID)
}

// Quota reports current managed-storage usage against the ceiling.
func (o *Orchestrator) Quota() (used, ceiling int64) {
	return o.guardian.Usage(), o.guardian.Ceiling()
}

// History lists recent finished jobs, empty when no history DB is wired.
func (o *Orchestrator) History(limit int) ([]storage.HistoryEntry, error) {
	if o.history == nil {
		return nil, nil
	}
	return o.history.ListJobs(limit)
}

// runPipeline is the task body: the fixed adapter sequence with one atomic
// status transition before each stage. Every Advance happens under the
// registry mutex; every adapter call happens outside it. A false return
// from Advance means the job was deleted mid-flight, and the task walks
// away after removing its own files.
func (o *Orchestrator) runPipeline(jobID string, req SubmitRequest, mediaPath string) {
	if req.URL != "" {
		if !o.registry.Advance(jobID, types.StatusDownloading) {
			o.abandon(jobID)
			return
		}
		mediaPath = o.layout.InboundPath(jobID, "source.mp4")
		title, err := o.fetcher.Fetch(req.URL, mediaPath)
		if err != nil {
			o.fail(jobID, mediaPath, fmt.Sprintf("download failed: %v", err))
			return
		}
		if req.Label == "untitled" && title != "" {
			o.registry.SetLabel(jobID, title)
		}
	}

	if !o.registry.Advance(jobID, types.StatusTranscribing) {
		o.abandon(jobID)
		return
	}
	result, err := o.transcriber.Transcribe(mediaPath, req.Language)
	if err != nil {
		o.fail(jobID, mediaPath, fmt.Sprintf("transcription failed: %v", err))
		return
	}

	if !o.registry.Advance(jobID, types.StatusCompilingCaptions) {
		o.abandon(jobID)
		return
	}
	cues := captions.BuildCues(result.Segments)
	if len(cues) == 0 {
		o.fail(jobID, mediaPath, "no speech detected in video")
		return
	}

	srtPath := o.layout.InboundPath(jobID, "captions.srt")
	if err := captions.WriteSRT(cues, srtPath); err != nil {
		o.fail(jobID, mediaPath, fmt.Sprintf("caption compilation failed: %v", err))
		return
	}
	assPath := o.layout.InboundPath(jobID, "captions.ass")
	if err := captions.WriteASS(cues, req.Settings, assPath); err != nil {
		o.fail(jobID, mediaPath, fmt.Sprintf("caption compilation failed: %v", err))
		return
	}

	if !o.registry.Advance(jobID, types.StatusRendering) {
		o.abandon(jobID)
		return
	}
	outputPath := o.layout.OutboundPath(jobID, "captioned.mp4")
	if err := o.renderer.Render(mediaPath, assPath, outputPath); err != nil {
		o.fail(jobID, mediaPath, fmt.Sprintf("render failed: %v", err))
		return
	}

	// Transient inputs are gone once the render exists; only the output
	// and the record survive.
	o.removeTransientInputs(jobID, mediaPath)

	snap, _ := o.registry.Snapshot(jobID)
	if !o.registry.Complete(jobID, outputPath, strings.TrimSpace(result.Text), result.Duration) {
		o.abandon(jobID)
		return
	}

	if o.history != nil {
		if err := o.history.SaveJob(jobID, snap.SourceLabel, snap.SourceType,
			types.StatusCompleted, outputPath, result.Duration); err != nil {
			log.Printf("Job %s: history save failed: %v", jobID, err)
		}
	}

	if o.archive != nil {
		if link, err := o.archive.Upload(snap.SourceLabel, outputPath); err != nil {
			log.Printf("Job %s: archive upload failed: %v", jobID, err)
		} else {
			log.Printf("Job %s archived: %s", jobID, link)
		}
	}

	log.Printf("Job %s completed (%.2fs of speech)", jobID, result.Duration)
}

// fail best-effort removes the job's transient inputs, then records the
// terminal failure. Partial outbound artifacts stay on disk for the
// guardian's normal reclamation. The cleanup happens before the status
// write so a FAILED snapshot never coexists with the inputs.
func (o *Orchestrator) fail(jobID, mediaPath, message string) {
	o.removeTransientInputs(jobID, mediaPath)

	if !o.registry.Fail(jobID, message) {
		o.abandon(jobID)
		return
	}
	log.Printf("Job %s failed: %s", jobID, message)

	if o.history != nil {
		snap, ok := o.registry.Snapshot(jobID)
		if ok {
			if err := o.history.SaveJob(jobID, snap.SourceLabel, snap.SourceType,
				types.StatusFailed, "", 0); err != nil {
				log.Printf("Job %s: history save failed: %v", jobID, err)
			}
		}
	}
}

// removeTransientInputs best-effort deletes the job's inbound working
// files: the source media and the intermediate caption tracks.
func (o *Orchestrator) removeTransientInputs(jobID, mediaPath string) {
	o.layout.RemoveFile(mediaPath)
	o.layout.RemoveFile(o.layout.InboundPath(jobID, "captions.srt"))
	o.layout.RemoveFile(o.layout.InboundPath(jobID, "captions.ass"))
}

// abandon cleans up after a task whose record was deleted mid-flight. The
// record must not be re-inserted; only the task's files are swept away.
func (o *Orchestrator) abandon(jobID string) {
	log.Printf("Job %s was deleted mid-flight, discarding late work", jobID)
	o.layout.RemoveJobFiles(jobID)
}

// saveStream writes an upload to disk.
func saveStream(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return err
	}
	return nil
}

// ValidVideoExt reports whether the upload extension is a supported video
// container.
func ValidVideoExt(ext string) bool {
	supported := []string{".mp4", ".mov", ".mkv", ".avi", ".webm", ".m4v", ".mpeg", ".mpg"}
	ext = strings.ToLower(ext)
	for _, s := range supported {
		if ext == s {
			return true
		}
	}
	return false
}
