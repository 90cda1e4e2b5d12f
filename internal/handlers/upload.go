package handlers

import (
	"errors"
	"log"
	"path/filepath"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/scrideo/scrideo/internal/captions"
	"github.com/scrideo/scrideo/internal/jobs"
	"github.com/scrideo/scrideo/internal/storage"
)

// UploadHandler handles video file uploads
type UploadHandler struct {
	orchestrator *jobs.Orchestrator
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(orchestrator *jobs.Orchestrator) *UploadHandler {
	return &UploadHandler{orchestrator: orchestrator}
}

// Handle processes the upload request
func (h *UploadHandler) Handle(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "No file uploaded",
			"code":  "ERR_NO_FILE",
		})
	}

	src, err := file.Open()
	if err != nil {
		log.Printf("Failed to open uploaded file: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to read upload",
			"code":  "ERR_READ_FAILED",
		})
	}
	defer src.Close()

	jobID, err := h.orchestrator.Submit(jobs.SubmitRequest{
		Label:    c.FormValue("name"),
		Language: c.FormValue("language"),
		Settings: settingsFromForm(c),
		File:     src,
		FileSize: file.Size,
		FileExt:  filepath.Ext(file.Filename),
	})
	if err != nil {
		return submitError(c, err)
	}

	return c.JSON(fiber.Map{
		"job_id":  jobID,
		"status":  "received",
		"message": "Video uploaded, captioning started",
	})
}

// settingsFromForm reads caption style fields from a multipart form.
// Missing fields stay zero and pick up defaults in the compiler.
func settingsFromForm(c *fiber.Ctx) captions.Settings {
	size, _ := strconv.Atoi(c.FormValue("size"))
	return captions.Settings{
		FontSizePt:      size,
		TextColor:       c.FormValue("color"),
		BackgroundColor: c.FormValue("bgColor"),
		FontFamily:      c.FormValue("font"),
		FontStyle:       c.FormValue("fontStyle"),
		Position:        c.FormValue("position"),
		Alignment:       c.FormValue("alignment"),
	}
}

// submitError maps submission failures onto HTTP responses.
func submitError(c *fiber.Ctx, err error) error {
	var vErr *jobs.ValidationError
	if errors.As(err, &vErr) {
		return c.Status(400).JSON(fiber.Map{
			"error": vErr.Error(),
			"code":  "ERR_INVALID_INPUT",
		})
	}

	var cErr *storage.CapacityError
	if errors.As(err, &cErr) {
		return c.Status(507).JSON(fiber.Map{
			"error": "Server storage is full, try again later",
			"code":  "ERR_STORAGE_FULL",
		})
	}

	log.Printf("Submission failed: %v", err)
	return c.Status(500).JSON(fiber.Map{
		"error": "Failed to start job",
		"code":  "ERR_SUBMIT_FAILED",
	})
}
