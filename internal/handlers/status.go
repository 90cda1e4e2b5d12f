package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/scrideo/scrideo/internal/jobs"
	"github.com/scrideo/scrideo/internal/types"
)

// StatusHandler exposes job lifecycle queries: status polling, output
// download, transcript retrieval, deletion and the quota summary.
type StatusHandler struct {
	orchestrator *jobs.Orchestrator
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(orchestrator *jobs.Orchestrator) *StatusHandler {
	return &StatusHandler{orchestrator: orchestrator}
}

// Get returns the current job snapshot.
func (h *StatusHandler) Get(c *fiber.Ctx) error {
	snap, err := h.orchestrator.GetStatus(c.Params("id"))
	if err != nil {
		return notFound(c, err)
	}
	return c.JSON(snap)
}

// Delete removes the job and its files. Safe to repeat.
func (h *StatusHandler) Delete(c *fiber.Ctx) error {
	h.orchestrator.Delete(c.Params("id"))
	return c.JSON(fiber.Map{
		"message": "Job deleted",
	})
}

// Video serves the rendered output of a completed job.
func (h *StatusHandler) Video(c *fiber.Ctx) error {
	snap, err := h.orchestrator.GetStatus(c.Params("id"))
	if err != nil {
		return notFound(c, err)
	}
	if snap.Status != types.StatusCompleted {
		return c.Status(409).JSON(fiber.Map{
			"error": "Job has no rendered output yet",
			"code":  "ERR_NOT_COMPLETED",
		})
	}
	return c.SendFile(snap.OutputPath)
}

// Transcript serves the plain transcript text of a completed job.
func (h *StatusHandler) Transcript(c *fiber.Ctx) error {
	snap, err := h.orchestrator.GetStatus(c.Params("id"))
	if err != nil {
		return notFound(c, err)
	}
	if snap.Status != types.StatusCompleted {
		return c.Status(409).JSON(fiber.Map{
			"error": "Job has no transcript yet",
			"code":  "ERR_NOT_COMPLETED",
		})
	}
	return c.SendString(snap.Transcript)
}

// List returns recent finished jobs from the history database.
func (h *StatusHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	entries, err := h.orchestrator.History(limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(entries)
}

// Quota reports managed-storage usage against the ceiling.
func (h *StatusHandler) Quota(c *fiber.Ctx) error {
	used, ceiling := h.orchestrator.Quota()
	return c.JSON(fiber.Map{
		"used_bytes":    used,
		"ceiling_bytes": ceiling,
	})
}

func notFound(c *fiber.Ctx, err error) error {
	var nfErr *jobs.NotFoundError
	if errors.As(err, &nfErr) {
		return c.Status(404).JSON(fiber.Map{
			"error": "Job not found",
			"code":  "ERR_NOT_FOUND",
		})
	}
	return c.Status(500).JSON(fiber.Map{"error": err.Error()})
}
