package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/scrideo/scrideo/internal/captions"
	"github.com/scrideo/scrideo/internal/jobs"
)

// URLHandler handles submissions that point at a hosted video
type URLHandler struct {
	orchestrator *jobs.Orchestrator
}

// NewURLHandler creates a new URL submission handler
func NewURLHandler(orchestrator *jobs.Orchestrator) *URLHandler {
	return &URLHandler{orchestrator: orchestrator}
}

// URLRequest represents the request body
type URLRequest struct {
	URL      string            `json:"url"`
	Name     string            `json:"name"`
	Language string            `json:"language"`
	Settings captions.Settings `json:"settings"`
}

// Handle processes video URL requests
func (h *URLHandler) Handle(c *fiber.Ctx) error {
	var req URLRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  "ERR_INVALID_BODY",
		})
	}

	if req.URL == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "URL is required",
			"code":  "ERR_NO_URL",
		})
	}

	jobID, err := h.orchestrator.Submit(jobs.SubmitRequest{
		Label:    req.Name,
		Language: req.Language,
		Settings: req.Settings,
		URL:      req.URL,
	})
	if err != nil {
		return submitError(c, err)
	}

	return c.JSON(fiber.Map{
		"job_id":  jobID,
		"status":  "received",
		"message": "Video download and captioning started",
	})
}
