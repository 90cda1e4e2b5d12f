package handlers

import (
	"log"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/scrideo/scrideo/internal/jobs"
	"github.com/scrideo/scrideo/internal/types"
)

// StreamHandler pushes job status snapshots over a WebSocket. It polls the
// registry on behalf of the client, so the core keeps its poll-only
// contract while browsers get live updates.
type StreamHandler struct {
	orchestrator *jobs.Orchestrator
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(orchestrator *jobs.Orchestrator) *StreamHandler {
	return &StreamHandler{orchestrator: orchestrator}
}

// Handle streams snapshots for a job id until the job reaches a terminal
// state, is deleted, or the client goes away.
func (h *StreamHandler) Handle(c *websocket.Conn) {
	defer c.Close()

	jobID := c.Params("id")
	log.Printf("Status stream opened for job %s", jobID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var lastStatus string
	for {
		snap, err := h.orchestrator.GetStatus(jobID)
		if err != nil {
			c.WriteJSON(map[string]string{"error": "job not found"})
			return
		}

		if snap.Status != lastStatus {
			if err := c.WriteJSON(snap); err != nil {
				log.Printf("Status stream write error: %v", err)
				return
			}
			lastStatus = snap.Status
		}

		if types.IsTerminal(snap.Status) {
			return
		}

		<-ticker.C
	}
}
