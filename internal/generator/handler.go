package generator

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bundlegen/internal/catalog"
	"bundlegen/internal/progress"
	"bundlegen/internal/render"
	"bundlegen/internal/runs"
)

// Handler exposes bundle generation over HTTP and records every run.
type Handler struct {
	Gen       *Generator
	Runs      *runs.Repo
	Hub       *progress.Hub
	TargetDir string

	// PublicPath is the URL prefix under which deployed bundles are
	// served, e.g. "/bundles".
	PublicPath string
}

func NewHandler(gen *Generator, repo *runs.Repo, hub *progress.Hub, targetDir, publicPath string) *Handler {
	return &Handler{Gen: gen, Runs: repo, Hub: hub, TargetDir: targetDir, PublicPath: publicPath}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/generate/:resource", h.generate)
}

func (h *Handler) generate(c *gin.Context) {
	start := time.Now()
	resource := c.Param("resource")
	collection := c.Query("collection")
	runID := uuid.NewString()

	if h.Hub != nil {
		h.Hub.Broadcast(progress.Event{Type: "run_started", Resource: resource, RunID: runID})
	}

	result, err := h.Gen.Generate(c.Request.Context(), resource, h.TargetDir, collection)
	elapsed := time.Since(start)

	run := runs.Run{
		ID:         runID,
		Resource:   resource,
		Collection: collection,
		DurationMS: elapsed.Milliseconds(),
	}

	if err != nil {
		run.Status = errStatus(err)
		run.Error = err.Error()
		h.record(c, run)
		if h.Hub != nil {
			h.Hub.Broadcast(progress.Event{
				Type: "run_failed", Resource: resource, RunID: runID,
				Fields: map[string]any{"error": err.Error()},
			})
		}

		switch {
		case errors.Is(err, ErrUnknownResource):
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown resource kind"})
		case errors.Is(err, catalog.ErrResourceUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "resource unavailable"})
		case errors.Is(err, render.ErrMissingData):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "record is missing data"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "generation failed"})
		}
		return
	}

	run.Status = "ok"
	run.Archive = result.Filename
	run.Records = result.Records
	h.record(c, run)

	if h.Hub != nil {
		h.Hub.Broadcast(progress.Event{
			Type: "run_finished", Resource: resource, RunID: runID,
			Fields: map[string]any{"archive": result.Filename, "records": result.Records},
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"resource_name":       resource,
		"expected_bundle_url": h.PublicPath + "/" + result.Filename,
		"records":             result.Records,
		"elapsed_time":        elapsed.Seconds(),
	})
}

func (h *Handler) record(c *gin.Context, run runs.Run) {
	if h.Runs == nil {
		return
	}
	if err := h.Runs.Insert(c.Request.Context(), run); err != nil {
		log.Printf("[generator] record run %s: %v", run.ID, err)
	}
}

func errStatus(err error) string {
	switch {
	case errors.Is(err, ErrUnknownResource):
		return "unknown_resource"
	case errors.Is(err, catalog.ErrResourceUnavailable):
		return "unavailable"
	case errors.Is(err, render.ErrMissingData):
		return "missing_data"
	default:
		return "failed"
	}
}
