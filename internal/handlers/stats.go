package handlers

import (
	"net/http"

	"github.com/docstore/docstore/internal/contextutil"
	"github.com/docstore/docstore/internal/ingest"
)

// StatsHandler serves index coverage statistics.
type StatsHandler struct {
	pipeline           *ingest.Pipeline
	embeddingModelName string
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(pipeline *ingest.Pipeline, embeddingModelName string) *StatsHandler {
	return &StatsHandler{
		pipeline:           pipeline,
		embeddingModelName: embeddingModelName,
	}
}

// ServeHTTP returns coverage statistics for the current index.
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	stats, err := h.pipeline.GetCoverageStats(ctx, h.embeddingModelName)
	if err != nil {
		logger.ErrorContext(ctx, "failed to compute stats", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
