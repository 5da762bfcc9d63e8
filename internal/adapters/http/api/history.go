package api

import (
	"context"
	"net/http"

	service "github.com/crashcompass/compass/internal/app"
	"github.com/crashcompass/compass/pkg/logger"
)

// HistoryDependencies defines the interface for the history chart.
type HistoryDependencies interface {
	History(ctx context.Context) (service.History, error)
}

// HistoryHandler handles history requests.
type HistoryHandler struct {
	deps HistoryDependencies
	log  logger.Logger
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps HistoryDependencies, log logger.Logger) *HistoryHandler {
	return &HistoryHandler{deps: deps, log: log}
}

// HandleGetHistory handles GET /v1/history requests.
func (h *HistoryHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_history"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	hist, err := h.deps.History(r.Context())
	if err != nil {
		writeServiceError(r.Context(), h.log, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, hist)
}
