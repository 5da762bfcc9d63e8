package api

import (
	"context"
	"net/http"
	"strings"

	service "github.com/crashcompass/compass/internal/app"
	"github.com/crashcompass/compass/pkg/logger"
)

// DashboardDependencies defines the interface for the home page view.
type DashboardDependencies interface {
	Dashboard(ctx context.Context) (service.Dashboard, error)
}

// DashboardHandler handles dashboard requests.
type DashboardHandler struct {
	deps DashboardDependencies
	log  logger.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(deps DashboardDependencies, log logger.Logger) *DashboardHandler {
	return &DashboardHandler{deps: deps, log: log}
}

// HandleGetDashboard handles GET /v1/dashboard requests.
func (h *DashboardHandler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_dashboard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	d, err := h.deps.Dashboard(r.Context())
	if err != nil {
		writeServiceError(r.Context(), h.log, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// CategoryDependencies defines the interface for category pages.
type CategoryDependencies interface {
	Category(ctx context.Context, slug string) (service.CategoryPage, error)
}

// CategoryHandler handles category requests.
type CategoryHandler struct {
	deps CategoryDependencies
	log  logger.Logger
}

// NewCategoryHandler creates a new category handler.
func NewCategoryHandler(deps CategoryDependencies, log logger.Logger) *CategoryHandler {
	return &CategoryHandler{deps: deps, log: log}
}

// HandleGetCategory handles GET /v1/categories/{slug} requests.
func (h *CategoryHandler) HandleGetCategory(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_category"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	slug := strings.TrimPrefix(r.URL.Path, "/v1/categories/")
	if slug == "" || strings.Contains(slug, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	page, err := h.deps.Category(r.Context(), slug)
	if err != nil {
		writeServiceError(r.Context(), h.log, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
