package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	service "github.com/crashcompass/compass/internal/app"
)

// maxExplainBody bounds the explain request body.
const maxExplainBody = 1 << 20

// ExplainDependencies defines the interface for contributor explanations.
type ExplainDependencies interface {
	Explain(ctx context.Context, req service.ExplainRequest) (Explanation, error)
}

// ExplainHandler handles explain requests.
type ExplainHandler struct {
	deps ExplainDependencies
}

// NewExplainHandler creates a new explain handler.
func NewExplainHandler(deps ExplainDependencies) *ExplainHandler {
	return &ExplainHandler{deps: deps}
}

// HandlePostExplain handles POST /v1/explain requests.
func (h *ExplainHandler) HandlePostExplain(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_explain"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req service.ExplainRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxExplainBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if len(req.Contributors) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing contributors")))
		return
	}
	exp, err := h.deps.Explain(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

// FormatDependencies defines the interface for axis labels.
type FormatDependencies interface {
	Format(v float64) string
}

// FormatHandler handles format requests.
type FormatHandler struct {
	deps FormatDependencies
}

// NewFormatHandler creates a new format handler.
func NewFormatHandler(deps FormatDependencies) *FormatHandler {
	return &FormatHandler{deps: deps}
}

type formatResponse struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// HandleGetFormat handles GET /v1/format?value=N requests.
func (h *FormatHandler) HandleGetFormat(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_format"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	raw := r.URL.Query().Get("value")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, formatResponse{Value: raw, Label: h.deps.Format(v)})
}
