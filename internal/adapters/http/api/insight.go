// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/salary-insight/internal/domain/model"
	"github.com/okian/salary-insight/internal/domain/types"
)

// InsightDependencies defines the interface for single-record insight.
type InsightDependencies interface {
	Insight(ctx context.Context, raw model.RawRecord) (types.InsightResult, error)
}

// InsightHandler handles insight requests.
type InsightHandler struct {
	deps InsightDependencies
}

// NewInsightHandler creates a new insight handler.
func NewInsightHandler(deps InsightDependencies) *InsightHandler {
	return &InsightHandler{deps: deps}
}

// HandleInsight handles POST /insight requests. The body is exactly one
// record object.
func (h *InsightHandler) HandleInsight(w http.ResponseWriter, r *http.Request) {
	const op = "api.insight"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	body, err := decodeBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, kindBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}
	raw, ok := body.(map[string]any)
	if !ok {
		writeError(w, http.StatusBadRequest, kindBadRequest,
			wrapf(op, ErrBadRequest, "body must be a single JSON object"))
		return
	}

	res, err := h.deps.Insight(r.Context(), raw)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
