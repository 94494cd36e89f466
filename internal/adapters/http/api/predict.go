// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/salary-insight/internal/domain/model"
	"github.com/okian/salary-insight/internal/domain/types"
)

// PredictDependencies defines the interface for batch prediction.
type PredictDependencies interface {
	Predict(ctx context.Context, raws []model.RawRecord) ([]float64, error)
}

// PredictHandler handles prediction requests.
type PredictHandler struct {
	deps PredictDependencies
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps PredictDependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// HandlePredict handles POST /predict requests. The body is one record
// object or an array of them.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	body, err := decodeBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, kindBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}
	raws, err := toRecords(op, body)
	if err != nil {
		writeError(w, http.StatusBadRequest, kindBadRequest, err)
		return
	}

	preds, err := h.deps.Predict(r.Context(), raws)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.PredictionResult{
		Status:          types.StatusSuccess,
		Count:           len(preds),
		PredictedSalary: preds,
	})
}

// toRecords accepts a single object or an array of objects. A null array
// element becomes a nil record and is rejected by the pipeline.
func toRecords(op string, body any) ([]model.RawRecord, error) {
	switch v := body.(type) {
	case map[string]any:
		return []model.RawRecord{v}, nil
	case []any:
		raws := make([]model.RawRecord, len(v))
		for i, item := range v {
			switch rec := item.(type) {
			case map[string]any:
				raws[i] = rec
			case nil:
			default:
				return nil, wrapf(op, ErrBadRequest, "record %d must be a JSON object", i)
			}
		}
		return raws, nil
	default:
		return nil, wrapf(op, ErrBadRequest, "body must be a JSON object or an array of objects")
	}
}
