// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/okian/salary-insight/internal/domain/types"
)

// readyMessage is returned by GET /.
const readyMessage = "HRIS ML API Ready"

// HomeHandler answers the unauthenticated readiness probe.
type HomeHandler struct{}

// NewHomeHandler creates a new home handler.
func NewHomeHandler() *HomeHandler {
	return &HomeHandler{}
}

// HandleHome handles GET / requests. Any other path under / is a 404.
func (h *HomeHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, kindNotFound, nil)
		return
	}
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, homeResponse{Status: types.StatusSuccess, Message: readyMessage})
}
