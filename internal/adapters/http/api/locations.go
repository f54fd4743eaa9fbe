package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/stipend/internal/domain/location"
)

// LocationHandler exposes the location resolver.
type LocationHandler struct {
	locations Locations
}

// HandleResolve handles GET /locations/resolve?q=.
func (h *LocationHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeDomainError(w, fmt.Errorf("%w: missing q", ErrBadRequest))
		return
	}
	m, ok := h.locations.Match(r.Context(), q)
	if !ok {
		writeDomainError(w, fmt.Errorf("%w: %q", location.ErrNotFound, q))
		return
	}
	writeJSON(w, http.StatusOK, m)
}
