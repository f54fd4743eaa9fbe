package api

import (
	"net/http"

	"github.com/okian/stipend/pkg/logger"
)

// StipendHandler computes single breakdowns.
type StipendHandler struct {
	calc Calculator
	log  logger.Logger
}

// HandleCalculate handles POST /stipend.
func (h *StipendHandler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	var req tripRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	trip, err := req.toModel()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	b, err := h.calc.Calculate(r.Context(), trip)
	if err != nil {
		h.log.Warn(r.Context(), "stipend request rejected",
			logger.String("request_id", RequestID(r.Context())), logger.Error(err))
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
