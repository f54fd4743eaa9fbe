package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/stipend/internal/domain/model"
	"github.com/okian/stipend/pkg/logger"
)

// BatchHandler accepts batch jobs and reports their progress.
type BatchHandler struct {
	batches     Batches
	conferences Conferences
	log         logger.Logger
}

// batchRequest carries explicit trips, or an origin to price every reference conference from.
type batchRequest struct {
	Origin string        `json:"origin"`
	Trips  []tripRequest `json:"trips"`
}

type batchAccepted struct {
	JobID  string          `json:"job_id"`
	Status model.JobStatus `json:"status"`
	Total  int             `json:"total"`
	Failed int             `json:"failed"`
}

// HandleSubmit handles POST /batch.
func (h *BatchHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	var trips []model.TripRequest
	switch {
	case len(req.Trips) > 0:
		for i, tr := range req.Trips {
			trip, err := tr.toModel()
			if err != nil {
				writeDomainError(w, fmt.Errorf("trip %d: %w", i, err))
				return
			}
			trips = append(trips, trip)
		}
	case strings.TrimSpace(req.Origin) != "":
		confs, err := h.conferences.Conferences(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		for _, c := range confs {
			trips = append(trips, c.Trip(req.Origin))
		}
	default:
		writeDomainError(w, fmt.Errorf("%w: either trips or origin is required", ErrBadRequest))
		return
	}

	job, err := h.batches.Submit(r.Context(), trips)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if job.Failed == job.Total {
		h.log.Warn(r.Context(), "batch job could not be queued", logger.String("job_id", job.ID))
		writeError(w, http.StatusTooManyRequests, "backpressure", ErrBackpressure)
		return
	}

	w.Header().Set("Location", "/batch/"+job.ID)
	writeJSON(w, http.StatusAccepted, batchAccepted{JobID: job.ID, Status: job.Status, Total: job.Total, Failed: job.Failed})
}

// HandleGet handles GET /batch/{id}.
func (h *BatchHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	job, err := h.batches.Get(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}
