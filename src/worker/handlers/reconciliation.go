package handlers

import (
	"context"
	"net/http"
	"time"

	"portfolio/src/models"
	"portfolio/src/schemas"
	"portfolio/src/utils"
)

func (h *Handler) trigger(w http.ResponseWriter, r *http.Request, req schemas.RunRequest) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	accepted, err := h.Controller.TriggerRun(ctx, req)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, accepted, http.StatusAccepted)
}

func (h *Handler) PostDailySync(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, schemas.RunRequest{Mode: models.RunModeDailySync})
}

// PostBackfill accepts optional startDate and endDate query parameters (YYYY-MM-DD). Missing bounds fall back
// to the configured range.
func (h *Handler) PostBackfill(w http.ResponseWriter, r *http.Request) {
	req := schemas.RunRequest{Mode: models.RunModeBackfillRange}

	for param, target := range map[string]**time.Time{"startDate": &req.StartDate, "endDate": &req.EndDate} {
		raw := r.URL.Query().Get(param)
		if raw == "" {
			continue
		}
		date, err := time.Parse(utils.ShortDashDateLayout, raw)
		if err != nil {
			h.HandleErrors(w, r, utils.BadRequest(param+" must be formatted as YYYY-MM-DD"))
			return
		}
		*target = &date
	}

	h.trigger(w, r, req)
}

func (h *Handler) PostQuantityRefresh(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, schemas.RunRequest{Mode: models.RunModeQuantityRefresh})
}

func (h *Handler) PostYearRangeRefresh(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, schemas.RunRequest{Mode: models.RunModeYearRangeRefresh})
}

func (h *Handler) GetLastRun(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	report, err := h.Controller.LastRun(ctx)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, report, http.StatusOK)
}
