package handlers

import (
	"net/http"
	"time"

	"portfolio/src/models"
)

type healthcheckResponse struct {
	Status    string                       `json:"status"`
	Schedules map[models.RunMode]time.Time `json:"schedules"`
}

// Healthcheck reports liveness and the next trigger of every registered schedule.
func (h *Handler) Healthcheck(w http.ResponseWriter, r *http.Request) {
	schedules := map[models.RunMode]time.Time{}
	for mode, task := range h.Controller.GetSchedulers() {
		schedules[mode] = task.Next()
	}
	h.respond(w, r, healthcheckResponse{Status: "Im alive!", Schedules: schedules}, http.StatusOK)
}
