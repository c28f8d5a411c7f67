package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"portfolio/src/services"
	"portfolio/src/utils"
	"portfolio/src/worker/controllers"
)

type Handler struct {
	Controller *controllers.Controller
}

func NewHandler(controller *controllers.Controller) *Handler {
	return &Handler{Controller: controller}
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, data interface{}, status int) {
	res, err := json.Marshal(data)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(res)
}

func (h *Handler) HandleErrors(w http.ResponseWriter, r *http.Request, err error) {
	var httpErr *utils.HTTPError
	if errors.Is(err, context.DeadlineExceeded) {
		h.respond(w, r, map[string]string{"error": "Request timed out"}, http.StatusGatewayTimeout)
	} else if errors.As(err, &httpErr) {
		h.respond(w, r, map[string]string{"error": httpErr.Message}, httpErr.Code)
	} else if errors.Is(err, services.ErrRunInProgress) {
		h.respond(w, r, map[string]string{"error": err.Error()}, http.StatusConflict)
	} else if errors.Is(err, services.ErrMalformedInput) {
		h.respond(w, r, map[string]string{"error": err.Error()}, http.StatusBadRequest)
	} else if errors.Is(err, services.ErrNotFound) {
		h.respond(w, r, map[string]string{"error": err.Error()}, http.StatusNotFound)
	} else if err != nil {
		utils.LoggerFromContext(r.Context()).WithError(err).WithField("path", r.URL.Path).Error("Request failed")
		h.respond(w, r, map[string]string{"error": err.Error()}, http.StatusInternalServerError)
	} else {
		h.respond(w, r, map[string]string{"error": "Unhandled error"}, http.StatusInternalServerError)
	}
}
