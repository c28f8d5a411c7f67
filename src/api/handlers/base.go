package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"portfolio/src/config"
	"portfolio/src/services"
	"portfolio/src/utils"
)

type Handler struct {
	Portfolio     services.PortfolioReader
	Demo          services.PortfolioReader
	Auth          services.AuthServiceI
	Formatting    config.FormattingConfig
	SecureCookies bool
}

func NewHandler(
	portfolio services.PortfolioReader,
	demo services.PortfolioReader,
	auth services.AuthServiceI,
	formatting config.FormattingConfig,
) *Handler {
	return &Handler{
		Portfolio:  portfolio,
		Demo:       demo,
		Auth:       auth,
		Formatting: formatting,
	}
}

func (h *Handler) respond(w http.ResponseWriter, _ *http.Request, data interface{}, status int) {
	res, err := json.Marshal(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(res)
}

// HandleErrors maps service errors to status codes. Anything unrecognised is logged and reported as a 500.
func (h *Handler) HandleErrors(w http.ResponseWriter, r *http.Request, err error) {
	var httpErr *utils.HTTPError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		h.respond(w, r, map[string]string{"error": "Request timed out"}, http.StatusGatewayTimeout)
	case errors.As(err, &httpErr):
		h.respond(w, r, map[string]string{"error": httpErr.Message}, httpErr.Code)
	case errors.Is(err, services.ErrNotFound):
		h.respond(w, r, map[string]string{"error": err.Error()}, http.StatusNotFound)
	case errors.Is(err, services.ErrMalformedInput):
		h.respond(w, r, map[string]string{"error": err.Error()}, http.StatusBadRequest)
	case errors.Is(err, services.ErrInvalidCredentials):
		h.respond(w, r, map[string]string{"error": "Invalid credentials"}, http.StatusUnauthorized)
	case err != nil:
		utils.LoggerFromContext(r.Context()).WithError(err).WithField("path", r.URL.Path).Error("Request failed")
		h.respond(w, r, map[string]string{"error": err.Error()}, http.StatusInternalServerError)
	default:
		h.respond(w, r, map[string]string{"error": "Unhandled error"}, http.StatusInternalServerError)
	}
}
