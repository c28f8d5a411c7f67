package handlers

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"time"

	"portfolio/src/services"
	"portfolio/src/utils"
	"portfolio/src/utils/render"

	"github.com/go-chi/chi/v5"
)

const chartTitle = "Portfolio value (CAD)"

func (h *Handler) GetAllSecurities(reader services.PortfolioReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		securities, err := reader.GetAllSecuritiesSortedByName(ctx)
		if err != nil {
			h.HandleErrors(w, r, err)
			return
		}
		h.respond(w, r, securities, http.StatusOK)
	}
}

func (h *Handler) GetSecurityByID(reader services.PortfolioReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			h.HandleErrors(w, r, utils.BadRequest("security id must be an integer"))
			return
		}

		detail, err := reader.GetSecurityDetail(ctx, id)
		if err != nil {
			h.HandleErrors(w, r, err)
			return
		}
		h.respond(w, r, detail, http.StatusOK)
	}
}

func (h *Handler) GetPortfolio(reader services.PortfolioReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		aggregate, err := reader.GetPortfolioAggregate(ctx)
		if err != nil {
			h.HandleErrors(w, r, err)
			return
		}
		h.respond(w, r, aggregate, http.StatusOK)
	}
}

// GetPortfolioChart serves the daily totals as an HTML line chart.
func (h *Handler) GetPortfolioChart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	aggregate, err := h.Portfolio.GetPortfolioAggregate(ctx)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	var page bytes.Buffer
	if err := render.RenderPortfolioChart(&page, chartTitle, aggregate.DailyTotals, h.Formatting.DateLayout); err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page.Bytes())
}
