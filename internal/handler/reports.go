package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/restaurantia/api/internal/domain"
	"github.com/restaurantia/api/internal/enum"
	"github.com/restaurantia/api/internal/middleware"
	"github.com/restaurantia/api/internal/service"
)

// ReportServicer is satisfied by *service.ReportService.
type ReportServicer interface {
	Sales(ctx context.Context, req service.ReportRequest) (*domain.Summary, error)
	Products(ctx context.Context, startDate, endDate string) (*service.ProductAnalysis, error)
}

// ReportsHandler serves sales reports.
type ReportsHandler struct {
	svc ReportServicer
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(svc ReportServicer) *ReportsHandler {
	return &ReportsHandler{svc: svc}
}

// RegisterRoutes registers report endpoints at the root of r:
// /reportes and /analisis/productos.
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(enum.UserRoleAdmin))
		r.Get("/reportes", h.Sales)
		r.Get("/analisis/productos", h.Products)
	})
}

// Sales summarizes sold orders. tipo selects diario, semanal or mensual
// unless start_date and end_date (YYYY-MM-DD) are given.
func (h *ReportsHandler) Sales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind := q.Get("tipo")
	if kind == "" && q.Get("start_date") == "" && q.Get("end_date") == "" {
		kind = enum.ReportDaily
	}

	summary, err := h.svc.Sales(r.Context(), service.ReportRequest{
		Kind:      kind,
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
	})
	if err != nil {
		writeServiceError(w, err, "sales report")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *ReportsHandler) Products(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	analysis, err := h.svc.Products(r.Context(), q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeServiceError(w, err, "product analysis")
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}
