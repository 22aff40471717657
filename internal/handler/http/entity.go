package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seansyed/parafort-sub010/internal/service"
	"github.com/seansyed/parafort-sub010/pkg/httputil"
	"github.com/seansyed/parafort-sub010/pkg/pagination"
)

// EntityHandler serves a customer's business entities.
type EntityHandler struct {
	service *service.EntityService
	logger  *slog.Logger
}

// NewEntityHandler creates a new business entity HTTP handler.
func NewEntityHandler(svc *service.EntityService, logger *slog.Logger) *EntityHandler {
	return &EntityHandler{service: svc, logger: logger}
}

// Get handles GET /api/business-entities/{id}
func (h *EntityHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	e, err := h.service.Get(r.Context(), id.String(), callerFrom(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, e)
}

// ListOrders handles GET /api/business-entities/{id}/formation-orders
func (h *EntityHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	p := pagination.FromRequest(r)
	orders, total, err := h.service.ListOrders(r.Context(), id.String(), callerFrom(r), p.Page, p.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(orders, total, p.Page, p.PerPage))
}

// ListDocuments handles GET /api/business-entities/{id}/documents
func (h *EntityHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	docs, err := h.service.ListDocuments(r.Context(), id.String(), callerFrom(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, docs)
}

// ListCompliance handles GET /api/business-entities/{id}/compliance
func (h *EntityHandler) ListCompliance(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	items, err := h.service.ListCompliance(r.Context(), id.String(), callerFrom(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, items)
}
