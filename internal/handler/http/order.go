package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seansyed/parafort-sub010/internal/service"
	"github.com/seansyed/parafort-sub010/pkg/httputil"
	"github.com/seansyed/parafort-sub010/pkg/pagination"
)

// AdminOrderHandler serves the back-office formation order endpoints.
type AdminOrderHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

// NewAdminOrderHandler creates a new admin order HTTP handler.
func NewAdminOrderHandler(svc *service.OrderService, logger *slog.Logger) *AdminOrderHandler {
	return &AdminOrderHandler{service: svc, logger: logger}
}

// ListOrders handles GET /api/admin/formation-orders
func (h *AdminOrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromRequest(r)
	q := r.URL.Query()

	orders, total, err := h.service.ListOrders(r.Context(), service.ListOrdersInput{
		Status:  q.Get("status"),
		UserID:  q.Get("user_id"),
		Page:    p.Page,
		PerPage: p.PerPage,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(orders, total, p.Page, p.PerPage))
}

// GetOrder handles GET /api/admin/formation-orders/{id}
func (h *AdminOrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.service.GetOrder(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, order)
}

// UpdateStatus handles PATCH /api/admin/formation-orders/{id}
func (h *AdminOrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req service.UpdateStatusInput
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), id.String(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, order)
}
