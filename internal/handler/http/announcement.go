package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/seansyed/parafort-sub010/internal/service"
	"github.com/seansyed/parafort-sub010/pkg/httputil"
	"github.com/seansyed/parafort-sub010/pkg/middleware"
	"github.com/seansyed/parafort-sub010/pkg/pagination"
)

// AnnouncementHandler serves public and admin announcement endpoints.
type AnnouncementHandler struct {
	service *service.AnnouncementService
	logger  *slog.Logger
}

// NewAnnouncementHandler creates a new announcement HTTP handler.
func NewAnnouncementHandler(svc *service.AnnouncementService, logger *slog.Logger) *AnnouncementHandler {
	return &AnnouncementHandler{service: svc, logger: logger}
}

// ListVisible handles GET /api/announcements
func (h *AnnouncementHandler) ListVisible(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListVisible(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, list)
}

// List handles GET /api/admin/announcements
func (h *AnnouncementHandler) List(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromRequest(r)
	input := service.ListAnnouncementsInput{
		Type:    r.URL.Query().Get("type"),
		Page:    p.Page,
		PerPage: p.PerPage,
	}
	if v := r.URL.Query().Get("is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "is_active must be true or false"},
			})
			return
		}
		input.IsActive = &active
	}

	list, total, err := h.service.List(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(list, total, p.Page, p.PerPage))
}

// Get handles GET /api/admin/announcements/{id}
func (h *AnnouncementHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	a, err := h.service.Get(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, a)
}

// Create handles POST /api/admin/announcements
func (h *AnnouncementHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.AnnouncementInput
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	a, err := h.service.Create(r.Context(), req, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, a)
}

// Update handles PUT /api/admin/announcements/{id}
func (h *AnnouncementHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req service.AnnouncementInput
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	a, err := h.service.Update(r.Context(), id.String(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, a)
}

// Delete handles DELETE /api/admin/announcements/{id}
func (h *AnnouncementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
