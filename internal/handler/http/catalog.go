package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seansyed/parafort-sub010/internal/domain"
	"github.com/seansyed/parafort-sub010/internal/service"
	"github.com/seansyed/parafort-sub010/pkg/httputil"
)

// CatalogHandler serves the public service catalog.
type CatalogHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(svc *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{service: svc, logger: logger}
}

// ServiceResponse is a catalog entry with prices as decimal strings.
type ServiceResponse struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	ServiceType    string  `json:"serviceType"`
	Description    string  `json:"description,omitempty"`
	OneTimePrice   string  `json:"oneTimePrice"`
	ExpeditedPrice *string `json:"expeditedPrice,omitempty"`
	IsActive       bool    `json:"isActive"`
}

func newServiceResponse(s *domain.Service) ServiceResponse {
	resp := ServiceResponse{
		ID:           s.ID,
		Name:         s.Name,
		ServiceType:  s.ServiceType,
		Description:  s.Description,
		OneTimePrice: domain.FormatAmount(s.OneTimePrice),
		IsActive:     s.IsActive,
	}
	if s.ExpeditedPrice != nil {
		p := domain.FormatAmount(*s.ExpeditedPrice)
		resp.ExpeditedPrice = &p
	}
	return resp
}

// ListServices handles GET /api/services
func (h *CatalogHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.service.ListServices(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	out := make([]ServiceResponse, len(services))
	for i := range services {
		out[i] = newServiceResponse(&services[i])
	}
	httputil.WriteData(w, http.StatusOK, out)
}

// GetService handles GET /api/services/{id}
func (h *CatalogHandler) GetService(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	svc, err := h.service.GetActiveService(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, newServiceResponse(svc))
}
