package domain

import (
	"strings"
	"time"
)

// ServiceKind selects which set of questions a service asks at checkout.
type ServiceKind string

const (
	KindFormation       ServiceKind = "formation"
	KindCompliance      ServiceKind = "compliance"
	KindRegisteredAgent ServiceKind = "registered_agent"
	KindGeneral         ServiceKind = "general"
)

// Service types sold through the catalog.
const (
	ServiceTypeLLCFormation         = "llc_formation"
	ServiceTypeCorporationFormation = "corporation_formation"
	ServiceTypeNonprofitFormation   = "nonprofit_formation"
	ServiceTypeAnnualReport         = "annual_report"
	ServiceTypeBOIR                 = "boir"
	ServiceTypeRegisteredAgent      = "registered_agent"
	ServiceTypeEINApplication       = "ein_application"
)

// KindForServiceType maps a catalog service type to its question kind.
// Unknown types ask no questions.
func KindForServiceType(serviceType string) ServiceKind {
	t := strings.ToLower(strings.TrimSpace(serviceType))
	switch {
	case strings.HasSuffix(t, "formation"):
		return KindFormation
	case t == ServiceTypeAnnualReport, t == ServiceTypeBOIR, strings.HasPrefix(t, "compliance"):
		return KindCompliance
	case t == ServiceTypeRegisteredAgent:
		return KindRegisteredAgent
	default:
		return KindGeneral
	}
}

// Service is a purchasable catalog entry. Prices are in cents.
type Service struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	ServiceType    string    `json:"serviceType"`
	Description    string    `json:"description,omitempty"`
	OneTimePrice   int64     `json:"-"`
	ExpeditedPrice *int64    `json:"-"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ExpediteFee is the service's expedited price, or DefaultExpediteFee when
// the service does not set one.
func (s *Service) ExpediteFee(fallback int64) int64 {
	if s.ExpeditedPrice != nil {
		return *s.ExpeditedPrice
	}
	return fallback
}

// Snapshot freezes the fields a checkout session needs.
func (s *Service) Snapshot(defaultFee int64) ServiceSnapshot {
	return ServiceSnapshot{
		ID:             s.ID,
		Name:           s.Name,
		ServiceType:    s.ServiceType,
		OneTimePrice:   s.OneTimePrice,
		ExpeditedPrice: s.ExpediteFee(defaultFee),
	}
}

// ServiceSnapshot is the service as captured when a checkout session starts.
// It does not change for the lifetime of the session.
type ServiceSnapshot struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ServiceType    string `json:"serviceType"`
	OneTimePrice   int64  `json:"oneTimePrice"`
	ExpeditedPrice int64  `json:"expeditedPrice"`
}

// Kind returns the question kind of the snapshotted service.
func (s ServiceSnapshot) Kind() ServiceKind {
	return KindForServiceType(s.ServiceType)
}
