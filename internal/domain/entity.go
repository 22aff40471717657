package domain

import "time"

// BusinessEntity is a company owned by a customer.
type BusinessEntity struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	Name          string     `json:"name"`
	EntityType    string     `json:"entityType"`
	State         string     `json:"state"`
	Status        string     `json:"status"`
	EIN           *string    `json:"ein,omitempty"`
	FormationDate *time.Time `json:"formationDate,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Document is a file attached to a business entity.
type Document struct {
	ID               string    `json:"id"`
	BusinessEntityID string    `json:"businessEntityId"`
	Name             string    `json:"name"`
	DocumentType     string    `json:"documentType"`
	FileURL          string    `json:"fileUrl"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Compliance filing types.
const (
	FilingAnnualReport = "annual_report"
	FilingBOIR         = "boir"
	FilingLicense      = "license"
	FilingTax          = "tax"
)

// ComplianceCompleted marks a filed compliance item.
const ComplianceCompleted = "completed"

// ComplianceItem is a recurring filing due for an entity.
type ComplianceItem struct {
	ID               string    `json:"id"`
	BusinessEntityID string    `json:"businessEntityId"`
	Title            string    `json:"title"`
	FilingType       string    `json:"filingType"`
	DueDate          time.Time `json:"dueDate"`
	Status           string    `json:"status"`
	Fee              int64     `json:"fee"`
	Overdue          bool      `json:"overdue"`
}

// MarkOverdue sets Overdue for items past due and not completed.
func (c *ComplianceItem) MarkOverdue(now time.Time) {
	c.Overdue = c.Status != ComplianceCompleted && now.After(c.DueDate)
}
