package domain

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// Formation order statuses.
const (
	OrderStatusPending           = "pending"
	OrderStatusProcessing        = "processing"
	OrderStatusDocumentsPrepared = "documents_prepared"
	OrderStatusFiled             = "filed"
	OrderStatusCompleted         = "completed"
	OrderStatusCancelled         = "cancelled"
)

// FormationOrder is a paid order moving through the filing workflow.
type FormationOrder struct {
	ID               string          `json:"id"`
	OrderNumber      string          `json:"orderNumber"`
	UserID           string          `json:"userId,omitempty"`
	BusinessEntityID *string         `json:"businessEntityId,omitempty"`
	ServiceID        *string         `json:"serviceId,omitempty"`
	Status           string          `json:"status"`
	CurrentProgress  int             `json:"currentProgress"`
	TotalAmount      int64           `json:"totalAmount"`
	Currency         string          `json:"currency"`
	PaymentIntentID  string          `json:"paymentIntentId"`
	IsExpedited      bool            `json:"isExpedited"`
	EntityType       string          `json:"entityType,omitempty"`
	State            string          `json:"state,omitempty"`
	BusinessName     string          `json:"businessName,omitempty"`
	CustomerInfo     json.RawMessage `json:"customerInfo,omitempty"`
	BusinessInfo     json.RawMessage `json:"businessInfo,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// ValidStatuses returns all order statuses in workflow order.
func ValidStatuses() []string {
	return []string{
		OrderStatusPending,
		OrderStatusProcessing,
		OrderStatusDocumentsPrepared,
		OrderStatusFiled,
		OrderStatusCompleted,
		OrderStatusCancelled,
	}
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(status string) bool {
	return slices.Contains(ValidStatuses(), status)
}

// AllowedTransitions is the order workflow's adjacency list.
func AllowedTransitions() map[string][]string {
	return map[string][]string{
		OrderStatusPending:           {OrderStatusProcessing, OrderStatusCancelled},
		OrderStatusProcessing:        {OrderStatusDocumentsPrepared, OrderStatusCancelled},
		OrderStatusDocumentsPrepared: {OrderStatusFiled, OrderStatusCancelled},
		OrderStatusFiled:             {OrderStatusCompleted},
		OrderStatusCompleted:         {},
		OrderStatusCancelled:         {},
	}
}

// CanTransitionTo checks if the order can move to target.
func (o *FormationOrder) CanTransitionTo(target string) bool {
	return slices.Contains(AllowedTransitions()[o.Status], target)
}

// IsTerminal reports whether no further transitions are possible.
func (o *FormationOrder) IsTerminal() bool {
	return len(AllowedTransitions()[o.Status]) == 0
}

var statusProgress = map[string]int{
	OrderStatusPending:           10,
	OrderStatusProcessing:        25,
	OrderStatusDocumentsPrepared: 60,
	OrderStatusFiled:             80,
	OrderStatusCompleted:         100,
	OrderStatusCancelled:         0,
}

// ProgressForStatus returns the display percentage for status; unknown
// statuses are 0.
func ProgressForStatus(status string) int {
	return statusProgress[status]
}

// NewOrderNumber returns a human-facing order reference like PF-20261016-7KQ2M9.
func NewOrderNumber(now time.Time) string {
	const alphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"
	b := make([]byte, 6)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = alphabet[int(b[i])%len(alphabet)]
	}
	return fmt.Sprintf("PF-%s-%s", now.UTC().Format("20060102"), b)
}

// CustomerContact is the contact snapshot stored in CustomerInfo.
type CustomerContact struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Contact decodes CustomerInfo. Missing or malformed info yields a zero value.
func (o *FormationOrder) Contact() CustomerContact {
	var c CustomerContact
	if len(o.CustomerInfo) > 0 {
		_ = json.Unmarshal(o.CustomerInfo, &c)
	}
	return c
}
