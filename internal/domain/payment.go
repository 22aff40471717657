package domain

// PaymentIntent statuses as reported by the provider.
const (
	PaymentStatusRequiresPaymentMethod = "requires_payment_method"
	PaymentStatusRequiresConfirmation  = "requires_confirmation"
	PaymentStatusRequiresAction        = "requires_action"
	PaymentStatusProcessing            = "processing"
	PaymentStatusSucceeded             = "succeeded"
	PaymentStatusCanceled              = "canceled"
)

// PaymentIntent is the provider-side record of an attempted charge.
type PaymentIntent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"clientSecret,omitempty"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Status       string            `json:"status"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Succeeded reports whether the charge went through.
func (pi *PaymentIntent) Succeeded() bool {
	return pi.Status == PaymentStatusSucceeded
}

// Metadata keys written on every PaymentIntent.
const (
	MetaServiceID         = "serviceId"
	MetaCheckoutSessionID = "checkoutSessionId"
	MetaUserID            = "userId"
	MetaAmount            = "amount"
	MetaExpedited         = "isExpedited"
	MetaEntityType        = "entityType"
	MetaState             = "state"
	MetaBusinessName      = "businessName"
	MetaCustomerEmail     = "customerEmail"
	MetaCustomerFirstName = "customerFirstName"
	MetaCustomerLastName  = "customerLastName"
	MetaCustomerPhone     = "customerPhone"
)

// OrderDraft is what the client sends to create a PaymentIntent outside the
// checkout session flow. The amount is always computed server-side.
type OrderDraft struct {
	ServiceID     string `json:"serviceId" validate:"required,uuid"`
	IsExpedited   bool   `json:"isExpedited"`
	EntityType    string `json:"entityType" validate:"omitempty,max=50"`
	State         string `json:"state" validate:"omitempty,usstate"`
	BusinessName  string `json:"businessName" validate:"omitempty,max=200"`
	CustomerEmail string `json:"customerEmail" validate:"omitempty,email"`
	FirstName     string `json:"firstName" validate:"omitempty,max=100"`
	LastName      string `json:"lastName" validate:"omitempty,max=100"`
	Phone         string `json:"phone" validate:"omitempty,max=30"`
}

// PaymentIntentParams are passed to the provider when creating an intent.
type PaymentIntentParams struct {
	Amount         int64
	Currency       string
	Description    string
	ReceiptEmail   string
	Metadata       map[string]string
	IdempotencyKey string
}
