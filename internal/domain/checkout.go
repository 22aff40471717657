package domain

import (
	"strings"
	"time"

	apperrors "github.com/seansyed/parafort-sub010/pkg/errors"
)

// EmailData tracks the email verification step. The code itself lives only
// in the verification store.
type EmailData struct {
	Email      string `json:"email"`
	IsVerified bool   `json:"isVerified"`
	CodeSent   bool   `json:"codeSent"`
}

// AccountData tracks the account step. Passwords are never kept.
type AccountData struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	UserID    string `json:"userId,omitempty"`
}

// ClientInformation is the contact and business address captured before review.
type ClientInformation struct {
	FirstName    string `json:"firstName" validate:"required,max=100"`
	LastName     string `json:"lastName" validate:"required,max=100"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"required,min=7,max=30"`
	BusinessName string `json:"businessName,omitempty" validate:"omitempty,max=200"`
	AddressLine1 string `json:"addressLine1" validate:"required,max=200"`
	AddressLine2 string `json:"addressLine2,omitempty" validate:"omitempty,max=200"`
	City         string `json:"city" validate:"required,max=100"`
	State        string `json:"state" validate:"required,usstate"`
	PostalCode   string `json:"postalCode" validate:"required,min=5,max=10"`
}

// CheckoutSession is the server-held state of one run through the wizard.
type CheckoutSession struct {
	ID                string             `json:"id"`
	Service           ServiceSnapshot    `json:"service"`
	Email             EmailData          `json:"emailData"`
	Account           AccountData        `json:"accountData"`
	Questions         *ServiceQuestions  `json:"serviceQuestions,omitempty"`
	ClientInformation *ClientInformation `json:"clientInformation,omitempty"`
	IsExpedited       bool               `json:"isExpedited"`
	CurrentStep       Step               `json:"currentStep"`
	PaymentIntentID   string             `json:"paymentIntentId,omitempty"`
	CreatedAt         time.Time          `json:"createdAt"`
	ExpiresAt         time.Time          `json:"expiresAt"`
}

// NewCheckoutSession starts a session on the email step.
func NewCheckoutSession(id string, svc ServiceSnapshot, now time.Time, ttl time.Duration) *CheckoutSession {
	return &CheckoutSession{
		ID:          id,
		Service:     svc,
		CurrentStep: StepEmail,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
}

// Touch slides the expiry forward.
func (cs *CheckoutSession) Touch(now time.Time, ttl time.Duration) {
	cs.ExpiresAt = now.Add(ttl)
}

// Reached returns ErrStepOutOfOrder unless the cursor is at or past step.
func (cs *CheckoutSession) Reached(step Step) error {
	if cs.CurrentStep < step {
		return ErrStepOutOfOrder
	}
	return nil
}

// Advance moves the cursor forward if the current step is complete.
func (cs *CheckoutSession) Advance() error {
	if !StepComplete(cs, cs.CurrentStep) {
		return ErrStepIncomplete
	}
	cs.CurrentStep = cs.CurrentStep.Next()
	return nil
}

// Back moves the cursor one step back. Data entered on later steps is kept.
func (cs *CheckoutSession) Back() {
	cs.CurrentStep = cs.CurrentStep.Prev()
}

// completeStep moves the cursor past step once its data is stored. The
// cursor never moves backwards, so redoing an earlier step after Back keeps
// the progress already made.
func (cs *CheckoutSession) completeStep(step Step) error {
	if !StepComplete(cs, step) {
		return ErrStepIncomplete
	}
	if next := step.Next(); next > cs.CurrentStep {
		cs.CurrentStep = next
	}
	return nil
}

// SetEmail records the address a code was sent to. Changing the address
// clears any earlier verification and returns the cursor to the email step.
func (cs *CheckoutSession) SetEmail(email string) error {
	if err := cs.Reached(StepEmail); err != nil {
		return err
	}
	email = NormalizeEmail(email)
	if cs.Account.UserID != "" && email != cs.Email.Email {
		return apperrors.InvalidInput("email cannot be changed after the account is created")
	}
	if email != cs.Email.Email {
		cs.Email = EmailData{Email: email}
		cs.CurrentStep = StepEmail
	}
	cs.Email.CodeSent = true
	return nil
}

// MarkEmailVerified records a successful code check and moves to the account step.
func (cs *CheckoutSession) MarkEmailVerified() error {
	if !cs.Email.CodeSent {
		return apperrors.InvalidInput("no verification code has been sent")
	}
	cs.Email.IsVerified = true
	return cs.completeStep(StepEmail)
}

// ExpireVerification drops a verification that the verification store no
// longer vouches for and returns the cursor to the email step.
func (cs *CheckoutSession) ExpireVerification() {
	cs.Email.IsVerified = false
	cs.CurrentStep = StepEmail
}

// SetAccount records the created user and moves to the service questions step.
func (cs *CheckoutSession) SetAccount(firstName, lastName, userID string) error {
	if err := cs.Reached(StepAccount); err != nil {
		return err
	}
	cs.Account = AccountData{FirstName: firstName, LastName: lastName, UserID: userID}
	return cs.completeStep(StepAccount)
}

// ResumeAccount moves past the account step when an account was already
// created in this session.
func (cs *CheckoutSession) ResumeAccount() error {
	if err := cs.Reached(StepAccount); err != nil {
		return err
	}
	return cs.completeStep(StepAccount)
}

// SetServiceQuestions stores the answers and processing choice.
func (cs *CheckoutSession) SetServiceQuestions(q *ServiceQuestions) error {
	if err := cs.Reached(StepServiceQuestions); err != nil {
		return err
	}
	if q.Kind != cs.Service.Kind() {
		return apperrors.InvalidInput("answers do not match the selected service")
	}
	if cs.PaymentIntentID != "" && q.IsExpedited() != cs.IsExpedited {
		return apperrors.Conflict("processing speed cannot change after payment has started")
	}
	cs.Questions = q
	cs.IsExpedited = q.IsExpedited()
	return cs.completeStep(StepServiceQuestions)
}

// SetClientInformation stores the contact details and moves to review.
func (cs *CheckoutSession) SetClientInformation(ci *ClientInformation) error {
	if err := cs.Reached(StepClientInformation); err != nil {
		return err
	}
	ci.State = strings.ToUpper(ci.State)
	ci.Email = NormalizeEmail(ci.Email)
	cs.ClientInformation = ci
	return cs.completeStep(StepClientInformation)
}

// ReadyForReview reports whether every step before review is complete.
func (cs *CheckoutSession) ReadyForReview() error {
	if err := cs.Reached(StepReview); err != nil {
		return err
	}
	for s := FirstStep; s < StepReview; s++ {
		if !StepComplete(cs, s) {
			return ErrStepIncomplete
		}
	}
	return nil
}

// TotalCents is the amount due for the session.
func (cs *CheckoutSession) TotalCents() int64 {
	return CalculateTotal(cs.Service.OneTimePrice, cs.Service.ExpeditedPrice, cs.IsExpedited)
}

// Review is the summary shown before payment.
type Review struct {
	SessionID         string             `json:"sessionId"`
	Service           ServiceSnapshot    `json:"service"`
	Email             string             `json:"email"`
	Processing        string             `json:"processing"`
	Questions         *ServiceQuestions  `json:"serviceQuestions"`
	ClientInformation *ClientInformation `json:"clientInformation"`
	BasePrice         string             `json:"basePrice"`
	ExpediteFee       string             `json:"expediteFee"`
	Total             string             `json:"total"`
	TotalCents        int64              `json:"totalCents"`
	PaymentIntentID   string             `json:"paymentIntentId,omitempty"`
}

// Review builds the summary. The session must have reached review.
func (cs *CheckoutSession) Review() (*Review, error) {
	if err := cs.ReadyForReview(); err != nil {
		return nil, err
	}

	fee := int64(0)
	if cs.IsExpedited {
		fee = cs.Service.ExpeditedPrice
	}
	return &Review{
		SessionID:         cs.ID,
		Service:           cs.Service,
		Email:             cs.Email.Email,
		Processing:        cs.Questions.Processing,
		Questions:         cs.Questions,
		ClientInformation: cs.ClientInformation,
		BasePrice:         FormatAmount(cs.Service.OneTimePrice),
		ExpediteFee:       FormatAmount(fee),
		Total:             FormatAmount(cs.TotalCents()),
		TotalCents:        cs.TotalCents(),
		PaymentIntentID:   cs.PaymentIntentID,
	}, nil
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
