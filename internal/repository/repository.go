package repository

import (
	"context"
	"time"

	"github.com/seansyed/parafort-sub010/internal/domain"
)

// ServiceRepository reads the service catalog.
type ServiceRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Service, error)
	ListActive(ctx context.Context) ([]domain.Service, error)
}

// ServiceCache is a read-through cache in front of ServiceRepository.
// Get returns a NotFound error on a miss.
type ServiceCache interface {
	Get(ctx context.Context, id string) (*domain.Service, error)
	Set(ctx context.Context, svc *domain.Service) error
	Delete(ctx context.Context, id string) error
}

// UserRepository persists accounts.
type UserRepository interface {
	// Create inserts u, filling ID and timestamps. A duplicate email yields an
	// AlreadyExists error.
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// OrderFilter selects formation orders for listing.
type OrderFilter struct {
	Status           *string
	UserID           *string
	BusinessEntityID *string
	Page             int
	PerPage          int
}

// OrderRepository persists formation orders.
type OrderRepository interface {
	// CreateOrGet inserts o unless an order for the same PaymentIntent
	// exists, in which case that order is returned and created is false.
	CreateOrGet(ctx context.Context, o *domain.FormationOrder) (order *domain.FormationOrder, created bool, err error)

	GetByID(ctx context.Context, id string) (*domain.FormationOrder, error)
	GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*domain.FormationOrder, error)

	// List returns one page of matching orders and the total match count.
	List(ctx context.Context, filter OrderFilter) ([]domain.FormationOrder, int, error)

	// UpdateStatus moves the order from one status to another. It fails with
	// a Conflict error when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id, from, to string, progress int) (*domain.FormationOrder, error)

	// AttachEntity sets the business entity of an order that has none. An
	// order already linked to another entity is a Conflict.
	AttachEntity(ctx context.Context, id, entityID string) (*domain.FormationOrder, error)
}

// AnnouncementFilter selects announcements for the admin list.
type AnnouncementFilter struct {
	Type     *string
	IsActive *bool
	Page     int
	PerPage  int
}

// AnnouncementRepository persists announcements.
type AnnouncementRepository interface {
	Create(ctx context.Context, a *domain.Announcement) error
	GetByID(ctx context.Context, id string) (*domain.Announcement, error)
	Update(ctx context.Context, a *domain.Announcement) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter AnnouncementFilter) ([]domain.Announcement, int, error)
	// ListVisible returns active announcements whose window contains now.
	ListVisible(ctx context.Context, now time.Time) ([]domain.Announcement, error)
}

// EntityRepository reads business entities and their attachments.
type EntityRepository interface {
	GetByID(ctx context.Context, id string) (*domain.BusinessEntity, error)
	ListDocuments(ctx context.Context, entityID string) ([]domain.Document, error)
	ListCompliance(ctx context.Context, entityID string) ([]domain.ComplianceItem, error)
}

// CheckoutSessionStore keeps checkout sessions with a sliding expiry.
// Get returns a NotFound error for missing or expired sessions.
type CheckoutSessionStore interface {
	Save(ctx context.Context, cs *domain.CheckoutSession, ttl time.Duration) error
	Get(ctx context.Context, id string) (*domain.CheckoutSession, error)
	Delete(ctx context.Context, id string) error
}

// CodeCheck is the outcome of comparing a submitted verification code.
type CodeCheck int

const (
	CodeMatched CodeCheck = iota
	CodeMismatch
	CodeMissing
	CodeLocked
)

// VerificationStore keeps hashed email verification codes.
type VerificationStore interface {
	// AcquireResendSlot returns false while a code sent to email is still in
	// its cooldown window.
	AcquireResendSlot(ctx context.Context, email string, cooldown time.Duration) (bool, error)
	// ReleaseResendSlot frees the slot when sending failed.
	ReleaseResendSlot(ctx context.Context, email string) error
	// SaveCode replaces any previous code for email and resets its attempts.
	SaveCode(ctx context.Context, email, codeHash string, ttl time.Duration) error
	// CheckCode compares codeHash with the stored one. A match consumes the
	// code; reaching maxAttempts mismatches invalidates it.
	CheckCode(ctx context.Context, email, codeHash string, maxAttempts int) (CodeCheck, error)
	MarkVerified(ctx context.Context, email string, ttl time.Duration) error
	IsVerified(ctx context.Context, email string) (bool, error)
}
