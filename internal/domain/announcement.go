package domain

import (
	"slices"
	"time"
)

// Announcement types.
const (
	AnnouncementInfo        = "info"
	AnnouncementWarning     = "warning"
	AnnouncementSuccess     = "success"
	AnnouncementMaintenance = "maintenance"
)

// Announcement is a banner shown to customers.
type Announcement struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Type      string     `json:"type"`
	IsActive  bool       `json:"isActive"`
	StartsAt  *time.Time `json:"startsAt,omitempty"`
	EndsAt    *time.Time `json:"endsAt,omitempty"`
	CreatedBy string     `json:"createdBy,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// IsValidAnnouncementType checks t against the known types.
func IsValidAnnouncementType(t string) bool {
	return slices.Contains([]string{AnnouncementInfo, AnnouncementWarning, AnnouncementSuccess, AnnouncementMaintenance}, t)
}

// VisibleAt reports whether the announcement should be shown at now.
func (a *Announcement) VisibleAt(now time.Time) bool {
	if !a.IsActive {
		return false
	}
	if a.StartsAt != nil && now.Before(*a.StartsAt) {
		return false
	}
	if a.EndsAt != nil && !now.Before(*a.EndsAt) {
		return false
	}
	return true
}
