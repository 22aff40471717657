package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCookiePreferences(t *testing.T) {
	assert.Equal(t, CookiePreferences{Essential: true}, RejectOptional())
	assert.Equal(t, CookiePreferences{Essential: true, Analytics: true, Marketing: true, Preferences: true}, AcceptAll())

	p := CookiePreferences{Essential: false, Marketing: true}.Normalize()
	assert.True(t, p.Essential)
	assert.True(t, p.Marketing)
}

func TestAnnouncement_VisibleAt(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	before := now.Add(-time.Hour)
	after := now.Add(time.Hour)

	assert.True(t, (&Announcement{IsActive: true}).VisibleAt(now))
	assert.False(t, (&Announcement{IsActive: false}).VisibleAt(now))
	assert.False(t, (&Announcement{IsActive: true, StartsAt: &after}).VisibleAt(now))
	assert.False(t, (&Announcement{IsActive: true, EndsAt: &before}).VisibleAt(now))
	assert.True(t, (&Announcement{IsActive: true, StartsAt: &before, EndsAt: &after}).VisibleAt(now))
}

func TestComplianceItem_MarkOverdue(t *testing.T) {
	now := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

	item := &ComplianceItem{Status: "pending", DueDate: now.AddDate(0, 0, -1)}
	item.MarkOverdue(now)
	assert.True(t, item.Overdue)

	item = &ComplianceItem{Status: ComplianceCompleted, DueDate: now.AddDate(0, 0, -1)}
	item.MarkOverdue(now)
	assert.False(t, item.Overdue)

	item = &ComplianceItem{Status: "pending", DueDate: now.AddDate(0, 1, 0)}
	item.MarkOverdue(now)
	assert.False(t, item.Overdue)
}
