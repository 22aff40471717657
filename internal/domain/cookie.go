package domain

// CookiePreferences are the visitor's consent choices. Essential cookies
// cannot be declined.
type CookiePreferences struct {
	Essential   bool `json:"essential"`
	Analytics   bool `json:"analytics"`
	Marketing   bool `json:"marketing"`
	Preferences bool `json:"preferences"`
}

// Normalize forces essential on.
func (p CookiePreferences) Normalize() CookiePreferences {
	p.Essential = true
	return p
}

// RejectOptional declines every optional category.
func RejectOptional() CookiePreferences {
	return CookiePreferences{Essential: true}
}

// AcceptAll consents to every category.
func AcceptAll() CookiePreferences {
	return CookiePreferences{Essential: true, Analytics: true, Marketing: true, Preferences: true}
}

// DefaultCookiePreferences apply until the visitor makes a choice.
func DefaultCookiePreferences() CookiePreferences {
	return RejectOptional()
}
