package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/seansyed/parafort-sub010/internal/domain"
	"github.com/seansyed/parafort-sub010/pkg/httputil"
)

// CookiePreferencesName is the name of the signed consent cookie.
const CookiePreferencesName = "cookiePreferences"

const (
	prefsKey    = "prefs"
	prefsMaxAge = 365 * 24 * 60 * 60
)

// CookieHandler stores the visitor's cookie consent in a signed cookie.
type CookieHandler struct {
	store  sessions.Store
	logger *slog.Logger
}

// NewCookieStore returns the signed cookie store for consent preferences.
func NewCookieStore(secret []byte, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   prefsMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// NewCookieHandler creates a new cookie preference HTTP handler.
func NewCookieHandler(store sessions.Store, logger *slog.Logger) *CookieHandler {
	return &CookieHandler{store: store, logger: logger}
}

// Get handles GET /api/cookie-preferences
func (h *CookieHandler) Get(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.load(r))
}

// Update handles PUT /api/cookie-preferences
func (h *CookieHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.CookiePreferences
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	h.save(w, r, req)
}

// RejectOptional handles POST /api/cookie-preferences/reject-optional
func (h *CookieHandler) RejectOptional(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, domain.RejectOptional())
}

// AcceptAll handles POST /api/cookie-preferences/accept-all
func (h *CookieHandler) AcceptAll(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, domain.AcceptAll())
}

// load returns the stored preferences, or the defaults when the cookie is
// missing or fails verification.
func (h *CookieHandler) load(r *http.Request) domain.CookiePreferences {
	session, err := h.store.Get(r, CookiePreferencesName)
	if err != nil {
		h.logger.DebugContext(r.Context(), "ignoring unreadable cookie preferences", slog.String("error", err.Error()))
		return domain.DefaultCookiePreferences()
	}
	raw, ok := session.Values[prefsKey].(string)
	if !ok {
		return domain.DefaultCookiePreferences()
	}
	var prefs domain.CookiePreferences
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return domain.DefaultCookiePreferences()
	}
	return prefs.Normalize()
}

func (h *CookieHandler) save(w http.ResponseWriter, r *http.Request, prefs domain.CookiePreferences) {
	prefs = prefs.Normalize()

	// A tampered cookie yields an error alongside a fresh session, which is
	// what we want to overwrite it with.
	session, _ := h.store.Get(r, CookiePreferencesName)
	raw, err := json.Marshal(prefs)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	session.Values[prefsKey] = string(raw)
	if err := session.Save(r, w); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, prefs)
}
