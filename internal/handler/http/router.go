package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seansyed/parafort-sub010/internal/domain"
	"github.com/seansyed/parafort-sub010/internal/service"
	"github.com/seansyed/parafort-sub010/pkg/health"
	"github.com/seansyed/parafort-sub010/pkg/middleware"
)

// Services bundles the application services the router exposes.
type Services struct {
	Catalog       *service.CatalogService
	Auth          *service.AuthService
	Checkout      *service.CheckoutService
	Payment       *service.PaymentService
	Order         *service.OrderService
	Announcement  *service.AnnouncementService
	Entity        *service.EntityService
	CookieStore   sessions.Store
	Tokens        middleware.TokenValidator
	AuthRateLimit *middleware.RateLimiter
}

// RouterConfig holds the router's HTTP settings.
type RouterConfig struct {
	ServiceName    string
	RequestTimeout time.Duration
	CORS           middleware.CORSConfig
	PprofCIDRs     []string
}

// NewRouter creates a chi router with all ParaFort routes registered.
func NewRouter(svcs Services, healthHandler *health.Handler, logger *slog.Logger, cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	catalogHandler := NewCatalogHandler(svcs.Catalog, logger)
	authHandler := NewAuthHandler(svcs.Auth, logger)
	checkoutHandler := NewCheckoutHandler(svcs.Checkout, logger)
	paymentHandler := NewPaymentHandler(svcs.Payment, svcs.Order, logger)
	orderHandler := NewAdminOrderHandler(svcs.Order, logger)
	announcementHandler := NewAnnouncementHandler(svcs.Announcement, logger)
	entityHandler := NewEntityHandler(svcs.Entity, logger)
	cookieHandler := NewCookieHandler(svcs.CookieStore, logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(5 * time.Minute))
			r.Get("/services", catalogHandler.ListServices)
			r.Get("/services/{id}", catalogHandler.GetService)
			r.Get("/announcements", announcementHandler.ListVisible)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.NoStore)
			if svcs.AuthRateLimit != nil {
				r.Use(svcs.AuthRateLimit.Handler)
			}
			r.Post("/send-verification", authHandler.SendVerification)
			r.Post("/verify-email", authHandler.VerifyEmail)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		r.Route("/checkout/sessions", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Post("/", checkoutHandler.Start)
			r.Get("/{id}", withCheckoutSession(checkoutHandler.Get))
			r.Post("/{id}/next", withCheckoutSession(checkoutHandler.Next))
			r.Post("/{id}/back", withCheckoutSession(checkoutHandler.Back))
			r.Get("/{id}/review", withCheckoutSession(checkoutHandler.Review))
			r.Put("/{id}/service-questions", withCheckoutSession(checkoutHandler.SetServiceQuestions))
			r.Put("/{id}/client-information", withCheckoutSession(checkoutHandler.SetClientInformation))
			r.Post("/{id}/payment-intent", withCheckoutSession(checkoutHandler.CreatePaymentIntent))

			r.Group(func(r chi.Router) {
				if svcs.AuthRateLimit != nil {
					r.Use(svcs.AuthRateLimit.Handler)
				}
				r.Post("/{id}/send-code", withCheckoutSession(checkoutHandler.SendCode))
				r.Post("/{id}/verify-email", withCheckoutSession(checkoutHandler.VerifyEmail))
				r.Post("/{id}/account", withCheckoutSession(checkoutHandler.CreateAccount))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Use(middleware.OptionalAuth(svcs.Tokens))
			r.Get("/stripe/config", paymentHandler.StripeConfig)
			r.Post("/create-payment-intent", paymentHandler.CreatePaymentIntent)
			r.Post("/complete-formation-order", paymentHandler.CompleteFormationOrder)
		})

		r.Post("/stripe/webhook", paymentHandler.Webhook)

		r.Route("/cookie-preferences", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Get("/", cookieHandler.Get)
			r.Put("/", cookieHandler.Update)
			r.Post("/reject-optional", cookieHandler.RejectOptional)
			r.Post("/accept-all", cookieHandler.AcceptAll)
		})

		r.Route("/business-entities/{id}", func(r chi.Router) {
			r.Use(middleware.Auth(svcs.Tokens))
			r.Get("/", entityHandler.Get)
			r.Get("/formation-orders", entityHandler.ListOrders)
			r.Get("/documents", entityHandler.ListDocuments)
			r.Get("/compliance", entityHandler.ListCompliance)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(svcs.Tokens))
			r.Use(middleware.RequireRole(domain.RoleAdmin))
			r.Use(middleware.NoStore)

			r.Get("/formation-orders", orderHandler.ListOrders)
			r.Get("/formation-orders/{id}", orderHandler.GetOrder)
			r.Patch("/formation-orders/{id}", orderHandler.UpdateStatus)

			r.Get("/announcements", announcementHandler.List)
			r.Post("/announcements", announcementHandler.Create)
			r.Get("/announcements/{id}", announcementHandler.Get)
			r.Put("/announcements/{id}", announcementHandler.Update)
			r.Delete("/announcements/{id}", announcementHandler.Delete)
		})
	})

	return r
}
