package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/systemsmatic/backend/internal/http/handlers"
	httpmiddleware "github.com/systemsmatic/backend/internal/http/middleware"
	"github.com/systemsmatic/backend/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	PublicHandler      *handlers.PublicHandler
	EmailActions       *handlers.EmailActionsHandler
	AuthHandler        *handlers.AuthHandler
	AdminAppointments  *handlers.AdminAppointmentsHandler
	AdminQuotes        *handlers.AdminQuotesHandler
	AdminDashboard     *handlers.AdminDashboardHandler
	AdminJWTSecret     string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// FormRatePerSecond caps public form submissions per IP. Zero disables
	// the limiter (tests, local dev).
	FormRatePerSecond float64
	FormBurst         int
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints: the website forms, the email action links and login.
	r.Group(func(public chi.Router) {
		public.Get("/health", cfg.PublicHandler.Health)

		public.Group(func(forms chi.Router) {
			if cfg.FormRatePerSecond > 0 {
				forms.Use(httpmiddleware.RateLimit(cfg.FormRatePerSecond, cfg.FormBurst))
			}
			forms.Post("/appointments", cfg.PublicHandler.CreateAppointment)
			forms.Post("/quotes", cfg.PublicHandler.CreateQuote)
		})

		public.Mount("/email-actions", cfg.EmailActions.Routes())
		public.Post("/auth/login", cfg.AuthHandler.Login)

		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Backoffice endpoints behind the admin JWT.
	r.Route("/backoffice", func(admin chi.Router) {
		admin.Use(httpmiddleware.AdminJWT(cfg.AdminJWTSecret))
		admin.Get("/profile", cfg.AuthHandler.Profile)
		admin.Mount("/appointments", cfg.AdminAppointments.Routes())
		admin.Mount("/quotes", cfg.AdminQuotes.Routes())
		admin.Mount("/dashboard", cfg.AdminDashboard.Routes())
	})

	return r
}
