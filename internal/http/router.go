package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ulule/limiter/v3"

	"github.com/MrJamesThe3rd/doctrack/internal/http/document"
	"github.com/MrJamesThe3rd/doctrack/internal/http/export"
	"github.com/MrJamesThe3rd/doctrack/internal/http/library"
	"github.com/MrJamesThe3rd/doctrack/internal/http/middleware"
	"github.com/MrJamesThe3rd/doctrack/internal/http/transaction"
)

type Config struct {
	JWTSecret      string
	AllowedOrigins []string
	// Limiter is optional; nil disables rate limiting.
	Limiter *limiter.Limiter
	Logger  *slog.Logger
}

func New(
	cfg Config,
	transactionsV1 *transaction.Handler,
	documentsV1 *document.Handler,
	libraryV1 *library.Handler,
	archivesV1 *export.Handler,
) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()

	router.Use(chimw.RealIP)
	router.Use(middleware.RequestLogger(logger))
	router.Use(chimw.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if cfg.Limiter != nil {
		router.Use(middleware.RateLimit(cfg.Limiter))
	}

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))

		r.Route("/transactions", func(r chi.Router) {
			r.Use(chimw.AllowContentType("application/json"))
			transactionsV1.Routes(r)
		})

		r.Route("/documents", func(r chi.Router) {
			r.Use(chimw.AllowContentType("application/json"))
			documentsV1.Routes(r)
		})

		r.Route("/library", libraryV1.Routes)
		r.Route("/archives", archivesV1.Routes)
	})

	return router
}
