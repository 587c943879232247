package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"idverify/internal/handlers"
	"idverify/internal/metrics"
	"idverify/internal/middleware"
)

type Options struct {
	AllowedOrigins []string
	// Limiter throttles the upload routes when set.
	Limiter        middleware.Counter
	RateLimit      middleware.RateLimitConfig
	OperatorSecret []byte
	RequestTimeout time.Duration
}

func RegisterRouter(api *handlers.API, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(opts.AllowedOrigins))
	r.Use(middleware.LoggingMiddleware)

	r.Get("/healthz", api.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if opts.RequestTimeout > 0 {
			r.Use(chimw.Timeout(opts.RequestTimeout))
		}

		// Uploads run OCR and classification and are throttled.
		r.Group(func(r chi.Router) {
			if opts.Limiter != nil {
				r.Use(middleware.RateLimit(opts.Limiter, opts.RateLimit))
			}
			r.Post("/verify-document", api.VerifyDocument)
			r.Post("/ocr", api.ExtractFields)
			r.Post("/classify", api.ClassifyDocument)
			r.Post("/verify-batch", api.VerifyBatch)
		})

		r.Post("/verify", api.VerifyFields)

		// Share links (token required via query param)
		r.Post("/verifications/{id}/share-link", api.GenerateShareLink)
		r.Get("/verifications/{id}", api.GetVerificationInfo)
		r.Get("/verifications/{id}/qrcode", api.GetVerificationQRCode)

		r.Group(func(r chi.Router) {
			r.Use(middleware.OperatorAuth(opts.OperatorSecret))
			r.Get("/verifications", api.ListVerifications)
		})
	})
	return r
}
