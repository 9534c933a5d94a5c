package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"registration-service/config"
	"registration-service/internal/handler"
	"registration-service/pkg/middleware"
)

type Handlers struct {
	Auth     *handler.AuthHandler
	Admin    *handler.AdminHandler
	Referral *handler.ReferralHandler
	Pricing  *handler.PricingHandler
	Payment  *handler.PaymentHandler
}

func Setup(
	h Handlers,
	auth *middleware.AuthMiddleware,
	rdb *redis.Client,
	rl config.RateLimitConfig,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(loggerMiddleware(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	throttled := middleware.RateLimiter(rdb, logger, rl.Limit, rl.Window, rl.BlockDuration, "rl")

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.With(throttled).Post("/login", h.Auth.Login)
			r.With(throttled).Post("/forgot-password", h.Auth.ForgotPassword)
			r.Post("/reset-password", h.Auth.ResetPassword)
			r.Post("/verify-email", h.Auth.VerifyEmail)
			r.With(throttled).Post("/resend-verification", h.Auth.ResendVerification)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireUser)
				r.Get("/me", h.Auth.Me)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.With(throttled).Post("/auth/login", h.Admin.Login)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)
				r.Get("/accounts/{participantID}", h.Admin.LookupAccount)
			})
		})

		r.Post("/referral/validate", h.Referral.Validate)
		r.Get("/pricing", h.Pricing.Get)

		r.Route("/payment", func(r chi.Router) {
			r.Use(auth.RequireUser)
			r.Post("/create-order", h.Payment.CreateOrder)
			r.Post("/verify", h.Payment.Verify)
		})
	})

	return r
}

func loggerMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr))
		})
	}
}
