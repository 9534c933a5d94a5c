package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"registration-service/config"
	"registration-service/internal/handler"
	"registration-service/internal/mailer"
	"registration-service/internal/pricing"
	"registration-service/internal/provider/razorpay"
	"registration-service/internal/repository"
	"registration-service/internal/router"
	"registration-service/internal/usecase"
	"registration-service/pkg/jwtutil"
	"registration-service/pkg/middleware"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	_ = godotenv.Load()

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()

	if err := repository.RunMigrations(ctx, cfg.Database.URL); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	dbPool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()
	logger.Info("connected to database")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Pass,
	})
	defer rdb.Close()

	repo := repository.NewPostgresAccountRepository(dbPool)

	tokens := jwtutil.NewManager([]byte(cfg.JWT.Secret), cfg.JWT.Issuer, cfg.JWT.UserTTL, cfg.JWT.AdminTTL)
	engine := pricing.NewEngine(cfg.Pricing)
	gateway := razorpay.NewClient(cfg.Razorpay, logger)

	var m mailer.Mailer
	if cfg.Mailer.BaseURL != "" && cfg.Mailer.APIKey != "" {
		m = mailer.NewHTTPMailer(cfg.Mailer, logger)
	} else {
		m = mailer.NewLogMailer(logger)
		logger.Warn("mailer not configured, codes are logged instead of sent")
	}

	registry := usecase.NewIdentityRegistry(repo, cfg.Identity.Prefix, cfg.Identity.SuffixLen, cfg.Identity.MaxAttempts, logger)
	otpSvc := usecase.NewOTPService(repo, cfg.OTP.Digits, cfg.OTP.TTL, logger)
	referrals := usecase.NewReferralLedger(registry, repo, logger)
	authUC := usecase.NewAuthUsecase(repo, registry, otpSvc, referrals, m, tokens, cfg.Admins, logger)
	paymentUC := usecase.NewPaymentUsecase(repo, engine, gateway, logger)

	authMW := middleware.NewAuthMiddleware(tokens, logger)

	handlers := router.Handlers{
		Auth:     handler.NewAuthHandler(authUC, cfg.Server.IsProduction(), logger),
		Admin:    handler.NewAdminHandler(authUC, cfg.JWT.AdminTTL, cfg.Server.IsProduction(), logger),
		Referral: handler.NewReferralHandler(referrals, logger),
		Pricing:  handler.NewPricingHandler(engine, authUC, tokens, logger),
		Payment:  handler.NewPaymentHandler(paymentUC, logger),
	}

	r := router.Setup(handlers, authMW, rdb, cfg.RateLimit, logger)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}
