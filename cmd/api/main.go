package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dmarinho/leadcore/internal/config"
	"github.com/dmarinho/leadcore/internal/infra/database"
	"github.com/dmarinho/leadcore/internal/infra/http/handlers"
	"github.com/dmarinho/leadcore/internal/infra/http/middleware"
	"github.com/dmarinho/leadcore/internal/infra/mail"
	"github.com/dmarinho/leadcore/internal/infra/queue"
	"github.com/dmarinho/leadcore/internal/infra/worker"
	"github.com/dmarinho/leadcore/internal/logger"
	"github.com/dmarinho/leadcore/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Environment)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.NewDBConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to Postgres", zap.Error(err))
	}
	defer db.Close()

	rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		log.Fatal("failed to connect to RabbitMQ", zap.Error(err))
	}
	defer rabbitMQ.Conn.Close()
	defer rabbitMQ.Ch.Close()

	// 1. Repositories
	leadRepo := database.NewLeadRepository(db)
	campaignRepo := database.NewCampaignRepository(db)
	verificationRepo := database.NewVerificationRepository(db)
	statsRepo := database.NewStatsRepository(db)

	// 2. Gateways and adapters
	producer := queue.NewProducer(rabbitMQ.Conn, rabbitMQ.Ch)
	mailSender := mail.NewEmailSender(
		cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPass,
		cfg.MailFrom, cfg.AlertEmail,
	)
	dispatcher := usecase.NewNotificationDispatcher(mailSender, log, cfg.MailSendTimeout)

	// 3. UseCases
	submitLeadUC := usecase.NewSubmitLeadUseCase(leadRepo, campaignRepo, dispatcher, producer, log)

	policy := usecase.VerificationPolicy{
		TTL:         cfg.VerificationTTL,
		MaxAttempts: cfg.VerificationMaxAttempts,
		MaxIssues:   cfg.VerificationMaxIssues,
		BaseURL:     cfg.VerificationBaseURL,
		SendTimeout: cfg.MailSendTimeout,
	}
	verifyEmailUC := usecase.NewVerifyEmailUseCase(leadRepo, verificationRepo, mailSender, log, policy)
	statsUC := usecase.NewVerificationStatsUseCase(statsRepo)

	// 4. Workers
	bounceWorker := queue.NewBounceWorker(rabbitMQ.Ch, verifyEmailUC, log)
	go bounceWorker.Start(queue.BounceQueueName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	expirationWorker := worker.NewVerificationExpirationWorker(db, log)
	go expirationWorker.Start(ctx)

	// 5. Handlers
	leadHandler := handlers.NewLeadHandler(submitLeadUC)
	verificationHandler := handlers.NewVerificationHandler(verifyEmailUC)
	statsHandler := handlers.NewStatsHandler(statsUC)
	webhookHandler := handlers.NewWebhookHandler(producer, log)
	healthHandler := handlers.NewHealthHandler(db, rabbitMQ.Conn, cfg.MailHost)

	// 6. Router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
	}))

	r.Post("/leads", leadHandler.Handle)
	r.Post("/leads/{leadID}/verification", verificationHandler.HandleRequest)
	r.Post("/leads/{leadID}/verify", verificationHandler.HandleVerify)
	r.Get("/verify", verificationHandler.HandleVerifyLink)
	r.Get("/campaigns/{campaignID}/verification-stats", statsHandler.Handle)
	r.Post("/webhooks/email-events", webhookHandler.Handle)
	r.Get("/health", healthHandler.Handle)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Info("🔥 LeadCore API listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown failed", zap.Error(err))
	}

	// Accepted submissions keep their fire-and-forget side effects; drain
	// them before exiting.
	submitLeadUC.Wait()
}
