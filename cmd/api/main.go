package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/campus-auth-api/internal/application/outbox"
	"github.com/campus-auth-api/internal/config"
	"github.com/campus-auth-api/internal/infrastructure/dynamo"
	s3infra "github.com/campus-auth-api/internal/infrastructure/s3"
	"github.com/campus-auth-api/internal/infrastructure/smtp"
	"github.com/campus-auth-api/internal/infrastructure/sns"
	transporthttp "github.com/campus-auth-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	accountRepo := dynamo.NewAccountRepo(dynamoClient, cfg.DynamoTables.Accounts)
	challengeRepo := dynamo.NewChallengeRepo(dynamoClient, cfg.DynamoTables.Challenges)
	outboxRepo := dynamo.NewOutboxRepo(dynamoClient, cfg.DynamoTables.Outbox)

	// S3 store for dead-letter archives.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SMTP mailer, throttled so the dispatcher can't flood the provider.
	mailer := smtp.NewMailer(cfg)

	// SNS alerter (optional; without it dead letters only lose the operator ping).
	var alerter sns.Alerter
	if a, err := sns.NewAlerter(cfg); err == nil {
		alerter = a
	} else {
		log.Printf("WARN: SNS alerter not available: %v", err)
	}

	dispatcher := outbox.NewDispatcher(outbox.DispatcherDeps{
		OutboxRepo: outboxRepo,
		Mailer:     mailer,
		Archiver:   s3Store,
		Alerter:    alerter,
		Config:     cfg.Outbox,
	})
	dispatcher.Start(context.Background())

	deps := &transporthttp.Deps{
		AccountRepo:   accountRepo,
		ChallengeRepo: challengeRepo,
		OutboxRepo:    outboxRepo,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	// HTTP is drained, nothing enqueues anymore; let in-flight sends finish.
	dispatcher.Stop()
	log.Println("Server stopped")
}
