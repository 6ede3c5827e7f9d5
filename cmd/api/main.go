package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/smart-referral-api/internal/config"
	"github.com/smart-referral-api/internal/infrastructure/awsconf"
	"github.com/smart-referral-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/smart-referral-api/internal/infrastructure/jwt"
	s3infra "github.com/smart-referral-api/internal/infrastructure/s3"
	"github.com/smart-referral-api/internal/infrastructure/sns"
	transporthttp "github.com/smart-referral-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconf.Load(ctx, cfg, "")
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(awsCfg, cfg.AWSEndpointURL)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	jwtProvider, err := jwtinfra.NewProvider(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath, cfg.JWTExpiry)
	if err != nil {
		log.Fatalf("jwt provider: %v", err)
	}

	s3Store := s3infra.NewStore(s3infra.NewClient(awsCfg, cfg.AWSEndpointURL), cfg.S3BucketName)

	deps := &transporthttp.Deps{
		UserRepo:        dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		CompanyRepo:     dynamo.NewCompanyRepo(dynamoClient, cfg.DynamoTables.Companies),
		LinkRepo:        dynamo.NewLinkRepo(dynamoClient, cfg.DynamoTables.Links),
		ApprovalRepo:    dynamo.NewApprovalRepo(dynamoClient, cfg.DynamoTables.FormApprovals),
		SignupTokenRepo: dynamo.NewSignupTokenRepo(dynamoClient, cfg.DynamoTables.SignupTokens),
		S3Store:         s3Store,
		JWTProvider:     jwtProvider,
	}

	// SNS events are optional: without a topic, decisions are only stored.
	if cfg.EventsTopicARN != "" {
		snsCfg, err := awsconf.Load(ctx, cfg, cfg.SNSRegion)
		if err != nil {
			log.Fatalf("load sns config: %v", err)
		}
		deps.Events = sns.NewPublisher(sns.NewClient(snsCfg, cfg.AWSEndpointURL), cfg.EventsTopicARN)
	} else {
		log.Println("WARN: SNS_EVENTS_TOPIC_ARN not set, decision events disabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, deps),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
