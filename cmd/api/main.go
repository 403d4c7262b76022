package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"ideabox/internal/config"
	"ideabox/internal/database"
	"ideabox/internal/logging"
	"ideabox/internal/repositories"
	"ideabox/internal/server"
	"ideabox/internal/services"
	"ideabox/internal/utils"
)

func main() {
	cfg, err := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}

	ideaRepo := repositories.NewIdeaRepository(db)
	otpRepo := repositories.NewOTPRepository(db)

	var sender services.EmailService
	if cfg.MailConfigured() {
		sender = services.NewEmailService(services.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SenderEmail,
		})
	} else {
		log.Warn().Msg("SMTP credentials not set, verification emails will only be logged")
		sender = services.NewLogEmailService()
	}
	dispatcher := services.NewMailDispatcher(sender, cfg.MailWorkers, cfg.MailQueueSize)

	otpService := services.NewOTPService(otpRepo, services.OTPOptions{TTL: cfg.OTPTTL})
	ideaService := services.NewIdeaService(ideaRepo, otpService, dispatcher, services.SubmissionPolicy{
		Email:               utils.EmailPolicy{Domain: cfg.AllowedEmailDomain},
		RequireVerification: cfg.RequireVerification,
		VerificationSecret:  []byte(cfg.VerificationSecret),
		VerificationTTL:     cfg.VerificationTTL,
		OTPTTL:              cfg.OTPTTL,
	}, services.SystemClock)

	cleaner := services.NewOTPCleaner(otpRepo, cfg.OTPRetention, services.SystemClock)
	go cleaner.Run(ctx, cfg.OTPSweepInterval)

	s := server.NewServer(cfg, db, ideaService)

	done := make(chan bool, 1)
	go s.GracefulShutdown(done)

	err = s.Start(ctx)
	if err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("HTTP server error")
	}

	<-done
	cancel()

	drainCtx, drainCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer drainCancel()
	if err := dispatcher.Close(drainCtx); err != nil {
		log.Error().Err(err).Msg("Mail queue not drained")
	}
	if err := db.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to disconnect from MongoDB")
	}

	log.Info().Msg("Graceful shutdown complete.")
}
