package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"ideabox/internal/metrics"
	"ideabox/internal/models"
	"ideabox/internal/repositories"
	"ideabox/internal/utils"
)

const (
	OTPLength            = 6
	DefaultOTPExpiration = 10 * time.Minute
)

type OTPService interface {
	Generate() (string, error)
	Issue(ctx context.Context, email string) (string, error)
	Verify(ctx context.Context, email, code string) error
}

type OTPOptions struct {
	TTL      time.Duration
	HashCost int
	Clock    Clock
}

type otpService struct {
	otpRepo  repositories.OTPRepository
	ttl      time.Duration
	hashCost int
	now      Clock
}

func NewOTPService(otpRepo repositories.OTPRepository, opts OTPOptions) OTPService {
	s := &otpService{
		otpRepo:  otpRepo,
		ttl:      opts.TTL,
		hashCost: opts.HashCost,
		now:      opts.Clock,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultOTPExpiration
	}
	if s.hashCost == 0 {
		s.hashCost = bcrypt.DefaultCost
	}
	if s.now == nil {
		s.now = SystemClock
	}
	return s
}

func (s *otpService) Generate() (string, error) {
	return utils.GenerateSecureOTP(OTPLength)
}

// Issue stores a fresh code for email and returns it in clear text. Sending
// it is up to the caller.
func (s *otpService) Issue(ctx context.Context, email string) (string, error) {
	email = utils.NormalizeEmail(email)

	code, err := s.Generate()
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	hash, err := utils.HashOTP(code, s.hashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash otp: %w", err)
	}

	now := s.now()
	otp := &models.OTP{
		Email:     email,
		CodeHash:  hash,
		ExpiresAt: now.Add(s.ttl),
		IsUsed:    false,
		CreatedAt: now,
	}
	if _, err := s.otpRepo.Create(ctx, otp); err != nil {
		log.Error().Err(err).Str("email", email).Msg("Failed to store otp")
		return "", storeError("insert otp", err)
	}

	metrics.OTPIssuedTotal.Inc()
	log.Info().Str("email", email).Time("expires_at", otp.ExpiresAt).Msg("OTP issued")
	return code, nil
}

// Verify redeems code for email. Every kind of mismatch yields ErrInvalidOTP
// so callers cannot tell a wrong code from an expired or spent one.
func (s *otpService) Verify(ctx context.Context, email, code string) error {
	email = utils.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return validationError("email and code are required")
	}

	now := s.now()
	otp, err := s.otpRepo.FindValid(ctx, email, code, now)
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("Failed to look up otp")
		return storeError("find otp", err)
	}
	if otp == nil || !otp.IsValidAt(now) {
		metrics.OTPVerificationsTotal.WithLabelValues("invalid").Inc()
		log.Warn().Str("email", email).Msg("OTP verification failed")
		return ErrInvalidOTP
	}

	marked, err := s.otpRepo.MarkAsUsed(ctx, otp.ID, now)
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("Failed to mark otp as used")
		return storeError("mark otp used", err)
	}
	if !marked {
		// A concurrent verify consumed it first.
		metrics.OTPVerificationsTotal.WithLabelValues("invalid").Inc()
		return ErrInvalidOTP
	}

	metrics.OTPVerificationsTotal.WithLabelValues("success").Inc()
	log.Info().Str("email", email).Msg("OTP verified")
	return nil
}
