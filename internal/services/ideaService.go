package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"ideabox/internal/metrics"
	"ideabox/internal/models"
	"ideabox/internal/repositories"
	"ideabox/internal/utils"
)

const MinIdeaLength = 20

// IdeaService is the submission workflow: it gates code requests, hands out
// verification proofs and persists ideas under the one-per-email rule.
type IdeaService interface {
	RequestCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) (string, error)
	Submit(ctx context.Context, input SubmitInput) (*models.Idea, error)
	ListIdeas(ctx context.Context, category string) ([]models.Idea, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

type SubmitInput struct {
	Email             string
	Body              string
	Category          string
	SubmittedAt       time.Time
	VerificationToken string
}

// SubmissionPolicy holds the deployment choices around submission.
// With RequireVerification set, Submit demands a token from VerifyCode.
type SubmissionPolicy struct {
	Email               utils.EmailPolicy
	RequireVerification bool
	VerificationSecret  []byte
	VerificationTTL     time.Duration
	OTPTTL              time.Duration
}

type ideaService struct {
	ideaRepo   repositories.IdeaRepository
	otpService OTPService
	dispatcher Dispatcher
	policy     SubmissionPolicy
	now        Clock
}

func NewIdeaService(ideaRepo repositories.IdeaRepository, otpService OTPService, dispatcher Dispatcher, policy SubmissionPolicy, clock Clock) IdeaService {
	if clock == nil {
		clock = SystemClock
	}
	if policy.VerificationTTL <= 0 {
		policy.VerificationTTL = 30 * time.Minute
	}
	if policy.OTPTTL <= 0 {
		policy.OTPTTL = DefaultOTPExpiration
	}
	return &ideaService{
		ideaRepo:   ideaRepo,
		otpService: otpService,
		dispatcher: dispatcher,
		policy:     policy,
		now:        clock,
	}
}

func (s *ideaService) validEmail(raw string) (string, error) {
	email := utils.NormalizeEmail(raw)
	if email == "" {
		return "", validationError("email is required")
	}
	if !s.policy.Email.Allows(email) {
		return "", validationError("invalid email format")
	}
	return email, nil
}

func (s *ideaService) alreadySubmitted(ctx context.Context, email string) error {
	existing, err := s.ideaRepo.FindByEmail(ctx, email)
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("Failed to check for existing idea")
		return storeError("find idea", err)
	}
	if existing != nil {
		return ErrDuplicate
	}
	return nil
}

// RequestCode issues a code and queues its email. Delivery happens later and
// its outcome never changes the result.
func (s *ideaService) RequestCode(ctx context.Context, rawEmail string) error {
	email, err := s.validEmail(rawEmail)
	if err != nil {
		return err
	}
	if err := s.alreadySubmitted(ctx, email); err != nil {
		if errors.Is(err, ErrDuplicate) {
			log.Warn().Str("email", email).Msg("Code requested for an email that already submitted")
		}
		return err
	}

	code, err := s.otpService.Issue(ctx, email)
	if err != nil {
		return err
	}

	if !s.dispatcher.Enqueue(otpEmail(email, code, s.policy.OTPTTL)) {
		log.Warn().Str("email", email).Msg("OTP email not queued, code remains valid")
	}
	return nil
}

// VerifyCode redeems a code. When a verification secret is configured it
// returns a signed proof that Submit accepts; otherwise the token is empty.
func (s *ideaService) VerifyCode(ctx context.Context, email, code string) (string, error) {
	if err := s.otpService.Verify(ctx, email, code); err != nil {
		return "", err
	}
	if len(s.policy.VerificationSecret) == 0 {
		return "", nil
	}

	token, err := utils.GenerateVerificationToken(s.policy.VerificationSecret, utils.NormalizeEmail(email), s.now(), s.policy.VerificationTTL)
	if err != nil {
		log.Error().Err(err).Msg("Failed to sign verification token")
		return "", err
	}
	return token, nil
}

func (s *ideaService) Submit(ctx context.Context, input SubmitInput) (*models.Idea, error) {
	email, err := s.validEmail(input.Email)
	if err != nil {
		metrics.IdeasSubmittedTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	body := strings.TrimSpace(input.Body)
	if utf8.RuneCountInString(body) < MinIdeaLength {
		metrics.IdeasSubmittedTotal.WithLabelValues("invalid").Inc()
		return nil, validationError("idea too short")
	}

	category := strings.TrimSpace(input.Category)
	if category == "" {
		metrics.IdeasSubmittedTotal.WithLabelValues("invalid").Inc()
		return nil, validationError("category required")
	}

	now := s.now()
	if s.policy.RequireVerification {
		verified, err := utils.ParseVerificationToken(s.policy.VerificationSecret, input.VerificationToken, now)
		if err != nil || verified != email {
			metrics.IdeasSubmittedTotal.WithLabelValues("unverified").Inc()
			log.Warn().Str("email", email).Msg("Submission without a valid verification token")
			return nil, ErrUnauthorized
		}
	}

	// Fast path only; the unique index decides races.
	if err := s.alreadySubmitted(ctx, email); err != nil {
		if errors.Is(err, ErrDuplicate) {
			metrics.IdeasSubmittedTotal.WithLabelValues("duplicate").Inc()
		}
		return nil, err
	}

	submittedAt := input.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = now
	}
	idea := &models.Idea{
		Email:       email,
		Body:        body,
		Category:    category,
		SubmittedAt: submittedAt.UTC(),
		CreatedAt:   now,
	}

	created, err := s.ideaRepo.Create(ctx, idea)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			metrics.IdeasSubmittedTotal.WithLabelValues("duplicate").Inc()
			return nil, ErrDuplicate
		}
		log.Error().Err(err).Str("email", email).Msg("Failed to store idea")
		return nil, storeError("insert idea", err)
	}

	metrics.IdeasSubmittedTotal.WithLabelValues("created").Inc()
	log.Info().Int64("idea_id", created.ID).Str("email", email).Str("category", category).Msg("Idea submitted")
	return created, nil
}

func (s *ideaService) ListIdeas(ctx context.Context, category string) ([]models.Idea, error) {
	category = strings.TrimSpace(category)

	var (
		ideas []models.Idea
		err   error
	)
	if category == "" {
		ideas, err = s.ideaRepo.FindAll(ctx)
	} else {
		ideas, err = s.ideaRepo.FindByCategory(ctx, category)
	}
	if err != nil {
		log.Error().Err(err).Str("category", category).Msg("Failed to list ideas")
		return nil, storeError("list ideas", err)
	}
	if ideas == nil {
		ideas = []models.Idea{}
	}
	return ideas, nil
}

func (s *ideaService) Stats(ctx context.Context) (*models.Stats, error) {
	total, err := s.ideaRepo.CountAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to count ideas")
		return nil, storeError("count ideas", err)
	}
	byCategory, err := s.ideaRepo.CountByCategory(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to aggregate ideas by category")
		return nil, storeError("aggregate ideas", err)
	}
	if byCategory == nil {
		byCategory = []models.CategoryCount{}
	}
	return &models.Stats{TotalIdeas: total, ByCategory: byCategory}, nil
}
