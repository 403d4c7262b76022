package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"ideabox/internal/metrics"
	"ideabox/internal/repositories"
)

// OTPCleaner deletes codes that expired more than retention ago. Nothing else
// depends on it running, so errors are logged and the next tick retries.
type OTPCleaner struct {
	otpRepo   repositories.OTPRepository
	retention time.Duration
	timeout   time.Duration
	now       Clock
}

func NewOTPCleaner(otpRepo repositories.OTPRepository, retention time.Duration, clock Clock) *OTPCleaner {
	if clock == nil {
		clock = SystemClock
	}
	return &OTPCleaner{otpRepo: otpRepo, retention: retention, timeout: 30 * time.Second, now: clock}
}

func (c *OTPCleaner) Sweep(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cutoff := c.now().Add(-c.retention)
	deleted, err := c.otpRepo.DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	metrics.OTPPurgedTotal.Add(float64(deleted))
	return deleted, nil
}

// Run sweeps every interval until ctx is cancelled.
func (c *OTPCleaner) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("OTP cleanup stopped")
			return
		case <-ticker.C:
			deleted, err := c.Sweep(ctx)
			if err != nil {
				log.Error().Err(err).Msg("OTP cleanup failed")
				continue
			}
			if deleted > 0 {
				log.Info().Int64("deleted", deleted).Msg("Expired OTPs purged")
			}
		}
	}
}
