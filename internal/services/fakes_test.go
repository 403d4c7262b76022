package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ideabox/internal/models"
	"ideabox/internal/repositories"
	"ideabox/internal/utils"
)

var errStoreDown = errors.New("connection refused")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeIdeaRepository mimics the unique email index. With skipPrecheck set,
// FindByEmail never sees existing rows, as in a check-then-insert race.
type fakeIdeaRepository struct {
	mu           sync.Mutex
	ideas        []models.Idea
	nextID       int64
	skipPrecheck bool
	err          error
}

var _ repositories.IdeaRepository = (*fakeIdeaRepository)(nil)

func (r *fakeIdeaRepository) Create(_ context.Context, idea *models.Idea) (*models.Idea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, existing := range r.ideas {
		if existing.Email == idea.Email {
			return nil, repositories.ErrDuplicateEmail
		}
	}
	r.nextID++
	idea.ID = r.nextID
	r.ideas = append(r.ideas, *idea)
	return idea, nil
}

func (r *fakeIdeaRepository) FindByEmail(_ context.Context, email string) (*models.Idea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if r.skipPrecheck {
		return nil, nil
	}
	for _, existing := range r.ideas {
		if existing.Email == email {
			idea := existing
			return &idea, nil
		}
	}
	return nil, nil
}

func (r *fakeIdeaRepository) FindAll(ctx context.Context) ([]models.Idea, error) {
	return r.filter(func(models.Idea) bool { return true })
}

func (r *fakeIdeaRepository) FindByCategory(ctx context.Context, category string) ([]models.Idea, error) {
	return r.filter(func(i models.Idea) bool { return i.Category == category })
}

func (r *fakeIdeaRepository) filter(keep func(models.Idea) bool) ([]models.Idea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := []models.Idea{}
	for i := len(r.ideas) - 1; i >= 0; i-- {
		if keep(r.ideas[i]) {
			out = append(out, r.ideas[i])
		}
	}
	return out, nil
}

func (r *fakeIdeaRepository) CountByCategory(_ context.Context) ([]models.CategoryCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	counts := map[string]int64{}
	for _, idea := range r.ideas {
		counts[idea.Category]++
	}
	out := []models.CategoryCount{}
	for category, count := range counts {
		out = append(out, models.CategoryCount{Category: category, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

func (r *fakeIdeaRepository) CountAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	return int64(len(r.ideas)), nil
}

type fakeOTPRepository struct {
	mu       sync.Mutex
	otps     []*models.OTP
	err      error
	compares int
}

var _ repositories.OTPRepository = (*fakeOTPRepository)(nil)

func (r *fakeOTPRepository) Create(_ context.Context, otp *models.OTP) (*models.OTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	otp.ID = primitive.NewObjectID()
	copied := *otp
	r.otps = append(r.otps, &copied)
	return otp, nil
}

func (r *fakeOTPRepository) FindValid(_ context.Context, email, code string, now time.Time) (*models.OTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	candidates := make([]*models.OTP, 0, len(r.otps))
	for i := len(r.otps) - 1; i >= 0; i-- {
		if otp := r.otps[i]; otp.Email == email && otp.IsValidAt(now) {
			candidates = append(candidates, otp)
		}
	}
	// Newest first; later inserts win ties on created_at.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})
	if len(candidates) > repositories.MaxOTPCandidates {
		candidates = candidates[:repositories.MaxOTPCandidates]
	}
	for _, otp := range candidates {
		r.compares++
		if utils.CheckOTP(otp.CodeHash, code) {
			copied := *otp
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeOTPRepository) MarkAsUsed(_ context.Context, otpID primitive.ObjectID, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	for _, otp := range r.otps {
		if otp.ID == otpID && !otp.IsUsed {
			otp.IsUsed = true
			usedAt := now
			otp.UsedAt = &usedAt
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeOTPRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	kept := r.otps[:0]
	var deleted int64
	for _, otp := range r.otps {
		if otp.ExpiresAt.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, otp)
	}
	r.otps = kept
	return deleted, nil
}

func (r *fakeOTPRepository) compareCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.compares
}

func (r *fakeOTPRepository) rows() []models.OTP {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.OTP, 0, len(r.otps))
	for _, otp := range r.otps {
		out = append(out, *otp)
	}
	return out
}

type fakeDispatcher struct {
	mu       sync.Mutex
	messages []EmailMessage
	refuse   bool
}

func (d *fakeDispatcher) Enqueue(msg EmailMessage) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.refuse {
		return false
	}
	d.messages = append(d.messages, msg)
	return true
}

func (d *fakeDispatcher) sent() []EmailMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]EmailMessage(nil), d.messages...)
}
