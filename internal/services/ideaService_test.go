package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideabox/internal/models"
	"ideabox/internal/utils"
)

const validBody = "Add bike racks near the library entrance"

type ideaFixture struct {
	ideas      *fakeIdeaRepository
	otps       *fakeOTPRepository
	dispatcher *fakeDispatcher
	clock      *fakeClock
	svc        IdeaService
}

func newIdeaFixture(policy SubmissionPolicy) *ideaFixture {
	f := &ideaFixture{
		ideas:      &fakeIdeaRepository{},
		otps:       &fakeOTPRepository{},
		dispatcher: &fakeDispatcher{},
		clock:      newFakeClock(testNow),
	}
	otpSvc := newTestOTPService(f.otps, f.clock)
	f.svc = NewIdeaService(f.ideas, otpSvc, f.dispatcher, policy, f.clock.Now)
	return f
}

var codePattern = regexp.MustCompile(`>(\d{6})<`)

func (f *ideaFixture) lastCode(t *testing.T) string {
	t.Helper()
	sent := f.dispatcher.sent()
	require.NotEmpty(t, sent)
	match := codePattern.FindStringSubmatch(sent[len(sent)-1].HTML)
	require.Len(t, match, 2)
	return match[1]
}

func TestSubmitNormalizesAndStores(t *testing.T) {
	f := newIdeaFixture(SubmissionPolicy{})

	idea, err := f.svc.Submit(context.Background(), SubmitInput{
		Email:    "  Student@School.EDU ",
		Body:     "   " + validBody + "  ",
		Category: " Campus ",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), idea.ID)
	assert.Equal(t, "student@school.edu", idea.Email)
	assert.Equal(t, validBody, idea.Body)
	assert.Equal(t, "Campus", idea.Category)
	assert.Equal(t, testNow, idea.SubmittedAt)
	assert.Equal(t, testNow, idea.CreatedAt)
}

func TestSubmitKeepsClientTimestamp(t *testing.T) {
	f := newIdeaFixture(SubmissionPolicy{})
	submitted := time.Date(2025, 2, 28, 18, 30, 0, 0, time.FixedZone("CET", 3600))

	idea, err := f.svc.Submit(context.Background(), SubmitInput{
		Email: "a@test.com", Body: validBody, Category: "A", SubmittedAt: submitted,
	})
	require.NoError(t, err)
	assert.True(t, idea.SubmittedAt.Equal(submitted))
	assert.Equal(t, time.UTC, idea.SubmittedAt.Location())
}

func TestSubmitDuplicateAcrossCase(t *testing.T) {
	f := newIdeaFixture(SubmissionPolicy{})
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, SubmitInput{Email: "Foo@X.com", Body: validBody, Category: "A"})
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, SubmitInput{Email: "foo@x.com", Body: validBody, Category: "B"})
	assert.ErrorIs(t, err, ErrDuplicate)

	count, _ := f.ideas.CountAll(ctx)
	assert.Equal(t, int64(1), count)
}

func TestSubmitUniqueIndexBackstop(t *testing.T) {
	f := newIdeaFixture(SubmissionPolicy{})
	f.ideas.skipPrecheck = true
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, SubmitInput{Email: "foo@x.com", Body: validBody, Category: "A"})
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, SubmitInput{Email: "foo@x.com", Body: validBody, Category: "A"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NotErrorIs(t, err, ErrStore)
}

func TestSubmitBodyLengthBoundary(t *testing.T) {
	f := newIdeaFixture(SubmissionPolicy{})
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, SubmitInput{Email: "short@test.com", Body: strings.Repeat("x", 19), Category: "A"})
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "idea too short", err.Error())

	_, err = f.svc.Submit(ctx, SubmitInput{Email: "padded@test.com", Body: "  " + strings.Repeat("x", 19) + "  ", Category: "A"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Submit(ctx, SubmitInput{Email: "exact@test.com", Body: strings.Repeat("x", 20), Category: "A"})
	assert.NoError(t, err)

	_, err = f.svc.Submit(ctx, SubmitInput{Email: "accents@test.com", Body: strings.Repeat("é", 20), Category: "A"})
	assert.NoError(t, err)
}

func TestSubmitValidation(t *testing.T) {
	f := newIdeaFixture(SubmissionPolicy{})
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, SubmitInput{Email: "not-an-email", Body: validBody, Category: "A"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Submit(ctx, SubmitInput{Email: "", Body: validBody, Category: "A"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Submit(ctx, SubmitInput{Email: "a@test.com", Body: validBody, Category: "  "})
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "category required", err.Error())

	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestSubmitDomainRestriction(t *testing.T) {
	f := newIdeaFixture(SubmissionPolicy{Email: utils.EmailPolicy{Domain: "school.edu"}})
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, SubmitInput{Email: "someone@gmail.com", Body: validBody, Category: "A"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Submit(ctx, SubmitInput{Email: "someone@school.edu", Body: validBody, Category: "A"})
	assert.NoError(t, err)
}

func TestSubmitConcurrentSameEmail(t *testing.T) {
	for _, skip := range []bool{false, true} {
		f := newIdeaFixture(SubmissionPolicy{})
		f.ideas.skipPrecheck = skip

		const attempts = 20
		errs := make(chan error, attempts)
		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.svc.Submit(context.Background(), SubmitInput{Email: "race@test.com", Body: validBody, Category: "A"})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		succeeded := 0
		for err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, ErrDuplicate)
		}
		assert.Equal(t, 1, succeeded)
		count, _ := f.ideas.CountAll(context.Background())
		assert.Equal(t, int64(1), count)
	}
}

func TestSubmitStoreFailure(t *testing.T) {
	f := newIdeaFixture(SubmissionPolicy{})
	f.ideas.err = errStoreDown

	_, err := f.svc.Submit(context.Background(), SubmitInput{Email: "a@test.com", Body: validBody, Category: "A"})
	assert.ErrorIs(t, err, ErrStore)
}

func TestStatsSortedByCount(t *testing.T) {
	f := newIdeaFixture(SubmissionPolicy{})
	ctx := context.Background()

	for _, in := range []SubmitInput{
		{Email: "b1@test.com", Body: validBody, Category: "B"},
		{Email: "a1@test.com", Body: validBody, Category: "A"},
		{Email: "a2@test.com", Body: validBody, Category: "A"},
	} {
		_, err := f.svc.Submit(ctx, in)
		require.NoError(t, err)
	}

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalIdeas)
	assert.Equal(t, []models.CategoryCount{{Category: "A", Count: 2}, {Category: "B", Count: 1}}, stats.ByCategory)
}

func TestStatsEmpty(t *testing.T) {
	f := newIdeaFixture(SubmissionPolicy{})

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalIdeas)
	assert.NotNil(t, stats.ByCategory)
}

func TestListIdeas(t *testing.T) {
	f := newIdeaFixture(SubmissionPolicy{})
	ctx := context.Background()
	_, _ = f.svc.Submit(ctx, SubmitInput{Email: "a@test.com", Body: validBody, Category: "A"})
	_, _ = f.svc.Submit(ctx, SubmitInput{Email: "b@test.com", Body: validBody, Category: "B"})

	all, err := f.svc.ListIdeas(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyB, err := f.svc.ListIdeas(ctx, "B")
	require.NoError(t, err)
	require.Len(t, onlyB, 1)
	assert.Equal(t, "b@test.com", onlyB[0].Email)

	none, err := f.svc.ListIdeas(ctx, "Z")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	f.ideas.err = errStoreDown
	_, err = f.svc.ListIdeas(ctx, "")
	assert.ErrorIs(t, err, ErrStore)
}

func TestRequestCodeQueuesEmail(t *testing.T) {
	f := newIdeaFixture(SubmissionPolicy{})

	require.NoError(t, f.svc.RequestCode(context.Background(), " User@Test.com"))

	sent := f.dispatcher.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "user@test.com", sent[0].To)
	assert.Contains(t, sent[0].HTML, "10 minutes")

	code := f.lastCode(t)
	assert.Len(t, f.otps.rows(), 1)
	_, err := f.svc.VerifyCode(context.Background(), "user@test.com", code)
	assert.NoError(t, err)
}

func TestRequestCodeSucceedsWhenDispatchRefused(t *testing.T) {
	f := newIdeaFixture(SubmissionPolicy{})
	f.dispatcher.refuse = true

	assert.NoError(t, f.svc.RequestCode(context.Background(), "user@test.com"))
	assert.Len(t, f.otps.rows(), 1)
}

func TestRequestCodeRejections(t *testing.T) {
	f := newIdeaFixture(SubmissionPolicy{})
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.RequestCode(ctx, ""), ErrValidation)
	assert.ErrorIs(t, f.svc.RequestCode(ctx, "user@"), ErrValidation)

	_, err := f.svc.Submit(ctx, SubmitInput{Email: "done@test.com", Body: validBody, Category: "A"})
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.RequestCode(ctx, "DONE@test.com"), ErrDuplicate)

	assert.Empty(t, f.otps.rows())
	assert.Empty(t, f.dispatcher.sent())

	f.otps.err = errStoreDown
	assert.ErrorIs(t, f.svc.RequestCode(ctx, "new@test.com"), ErrStore)
}

func TestVerifyCodeWithoutSecretReturnsNoToken(t *testing.T) {
	f := newIdeaFixture(SubmissionPolicy{})
	ctx := context.Background()
	require.NoError(t, f.svc.RequestCode(ctx, "user@test.com"))

	token, err := f.svc.VerifyCode(ctx, "user@test.com", f.lastCode(t))
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestSubmitRequiresVerificationWhenEnforced(t *testing.T) {
	secret := []byte("test-secret")
	f := newIdeaFixture(SubmissionPolicy{RequireVerification: true, VerificationSecret: secret, VerificationTTL: 30 * time.Minute})
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, SubmitInput{Email: "user@test.com", Body: validBody, Category: "A"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, f.svc.RequestCode(ctx, "user@test.com"))
	token, err := f.svc.VerifyCode(ctx, "user@test.com", f.lastCode(t))
	require.NoError(t, err)
	require.NotEmpty(t, token)

	_, err = f.svc.Submit(ctx, SubmitInput{Email: "other@test.com", Body: validBody, Category: "A", VerificationToken: token})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.svc.Submit(ctx, SubmitInput{Email: "USER@test.com", Body: validBody, Category: "A", VerificationToken: token})
	assert.NoError(t, err)
}

func TestSubmitVerificationTokenExpires(t *testing.T) {
	secret := []byte("test-secret")
	f := newIdeaFixture(SubmissionPolicy{RequireVerification: true, VerificationSecret: secret, VerificationTTL: 30 * time.Minute})
	ctx := context.Background()

	require.NoError(t, f.svc.RequestCode(ctx, "user@test.com"))
	token, err := f.svc.VerifyCode(ctx, "user@test.com", f.lastCode(t))
	require.NoError(t, err)

	f.clock.Advance(31 * time.Minute)
	_, err = f.svc.Submit(ctx, SubmitInput{Email: "user@test.com", Body: validBody, Category: "A", VerificationToken: token})
	assert.ErrorIs(t, err, ErrUnauthorized)
}
