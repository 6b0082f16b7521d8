package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danupratama/authgate/internal/auth/entity"
	"github.com/danupratama/authgate/internal/pkg/config"
	"github.com/danupratama/authgate/internal/pkg/goerror"
	"github.com/danupratama/authgate/internal/pkg/instrument"
	"github.com/danupratama/authgate/internal/pkg/otp"
	"github.com/danupratama/authgate/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `
modules:
  auth:
    challenge_ttl_seconds: 300
    purge_grace_seconds: 3600
`

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

type fakeUUID struct{ value string }

func (f *fakeUUID) Generate() string { return f.value }

type fakeDB struct {
	users        map[string]*entity.User
	createErr    error
	getErr       error
	advanceErr   error
	advancedFrom entity.UserStatus
	advancedTo   entity.UserStatus
	advancedFor  string
}

func (f *fakeDB) GetUserByEmail(_ context.Context, email string) (*entity.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[email]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return u, nil
}

func (f *fakeDB) CreateUser(_ context.Context, user entity.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.users[user.Email] = &user
	return nil
}

func (f *fakeDB) AdvanceUserStatus(_ context.Context, email string, oldStatus, newStatus entity.UserStatus) error {
	f.advancedFor = email
	f.advancedFrom = oldStatus
	f.advancedTo = newStatus
	if f.advanceErr != nil {
		return f.advanceErr
	}
	if u, ok := f.users[email]; ok && u.Status == oldStatus {
		u.Status = newStatus
	}
	return nil
}

type fakeChallengeStore struct {
	records    map[string]entity.ChallengeRecord
	putErr     error
	getErr     error
	deleteErr  error
	getCalls   int
	deletes    int
	increments int
}

func (f *fakeChallengeStore) PutChallenge(_ context.Context, rec entity.ChallengeRecord) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.records[rec.Email] = rec
	return nil
}

func (f *fakeChallengeStore) GetChallenge(_ context.Context, email string) (*entity.ChallengeRecord, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec, ok := f.records[email]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &rec, nil
}

func (f *fakeChallengeStore) DeleteChallenge(_ context.Context, email string) error {
	f.deletes++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.records, email)
	return nil
}

func (f *fakeChallengeStore) IncrementChallengeAttempts(_ context.Context, email string) error {
	f.increments++
	rec, ok := f.records[email]
	if !ok {
		return goerror.ErrNotFound
	}
	rec.FailedAttempts++
	f.records[email] = rec
	return nil
}

type fakeLimiter struct {
	state     entity.RateLimitState
	checkErr  error
	recordErr error
	checks    int
	records   int
}

func (f *fakeLimiter) CheckRateLimit(_ context.Context, _ string) (entity.RateLimitState, error) {
	f.checks++
	return f.state, f.checkErr
}

func (f *fakeLimiter) RecordRateLimit(_ context.Context, _ string) error {
	f.records++
	return f.recordErr
}

type fakeIDP struct {
	confirmErr  error
	verifyErr   error
	confirmed   []string
	markedAsVer []string
}

func (f *fakeIDP) ConfirmUser(_ context.Context, userID string) error {
	f.confirmed = append(f.confirmed, userID)
	return f.confirmErr
}

func (f *fakeIDP) MarkEmailVerified(_ context.Context, userID string) error {
	f.markedAsVer = append(f.markedAsVer, userID)
	return f.verifyErr
}

type fakeDelivery struct {
	sendErr error
	sent    []PasscodeDelivery
}

func (f *fakeDelivery) SendPasscode(_ context.Context, in PasscodeDelivery) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, in)
	return nil
}

type fakeMessaging struct {
	publishErr error
	issued     []ChallengeIssuedEvent
	verified   []EmailVerifiedEvent
}

func (f *fakeMessaging) PublishChallengeIssued(_ context.Context, msg ChallengeIssuedEvent) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.issued = append(f.issued, msg)
	return nil
}

func (f *fakeMessaging) PublishEmailVerified(_ context.Context, msg EmailVerifiedEvent) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.verified = append(f.verified, msg)
	return nil
}

type testEnv struct {
	uc        *Usecase
	db        *fakeDB
	store     *fakeChallengeStore
	limiter   *fakeLimiter
	idp       *fakeIDP
	delivery  *fakeDelivery
	messaging *fakeMessaging
	clock     *fakeClock
	codec     otp.Codec
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfigYAML))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cfg.Close() })

	valid, err := validator.NewV10Validator()
	require.NoError(t, err)

	env := &testEnv{
		db:        &fakeDB{users: map[string]*entity.User{}},
		store:     &fakeChallengeStore{records: map[string]entity.ChallengeRecord{}},
		limiter:   &fakeLimiter{state: entity.RateLimitState{Allowed: true}},
		idp:       &fakeIDP{},
		delivery:  &fakeDelivery{},
		messaging: &fakeMessaging{},
		clock:     &fakeClock{now: time.Unix(1_700_000_000, 0)},
		codec:     otp.NewSHA256Codec(),
	}

	env.uc = New(Dependency{
		RepoDB:        env.db,
		RepoChallenge: env.store,
		RepoLimiter:   env.limiter,
		RepoIDP:       env.idp,
		RepoDelivery:  env.delivery,
		RepoMessaging: env.messaging,
		Validator:     valid,
		Config:        cfg,
		Codec:         env.codec,
		UUID:          &fakeUUID{value: "token-123"},
		Clock:         env.clock,
		Instrument:    instrument.NewNoop(),
	})

	return env
}

func TestIssueChallenge_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	out, err := env.uc.IssueChallenge(ctx, IssueChallengeInput{Email: "a@x.com", UserID: "sub-1"})
	require.NoError(t, err)

	assert.Equal(t, MetadataChallengeIssued, out.Metadata)
	assert.Equal(t, "a@x.com", out.PublicParameters["email"])
	assert.Equal(t, entity.ChallengeName, out.PublicParameters["challenge_type"])
	assert.Equal(t, "token-123", out.PrivateParameters["challenge_token"])
	assert.Equal(t, "sub-1", out.PrivateParameters["user_id"])
	assert.Equal(t, "UNVERIFIED", out.PrivateParameters["user_status"])

	// record holds the digest of the delivered code, never the code itself
	require.Len(t, env.delivery.sent, 1)
	code := env.delivery.sent[0].Code
	assert.True(t, otp.ValidFormat(code))

	rec := env.store.records["a@x.com"]
	assert.Equal(t, env.codec.Digest(code), rec.SecretDigest)
	assert.NotContains(t, rec.SecretDigest, code)

	now := env.clock.now.Unix()
	assert.Equal(t, now, rec.CreatedAt)
	assert.Equal(t, now+300, rec.ExpiresAt)
	assert.Equal(t, rec.ExpiresAt+3600, rec.PurgeAfter)

	// user was provisioned, confirmed, and the issuance was charged and announced
	require.NotNil(t, env.db.users["a@x.com"])
	assert.Equal(t, entity.UserStatusUnverified, env.db.users["a@x.com"].Status)
	assert.Equal(t, []string{"sub-1"}, env.idp.confirmed)
	assert.Equal(t, 1, env.limiter.records)
	require.Len(t, env.messaging.issued, 1)
	assert.Equal(t, "token-123", env.messaging.issued[0].ChallengeID)
}

func TestIssueChallenge_InvalidEmail(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.uc.IssueChallenge(context.Background(), IssueChallengeInput{Email: "not-an-email", UserID: "sub-1"})
	require.Error(t, err)

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, goerror.CodeInvalidInput, gerr.Code())
	assert.Zero(t, env.limiter.checks, "validation happens before any collaborator call")
}

func TestIssueChallenge_RateLimited(t *testing.T) {
	env := newTestEnv(t)
	env.limiter.state = entity.RateLimitState{Allowed: false, ResetAfter: 7 * time.Minute}

	_, err := env.uc.IssueChallenge(context.Background(), IssueChallengeInput{Email: "a@x.com", UserID: "sub-1"})
	require.Error(t, err)

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, goerror.CodeTooManyRequest, gerr.Code())
	assert.Contains(t, gerr.Msg(), "7 minutes")

	assert.Empty(t, env.store.records)
	assert.Empty(t, env.delivery.sent)
	assert.Zero(t, env.limiter.records)
}

func TestIssueChallenge_RateLimitedClampsToOneMinute(t *testing.T) {
	env := newTestEnv(t)
	env.limiter.state = entity.RateLimitState{Allowed: false, ResetAfter: 10 * time.Second}

	_, err := env.uc.IssueChallenge(context.Background(), IssueChallengeInput{Email: "a@x.com", UserID: "sub-1"})
	require.Error(t, err)

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Contains(t, gerr.Msg(), "1 minutes")
}

func TestIssueChallenge_ExistingUserKeepsTheirID(t *testing.T) {
	env := newTestEnv(t)
	env.db.users["a@x.com"] = &entity.User{ID: "sub-old", Email: "a@x.com", Status: entity.UserStatusNeedsProfile}

	out, err := env.uc.IssueChallenge(context.Background(), IssueChallengeInput{Email: "a@x.com", UserID: "sub-new"})
	require.NoError(t, err)

	assert.Equal(t, "sub-old", out.PrivateParameters["user_id"])
	assert.Equal(t, "NEEDS_PROFILE", out.PrivateParameters["user_status"])
}

func TestIssueChallenge_CreateConflictReReads(t *testing.T) {
	env := newTestEnv(t)
	env.db.createErr = goerror.ErrConflict
	env.db.users["a@x.com"] = &entity.User{ID: "sub-winner", Email: "a@x.com", Status: entity.UserStatusUnverified}

	out, err := env.uc.IssueChallenge(context.Background(), IssueChallengeInput{Email: "a@x.com", UserID: "sub-loser"})
	require.NoError(t, err)
	assert.Equal(t, "sub-winner", out.PrivateParameters["user_id"])
}

func TestIssueChallenge_ConfirmFailureDoesNotBlock(t *testing.T) {
	env := newTestEnv(t)
	env.idp.confirmErr = errors.New("idp down")

	_, err := env.uc.IssueChallenge(context.Background(), IssueChallengeInput{Email: "a@x.com", UserID: "sub-1"})
	require.NoError(t, err)
	assert.Len(t, env.delivery.sent, 1)
}

func TestIssueChallenge_DeliveryFailureIsHard(t *testing.T) {
	env := newTestEnv(t)
	env.delivery.sendErr = errors.New("smtp refused")

	_, err := env.uc.IssueChallenge(context.Background(), IssueChallengeInput{Email: "a@x.com", UserID: "sub-1"})
	require.Error(t, err)

	// failed delivery must not consume rate-limit budget
	assert.Zero(t, env.limiter.records)
	assert.Empty(t, env.messaging.issued)
}

func TestIssueChallenge_SupersedesPriorChallenge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.uc.IssueChallenge(ctx, IssueChallengeInput{Email: "a@x.com", UserID: "sub-1"})
	require.NoError(t, err)
	first := env.store.records["a@x.com"]

	env.clock.now = env.clock.now.Add(time.Minute)
	_, err = env.uc.IssueChallenge(ctx, IssueChallengeInput{Email: "a@x.com", UserID: "sub-1"})
	require.NoError(t, err)
	second := env.store.records["a@x.com"]

	assert.NotEqual(t, first.SecretDigest, second.SecretDigest)
	assert.Len(t, env.store.records, 1)
}

func issueAndGetCode(t *testing.T, env *testEnv, email string) string {
	t.Helper()
	_, err := env.uc.IssueChallenge(context.Background(), IssueChallengeInput{Email: email, UserID: "sub-1"})
	require.NoError(t, err)
	return env.delivery.sent[len(env.delivery.sent)-1].Code
}

func TestVerifyChallenge_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	code := issueAndGetCode(t, env, "a@x.com")

	out, err := env.uc.VerifyChallenge(ctx, VerifyChallengeInput{Email: "a@x.com", Answer: code})
	require.NoError(t, err)
	assert.True(t, out.Correct)

	assert.Empty(t, env.store.records, "consumed record is deleted")
	assert.Equal(t, "a@x.com", env.db.advancedFor)
	assert.Equal(t, entity.UserStatusUnverified, env.db.advancedFrom)
	assert.Equal(t, entity.UserStatusNeedsProfile, env.db.advancedTo)
	assert.Equal(t, []string{"sub-1"}, env.idp.markedAsVer)
	require.Len(t, env.messaging.verified, 1)
	assert.Equal(t, "a@x.com", env.messaging.verified[0].Email)

	// replay with the same code finds nothing
	out, err = env.uc.VerifyChallenge(ctx, VerifyChallengeInput{Email: "a@x.com", Answer: code})
	require.NoError(t, err)
	assert.False(t, out.Correct)
}

func TestVerifyChallenge_BadFormatSkipsStore(t *testing.T) {
	env := newTestEnv(t)

	for _, answer := range []string{"", "12345", "1234567", "12a456", "abcdef"} {
		out, err := env.uc.VerifyChallenge(context.Background(), VerifyChallengeInput{Email: "a@x.com", Answer: answer})
		require.NoError(t, err)
		assert.False(t, out.Correct)
	}

	assert.Zero(t, env.store.getCalls, "format gate runs before any store access")
}

func TestVerifyChallenge_MissingEmail(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.uc.VerifyChallenge(context.Background(), VerifyChallengeInput{Email: "  ", Answer: "123456"})
	require.Error(t, err)
}

func TestVerifyChallenge_NoChallenge(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.uc.VerifyChallenge(context.Background(), VerifyChallengeInput{Email: "a@x.com", Answer: "123456"})
	require.NoError(t, err)
	assert.False(t, out.Correct)
}

func TestVerifyChallenge_WrongCode(t *testing.T) {
	env := newTestEnv(t)
	code := issueAndGetCode(t, env, "a@x.com")

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	out, err := env.uc.VerifyChallenge(context.Background(), VerifyChallengeInput{Email: "a@x.com", Answer: wrong})
	require.NoError(t, err)
	assert.False(t, out.Correct)

	assert.Equal(t, 1, env.store.increments)
	assert.NotEmpty(t, env.store.records, "challenge stays for another try")
	assert.Empty(t, env.idp.markedAsVer)
}

func TestVerifyChallenge_Expired(t *testing.T) {
	env := newTestEnv(t)
	code := issueAndGetCode(t, env, "a@x.com")

	env.clock.now = env.clock.now.Add(301 * time.Second)

	out, err := env.uc.VerifyChallenge(context.Background(), VerifyChallengeInput{Email: "a@x.com", Answer: code})
	require.NoError(t, err)
	assert.False(t, out.Correct)
	assert.Empty(t, env.store.records, "expired record cleaned up opportunistically")
}

func TestVerifyChallenge_ValidThroughExpiryInstant(t *testing.T) {
	env := newTestEnv(t)
	code := issueAndGetCode(t, env, "a@x.com")

	env.clock.now = env.clock.now.Add(300 * time.Second)

	out, err := env.uc.VerifyChallenge(context.Background(), VerifyChallengeInput{Email: "a@x.com", Answer: code})
	require.NoError(t, err)
	assert.True(t, out.Correct)
}

func TestVerifyChallenge_DeleteFailureIsHard(t *testing.T) {
	env := newTestEnv(t)
	code := issueAndGetCode(t, env, "a@x.com")

	env.store.deleteErr = errors.New("store down")

	_, err := env.uc.VerifyChallenge(context.Background(), VerifyChallengeInput{Email: "a@x.com", Answer: code})
	require.Error(t, err, "a consumed but undeleted record risks replay")
}

func TestVerifyChallenge_BestEffortFailuresDoNotFlipResult(t *testing.T) {
	env := newTestEnv(t)
	code := issueAndGetCode(t, env, "a@x.com")

	env.db.advanceErr = errors.New("db down")
	env.idp.verifyErr = errors.New("idp down")
	env.messaging.publishErr = errors.New("broker down")

	out, err := env.uc.VerifyChallenge(context.Background(), VerifyChallengeInput{Email: "a@x.com", Answer: code})
	require.NoError(t, err)
	assert.True(t, out.Correct)
}

func TestDecideChallenge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	yes, no := true, false

	out, err := env.uc.DecideChallenge(ctx, DecideChallengeInput{})
	require.NoError(t, err)
	assert.Equal(t, &DecideChallengeOutput{ChallengeName: entity.ChallengeName, IssueChallenge: true}, out)

	out, err = env.uc.DecideChallenge(ctx, DecideChallengeInput{Session: []entity.ChallengeAttempt{
		{ChallengeName: entity.ChallengeName, Result: &yes},
	}})
	require.NoError(t, err)
	assert.Equal(t, &DecideChallengeOutput{IssueTokens: true}, out)

	out, err = env.uc.DecideChallenge(ctx, DecideChallengeInput{Session: []entity.ChallengeAttempt{
		{ChallengeName: entity.ChallengeName, Result: &no},
	}})
	require.NoError(t, err)
	assert.Equal(t, &DecideChallengeOutput{FailAuthentication: true}, out)

	out, err = env.uc.DecideChallenge(ctx, DecideChallengeInput{Session: []entity.ChallengeAttempt{
		{ChallengeName: entity.ChallengeName, Result: nil},
	}})
	require.NoError(t, err)
	assert.Equal(t, &DecideChallengeOutput{FailAuthentication: true}, out)
}
