package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/danupratama/authgate/internal/auth/entity"
	"github.com/danupratama/authgate/internal/pkg/goerror"
)

// MetadataChallengeIssued marks a successful issuance toward the identity
// provider. MetadataError marks a degraded response.
const (
	MetadataChallengeIssued = "OTP_EMAIL_SENT"
	MetadataError           = "ERROR"
)

type IssueChallengeInput struct {
	// Email is the identity the code is delivered to. Matched case-preserving
	// against the directory.
	Email string `validate:"required,email"`
	// UserID is the identity provider's subject identifier, reused as our
	// directory key so both sides agree on a single id.
	UserID string `validate:"required"`
}

type IssueChallengeOutput struct {
	// PublicParameters are safe to disclose to the client.
	PublicParameters map[string]string
	// PrivateParameters travel to the next verification round only.
	PrivateParameters map[string]string
	Metadata          string
}

// IssueChallenge mints a one-time passcode for the identity, stores its
// digest, and delivers it. The rate limiter is consulted before any mutation
// and charged only after the code actually went out.
func (s *Usecase) IssueChallenge(ctx context.Context, in IssueChallengeInput) (*IssueChallengeOutput, error) {
	ctx, span := s.startSpan(ctx, "IssueChallenge")
	defer span.End()

	in.Email = strings.TrimSpace(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	state, err := s.repoLimiter.CheckRateLimit(ctx, in.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check rate limit", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !state.Allowed {
		msg := fmt.Sprintf("Too many sign-in codes requested. Try again in %d minutes.", state.ResetMinutes())
		return nil, goerror.NewBusiness(msg, goerror.CodeTooManyRequest)
	}

	user, err := s.provisionUser(ctx, in)
	if err != nil {
		return nil, err
	}

	// Confirm the account with the provider now, not after verification, so
	// it already accepts attribute updates when the user submits the code.
	// Best effort: the account may be confirmed from a prior attempt.
	if err := s.repoIDP.ConfirmUser(ctx, user.ID); err != nil {
		slog.WarnContext(ctx, "failed to confirm user with identity provider", "user_id", user.ID, "error", err)
	}

	secret, err := s.codec.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate passcode", "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	ttl := s.cfg.GetSecond("modules.auth.challenge_ttl_seconds")
	grace := s.cfg.GetSecond("modules.auth.purge_grace_seconds")
	token := s.uuid.Generate()

	rec := entity.ChallengeRecord{
		Email:          in.Email,
		SecretDigest:   s.codec.Digest(secret),
		ChallengeToken: token,
		UserID:         user.ID,
		CreatedAt:      now.Unix(),
		ExpiresAt:      now.Add(ttl).Unix(),
		PurgeAfter:     now.Add(ttl + grace).Unix(),
	}
	if err := s.repoChallenge.PutChallenge(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "failed to store challenge record", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	// The one hard side effect: without the code the user cannot answer.
	if err := s.repoDelivery.SendPasscode(ctx, PasscodeDelivery{
		To:           in.Email,
		Code:         secret,
		ValidMinutes: int(ttl.Minutes()),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to deliver passcode", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoLimiter.RecordRateLimit(ctx, in.Email); err != nil {
		slog.ErrorContext(ctx, "failed to record rate limit usage", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoMessaging.PublishChallengeIssued(ctx, ChallengeIssuedEvent{
		UserID:      user.ID,
		Email:       in.Email,
		ChallengeID: token,
		IssuedAt:    now.Unix(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish challenge issued", "email", in.Email, "error", err)
	}

	return &IssueChallengeOutput{
		PublicParameters: map[string]string{
			"email":          in.Email,
			"challenge_type": entity.ChallengeName,
		},
		PrivateParameters: map[string]string{
			"challenge_token": token,
			"user_id":         user.ID,
			"user_status":     user.Status.String(),
		},
		Metadata: MetadataChallengeIssued,
	}, nil
}

func (s *Usecase) provisionUser(ctx context.Context, in IssueChallengeInput) (*entity.User, error) {
	user, err := s.repoDB.GetUserByEmail(ctx, in.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	newUser := entity.User{
		ID:        in.UserID,
		Email:     in.Email,
		Status:    entity.UserStatusUnverified,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.repoDB.CreateUser(ctx, newUser)
	if err == nil {
		return &newUser, nil
	}
	if !errors.Is(err, goerror.ErrConflict) {
		slog.ErrorContext(ctx, "failed to repo create user", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	// a concurrent issuance created the record first, use theirs
	user, err = s.repoDB.GetUserByEmail(ctx, in.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo re-read user after conflict", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	return user, nil
}
