package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/danupratama/authgate/internal/auth/entity"
	"github.com/danupratama/authgate/internal/pkg/goerror"
	"github.com/danupratama/authgate/internal/pkg/otp"
)

type VerifyChallengeInput struct {
	Email  string
	Answer string
}

type VerifyChallengeOutput struct {
	Correct bool
}

// VerifyChallenge checks a submitted answer against the stored challenge.
// Routine failures (bad format, no challenge, expired, wrong code) are a
// false result, not an error; only infrastructure faults return an error, and
// the trigger boundary degrades even those to false.
func (s *Usecase) VerifyChallenge(ctx context.Context, in VerifyChallengeInput) (*VerifyChallengeOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyChallenge")
	defer span.End()

	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" {
		return nil, goerror.NewInvalidFormat("email is required")
	}

	if !otp.ValidFormat(in.Answer) {
		return &VerifyChallengeOutput{}, nil
	}

	rec, err := s.repoChallenge.GetChallenge(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		return &VerifyChallengeOutput{}, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to get challenge record", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	if rec.Expired(now) {
		if dErr := s.repoChallenge.DeleteChallenge(ctx, in.Email); dErr != nil {
			slog.WarnContext(ctx, "failed to delete expired challenge", "email", in.Email, "error", dErr)
		}
		return &VerifyChallengeOutput{}, nil
	}

	if !s.codec.Verify(rec.SecretDigest, in.Answer) {
		if iErr := s.repoChallenge.IncrementChallengeAttempts(ctx, in.Email); iErr != nil {
			slog.WarnContext(ctx, "failed to count failed attempt", "email", in.Email, "error", iErr)
		}
		return &VerifyChallengeOutput{}, nil
	}

	// A consumed record left behind could be replayed, so this delete is
	// required, unlike the cleanup above.
	if err := s.repoChallenge.DeleteChallenge(ctx, in.Email); err != nil {
		slog.ErrorContext(ctx, "failed to delete consumed challenge", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoDB.AdvanceUserStatus(ctx, in.Email, entity.UserStatusUnverified, entity.UserStatusNeedsProfile); err != nil {
		slog.WarnContext(ctx, "failed to advance user status", "email", in.Email, "error", err)
	}

	if err := s.repoIDP.MarkEmailVerified(ctx, rec.UserID); err != nil {
		slog.WarnContext(ctx, "failed to mark email verified with identity provider", "user_id", rec.UserID, "error", err)
	}

	if err := s.repoMessaging.PublishEmailVerified(ctx, EmailVerifiedEvent{
		UserID:     rec.UserID,
		Email:      in.Email,
		VerifiedAt: now.Unix(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish email verified", "email", in.Email, "error", err)
	}

	return &VerifyChallengeOutput{Correct: true}, nil
}
