package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/danupratama/authgate/internal/notification/entity"
	"github.com/danupratama/authgate/internal/pkg/valueobject"
)

type ConsumeChallengeIssuedInput struct {
	UserID      string
	Email       string
	ChallengeID string
	IssuedAt    int64
}

// ConsumeChallengeIssued records a sign-in code event in the user's in-app
// feed so they can audit sign-in activity on their account.
func (s *Usecase) ConsumeChallengeIssued(ctx context.Context, in ConsumeChallengeIssuedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeChallengeIssued")
	defer span.End()

	tpl := s.getTemplate(ctx, entity.TriggerKeySignInCode, entity.ChannelInApp)
	if tpl == nil {
		return nil
	}

	n := entity.CreateNotification{
		ID:         s.uid.Generate(),
		UserID:     in.UserID,
		CategoryID: tpl.CategoryID,
		TriggerKey: entity.TriggerKeySignInCode,
		Data: valueobject.JSONMap{
			"email":     in.Email,
			"issued_at": time.Unix(in.IssuedAt, 0).UTC().Format(time.RFC3339),
		},
		Metadata: valueobject.JSONMap{"challenge_id": in.ChallengeID},
	}
	if err := s.repoDB.CreateNotification(ctx, n); err != nil {
		slog.ErrorContext(ctx, "failed to repo create sign-in code notification", "user_id", in.UserID, "error", err)
		return err
	}

	return nil
}
