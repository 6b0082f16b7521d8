package usecase

import (
	"context"
	"log/slog"

	"github.com/danupratama/authgate/internal/notification/entity"
	"github.com/danupratama/authgate/internal/pkg/valueobject"
)

type ConsumeEmailVerifiedInput struct {
	UserID string
	Email  string
}

// ConsumeEmailVerified reacts to a verified email address. It sends the
// profile setup email and drops a welcome notification into the user's
// in-app feed.
func (s *Usecase) ConsumeEmailVerified(ctx context.Context, in ConsumeEmailVerifiedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeEmailVerified")
	defer span.End()

	data := s.baseEmailTemplateData()
	data["email"] = in.Email
	data["profile_url"] = s.cfg.GetString("modules.notification.profile_setup_url")

	s.sendEmailNotification(ctx, emailNotificationInput{
		UserID:       in.UserID,
		Email:        in.Email,
		TriggerKey:   entity.TriggerKeyProfileSetup,
		TemplateData: data,
		NotificationData: valueobject.JSONMap{
			"email": in.Email,
		},
	})

	tpl := s.getTemplate(ctx, entity.TriggerKeyUserWelcome, entity.ChannelInApp)
	if tpl == nil {
		return nil
	}

	n := entity.CreateNotification{
		ID:         s.uid.Generate(),
		UserID:     in.UserID,
		CategoryID: tpl.CategoryID,
		TriggerKey: entity.TriggerKeyUserWelcome,
		Data:       valueobject.JSONMap{"email": in.Email},
		Metadata:   valueobject.JSONMap{},
	}
	if err := s.repoDB.CreateNotification(ctx, n); err != nil {
		slog.ErrorContext(ctx, "failed to repo create welcome notification", "user_id", in.UserID, "error", err)
	}

	return nil
}
