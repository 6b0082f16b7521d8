package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/danupratama/authgate/internal/notification/usecase"
	"github.com/danupratama/authgate/internal/pkg/instrument"
	"github.com/danupratama/authgate/internal/pkg/messaging"
	"github.com/danupratama/authgate/internal/pkg/uid"
	"github.com/danupratama/authgate/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	for i := range headers {
		if headers[i].Key == keyOfCorrelationID {
			return instrument.SetCorrelationID(ctx, string(headers[i].Value))
		}
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) EmailVerifiedNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "EmailVerifiedNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: email verified notification", "msg_body", string(body))

	var payload event.EmailVerifiedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of email verified notification", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeEmailVerified(ctx, usecase.ConsumeEmailVerifiedInput{
		UserID: payload.UserID,
		Email:  payload.Email,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume email verified", "msg_body", string(body), "error", err)
		return err
	}

	return nil
}

func (h *MQHandler) ChallengeIssuedNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "ChallengeIssuedNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: challenge issued notification", "msg_body", string(body))

	var payload event.ChallengeIssuedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of challenge issued notification", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeChallengeIssued(ctx, usecase.ConsumeChallengeIssuedInput{
		UserID:      payload.UserID,
		Email:       payload.Email,
		ChallengeID: payload.ChallengeID,
		IssuedAt:    payload.IssuedAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume challenge issued", "msg_body", string(body), "error", err)
		return err
	}

	return nil
}
