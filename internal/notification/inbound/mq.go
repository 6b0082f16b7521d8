package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/danupratama/authgate/internal/notification/usecase"
	"github.com/danupratama/authgate/internal/pkg/config"
	"github.com/danupratama/authgate/internal/pkg/goroutine"
	"github.com/danupratama/authgate/internal/pkg/instrument"
	"github.com/danupratama/authgate/internal/pkg/messaging"
	"github.com/danupratama/authgate/internal/pkg/uid"
	"github.com/danupratama/authgate/internal/shared/event"
)

type uc interface {
	ConsumeEmailVerified(ctx context.Context, in usecase.ConsumeEmailVerifiedInput) error
	ConsumeChallengeIssued(ctx context.Context, in usecase.ConsumeChallengeIssuedInput) error
}

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Messaging,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.notification.consumer_names")

	var consumers = []struct {
		name               string
		topic              string // destination where publisher sent message
		nsqConsumerName    string // for nsq
		natsConsumerName   string // for nats
		kafkaConsumerName  string // for kafka
		pubsubConsumerName string // for google pubsub
		handler            messaging.Handler
	}{
		{
			name:               event.EmailVerifiedConsumerNotification,
			topic:              event.EmailVerifiedDestination,
			nsqConsumerName:    event.EmailVerifiedConsumerNotification,
			natsConsumerName:   event.EmailVerifiedConsumerNotification,
			kafkaConsumerName:  event.EmailVerifiedConsumerNotification,
			pubsubConsumerName: event.EmailVerifiedConsumerNotification,
			handler:            mqHandler.EmailVerifiedNotification,
		},
		{
			name:               event.ChallengeIssuedConsumerNotification,
			topic:              event.ChallengeIssuedDestination,
			nsqConsumerName:    event.ChallengeIssuedConsumerNotification,
			natsConsumerName:   event.ChallengeIssuedConsumerNotification,
			kafkaConsumerName:  event.ChallengeIssuedConsumerNotification,
			pubsubConsumerName: event.ChallengeIssuedConsumerNotification,
			handler:            mqHandler.ChallengeIssuedNotification,
		},
	}

	for _, consumer := range consumers {
		if len(enableConsumerNames) > 0 && slices.Contains(enableConsumerNames, consumer.name) {
			routine.Go(ctx, func(pCtx context.Context) error {
				slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
				return messenger.Consume(pCtx,
					consumer.topic,
					consumer.handler,
					messaging.WithChannel(consumer.nsqConsumerName),
					messaging.WithQueueGroup(consumer.natsConsumerName),
					messaging.WithGroup(consumer.kafkaConsumerName),
					messaging.WithSubscription(consumer.pubsubConsumerName),
					messaging.WithAutoAck(true),
					messaging.WithConcurrency(10),
					messaging.WithMaxInFlight(10),
				)
			})
		}
	}
}
