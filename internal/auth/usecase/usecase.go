package usecase

import (
	"context"

	"github.com/danupratama/authgate/internal/auth/entity"
	"github.com/danupratama/authgate/internal/pkg/clock"
	"github.com/danupratama/authgate/internal/pkg/config"
	"github.com/danupratama/authgate/internal/pkg/instrument"
	"github.com/danupratama/authgate/internal/pkg/otp"
	"github.com/danupratama/authgate/internal/pkg/uid"
	"github.com/danupratama/authgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type ChallengeIssuedEvent struct {
	UserID      string
	Email       string
	ChallengeID string
	IssuedAt    int64
}

type EmailVerifiedEvent struct {
	UserID     string
	Email      string
	VerifiedAt int64
}

// PasscodeDelivery is what the delivery collaborator needs to put a secret in
// front of the user.
type PasscodeDelivery struct {
	To           string
	Code         string
	ValidMinutes int
}

type repoMessaging interface {
	PublishChallengeIssued(ctx context.Context, msg ChallengeIssuedEvent) error
	PublishEmailVerified(ctx context.Context, msg EmailVerifiedEvent) error
}

type repoDB interface {
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	CreateUser(ctx context.Context, user entity.User) error
	AdvanceUserStatus(ctx context.Context, email string, oldStatus, newStatus entity.UserStatus) error
}

type repoChallenge interface {
	PutChallenge(ctx context.Context, rec entity.ChallengeRecord) error
	GetChallenge(ctx context.Context, email string) (*entity.ChallengeRecord, error)
	DeleteChallenge(ctx context.Context, email string) error
	IncrementChallengeAttempts(ctx context.Context, email string) error
}

type repoLimiter interface {
	CheckRateLimit(ctx context.Context, identity string) (entity.RateLimitState, error)
	RecordRateLimit(ctx context.Context, identity string) error
}

type repoIDP interface {
	ConfirmUser(ctx context.Context, userID string) error
	MarkEmailVerified(ctx context.Context, userID string) error
}

type repoDelivery interface {
	SendPasscode(ctx context.Context, in PasscodeDelivery) error
}

type Usecase struct {
	repoDB        repoDB
	repoChallenge repoChallenge
	repoLimiter   repoLimiter
	repoIDP       repoIDP
	repoDelivery  repoDelivery
	repoMessaging repoMessaging
	validator     validator.Validator
	cfg           config.Config
	codec         otp.Codec
	uuid          uid.StringID
	clock         clock.Clocker
	ins           instrument.Instrumentation
}

type Dependency struct {
	RepoDB        repoDB
	RepoChallenge repoChallenge
	RepoLimiter   repoLimiter
	RepoIDP       repoIDP
	RepoDelivery  repoDelivery
	RepoMessaging repoMessaging
	Validator     validator.Validator
	Config        config.Config
	Codec         otp.Codec
	UUID          uid.StringID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoChallenge: dep.RepoChallenge,
		repoLimiter:   dep.RepoLimiter,
		repoIDP:       dep.RepoIDP,
		repoDelivery:  dep.RepoDelivery,
		repoMessaging: dep.RepoMessaging,
		validator:     dep.Validator,
		cfg:           dep.Config,
		codec:         dep.Codec,
		uuid:          dep.UUID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.usecase").Start(ctx, name)
}
