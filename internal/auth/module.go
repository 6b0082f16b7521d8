package auth

import (
	"github.com/danupratama/authgate/internal/auth/inbound"
	"github.com/danupratama/authgate/internal/auth/outbound/cache"
	"github.com/danupratama/authgate/internal/auth/outbound/db"
	"github.com/danupratama/authgate/internal/auth/outbound/delivery"
	"github.com/danupratama/authgate/internal/auth/outbound/idp"
	"github.com/danupratama/authgate/internal/auth/outbound/mq"
	"github.com/danupratama/authgate/internal/auth/usecase"
	"github.com/danupratama/authgate/internal/pkg/clock"
	"github.com/danupratama/authgate/internal/pkg/config"
	"github.com/danupratama/authgate/internal/pkg/instrument"
	"github.com/danupratama/authgate/internal/pkg/mail"
	"github.com/danupratama/authgate/internal/pkg/messaging"
	"github.com/danupratama/authgate/internal/pkg/otp"
	"github.com/danupratama/authgate/internal/pkg/router"
	"github.com/danupratama/authgate/internal/pkg/uid"
	"github.com/danupratama/authgate/internal/pkg/validator"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	CacheConn  *redis.Client              `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	store := cache.NewCache(cache.Config{
		Client:      dep.CacheConn,
		Clock:       dep.Clock,
		Instrument:  dep.Instrument,
		Window:      dep.Config.GetSecond("modules.auth.rate_limit_window_seconds"),
		MaxRequests: dep.Config.GetInt64("modules.auth.rate_limit_max_requests"),
	})

	idpClient := idp.NewClient(idp.Config{
		BaseURL:    dep.Config.GetString("modules.auth.idp.base_url"),
		Token:      dep.Config.GetString("modules.auth.idp.token"),
		Timeout:    dep.Config.GetSecond("modules.auth.idp.timeout_seconds"),
		MaxRetries: uint64(dep.Config.GetInt64("modules.auth.idp.max_retries")),
		Instrument: dep.Instrument,
	})

	uc := usecase.New(usecase.Dependency{
		RepoDB:        db.NewDB(dep.DBConn, dep.Instrument),
		RepoChallenge: store,
		RepoLimiter:   store,
		RepoIDP:       idpClient,
		RepoDelivery:  delivery.NewEmail(dep.Mail, dep.Instrument),
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Validator:     dep.Validator,
		Config:        dep.Config,
		Codec:         otp.NewSHA256Codec(),
		UUID:          dep.UUID,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
