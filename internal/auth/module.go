package auth

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/portal/internal/auth/inbound"
	"github.com/shandysiswandi/portal/internal/auth/outbound/backend"
	"github.com/shandysiswandi/portal/internal/auth/outbound/cache"
	"github.com/shandysiswandi/portal/internal/auth/outbound/db"
	"github.com/shandysiswandi/portal/internal/auth/outbound/local"
	"github.com/shandysiswandi/portal/internal/auth/outbound/mq"
	"github.com/shandysiswandi/portal/internal/auth/usecase"
	"github.com/shandysiswandi/portal/internal/pkg/clock"
	"github.com/shandysiswandi/portal/internal/pkg/config"
	"github.com/shandysiswandi/portal/internal/pkg/goroutine"
	"github.com/shandysiswandi/portal/internal/pkg/hash"
	"github.com/shandysiswandi/portal/internal/pkg/httpclient"
	"github.com/shandysiswandi/portal/internal/pkg/instrument"
	"github.com/shandysiswandi/portal/internal/pkg/jwt"
	"github.com/shandysiswandi/portal/internal/pkg/messaging"
	"github.com/shandysiswandi/portal/internal/pkg/otp"
	"github.com/shandysiswandi/portal/internal/pkg/router"
	"github.com/shandysiswandi/portal/internal/pkg/uid"
	"github.com/shandysiswandi/portal/internal/pkg/validator"
	"github.com/ulule/limiter/v3"
	"golang.org/x/oauth2"
)

const (
	StoreDriverHTTP  = "http"
	StoreDriverLocal = "local"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	CacheConn  redis.UniversalClient      `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Backend    *httpclient.Client         `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Clock      clock.Scheduler            `validate:"required"`
	Totp       otp.OTP                    `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`

	// optional
	CaptureLimit *limiter.Limiter
	T1Pay        *oauth2.Config
}

// New wires the auth module and returns its usecase, which other modules use
// to resolve portal sessions. Call Shutdown on it when the server stops.
func New(dep Dependency) (*usecase.Usecase, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	var store usecase.SessionStore
	switch driver := dep.Config.GetString("modules.auth.store.driver"); driver {
	case StoreDriverHTTP, "":
		store = backend.NewStore(dep.Backend)
	case StoreDriverLocal:
		store = local.NewStore(local.Config{
			FixedCode:          dep.Config.GetString("modules.auth.store.local.fixed_code"),
			BlockedIdentifiers: dep.Config.GetArray("modules.auth.store.local.blocked_identifiers"),
			CodeExpiry:         dep.Config.GetMinute("modules.auth.store.local.code_expiry_minutes"),
		}, dep.Totp, dep.Clock, dep.UUID)
	default:
		return nil, fmt.Errorf("auth: unknown session store driver %q", driver)
	}

	uc := usecase.New(usecase.Dependency{
		Store:         store,
		RepoCache:     cache.NewCache(dep.CacheConn, dep.Clock, dep.Instrument),
		RepoDB:        db.NewDB(dep.DBConn, dep.Instrument),
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Validator:     dep.Validator,
		Config:        dep.Config,
		HMAC:          dep.HMAC,
		UID:           dep.UID,
		UUID:          dep.UUID,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
		T1Pay:         dep.T1Pay,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, dep.CaptureLimit)

	return uc, nil
}
