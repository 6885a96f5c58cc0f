package account

import (
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/portal/internal/account/inbound"
	"github.com/shandysiswandi/portal/internal/account/outbound/backend"
	"github.com/shandysiswandi/portal/internal/account/usecase"
	"github.com/shandysiswandi/portal/internal/pkg/clock"
	"github.com/shandysiswandi/portal/internal/pkg/config"
	"github.com/shandysiswandi/portal/internal/pkg/httpclient"
	"github.com/shandysiswandi/portal/internal/pkg/idempotency"
	"github.com/shandysiswandi/portal/internal/pkg/instrument"
	"github.com/shandysiswandi/portal/internal/pkg/router"
	"github.com/shandysiswandi/portal/internal/pkg/storage"
	"github.com/shandysiswandi/portal/internal/pkg/validator"
)

type Dependency struct {
	CacheConn  redis.UniversalClient      `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Backend    *httpclient.Client         `validate:"required"`
	Storage    storage.Storage            `validate:"required"`
	Sessions   usecase.SessionResolver    `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		Sessions:    dep.Sessions,
		Backend:     backend.NewBackend(dep.Backend),
		Storage:     dep.Storage,
		Idempotency: idempotency.New(dep.CacheConn, "portal:idempotency:"),
		Validator:   dep.Validator,
		Config:      dep.Config,
		Clock:       dep.Clock,
		Instrument:  dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
