package analytics

import (
	"github.com/shandysiswandi/portal/internal/analytics/inbound"
	"github.com/shandysiswandi/portal/internal/analytics/outbound/mq"
	"github.com/shandysiswandi/portal/internal/analytics/usecase"
	"github.com/shandysiswandi/portal/internal/pkg/clock"
	"github.com/shandysiswandi/portal/internal/pkg/goroutine"
	"github.com/shandysiswandi/portal/internal/pkg/instrument"
	"github.com/shandysiswandi/portal/internal/pkg/jwt"
	"github.com/shandysiswandi/portal/internal/pkg/messaging"
	"github.com/shandysiswandi/portal/internal/pkg/router"
	"github.com/shandysiswandi/portal/internal/pkg/validator"
)

type Dependency struct {
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Validator:     dep.Validator,
		JWT:           dep.JWT,
		Clock:         dep.Clock,
		Goroutine:     dep.Goroutine,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
