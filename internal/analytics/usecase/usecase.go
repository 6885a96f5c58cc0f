package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/portal/internal/analytics/entity"
	"github.com/shandysiswandi/portal/internal/pkg/clock"
	"github.com/shandysiswandi/portal/internal/pkg/goerror"
	"github.com/shandysiswandi/portal/internal/pkg/goroutine"
	"github.com/shandysiswandi/portal/internal/pkg/instrument"
	"github.com/shandysiswandi/portal/internal/pkg/jwt"
	"github.com/shandysiswandi/portal/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoMessaging interface {
	PublishEvent(ctx context.Context, ev entity.Event) error
}

type Usecase struct {
	repoMessaging repoMessaging
	validator     validator.Validator
	jwt           jwt.JWT
	clock         clock.Clocker
	goroutine     *goroutine.Manager
	ins           instrument.Instrumentation
}

type Dependency struct {
	RepoMessaging repoMessaging
	Validator     validator.Validator
	JWT           jwt.JWT
	Clock         clock.Clocker
	Goroutine     *goroutine.Manager
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoMessaging: dep.RepoMessaging,
		validator:     dep.Validator,
		jwt:           dep.JWT,
		clock:         dep.Clock,
		goroutine:     dep.Goroutine,
		ins:           dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("analytics.usecase").Start(ctx, name)
}

type TrackInput struct {
	Event      string         `validate:"required,max=64"`
	Properties map[string]any `validate:"max=50"`
	Timestamp  time.Time
	// Token is the optional portal token, used only to attribute the event.
	Token     string
	IP        string
	UserAgent string `validate:"max=512"`
}

// Track accepts a client event and publishes it in the background. The caller
// never waits for the broker.
func (s *Usecase) Track(ctx context.Context, in TrackInput) error {
	ctx, span := s.startSpan(ctx, "Track")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}
	if !entity.ValidEventName(in.Event) {
		return goerror.NewInvalidInput(nil, "event", "El nombre del evento no es válido")
	}

	now := s.clock.Now()
	ev := entity.Event{
		Name:       in.Event,
		Properties: entity.MaskProperties(in.Properties),
		IP:         in.IP,
		UserAgent:  strings.TrimSpace(in.UserAgent),
		Timestamp:  in.Timestamp,
		ReceivedAt: now,
	}
	if ev.Timestamp.IsZero() || ev.Timestamp.Sub(now).Abs() > entity.MaxClockSkew {
		ev.Timestamp = now
	}

	if in.Token != "" {
		// an invalid token only loses the attribution
		if clm, err := s.jwt.Verify(in.Token); err == nil {
			ev.SessionID = clm.SessionID
			ev.UserID = clm.Subject
		}
	}

	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := s.repoMessaging.PublishEvent(ctx, ev); err != nil {
			slog.ErrorContext(ctx, "failed to publish analytics event", "event", ev.Name, "error", err)
			return err
		}
		return nil
	})

	return nil
}
