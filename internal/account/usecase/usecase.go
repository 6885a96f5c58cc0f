package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/portal/internal/account/entity"
	authentity "github.com/shandysiswandi/portal/internal/auth/entity"
	"github.com/shandysiswandi/portal/internal/pkg/clock"
	"github.com/shandysiswandi/portal/internal/pkg/config"
	"github.com/shandysiswandi/portal/internal/pkg/goerror"
	"github.com/shandysiswandi/portal/internal/pkg/idempotency"
	"github.com/shandysiswandi/portal/internal/pkg/instrument"
	"github.com/shandysiswandi/portal/internal/pkg/jwt"
	"github.com/shandysiswandi/portal/internal/pkg/storage"
	"github.com/shandysiswandi/portal/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	redirectLogin = "/cuenta/login"

	defaultInvoiceLinkTTL = 15 * time.Minute
	defaultBuyAgainTTL    = 24 * time.Hour
)

// SessionResolver finds the authenticated session behind a portal token.
type SessionResolver interface {
	ResolveSession(ctx context.Context, sid string) (*authentity.AuthSession, error)
}

type repoBackend interface {
	ListOrders(ctx context.Context, token string, q entity.OrderQuery) (*entity.OrderList, error)
	GetOrder(ctx context.Context, token, id string) (*entity.Order, error)
	BuyAgain(ctx context.Context, token, id, idempotencyKey string) (*entity.BuyAgainResult, error)
	Invoice(ctx context.Context, token, id string) ([]byte, error)
	RequestReturn(ctx context.Context, token string, req entity.ReturnRequest) (*entity.ReturnResult, error)

	GetProfile(ctx context.Context, token string) (*entity.Profile, error)
	UpdateProfile(ctx context.Context, token string, up entity.ProfileUpdate) (*entity.Profile, error)

	ListAddresses(ctx context.Context, token string) ([]entity.Address, error)
	CreateAddress(ctx context.Context, token string, a entity.Address) (*entity.Address, error)
	UpdateAddress(ctx context.Context, token string, a entity.Address) (*entity.Address, error)
	DeleteAddress(ctx context.Context, token, id string) error
}

type Usecase struct {
	sessions    SessionResolver
	backend     repoBackend
	storage     storage.Storage
	idempotency idempotency.Idempotency
	validator   validator.Validator
	clock       clock.Clocker
	ins         instrument.Instrumentation

	invoiceLinkTTL time.Duration
	buyAgainTTL    time.Duration
}

type Dependency struct {
	Sessions    SessionResolver
	Backend     repoBackend
	Storage     storage.Storage
	Idempotency idempotency.Idempotency
	Validator   validator.Validator
	Config      config.Config
	Clock       clock.Clocker
	Instrument  instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	s := &Usecase{
		sessions:       dep.Sessions,
		backend:        dep.Backend,
		storage:        dep.Storage,
		idempotency:    dep.Idempotency,
		validator:      dep.Validator,
		clock:          dep.Clock,
		ins:            dep.Instrument,
		invoiceLinkTTL: defaultInvoiceLinkTTL,
		buyAgainTTL:    defaultBuyAgainTTL,
	}

	if dep.Config != nil {
		if v := dep.Config.GetMinute("modules.account.invoice.link_minutes"); v > 0 {
			s.invoiceLinkTTL = v
		}
		if v := dep.Config.GetHour("modules.account.buy_again.idempotency_hours"); v > 0 {
			s.buyAgainTTL = v
		}
	}

	return s
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("account.usecase").Start(ctx, name)
}

// principal resolves the caller's session from the verified portal token.
func (s *Usecase) principal(ctx context.Context) (*authentity.AuthSession, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil || clm.SessionID == "" {
		return nil, sessionExpired()
	}

	return s.sessions.ResolveSession(ctx, clm.SessionID)
}

func sessionExpired() error {
	return goerror.NewBusiness("Tu sesión ha expirado. Inicia sesión nuevamente", goerror.CodeUnauthorized,
		"redirect_to", redirectLogin)
}

// backendError turns a backend failure into the error the client sees.
func backendError(ctx context.Context, op string, err error, notFound string) error {
	if errors.Is(err, goerror.ErrNotFound) {
		return goerror.NewBusiness(notFound, goerror.CodeNotFound)
	}
	if errors.Is(err, entity.ErrUnauthorized) {
		return sessionExpired()
	}
	if errors.Is(err, goerror.ErrConflict) {
		return goerror.NewBusiness("La solicitud entra en conflicto con el estado actual", goerror.CodeConflict)
	}

	var rej *entity.RejectedError
	if errors.As(err, &rej) {
		msg := rej.Message
		if msg == "" {
			msg = "No pudimos procesar la solicitud"
		}
		return goerror.NewBusiness(msg, goerror.CodeInvalidInput)
	}

	slog.ErrorContext(ctx, "failed to call backend", "operation", op, "error", err)
	return goerror.NewUpstream(err, "No pudimos conectar con la tienda. Intenta nuevamente")
}
