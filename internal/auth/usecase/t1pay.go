package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/portal/internal/auth/entity"
	"github.com/shandysiswandi/portal/internal/pkg/goerror"
)

type T1PayURLOutput struct {
	URL   string
	State string
}

type T1PayCallbackInput struct {
	Code  string `validate:"required,max=512"`
	State string `validate:"required,max=128"`
}

// T1PayAuthURL builds the authorize redirect and remembers its state.
func (s *Usecase) T1PayAuthURL(ctx context.Context) (*T1PayURLOutput, error) {
	ctx, span := s.startSpan(ctx, "T1PayAuthURL")
	defer span.End()

	if s.t1pay == nil {
		return nil, goerror.NewBusiness("T1 Pay no está disponible", goerror.CodeNotFound)
	}

	state := s.uuid.Generate()
	if err := s.repoCache.SaveT1PayState(ctx, state, t1payStateTTL); err != nil {
		slog.ErrorContext(ctx, "failed to repo save t1pay state", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &T1PayURLOutput{URL: s.t1pay.AuthCodeURL(state), State: state}, nil
}

// T1PayCallback consumes the state and trades the authorization code for a
// backend session.
func (s *Usecase) T1PayCallback(ctx context.Context, in T1PayCallbackInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "T1PayCallback")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if s.t1pay == nil {
		return nil, goerror.NewBusiness("T1 Pay no está disponible", goerror.CodeNotFound)
	}

	ok, err := s.repoCache.ConsumeT1PayState(ctx, in.State)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo consume t1pay state", "error", err)
		return nil, goerror.NewServer(err)
	}
	if !ok {
		slog.WarnContext(ctx, "unknown or reused t1pay state")
		return nil, goerror.NewBusiness("La autorización de T1 Pay no es válida", goerror.CodeUnauthorized,
			"redirect_to", redirectLogin)
	}

	res, err := s.store.ExchangeT1Pay(ctx, in.Code)
	if errors.Is(err, entity.ErrT1PayRejected) {
		slog.WarnContext(ctx, "t1pay authorization rejected")
		return nil, goerror.NewBusiness("La autorización de T1 Pay no es válida", goerror.CodeUnauthorized,
			"redirect_to", redirectLogin)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to exchange t1pay code", "error", err)
		return nil, goerror.NewUpstream(err, entity.ErrorKindNetworkError.Message())
	}

	idn := entity.Identifier{Value: res.User.Email, Kind: entity.IdentifierKindEmail}
	if idn.Value == "" {
		idn = entity.Identifier{Value: res.User.Phone, Kind: entity.IdentifierKindPhone}
	}

	login, err := s.establish(ctx, res, idn.Masked(), entity.LoginMethodT1Pay)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, idn, entity.LoginEventT1Pay, 0, res.User.ID)

	return login, nil
}
