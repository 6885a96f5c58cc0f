package usecase

import (
	"context"
	"strings"

	"github.com/samber/lo"
	"github.com/shandysiswandi/portal/internal/account/entity"
	"github.com/shandysiswandi/portal/internal/pkg/goerror"
)

const msgAddressNotFound = "Dirección no encontrada"

type AddressInput struct {
	ID           string `validate:"omitempty,max=64"`
	Alias        string `validate:"omitempty,max=40"`
	Recipient    string `validate:"required,max=120"`
	Street       string `validate:"required,max=120"`
	Number       string `validate:"required,max=20"`
	Neighborhood string `validate:"required,max=80"`
	City         string `validate:"required,max=80"`
	State        string `validate:"required,max=80"`
	Zip          string `validate:"required,zipcode"`
	Phone        string `validate:"required,phone"`
	IsDefault    bool
}

func (in AddressInput) toEntity() entity.Address {
	return entity.Address{
		ID:           in.ID,
		Alias:        strings.TrimSpace(in.Alias),
		Recipient:    strings.TrimSpace(in.Recipient),
		Street:       strings.TrimSpace(in.Street),
		Number:       strings.TrimSpace(in.Number),
		Neighborhood: strings.TrimSpace(in.Neighborhood),
		City:         strings.TrimSpace(in.City),
		State:        strings.TrimSpace(in.State),
		Zip:          in.Zip,
		Phone:        strings.TrimSpace(in.Phone),
		IsDefault:    in.IsDefault,
	}
}

type AddressIDInput struct {
	ID string `validate:"required,max=64"`
}

// ListAddresses returns the default address first.
func (s *Usecase) ListAddresses(ctx context.Context) ([]entity.Address, error) {
	ctx, span := s.startSpan(ctx, "ListAddresses")
	defer span.End()

	sess, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.backend.ListAddresses(ctx, sess.BackendToken)
	if err != nil {
		return nil, backendError(ctx, "ListAddresses", err, msgAddressNotFound)
	}

	def, rest := lo.FilterReject(list, func(a entity.Address, _ int) bool { return a.IsDefault })
	return append(def, rest...), nil
}

func (s *Usecase) CreateAddress(ctx context.Context, in AddressInput) (*entity.Address, error) {
	ctx, span := s.startSpan(ctx, "CreateAddress")
	defer span.End()

	in.ID = ""
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	sess, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	a, err := s.backend.CreateAddress(ctx, sess.BackendToken, in.toEntity())
	if err != nil {
		return nil, backendError(ctx, "CreateAddress", err, msgAddressNotFound)
	}

	return a, nil
}

func (s *Usecase) UpdateAddress(ctx context.Context, in AddressInput) (*entity.Address, error) {
	ctx, span := s.startSpan(ctx, "UpdateAddress")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if in.ID == "" {
		return nil, goerror.NewBusiness(msgAddressNotFound, goerror.CodeNotFound)
	}

	sess, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	a, err := s.backend.UpdateAddress(ctx, sess.BackendToken, in.toEntity())
	if err != nil {
		return nil, backendError(ctx, "UpdateAddress", err, msgAddressNotFound)
	}

	return a, nil
}

func (s *Usecase) DeleteAddress(ctx context.Context, in AddressIDInput) error {
	ctx, span := s.startSpan(ctx, "DeleteAddress")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	sess, err := s.principal(ctx)
	if err != nil {
		return err
	}

	if err := s.backend.DeleteAddress(ctx, sess.BackendToken, in.ID); err != nil {
		return backendError(ctx, "DeleteAddress", err, msgAddressNotFound)
	}

	return nil
}
