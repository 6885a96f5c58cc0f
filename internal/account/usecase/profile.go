package usecase

import (
	"context"
	"strings"

	"github.com/shandysiswandi/portal/internal/account/entity"
	"github.com/shandysiswandi/portal/internal/pkg/goerror"
)

type UpdateProfileInput struct {
	Name           *string `validate:"omitempty,max=120"`
	Phone          *string `validate:"omitempty,phone"`
	MarketingOptIn *bool
}

func (s *Usecase) GetProfile(ctx context.Context) (*entity.Profile, error) {
	ctx, span := s.startSpan(ctx, "GetProfile")
	defer span.End()

	sess, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.backend.GetProfile(ctx, sess.BackendToken)
	if err != nil {
		return nil, backendError(ctx, "GetProfile", err, "Perfil no encontrado")
	}

	return p, nil
}

// UpdateProfile changes only the fields that are set. An empty phone clears it.
func (s *Usecase) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*entity.Profile, error) {
	ctx, span := s.startSpan(ctx, "UpdateProfile")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	up := entity.ProfileUpdate{MarketingOptIn: in.MarketingOptIn}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, goerror.NewInvalidInput(nil, "name", "El nombre es requerido")
		}
		up.Name = &name
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		up.Phone = &phone
	}
	if up.Name == nil && up.Phone == nil && up.MarketingOptIn == nil {
		return nil, goerror.NewInvalidFormat("Nada que actualizar")
	}

	sess, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.backend.UpdateProfile(ctx, sess.BackendToken, up)
	if err != nil {
		return nil, backendError(ctx, "UpdateProfile", err, "Perfil no encontrado")
	}

	return p, nil
}
