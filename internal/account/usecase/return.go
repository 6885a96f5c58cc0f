package usecase

import (
	"context"
	"strings"

	"github.com/samber/lo"
	"github.com/shandysiswandi/portal/internal/account/entity"
	"github.com/shandysiswandi/portal/internal/pkg/goerror"
)

type ReturnInput struct {
	OrderID string   `validate:"required,max=64"`
	ItemIDs []string `validate:"required,min=1,max=50,dive,required,max=64"`
	Reason  string   `validate:"required,max=64"`
	Comment string   `validate:"omitempty,max=1000"`
}

// RequestReturn opens a return for some items of a delivered order.
func (s *Usecase) RequestReturn(ctx context.Context, in ReturnInput) (*entity.ReturnResult, error) {
	ctx, span := s.startSpan(ctx, "RequestReturn")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if !entity.ValidReturnReason(in.Reason) {
		return nil, goerror.NewInvalidInput(nil, "reason", "Selecciona un motivo de devolución")
	}

	sess, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	order, err := s.backend.GetOrder(ctx, sess.BackendToken, in.OrderID)
	if err != nil {
		return nil, backendError(ctx, "RequestReturn", err, msgOrderNotFound)
	}

	if !order.CanReturn(s.clock.Now()) {
		return nil, goerror.NewBusiness("Este pedido ya no es elegible para devolución", goerror.CodeInvalidInput)
	}

	items := lo.Uniq(in.ItemIDs)
	if !order.HasItems(items) {
		return nil, goerror.NewInvalidInput(nil, "item_ids", "Selecciona productos de este pedido")
	}

	res, err := s.backend.RequestReturn(ctx, sess.BackendToken, entity.ReturnRequest{
		OrderID: in.OrderID,
		ItemIDs: items,
		Reason:  in.Reason,
		Comment: strings.TrimSpace(in.Comment),
	})
	if err != nil {
		return nil, backendError(ctx, "RequestReturn", err, msgOrderNotFound)
	}

	return res, nil
}
