package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/portal/internal/account/entity"
	"github.com/shandysiswandi/portal/internal/pkg/goerror"
	"github.com/shandysiswandi/portal/internal/pkg/idempotency"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	defaultSort  = "date-desc"

	msgOrderNotFound = "Pedido no encontrado"
)

type ListOrdersInput struct {
	Status string `validate:"omitempty,oneof=pending_payment confirmed processing shipped delivered cancelled refunded return_in_progress"`
	Search string `validate:"omitempty,max=100"`
	Sort   string `validate:"omitempty,oneof=date-desc date-asc number-desc number-asc total-desc total-asc"`
	Page   int    `validate:"gte=0"`
	Limit  int    `validate:"gte=0,lte=50"`
}

// OrderView is an order as shown in the history, with the flags the client
// needs to decide which actions to offer.
type OrderView struct {
	entity.Order
	StatusText string
	CanReturn  bool
}

type ListOrdersOutput struct {
	Orders []OrderView
	Page   int
	Limit  int
	Total  int
}

type OrderInput struct {
	ID string `validate:"required,max=64"`
}

type BuyAgainInput struct {
	ID             string `validate:"required,max=64"`
	IdempotencyKey string `validate:"omitempty,max=128"`
}

func (s *Usecase) view(o entity.Order) OrderView {
	return OrderView{Order: o, StatusText: o.Status.Text(), CanReturn: o.CanReturn(s.clock.Now())}
}

func (s *Usecase) ListOrders(ctx context.Context, in ListOrdersInput) (*ListOrdersOutput, error) {
	ctx, span := s.startSpan(ctx, "ListOrders")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	sess, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	q := entity.OrderQuery{
		Status: entity.OrderStatus(in.Status),
		Search: in.Search,
		Sort:   in.Sort,
		Page:   in.Page,
		Limit:  in.Limit,
	}
	if q.Page == 0 {
		q.Page = defaultPage
	}
	if q.Limit == 0 {
		q.Limit = defaultLimit
	}
	if q.Sort == "" {
		q.Sort = defaultSort
	}

	list, err := s.backend.ListOrders(ctx, sess.BackendToken, q)
	if err != nil {
		return nil, backendError(ctx, "ListOrders", err, msgOrderNotFound)
	}

	out := &ListOrdersOutput{Page: list.Page, Limit: list.Limit, Total: list.Total}
	for _, o := range list.Orders {
		out.Orders = append(out.Orders, s.view(o))
	}

	return out, nil
}

func (s *Usecase) GetOrder(ctx context.Context, in OrderInput) (*OrderView, error) {
	ctx, span := s.startSpan(ctx, "GetOrder")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	sess, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	o, err := s.backend.GetOrder(ctx, sess.BackendToken, in.ID)
	if err != nil {
		return nil, backendError(ctx, "GetOrder", err, msgOrderNotFound)
	}

	v := s.view(*o)
	return &v, nil
}

// BuyAgain refills the cart from a past order. With an idempotency key the
// backend is called once and repeated requests get the first result back.
func (s *Usecase) BuyAgain(ctx context.Context, in BuyAgainInput) (*entity.BuyAgainResult, error) {
	ctx, span := s.startSpan(ctx, "BuyAgain")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	sess, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	if in.IdempotencyKey == "" || s.idempotency == nil {
		res, err := s.backend.BuyAgain(ctx, sess.BackendToken, in.ID, in.IdempotencyKey)
		if err != nil {
			return nil, backendError(ctx, "BuyAgain", err, msgOrderNotFound)
		}
		return res, nil
	}

	key := "account:buy-again:" + sess.User.ID + ":" + in.IdempotencyKey
	raw, replayed, err := s.idempotency.Do(ctx, key, in.ID, func(ctx context.Context) ([]byte, error) {
		res, err := s.backend.BuyAgain(ctx, sess.BackendToken, in.ID, in.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		return json.Marshal(res)
	}, idempotency.WithResultTTL(s.buyAgainTTL))
	switch {
	case errors.Is(err, idempotency.ErrInProgress):
		return nil, goerror.NewBusiness("Esta solicitud ya se está procesando", goerror.CodeConflict)
	case errors.Is(err, idempotency.ErrKeyReused):
		return nil, goerror.NewBusiness("La clave de la solicitud ya se usó con otro pedido", goerror.CodeConflict)
	case err != nil:
		return nil, backendError(ctx, "BuyAgain", err, msgOrderNotFound)
	}

	var res entity.BuyAgainResult
	if err := json.Unmarshal(raw, &res); err != nil {
		slog.ErrorContext(ctx, "stored buy again result is unreadable", "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}
	if replayed {
		slog.InfoContext(ctx, "buy again replayed", "order_id", in.ID, "user_id", sess.User.ID)
	}

	return &res, nil
}
