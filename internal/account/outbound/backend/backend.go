// Package backend proxies account calls to the commerce REST backend using the
// customer's backend session token.
package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/samber/lo"
	"github.com/shandysiswandi/portal/internal/account/entity"
	"github.com/shandysiswandi/portal/internal/pkg/goerror"
	"github.com/shandysiswandi/portal/internal/pkg/httpclient"
)

type Backend struct {
	client *httpclient.Client
}

func NewBackend(client *httpclient.Client) *Backend {
	return &Backend{client: client}
}

// mapError classifies 4xx answers. 5xx and transport errors pass through.
func (s *Backend) mapError(err error) error {
	apiErr, ok := httpclient.AsAPIError(err)
	if !ok || apiErr.Temporary() {
		return err
	}

	switch apiErr.Status {
	case http.StatusNotFound:
		return goerror.ErrNotFound
	case http.StatusConflict:
		return goerror.ErrConflict
	case http.StatusUnauthorized, http.StatusForbidden:
		return entity.ErrUnauthorized
	}

	return &entity.RejectedError{Message: apiErr.Message}
}

func orderPath(id string) string {
	return "account/orders/" + url.PathEscape(id)
}

func (s *Backend) ListOrders(ctx context.Context, token string, q entity.OrderQuery) (*entity.OrderList, error) {
	var resp orderListModel
	err := s.client.JSON(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "account/orders",
		Token:  token,
		Query: map[string]string{
			"status": string(q.Status),
			"search": q.Search,
			"sort":   q.Sort,
			"page":   strconv.Itoa(q.Page),
			"limit":  strconv.Itoa(q.Limit),
		},
	}, &resp)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &entity.OrderList{
		Orders: lo.Map(resp.Orders, func(m orderModel, _ int) entity.Order { return m.toEntity() }),
		Page:   resp.Page,
		Limit:  resp.Limit,
		Total:  resp.Total,
	}, nil
}

func (s *Backend) GetOrder(ctx context.Context, token, id string) (*entity.Order, error) {
	var resp orderModel
	err := s.client.JSON(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   orderPath(id),
		Token:  token,
	}, &resp)
	if err != nil {
		return nil, s.mapError(err)
	}

	o := resp.toEntity()
	return &o, nil
}

func (s *Backend) BuyAgain(ctx context.Context, token, id, idempotencyKey string) (*entity.BuyAgainResult, error) {
	req := httpclient.Request{
		Method: http.MethodPost,
		Path:   orderPath(id) + "/buy-again",
		Token:  token,
	}
	if idempotencyKey != "" {
		req.Header = map[string]string{"Idempotency-Key": idempotencyKey}
	}

	var resp buyAgainModel
	if err := s.client.JSON(ctx, req, &resp); err != nil {
		return nil, s.mapError(err)
	}

	return &entity.BuyAgainResult{CartID: resp.CartID, CartURL: resp.CartURL, ItemsAdded: resp.ItemsAdded}, nil
}

var errEmptyInvoice = errors.New("backend: empty invoice")

func (s *Backend) Invoice(ctx context.Context, token, id string) ([]byte, error) {
	pdf, err := s.client.Raw(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   orderPath(id) + "/invoice",
		Token:  token,
		Header: map[string]string{"Accept": "application/pdf"},
	})
	if err != nil {
		return nil, s.mapError(err)
	}
	if len(pdf) == 0 {
		return nil, errEmptyInvoice
	}

	return pdf, nil
}

func (s *Backend) RequestReturn(ctx context.Context, token string, req entity.ReturnRequest) (*entity.ReturnResult, error) {
	var resp returnModel
	err := s.client.JSON(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   orderPath(req.OrderID) + "/return",
		Token:  token,
		Body:   returnRequestModel{Items: req.ItemIDs, Reason: req.Reason, Comment: req.Comment},
	}, &resp)
	if err != nil {
		return nil, s.mapError(err)
	}

	status := entity.OrderStatus(resp.Status)
	if status == "" {
		status = entity.OrderStatusReturnInProgress
	}

	return &entity.ReturnResult{ID: resp.ID, Status: status}, nil
}

func (s *Backend) GetProfile(ctx context.Context, token string) (*entity.Profile, error) {
	var resp profileModel
	err := s.client.JSON(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "account/profile",
		Token:  token,
	}, &resp)
	if err != nil {
		return nil, s.mapError(err)
	}

	p := entity.Profile(resp)
	return &p, nil
}

func (s *Backend) UpdateProfile(ctx context.Context, token string, up entity.ProfileUpdate) (*entity.Profile, error) {
	var resp profileModel
	err := s.client.JSON(ctx, httpclient.Request{
		Method: http.MethodPatch,
		Path:   "account/profile",
		Token:  token,
		Body:   profileUpdateModel(up),
	}, &resp)
	if err != nil {
		return nil, s.mapError(err)
	}

	p := entity.Profile(resp)
	return &p, nil
}

func (s *Backend) ListAddresses(ctx context.Context, token string) ([]entity.Address, error) {
	var resp []addressModel
	err := s.client.JSON(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "account/addresses",
		Token:  token,
	}, &resp)
	if err != nil {
		return nil, s.mapError(err)
	}

	return lo.Map(resp, func(m addressModel, _ int) entity.Address { return entity.Address(m) }), nil
}

func (s *Backend) CreateAddress(ctx context.Context, token string, a entity.Address) (*entity.Address, error) {
	return s.saveAddress(ctx, http.MethodPost, "account/addresses", token, a)
}

func (s *Backend) UpdateAddress(ctx context.Context, token string, a entity.Address) (*entity.Address, error) {
	return s.saveAddress(ctx, http.MethodPatch, "account/addresses/"+url.PathEscape(a.ID), token, a)
}

func (s *Backend) saveAddress(ctx context.Context, method, path, token string, a entity.Address) (*entity.Address, error) {
	body := addressModel(a)
	body.ID = ""

	var resp addressModel
	err := s.client.JSON(ctx, httpclient.Request{
		Method: method,
		Path:   path,
		Token:  token,
		Body:   body,
	}, &resp)
	if err != nil {
		return nil, s.mapError(err)
	}

	out := entity.Address(resp)
	return &out, nil
}

func (s *Backend) DeleteAddress(ctx context.Context, token, id string) error {
	err := s.client.JSON(ctx, httpclient.Request{
		Method: http.MethodDelete,
		Path:   "account/addresses/" + url.PathEscape(id),
		Token:  token,
	}, nil)
	return s.mapError(err)
}
