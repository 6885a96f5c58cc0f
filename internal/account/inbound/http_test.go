package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/portal/internal/account/entity"
	"github.com/shandysiswandi/portal/internal/account/usecase"
	"github.com/shandysiswandi/portal/internal/pkg/goerror"
	"github.com/shandysiswandi/portal/internal/pkg/instrument"
	"github.com/shandysiswandi/portal/internal/pkg/jwt"
	"github.com/shandysiswandi/portal/internal/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type fakeJWT struct{}

func (fakeJWT) Generate(jwt.Subject) (string, error) { return "token", nil }

func (fakeJWT) Verify(token string) (jwt.Claims, error) {
	if token != "good" {
		return jwt.Claims{}, jwt.ErrInvalidToken
	}
	return jwt.Claims{SessionID: "sid-1"}, nil
}

type fixedUUID struct{}

func (fixedUUID) Generate() string { return "cid" }

type fakeUC struct {
	listIn    usecase.ListOrdersInput
	buyIn     usecase.BuyAgainInput
	returnIn  usecase.ReturnInput
	profileIn usecase.UpdateProfileInput
	addressIn usecase.AddressInput
	deleted   string
}

func (f *fakeUC) ListOrders(_ context.Context, in usecase.ListOrdersInput) (*usecase.ListOrdersOutput, error) {
	f.listIn = in
	return &usecase.ListOrdersOutput{
		Orders: []usecase.OrderView{{
			Order:      entity.Order{ID: "o1", Number: "#1001", Status: entity.OrderStatusDelivered, DeliveryDate: t0},
			StatusText: "Entregado",
			CanReturn:  true,
		}},
		Page: 1, Limit: 10, Total: 1,
	}, nil
}

func (f *fakeUC) GetOrder(_ context.Context, in usecase.OrderInput) (*usecase.OrderView, error) {
	if in.ID != "o1" {
		return nil, goerror.NewBusiness("Pedido no encontrado", goerror.CodeNotFound)
	}
	return &usecase.OrderView{Order: entity.Order{ID: "o1", Status: entity.OrderStatusShipped}, StatusText: "Enviado"}, nil
}

func (f *fakeUC) BuyAgain(_ context.Context, in usecase.BuyAgainInput) (*entity.BuyAgainResult, error) {
	f.buyIn = in
	return &entity.BuyAgainResult{CartID: "c1", ItemsAdded: 2}, nil
}

func (f *fakeUC) Invoice(context.Context, usecase.OrderInput) (*entity.Invoice, error) {
	return &entity.Invoice{URL: "https://files.local/o1.pdf", ExpiresAt: t0}, nil
}

func (f *fakeUC) RequestReturn(_ context.Context, in usecase.ReturnInput) (*entity.ReturnResult, error) {
	f.returnIn = in
	return &entity.ReturnResult{ID: "r1", Status: entity.OrderStatusReturnInProgress}, nil
}

func (f *fakeUC) GetProfile(context.Context) (*entity.Profile, error) {
	return &entity.Profile{ID: "cus_1", Name: "Demo", Email: "demo@x.com"}, nil
}

func (f *fakeUC) UpdateProfile(_ context.Context, in usecase.UpdateProfileInput) (*entity.Profile, error) {
	f.profileIn = in
	return &entity.Profile{ID: "cus_1", Name: *in.Name}, nil
}

func (f *fakeUC) ListAddresses(context.Context) ([]entity.Address, error) {
	return []entity.Address{{ID: "a1", IsDefault: true}}, nil
}

func (f *fakeUC) CreateAddress(_ context.Context, in usecase.AddressInput) (*entity.Address, error) {
	f.addressIn = in
	return &entity.Address{ID: "a2", City: in.City}, nil
}

func (f *fakeUC) UpdateAddress(_ context.Context, in usecase.AddressInput) (*entity.Address, error) {
	f.addressIn = in
	return &entity.Address{ID: in.ID, City: in.City}, nil
}

func (f *fakeUC) DeleteAddress(_ context.Context, in usecase.AddressIDInput) error {
	f.deleted = in.ID
	return nil
}

func newTestServer(t *testing.T) (*router.Router, *fakeUC) {
	t.Helper()
	r := router.NewRouter(router.Config{
		UUID:        fixedUUID{},
		JWT:         fakeJWT{},
		Instrument:  instrument.NewNoop(),
		ServiceName: "portal",
	})
	f := &fakeUC{}
	RegisterHTTPEndpoint(r, f)
	return r, f
}

func do(h http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer good")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Meta    map[string]any    `json:"meta"`
	Error   map[string]string `json:"error"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) (envelope, T) {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var data T
	if len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, &data))
	}
	return env, data
}

func TestHTTP_RequiresToken(t *testing.T) {
	r, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/account/orders", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHTTP_Orders(t *testing.T) {
	r, f := newTestServer(t)

	rec := do(r, http.MethodGet, "/api/v1/account/orders?status=delivered&page=2&limit=5&search=%20tenis%20", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, usecase.ListOrdersInput{Status: "delivered", Search: "tenis", Page: 2, Limit: 5}, f.listIn)

	env, data := decode[OrderListResponse](t, rec)
	require.Len(t, data.Orders, 1)
	assert.True(t, data.Orders[0].CanReturn)
	assert.Equal(t, "Entregado", data.Orders[0].StatusText)
	require.NotNil(t, data.Orders[0].DeliveryDate)
	assert.EqualValues(t, 1, env.Meta["total"])

	rec = do(r, http.MethodGet, "/api/v1/account/orders?page=abc", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(r, http.MethodGet, "/api/v1/account/orders/o1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	_, order := decode[OrderResponse](t, rec)
	assert.Nil(t, order.DeliveryDate)

	rec = do(r, http.MethodGet, "/api/v1/account/orders/o9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTP_OrderActions(t *testing.T) {
	r, f := newTestServer(t)

	rec := do(r, http.MethodPost, "/api/v1/account/orders/o1/buy-again", "", "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, usecase.BuyAgainInput{ID: "o1", IdempotencyKey: "k-1"}, f.buyIn)
	env, _ := decode[BuyAgainResponse](t, rec)
	assert.Equal(t, "Productos agregados al carrito", env.Message)

	rec = do(r, http.MethodGet, "/api/v1/account/orders/o1/invoice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	_, inv := decode[InvoiceResponse](t, rec)
	assert.Equal(t, "https://files.local/o1.pdf", inv.URL)

	rec = do(r, http.MethodPost, "/api/v1/account/orders/o1/return", `{"items":["it-1"],"reason":"Otro","comment":"talla"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, usecase.ReturnInput{OrderID: "o1", ItemIDs: []string{"it-1"}, Reason: "Otro", Comment: "talla"}, f.returnIn)

	rec = do(r, http.MethodPost, "/api/v1/account/orders/o1/return", `{"items":["it-1"],"refund":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTP_ProfileAndAddresses(t *testing.T) {
	r, f := newTestServer(t)

	rec := do(r, http.MethodGet, "/api/v1/account/profile", "")
	require.Equal(t, http.StatusOK, rec.Code)
	_, p := decode[ProfileResponse](t, rec)
	assert.Equal(t, "demo@x.com", p.Email)

	rec = do(r, http.MethodPatch, "/api/v1/account/profile", `{"name":"Ana","marketing_opt_in":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, f.profileIn.MarketingOptIn)
	assert.False(t, *f.profileIn.MarketingOptIn)
	assert.Nil(t, f.profileIn.Phone)

	rec = do(r, http.MethodGet, "/api/v1/account/addresses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	_, list := decode[[]AddressResponse](t, rec)
	assert.Equal(t, []AddressResponse{{ID: "a1", IsDefault: true}}, list)

	rec = do(r, http.MethodPost, "/api/v1/account/addresses", `{"recipient":"Ana","city":"CDMX","zip":"06600"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "06600", f.addressIn.Zip)
	assert.Empty(t, f.addressIn.ID)
	env, created := decode[AddressResponse](t, rec)
	assert.Equal(t, "Dirección guardada", env.Message)
	assert.Equal(t, "a2", created.ID)

	rec = do(r, http.MethodPatch, "/api/v1/account/addresses/a2", `{"city":"GDL"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a2", f.addressIn.ID)

	rec = do(r, http.MethodDelete, "/api/v1/account/addresses/a2", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "a2", f.deleted)
}
