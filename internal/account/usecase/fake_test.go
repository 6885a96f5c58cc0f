package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/portal/internal/account/entity"
	authentity "github.com/shandysiswandi/portal/internal/auth/entity"
	"github.com/shandysiswandi/portal/internal/pkg/clock"
	"github.com/shandysiswandi/portal/internal/pkg/goerror"
	"github.com/shandysiswandi/portal/internal/pkg/idempotency"
	"github.com/shandysiswandi/portal/internal/pkg/instrument"
	"github.com/shandysiswandi/portal/internal/pkg/jwt"
	"github.com/shandysiswandi/portal/internal/pkg/storage"
	"github.com/shandysiswandi/portal/internal/pkg/validator"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type fakeSessions struct {
	sessions map[string]authentity.AuthSession
}

func (f *fakeSessions) ResolveSession(_ context.Context, sid string) (*authentity.AuthSession, error) {
	sess, ok := f.sessions[sid]
	if !ok {
		return nil, sessionExpired()
	}
	return &sess, nil
}

type fakeBackend struct {
	mu sync.Mutex

	tokens []string
	query  entity.OrderQuery
	orders map[string]entity.Order
	err    error

	buyAgainCalls int
	invoiceCalls  int
	returned      *entity.ReturnRequest
	profile       entity.Profile
	update        *entity.ProfileUpdate
	addresses     []entity.Address
	saved         *entity.Address
	deleted       string
}

func (f *fakeBackend) seen(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, token)
}

func (f *fakeBackend) ListOrders(_ context.Context, token string, q entity.OrderQuery) (*entity.OrderList, error) {
	f.seen(token)
	f.query = q
	if f.err != nil {
		return nil, f.err
	}
	out := &entity.OrderList{Page: q.Page, Limit: q.Limit}
	for _, o := range f.orders {
		out.Orders = append(out.Orders, o)
	}
	out.Total = len(out.Orders)
	return out, nil
}

func (f *fakeBackend) GetOrder(_ context.Context, token, id string) (*entity.Order, error) {
	f.seen(token)
	if f.err != nil {
		return nil, f.err
	}
	o, ok := f.orders[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &o, nil
}

func (f *fakeBackend) BuyAgain(_ context.Context, token, id, _ string) (*entity.BuyAgainResult, error) {
	f.seen(token)
	f.mu.Lock()
	f.buyAgainCalls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &entity.BuyAgainResult{CartID: "cart-" + id, ItemsAdded: 2}, nil
}

func (f *fakeBackend) Invoice(_ context.Context, token, _ string) ([]byte, error) {
	f.seen(token)
	f.invoiceCalls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.7"), nil
}

func (f *fakeBackend) RequestReturn(_ context.Context, token string, req entity.ReturnRequest) (*entity.ReturnResult, error) {
	f.seen(token)
	f.returned = &req
	if f.err != nil {
		return nil, f.err
	}
	return &entity.ReturnResult{ID: "ret-1", Status: entity.OrderStatusReturnInProgress}, nil
}

func (f *fakeBackend) GetProfile(_ context.Context, token string) (*entity.Profile, error) {
	f.seen(token)
	if f.err != nil {
		return nil, f.err
	}
	p := f.profile
	return &p, nil
}

func (f *fakeBackend) UpdateProfile(_ context.Context, token string, up entity.ProfileUpdate) (*entity.Profile, error) {
	f.seen(token)
	f.update = &up
	if f.err != nil {
		return nil, f.err
	}
	p := f.profile
	if up.Name != nil {
		p.Name = *up.Name
	}
	return &p, nil
}

func (f *fakeBackend) ListAddresses(_ context.Context, token string) ([]entity.Address, error) {
	f.seen(token)
	return f.addresses, f.err
}

func (f *fakeBackend) CreateAddress(_ context.Context, token string, a entity.Address) (*entity.Address, error) {
	f.seen(token)
	f.saved = &a
	if f.err != nil {
		return nil, f.err
	}
	a.ID = "addr-new"
	return &a, nil
}

func (f *fakeBackend) UpdateAddress(_ context.Context, token string, a entity.Address) (*entity.Address, error) {
	f.seen(token)
	f.saved = &a
	if f.err != nil {
		return nil, f.err
	}
	return &a, nil
}

func (f *fakeBackend) DeleteAddress(_ context.Context, token, id string) error {
	f.seen(token)
	f.deleted = id
	return f.err
}

type fakeStorage struct {
	objects map[string][]byte
	puts    int
	putErr  error
}

func (f *fakeStorage) Close() error { return nil }

func (f *fakeStorage) Put(_ context.Context, key string, doc storage.Document) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.puts++
	f.objects[key] = doc.Body
	return nil
}

func (f *fakeStorage) Exists(_ context.Context, key string) (bool, error) {
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeStorage) Link(_ context.Context, key string, opts storage.LinkOptions) (string, error) {
	return "https://files.local/" + key + "?ttl=" + opts.TTL.String() + "&name=" + opts.Filename, nil
}

type suite struct {
	uc      *Usecase
	backend *fakeBackend
	storage *fakeStorage
	clock   *clock.Fake
	ctx     context.Context
}

func newSuite(t *testing.T) *suite {
	t.Helper()

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	be := &fakeBackend{orders: map[string]entity.Order{}}
	st := &fakeStorage{objects: map[string][]byte{}}
	clk := clock.NewFake(t0)

	uc := New(Dependency{
		Sessions: &fakeSessions{sessions: map[string]authentity.AuthSession{
			"sid-1": {ID: "sid-1", BackendToken: "backend-token", User: authentity.User{ID: "cus_1"}, ExpiresAt: t0.Add(24 * time.Hour)},
		}},
		Backend:     be,
		Storage:     st,
		Idempotency: idempotency.New(client, "test:"),
		Validator:   v,
		Clock:       clk,
		Instrument:  instrument.NewNoop(),
	})

	return &suite{
		uc:      uc,
		backend: be,
		storage: st,
		clock:   clk,
		ctx:     jwt.SetAuth(context.Background(), jwt.Claims{SessionID: "sid-1"}),
	}
}

func requireCode(t *testing.T, err error, code goerror.Code) *goerror.Error {
	t.Helper()
	var gerr *goerror.Error
	require.True(t, errors.As(err, &gerr), "want *goerror.Error, got %v", err)
	require.Equal(t, code, gerr.Code())
	return gerr
}
