package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shandysiswandi/portal/internal/analytics/entity"
	"github.com/shandysiswandi/portal/internal/pkg/clock"
	"github.com/shandysiswandi/portal/internal/pkg/goerror"
	"github.com/shandysiswandi/portal/internal/pkg/goroutine"
	"github.com/shandysiswandi/portal/internal/pkg/instrument"
	pjwt "github.com/shandysiswandi/portal/internal/pkg/jwt"
	"github.com/shandysiswandi/portal/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type fakeMessaging struct {
	mu     sync.Mutex
	events []entity.Event
	err    error
}

func (f *fakeMessaging) PublishEvent(_ context.Context, ev entity.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.err
}

type fakeJWT struct{}

func (fakeJWT) Generate(pjwt.Subject) (string, error) { return "token", nil }

func (fakeJWT) Verify(token string) (pjwt.Claims, error) {
	if token != "good" {
		return pjwt.Claims{}, pjwt.ErrInvalidToken
	}
	return pjwt.Claims{SessionID: "sid-1", RegisteredClaims: jwt.RegisteredClaims{Subject: "cus_1"}}, nil
}

func newTestUsecase(t *testing.T) (*Usecase, *fakeMessaging, *goroutine.Manager) {
	t.Helper()
	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	mq := &fakeMessaging{}
	g := goroutine.NewManager(4)
	return New(Dependency{
		RepoMessaging: mq,
		Validator:     v,
		JWT:           fakeJWT{},
		Clock:         clock.NewFake(t0),
		Goroutine:     g,
		Instrument:    instrument.NewNoop(),
	}), mq, g
}

func TestUsecase_Track(t *testing.T) {
	uc, mq, g := newTestUsecase(t)
	ctx := context.Background()

	require.NoError(t, uc.Track(ctx, TrackInput{
		Event:      "login_success",
		Properties: map[string]any{"email": "alice@example.com", "step": "otp"},
		Timestamp:  t0.Add(-time.Minute),
		Token:      "good",
		IP:         "203.0.113.7",
	}))
	require.NoError(t, uc.Track(ctx, TrackInput{Event: "page_view", Timestamp: t0.Add(-48 * time.Hour), Token: "forged"}))
	require.NoError(t, g.Wait())

	require.Len(t, mq.events, 2)
	byName := map[string]entity.Event{}
	for _, ev := range mq.events {
		byName[ev.Name] = ev
	}

	login := byName["login_success"]
	assert.Equal(t, "al***e@example.com", login.Properties["email"])
	assert.Equal(t, t0.Add(-time.Minute), login.Timestamp)
	assert.Equal(t, t0, login.ReceivedAt)
	assert.Equal(t, "sid-1", login.SessionID)
	assert.Equal(t, "cus_1", login.UserID)

	view := byName["page_view"]
	assert.Equal(t, t0, view.Timestamp, "skewed timestamps are replaced")
	assert.Empty(t, view.SessionID)
}

func TestUsecase_TrackRejects(t *testing.T) {
	uc, mq, g := newTestUsecase(t)
	ctx := context.Background()

	props := make(map[string]any, 51)
	for i := range 51 {
		props[string(rune('a'+i%26))+string(rune('a'+i/26))] = i
	}

	for _, in := range []TrackInput{
		{},
		{Event: "Login Success"},
		{Event: "ok", Properties: props},
	} {
		err := uc.Track(ctx, in)
		var gerr *goerror.Error
		require.True(t, errors.As(err, &gerr))
		assert.Equal(t, goerror.CodeInvalidInput, gerr.Code())
	}

	require.NoError(t, g.Wait())
	assert.Empty(t, mq.events)
}

func TestUsecase_TrackPublishFailureIsSilent(t *testing.T) {
	uc, mq, g := newTestUsecase(t)
	mq.err = errors.New("broker down")

	assert.NoError(t, uc.Track(context.Background(), TrackInput{Event: "otp_sent"}))
	assert.Error(t, g.Wait())
}
