package local

import (
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/portal/internal/auth/entity"
	"github.com/shandysiswandi/portal/internal/pkg/clock"
	"github.com/shandysiswandi/portal/internal/pkg/otp"
	"github.com/shandysiswandi/portal/internal/pkg/uid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

var demo = entity.Identifier{Value: "demo@x.com", Kind: entity.IdentifierKindEmail}

func newTestStore(cfg Config) (*Store, *clock.Fake, *otp.TOTP) {
	clk := clock.NewFake(t0)
	o := otp.NewTOTP("portal", 300, 6)
	return NewStore(cfg, o, clk, uid.NewUUID()), clk, o
}

// issuedCode recomputes the code the store just logged.
func issuedCode(t *testing.T, s *Store, o *otp.TOTP, idn entity.Identifier) string {
	t.Helper()
	s.mu.Lock()
	is, ok := s.codes[idn.Value]
	s.mu.Unlock()
	require.True(t, ok)

	code, err := o.GenerateCode(is.secret, is.at)
	require.NoError(t, err)
	return code
}

func TestStore_IssueAndVerify(t *testing.T) {
	ctx := context.Background()
	s, clk, o := newTestStore(Config{})

	res, err := s.SendCode(ctx, demo)
	require.NoError(t, err)
	assert.False(t, res.Blocked)
	assert.Equal(t, t0.Add(5*time.Minute), res.ExpiresAt)

	code := issuedCode(t, s, o, demo)

	_, err = s.VerifyCode(ctx, demo, "000000")
	if code == "000000" {
		t.Skip("generated code collides with the wrong guess")
	}
	assert.ErrorIs(t, err, entity.ErrCodeRejected)

	clk.Advance(4 * time.Minute)
	out, err := s.VerifyCode(ctx, demo, code)
	require.NoError(t, err)
	assert.Equal(t, "demo@x.com", out.User.Email)
	assert.NotEmpty(t, out.Token)
	assert.NoError(t, s.VerifySession(ctx, out.Token))

	_, err = s.VerifyCode(ctx, demo, code)
	assert.ErrorIs(t, err, entity.ErrCodeRejected, "codes are single use")
}

func TestStore_Expired(t *testing.T) {
	ctx := context.Background()
	s, clk, o := newTestStore(Config{})

	_, err := s.SendCode(ctx, demo)
	require.NoError(t, err)
	code := issuedCode(t, s, o, demo)

	clk.Advance(5 * time.Minute)
	_, err = s.VerifyCode(ctx, demo, code)
	assert.ErrorIs(t, err, entity.ErrCodeExpired)
}

func TestStore_FixedCodeAndBounce(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(Config{FixedCode: "123456", BlockedIdentifiers: []string{" Bounce@X.com "}})

	out, err := s.VerifyCode(ctx, demo, "123456")
	require.NoError(t, err)
	assert.Equal(t, "local:demo@x.com", out.User.ID)

	res, err := s.SendCode(ctx, entity.Identifier{Value: "bounce@x.com", Kind: entity.IdentifierKindEmail})
	require.NoError(t, err)
	assert.True(t, res.Blocked)
}

func TestStore_Sessions(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(Config{FixedCode: "123456"})

	a, err := s.VerifyCode(ctx, demo, "123456")
	require.NoError(t, err)
	b, err := s.VerifyCode(ctx, demo, "123456")
	require.NoError(t, err)
	assert.Len(t, s.Sessions(a.User.ID), 2)

	require.NoError(t, s.Logout(ctx, a.Token))
	assert.ErrorIs(t, s.VerifySession(ctx, a.Token), entity.ErrSessionInvalid)

	c, err := s.VerifyCode(ctx, demo, "123456")
	require.NoError(t, err)
	require.NoError(t, s.LogoutAll(ctx, c.Token))
	assert.Empty(t, s.Sessions(b.User.ID))
	assert.ErrorIs(t, s.LogoutAll(ctx, c.Token), entity.ErrSessionInvalid)

	t1, err := s.ExchangeT1Pay(ctx, "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "local-t1pay", t1.User.ID)

	_, err = s.ExchangeT1Pay(ctx, " ")
	assert.ErrorIs(t, err, entity.ErrT1PayRejected)
}
