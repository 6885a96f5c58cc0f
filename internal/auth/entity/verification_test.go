package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func newTestVerification() *Verification {
	return NewVerification("v-1", Identifier{Value: "demo@x.com", Kind: IdentifierKindEmail}, DefaultPolicy(), t0)
}

func fill(t *testing.T, v *Verification, code string, now time.Time) DigitResult {
	t.Helper()
	var res DigitResult
	for i := range code {
		var err error
		res, err = v.EnterDigit(i, code[i:i+1], now)
		require.NoError(t, err)
		if i < len(code)-1 {
			assert.False(t, res.Submit, "position %d must not submit", i)
			assert.Equal(t, i+1, res.Focus)
		}
	}
	return res
}

func reject(t *testing.T, v *Verification, now time.Time) {
	t.Helper()
	require.NoError(t, v.BeginVerify("000000", now))
	v.CompleteVerify(VerifyRejected, now)
}

func TestVerification_New(t *testing.T) {
	v := newTestVerification()

	assert.Equal(t, StateAwaitingInput, v.State())
	assert.Len(t, v.CodeBuffer(), 6)
	assert.Equal(t, t0.Add(30*time.Second), v.ResendAvailableAt())

	snap := v.Snapshot(t0)
	assert.Equal(t, "de***o@x.com", snap.MaskedIdentifier)
	assert.Equal(t, 30, snap.ResendRemainingSeconds)
	assert.False(t, snap.ResendReady)
	assert.Equal(t, 3, snap.ResendsLeft)
}

func TestVerification_EnterDigit(t *testing.T) {
	t.Run("six digits submit once in position order", func(t *testing.T) {
		v := newTestVerification()
		res := fill(t, v, "123456", t0)
		assert.True(t, res.Submit)
		assert.Equal(t, "123456", res.Code)
		assert.Equal(t, 5, res.Focus)
	})

	t.Run("out of order entry assembles by position", func(t *testing.T) {
		v := newTestVerification()
		for _, p := range []int{5, 4, 3, 2, 1} {
			res, err := v.EnterDigit(p, string(rune('0'+p)), t0)
			require.NoError(t, err)
			assert.False(t, res.Submit)
		}
		res, err := v.EnterDigit(0, "9", t0)
		require.NoError(t, err)
		assert.True(t, res.Submit)
		assert.Equal(t, "912345", res.Code)
	})

	t.Run("non numeric is a no-op", func(t *testing.T) {
		v := newTestVerification()
		res, err := v.EnterDigit(2, "a", t0)
		require.NoError(t, err)
		assert.False(t, res.Submit)
		assert.Equal(t, []string{"", "", "", "", "", ""}, v.CodeBuffer())

		_, err = v.EnterDigit(2, "12", t0)
		require.NoError(t, err)
		assert.Equal(t, "", v.CodeBuffer()[2])
	})

	t.Run("out of range", func(t *testing.T) {
		v := newTestVerification()
		_, err := v.EnterDigit(6, "1", t0)
		require.ErrorIs(t, err, ErrPositionOutOfRange)
		_, err = v.EnterDigit(-1, "1", t0)
		require.ErrorIs(t, err, ErrPositionOutOfRange)
	})

	t.Run("backspace", func(t *testing.T) {
		v := newTestVerification()
		_, _ = v.EnterDigit(0, "1", t0)
		_, _ = v.EnterDigit(1, "2", t0)

		res, err := v.EnterDigit(1, "", t0)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Focus)
		assert.Equal(t, "", v.CodeBuffer()[1])

		res, err = v.EnterDigit(1, "", t0)
		require.NoError(t, err)
		assert.Equal(t, 0, res.Focus)
		assert.Equal(t, "1", v.CodeBuffer()[0])

		res, err = v.EnterDigit(0, "", t0)
		require.NoError(t, err)
		assert.Equal(t, 0, res.Focus)
		assert.Equal(t, "", v.CodeBuffer()[0])
	})

	t.Run("ignored while submitting", func(t *testing.T) {
		v := newTestVerification()
		require.NoError(t, v.BeginVerify("123456", t0))
		res, err := v.EnterDigit(0, "9", t0)
		require.NoError(t, err)
		assert.False(t, res.Submit)
		assert.Equal(t, "1", v.CodeBuffer()[0])
	})
}

func TestVerification_Paste(t *testing.T) {
	v := newTestVerification()

	code, ok := v.Paste("12-34 5", t0)
	assert.False(t, ok)
	assert.Empty(t, code)
	assert.Equal(t, []string{"", "", "", "", "", ""}, v.CodeBuffer())

	code, ok = v.Paste("código: 12-34 56 78", t0)
	require.True(t, ok)
	assert.Equal(t, "123456", code)
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, v.CodeBuffer())
	assert.Equal(t, 5, v.Focus())
}

func TestVerification_VerifyOutcomes(t *testing.T) {
	t.Run("incomplete", func(t *testing.T) {
		v := newTestVerification()
		err := v.BeginVerify("123", t0)
		require.ErrorIs(t, err, ErrIncompleteCode)
		assert.Equal(t, ErrorKindIncompleteCode, v.ErrorKind())
		assert.Equal(t, "Código incompleto", v.Message())
		assert.Equal(t, StateAwaitingInput, v.State())

		require.ErrorIs(t, v.BeginVerify("12a456", t0), ErrIncompleteCode)
	})

	t.Run("scenario A accepted", func(t *testing.T) {
		v := newTestVerification()
		res := fill(t, v, "123456", t0)
		require.True(t, res.Submit)

		require.NoError(t, v.BeginVerify(res.Code, t0))
		assert.Equal(t, StateSubmitting, v.State())
		require.ErrorIs(t, v.BeginVerify(res.Code, t0), ErrBusy)

		v.CompleteVerify(VerifyAccepted, t0)
		assert.Equal(t, StateVerified, v.State())
		require.ErrorIs(t, v.BeginVerify(res.Code, t0), ErrAlreadyVerified)
	})

	t.Run("rejected annotates attempt", func(t *testing.T) {
		v := newTestVerification()
		fill(t, v, "111111", t0)
		reject(t, v, t0)

		assert.Equal(t, StateAwaitingInput, v.State())
		assert.Equal(t, 1, v.AttemptCount())
		assert.Equal(t, ErrorKindInvalidCode, v.ErrorKind())
		assert.Equal(t, "Código incorrecto. Intenta nuevamente (Intento 1 de 5)", v.Message())
		assert.Equal(t, []string{"", "", "", "", "", ""}, v.CodeBuffer())
		assert.Equal(t, 0, v.Focus())
	})

	t.Run("expired never charges an attempt", func(t *testing.T) {
		v := newTestVerification()
		require.NoError(t, v.BeginVerify("123456", t0))
		v.CompleteVerify(VerifyExpired, t0)

		assert.Equal(t, 0, v.AttemptCount())
		assert.Equal(t, ErrorKindCodeExpired, v.ErrorKind())
		assert.Equal(t, "El código ha expirado. Solicita uno nuevo", v.Message())
		assert.Equal(t, []string{"", "", "", "", "", ""}, v.CodeBuffer())
	})

	t.Run("network error leaves attempts", func(t *testing.T) {
		v := newTestVerification()
		reject(t, v, t0)
		require.NoError(t, v.BeginVerify("123456", t0))
		v.CompleteVerify(VerifyNetworkError, t0)

		assert.Equal(t, StateAwaitingInput, v.State())
		assert.Equal(t, 1, v.AttemptCount())
		assert.Equal(t, ErrorKindNetworkError, v.ErrorKind())
		assert.Equal(t, "Error de conexión. Intenta nuevamente", v.Message())
	})

	t.Run("verify failure keeps resend cooldown", func(t *testing.T) {
		v := newTestVerification()
		before := v.ResendAvailableAt()
		reject(t, v, t0.Add(10*time.Second))
		assert.Equal(t, before, v.ResendAvailableAt())
	})

	t.Run("completion without begin is ignored", func(t *testing.T) {
		v := newTestVerification()
		v.CompleteVerify(VerifyRejected, t0)
		assert.Equal(t, 0, v.AttemptCount())
	})
}

func TestVerification_ScenarioB_Block(t *testing.T) {
	v := newTestVerification()

	for i := 1; i <= 5; i++ {
		fill(t, v, "999999", t0)
		reject(t, v, t0)
	}

	assert.Equal(t, StateBlocked, v.State())
	assert.Equal(t, 5, v.AttemptCount())
	assert.Equal(t, t0.Add(30*time.Minute), v.BlockedUntil())
	assert.Equal(t, []string{"", "", "", "", "", ""}, v.CodeBuffer())
	assert.Equal(t, ErrorKindMaxAttemptsExceeded, v.ErrorKind())
	assert.Contains(t, v.Message(), "(Intento 5 de 5)")
	assert.Contains(t, v.Message(), "Has alcanzado el número máximo de intentos")

	snap := v.Snapshot(t0)
	assert.Equal(t, 30, snap.RemainingBlockMinutes)

	// further verify before blockedUntil is refused and does not count
	err := v.BeginVerify("123456", t0.Add(29*time.Minute))
	require.ErrorIs(t, err, ErrBlocked)
	assert.Equal(t, 5, v.AttemptCount())
	assert.Equal(t, StateBlocked, v.State())

	// digits are ignored while blocked
	res, err := v.EnterDigit(0, "1", t0.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, res.Submit)
	assert.Equal(t, "", v.CodeBuffer()[0])

	// resend is refused while blocked
	require.ErrorIs(t, v.BeginResend(t0.Add(time.Minute)), ErrBlocked)
}

func TestVerification_BlockExpiry(t *testing.T) {
	v := newTestVerification()
	for range 5 {
		reject(t, v, t0)
	}

	assert.False(t, v.TickBlock(t0.Add(29*time.Minute+30*time.Second)))
	assert.Equal(t, 1, v.Snapshot(t0.Add(29*time.Minute+30*time.Second)).RemainingBlockMinutes)
	assert.Equal(t, StateBlocked, v.State())

	// the boundary is decided by blockedUntil, not by the counter
	assert.True(t, v.TickBlock(t0.Add(30*time.Minute)))
	assert.Equal(t, StateAwaitingInput, v.State())
	assert.Equal(t, 0, v.AttemptCount())
	assert.True(t, v.BlockedUntil().IsZero())
	assert.Equal(t, ErrorKindNone, v.ErrorKind())

	require.NoError(t, v.BeginVerify("123456", t0.Add(31*time.Minute)))
}

func TestVerification_BlockLiftedWithoutTicker(t *testing.T) {
	v := newTestVerification()
	for range 5 {
		reject(t, v, t0)
	}
	require.NoError(t, v.BeginVerify("123456", t0.Add(30*time.Minute)))
	assert.Equal(t, 0, v.AttemptCount())
}

func TestVerification_Resend(t *testing.T) {
	t.Run("scenario C second resend within cooldown is a no-op", func(t *testing.T) {
		v := newTestVerification()
		at := t0.Add(30 * time.Second)

		require.NoError(t, v.BeginResend(at))
		v.CompleteResend(ResendSent, at)
		available := v.ResendAvailableAt()
		assert.Equal(t, at.Add(30*time.Second), available)

		err := v.BeginResend(at.Add(10 * time.Second))
		require.ErrorIs(t, err, ErrResendThrottled)
		assert.Equal(t, available, v.ResendAvailableAt())
		assert.Equal(t, ErrorKindNone, v.ErrorKind())
		assert.Equal(t, 1, v.ResendCount())
	})

	t.Run("resend does not reset attempts", func(t *testing.T) {
		v := newTestVerification()
		reject(t, v, t0)
		reject(t, v, t0)
		fill(t, v, "12", t0)

		at := t0.Add(time.Minute)
		require.NoError(t, v.BeginResend(at))
		v.CompleteResend(ResendSent, at)

		assert.Equal(t, 2, v.AttemptCount())
		assert.Equal(t, []string{"", "", "", "", "", ""}, v.CodeBuffer())
		assert.Equal(t, 0, v.Focus())
	})

	t.Run("failure keeps cooldown unchanged", func(t *testing.T) {
		v := newTestVerification()
		before := v.ResendAvailableAt()
		at := t0.Add(time.Minute)

		require.NoError(t, v.BeginResend(at))
		v.CompleteResend(ResendNetworkError, at)

		assert.Equal(t, before, v.ResendAvailableAt())
		assert.Equal(t, ErrorKindNetworkError, v.ErrorKind())
		assert.Equal(t, 0, v.ResendCount())
		require.NoError(t, v.BeginResend(at))
	})

	t.Run("refused while submitting", func(t *testing.T) {
		v := newTestVerification()
		require.NoError(t, v.BeginVerify("123456", t0.Add(time.Minute)))
		require.ErrorIs(t, v.BeginResend(t0.Add(time.Minute)), ErrBusy)
	})

	t.Run("verify refused while resend in flight", func(t *testing.T) {
		v := newTestVerification()
		require.NoError(t, v.BeginResend(t0.Add(time.Minute)))
		require.ErrorIs(t, v.BeginVerify("123456", t0.Add(time.Minute)), ErrBusy)
		require.ErrorIs(t, v.BeginResend(t0.Add(time.Minute)), ErrBusy)
	})

	t.Run("limit", func(t *testing.T) {
		v := newTestVerification()
		at := t0
		for range 3 {
			at = at.Add(time.Minute)
			require.NoError(t, v.BeginResend(at))
			v.CompleteResend(ResendSent, at)
		}

		err := v.BeginResend(at.Add(time.Minute))
		require.ErrorIs(t, err, ErrResendLimit)
		assert.Equal(t, ErrorKindResendLimit, v.ErrorKind())
		assert.Equal(t, "Has solicitado demasiados códigos. Intenta más tarde", v.Message())
		assert.Equal(t, 0, v.Snapshot(at).ResendsLeft)
	})

	t.Run("undeliverable", func(t *testing.T) {
		v := newTestVerification()
		require.NoError(t, v.BeginResend(t0.Add(time.Minute)))
		v.CompleteResend(ResendUndeliverable, t0.Add(time.Minute))
		assert.Equal(t, ErrorKindUndeliverable, v.ErrorKind())
	})
}

func TestVerification_TickResend(t *testing.T) {
	v := newTestVerification()

	assert.False(t, v.TickResend(t0.Add(time.Second)))
	assert.Equal(t, 29, v.Snapshot(t0.Add(time.Second)).ResendRemainingSeconds)

	assert.True(t, v.TickResend(t0.Add(30*time.Second)))
	snap := v.Snapshot(t0.Add(30 * time.Second))
	assert.Equal(t, 0, snap.ResendRemainingSeconds)
	assert.True(t, snap.ResendReady)
}

func TestVerification_IdleExpiry(t *testing.T) {
	v := newTestVerification()
	assert.False(t, v.Expired(t0.Add(44*time.Minute)))
	assert.True(t, v.Expired(t0.Add(45*time.Minute)))

	require.NoError(t, v.BeginResend(t0.Add(time.Hour)))
	assert.False(t, v.Expired(t0.Add(2*time.Hour)), "busy sessions are never swept")
}
