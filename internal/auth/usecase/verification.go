package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/portal/internal/auth/entity"
	"github.com/shandysiswandi/portal/internal/pkg/goerror"
)

type VerificationInput struct {
	ID string `validate:"required,uuid"`
}

// EnterDigitInput leaves the digit loose: anything but a single numeric
// character is ignored by the session, not rejected.
type EnterDigitInput struct {
	ID       string `validate:"required,uuid"`
	Position int    `validate:"gte=0,lte=5"`
	Digit    string `validate:"max=16"`
}

type PasteInput struct {
	ID       string `validate:"required,uuid"`
	Sequence string `validate:"max=1024"`
}

type VerifyInput struct {
	ID   string `validate:"required,uuid"`
	Code string `validate:"max=16"`
}

func (s *Usecase) GetVerification(ctx context.Context, in VerificationInput) (*VerificationOutput, error) {
	ctx, span := s.startSpan(ctx, "GetVerification")
	defer span.End()

	rt, err := s.lookup(ctx, in.ID, in)
	if err != nil {
		return nil, err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	return &VerificationOutput{Snapshot: rt.v.Snapshot(s.clock.Now())}, nil
}

// EnterDigit writes one cell. Completing the buffer submits the code.
func (s *Usecase) EnterDigit(ctx context.Context, in EnterDigitInput) (*VerificationOutput, error) {
	ctx, span := s.startSpan(ctx, "EnterDigit")
	defer span.End()

	rt, err := s.lookup(ctx, in.ID, in)
	if err != nil {
		return nil, err
	}

	rt.mu.Lock()
	now := s.clock.Now()
	res, err := rt.v.EnterDigit(in.Position, in.Digit, now)
	if err != nil {
		rt.mu.Unlock()
		return nil, goerror.NewInvalidInput(nil, "position", "position is out of range")
	}
	if !res.Submit {
		snap := rt.v.Snapshot(now)
		rt.mu.Unlock()
		return &VerificationOutput{Snapshot: snap}, nil
	}
	rt.mu.Unlock()

	return s.submit(ctx, rt, res.Code)
}

// Paste fills the buffer from a pasted sequence and submits it when it holds
// exactly a full code.
func (s *Usecase) Paste(ctx context.Context, in PasteInput) (*VerificationOutput, error) {
	ctx, span := s.startSpan(ctx, "Paste")
	defer span.End()

	rt, err := s.lookup(ctx, in.ID, in)
	if err != nil {
		return nil, err
	}

	rt.mu.Lock()
	now := s.clock.Now()
	code, ok := rt.v.Paste(in.Sequence, now)
	if !ok {
		snap := rt.v.Snapshot(now)
		rt.mu.Unlock()
		return &VerificationOutput{Snapshot: snap}, nil
	}
	rt.mu.Unlock()

	return s.submit(ctx, rt, code)
}

func (s *Usecase) Verify(ctx context.Context, in VerifyInput) (*VerificationOutput, error) {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	rt, err := s.lookup(ctx, in.ID, in)
	if err != nil {
		return nil, err
	}

	return s.submit(ctx, rt, in.Code)
}

// Resend asks for a new code. Throttled, blocked and capped requests are
// answered with the snapshot and never reach the Session Store.
func (s *Usecase) Resend(ctx context.Context, in VerificationInput) (*VerificationOutput, error) {
	ctx, span := s.startSpan(ctx, "Resend")
	defer span.End()

	rt, err := s.lookup(ctx, in.ID, in)
	if err != nil {
		return nil, err
	}

	rt.mu.Lock()
	now := s.clock.Now()
	if err := rt.v.BeginResend(now); err != nil {
		snap := rt.v.Snapshot(now)
		rt.mu.Unlock()
		slog.DebugContext(ctx, "resend refused", "verification_id", in.ID, "reason", err)
		return &VerificationOutput{Snapshot: snap}, nil
	}
	idn := rt.v.Identifier
	rt.mu.Unlock()

	res, err := s.store.ResendCode(ctx, idn)
	out := entity.ResendSent
	switch {
	case errors.Is(err, entity.ErrTooManyCodes):
		out = entity.ResendLimited
	case err != nil:
		slog.ErrorContext(ctx, "failed to resend code", "identifier", idn.Masked(), "error", err)
		out = entity.ResendNetworkError
	case res.Blocked:
		slog.WarnContext(ctx, "code delivery bounced", "identifier", idn.Masked())
		out = entity.ResendUndeliverable
	}

	rt.mu.Lock()
	if rt.disposed.Load() {
		rt.mu.Unlock()
		return nil, sessionNotFound()
	}
	now = s.clock.Now()
	rt.v.CompleteResend(out, now)
	rt.syncTimers()
	snap := rt.v.Snapshot(now)
	rt.mu.Unlock()

	if out == entity.ResendSent {
		s.audit(ctx, idn, entity.LoginEventCodeResent, snap.AttemptCount, "")
	}

	return &VerificationOutput{Snapshot: snap}, nil
}

// Discard drops the session, as when the customer goes back to capture.
func (s *Usecase) Discard(ctx context.Context, in VerificationInput) error {
	ctx, span := s.startSpan(ctx, "Discard")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if !s.registry.remove(in.ID) {
		slog.DebugContext(ctx, "discard of unknown verification", "verification_id", in.ID)
	}

	return nil
}

// submit runs one verify round trip. The machine moves to Submitting under the
// lock; the Session Store is called with the lock released.
func (s *Usecase) submit(ctx context.Context, rt *runtime, code string) (*VerificationOutput, error) {
	rt.mu.Lock()
	now := s.clock.Now()
	if err := rt.v.BeginVerify(code, now); err != nil {
		snap := rt.v.Snapshot(now)
		rt.mu.Unlock()
		slog.DebugContext(ctx, "verify refused", "verification_id", rt.v.ID, "reason", err)
		return &VerificationOutput{Snapshot: snap}, nil
	}
	idn := rt.v.Identifier
	rt.mu.Unlock()

	res, err := s.store.VerifyCode(ctx, idn, code)
	out := entity.VerifyAccepted
	switch {
	case errors.Is(err, entity.ErrCodeRejected):
		out = entity.VerifyRejected
	case errors.Is(err, entity.ErrCodeExpired):
		out = entity.VerifyExpired
	case err != nil:
		slog.ErrorContext(ctx, "failed to verify code", "identifier", idn.Masked(), "error", err)
		out = entity.VerifyNetworkError
	}

	// The machine only reaches Verified once the portal session exists; a
	// failure here costs no attempt.
	var login *LoginOutput
	if out == entity.VerifyAccepted {
		login, err = s.establish(ctx, res, idn.Masked(), entity.LoginMethodOTP)
		if err != nil {
			out = entity.VerifyNetworkError
		}
	}

	rt.mu.Lock()
	if rt.disposed.Load() {
		rt.mu.Unlock()
		if login != nil {
			s.dropSession(ctx, login.session)
		}
		return nil, sessionNotFound()
	}
	now = s.clock.Now()
	rt.v.CompleteVerify(out, now)
	rt.syncTimers()
	snap := rt.v.Snapshot(now)
	rt.mu.Unlock()

	switch out {
	case entity.VerifyAccepted:
		s.registry.remove(snap.ID)
		s.audit(ctx, idn, entity.LoginEventVerified, snap.AttemptCount, res.User.ID)
		return &VerificationOutput{Snapshot: snap, Login: login}, nil

	case entity.VerifyRejected:
		s.recordFailure(ctx, idn, snap)

	case entity.VerifyExpired:
		s.audit(ctx, idn, entity.LoginEventExpired, snap.AttemptCount, "")

	default:
		s.audit(ctx, idn, entity.LoginEventNetworkError, snap.AttemptCount, "")
	}

	return &VerificationOutput{Snapshot: snap}, nil
}

func (s *Usecase) dropSession(ctx context.Context, sess entity.AuthSession) {
	if err := s.repoCache.DeleteSession(ctx, sess); err != nil {
		slog.ErrorContext(ctx, "failed to repo delete session", "session_id", sess.ID, "error", err)
	}
}

// recordFailure counts a rejected code against the identifier and persists
// the lockout once the session blocked.
func (s *Usecase) recordFailure(ctx context.Context, idn entity.Identifier, snap entity.Snapshot) {
	s.audit(ctx, idn, entity.LoginEventRejected, snap.AttemptCount, "")

	key, err := s.identifierKey(idn)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash identifier", "error", err)
		return
	}

	if _, err := s.repoCache.IncrDailyFailures(ctx, key, dailyFailureWindow); err != nil {
		slog.ErrorContext(ctx, "failed to repo incr daily failures", "identifier", idn.Masked(), "error", err)
	}

	if snap.State != entity.StateBlocked {
		return
	}

	if err := s.repoCache.SetLockout(ctx, key, entity.Lockout{
		Until:    snap.BlockedUntil,
		Attempts: snap.AttemptCount,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo set lockout", "identifier", idn.Masked(), "error", err)
	}

	slog.WarnContext(ctx, "verification blocked", "identifier", idn.Masked(), "until", snap.BlockedUntil)
	s.audit(ctx, idn, entity.LoginEventBlocked, snap.AttemptCount, "")
}

func (s *Usecase) lookup(ctx context.Context, id string, in any) (*runtime, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	rt, ok := s.registry.get(id)
	if !ok {
		slog.WarnContext(ctx, "verification session not found", "verification_id", id)
		return nil, sessionNotFound()
	}

	return rt, nil
}

func sessionNotFound() error {
	return goerror.NewBusiness("Sesión de verificación no encontrada", goerror.CodeNotFound,
		"redirect_to", redirectLogin)
}
