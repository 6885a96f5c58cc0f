package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/portal/internal/auth/entity"
	"github.com/shandysiswandi/portal/internal/pkg/goerror"
)

type SendCodeInput struct {
	Identifier string `validate:"required,max=254"`
}

type VerificationOutput struct {
	Snapshot entity.Snapshot
	// Login is set once the code was accepted.
	Login *LoginOutput
}

// SendCode captures the identifier, asks the Session Store to issue a code
// and opens a verification session with the resend cooldown already running.
func (s *Usecase) SendCode(ctx context.Context, in SendCodeInput) (*VerificationOutput, error) {
	ctx, span := s.startSpan(ctx, "SendCode")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	idn, err := entity.ParseIdentifier(in.Identifier)
	if err != nil {
		return nil, kindError(entity.ErrorKindInvalidFormat, goerror.CodeInvalidInput)
	}

	key, err := s.identifierKey(idn)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash identifier", "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()

	lock, err := s.repoCache.GetLockout(ctx, key)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get lockout", "identifier", idn.Masked(), "error", err)
		return nil, goerror.NewServer(err)
	}
	if lock != nil && now.Before(lock.Until) {
		slog.WarnContext(ctx, "identifier is locked out", "identifier", idn.Masked(), "until", lock.Until)
		return nil, kindError(entity.ErrorKindMaxAttemptsExceeded, goerror.CodeLocked,
			"blocked_until", lock.Until.UTC().Format(time.RFC3339))
	}

	fails, err := s.repoCache.GetDailyFailures(ctx, key)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get daily failures", "identifier", idn.Masked(), "error", err)
		return nil, goerror.NewServer(err)
	}
	if fails >= s.maxDailyAttempts {
		slog.WarnContext(ctx, "identifier reached the daily attempt limit", "identifier", idn.Masked(), "failures", fails)
		return nil, kindError(entity.ErrorKindMaxAttemptsExceeded, goerror.CodeTooManyRequest)
	}

	res, err := s.store.SendCode(ctx, idn)
	if errors.Is(err, entity.ErrTooManyCodes) {
		return nil, kindError(entity.ErrorKindResendLimit, goerror.CodeTooManyRequest)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to send code", "identifier", idn.Masked(), "error", err)
		return nil, goerror.NewUpstream(err, entity.ErrorKindNetworkError.Message())
	}
	if res.Blocked {
		slog.WarnContext(ctx, "code delivery bounced", "identifier", idn.Masked())
		return nil, kindError(entity.ErrorKindUndeliverable, goerror.CodeInvalidInput)
	}

	v := entity.NewVerification(s.uuid.Generate(), idn, s.policy, now)
	rt := newRuntime(v, s.clock)
	if !s.registry.add(rt) {
		return nil, goerror.NewServer(errors.New("verification registry is shut down"))
	}

	s.audit(ctx, idn, entity.LoginEventCodeSent, 0, "")

	rt.mu.Lock()
	snap := rt.v.Snapshot(now)
	rt.mu.Unlock()

	return &VerificationOutput{Snapshot: snap}, nil
}

// kindError is a business error whose message is the customer text of kind.
func kindError(kind entity.ErrorKind, code goerror.Code, kv ...string) error {
	return goerror.NewBusiness(kind.Message(), code, append([]string{"error_kind", kind.String()}, kv...)...)
}
