package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/portal/internal/auth/entity"
	"github.com/shandysiswandi/portal/internal/pkg/clock"
	"github.com/shandysiswandi/portal/internal/pkg/config"
	"github.com/shandysiswandi/portal/internal/pkg/goroutine"
	"github.com/shandysiswandi/portal/internal/pkg/hash"
	"github.com/shandysiswandi/portal/internal/pkg/instrument"
	"github.com/shandysiswandi/portal/internal/pkg/jwt"
	"github.com/shandysiswandi/portal/internal/pkg/uid"
	"github.com/shandysiswandi/portal/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

const (
	redirectAccount = "/cuenta"
	redirectLogin   = "/cuenta/login"

	defaultSessionTTL       = 24 * time.Hour
	defaultMaxDailyAttempts = 10
	dailyFailureWindow      = 24 * time.Hour
	t1payStateTTL           = 10 * time.Minute
	sweepInterval           = time.Minute
)

// SessionStore is the remote authority that issues and checks codes.
type SessionStore interface {
	SendCode(ctx context.Context, idn entity.Identifier) (entity.SendResult, error)
	VerifyCode(ctx context.Context, idn entity.Identifier, code string) (entity.VerifyResult, error)
	ResendCode(ctx context.Context, idn entity.Identifier) (entity.SendResult, error)
	VerifySession(ctx context.Context, token string) error
	Logout(ctx context.Context, token string) error
	LogoutAll(ctx context.Context, token string) error
	ExchangeT1Pay(ctx context.Context, code string) (entity.VerifyResult, error)
}

type repoCache interface {
	SaveSession(ctx context.Context, sess entity.AuthSession) error
	GetSession(ctx context.Context, id string) (*entity.AuthSession, error)
	DeleteSession(ctx context.Context, sess entity.AuthSession) error
	DeleteUserSessions(ctx context.Context, userID string) (int, error)

	GetLockout(ctx context.Context, key string) (*entity.Lockout, error)
	SetLockout(ctx context.Context, key string, l entity.Lockout) error
	GetDailyFailures(ctx context.Context, key string) (int, error)
	IncrDailyFailures(ctx context.Context, key string, window time.Duration) (int, error)

	SaveT1PayState(ctx context.Context, state string, ttl time.Duration) error
	ConsumeT1PayState(ctx context.Context, state string) (bool, error)
}

type repoDB interface {
	CreateLoginEvent(ctx context.Context, entry entity.AuditEntry) error
}

type repoMessaging interface {
	PublishLoginEvent(ctx context.Context, entry entity.AuditEntry) error
}

type Usecase struct {
	store         SessionStore
	repoCache     repoCache
	repoDB        repoDB
	repoMessaging repoMessaging
	validator     validator.Validator
	hmac          hash.Hash
	uid           uid.NumberID
	uuid          uid.StringID
	clock         clock.Scheduler
	jwt           jwt.JWT
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
	t1pay         *oauth2.Config

	policy           entity.Policy
	sessionTTL       time.Duration
	maxDailyAttempts int
	registry         *registry
}

type Dependency struct {
	Store         SessionStore
	RepoCache     repoCache
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	UID           uid.NumberID
	UUID          uid.StringID
	Clock         clock.Scheduler
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
	// T1Pay is nil when the integration is disabled.
	T1Pay *oauth2.Config
}

func New(dep Dependency) *Usecase {
	s := &Usecase{
		store:            dep.Store,
		repoCache:        dep.RepoCache,
		repoDB:           dep.RepoDB,
		repoMessaging:    dep.RepoMessaging,
		validator:        dep.Validator,
		hmac:             dep.HMAC,
		uid:              dep.UID,
		uuid:             dep.UUID,
		clock:            dep.Clock,
		jwt:              dep.JWT,
		ins:              dep.Instrument,
		goroutine:        dep.Goroutine,
		t1pay:            dep.T1Pay,
		policy:           PolicyFromConfig(dep.Config),
		sessionTTL:       defaultSessionTTL,
		maxDailyAttempts: defaultMaxDailyAttempts,
	}

	if dep.Config != nil {
		if v := dep.Config.GetHour("modules.auth.session.ttl_hours"); v > 0 {
			s.sessionTTL = v
		}
		if v := dep.Config.GetInt("modules.auth.otp.max_daily_attempts"); v > 0 {
			s.maxDailyAttempts = v
		}
	}

	s.registry = newRegistry(dep.Clock, sweepInterval)

	return s
}

// PolicyFromConfig reads modules.auth.otp.*, falling back to the defaults
// for missing or non-positive values.
func PolicyFromConfig(cfg config.Config) entity.Policy {
	p := entity.DefaultPolicy()
	if cfg == nil {
		return p
	}

	if v := cfg.GetInt("modules.auth.otp.length"); v == 4 || v == 6 || v == 8 {
		p.CodeLength = v
	}
	if v := cfg.GetInt("modules.auth.otp.max_attempts"); v > 0 {
		p.MaxAttempts = v
	}
	if v := cfg.GetMinute("modules.auth.otp.block_minutes"); v > 0 {
		p.BlockDuration = v
	}
	if v := cfg.GetSecond("modules.auth.otp.resend_cooldown_seconds"); v > 0 {
		p.ResendCooldown = v
	}
	if v := cfg.GetInt("modules.auth.otp.max_resends"); v > 0 {
		p.MaxResends = v
	}
	if v := cfg.GetMinute("modules.auth.otp.code_expiry_minutes"); v > 0 {
		p.CodeExpiry = v
	}
	if v := cfg.GetMinute("modules.auth.otp.idle_minutes"); v > 0 {
		p.IdleTimeout = v
	}

	return p
}

// Shutdown disposes every live verification session and its timers.
func (s *Usecase) Shutdown() {
	s.registry.shutdown()
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.usecase").Start(ctx, name)
}

// identifierKey is the keyed hash used wherever the identifier is stored.
func (s *Usecase) identifierKey(idn entity.Identifier) (string, error) {
	h, err := s.hmac.Hash(idn.Kind.String() + ":" + idn.Value)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// audit records the entry in the login trail and on the broker, off the
// request path.
func (s *Usecase) audit(ctx context.Context, idn entity.Identifier, ev entity.LoginEvent, attempt int, userID string) {
	key, err := s.identifierKey(idn)
	if err != nil {
		slog.WarnContext(ctx, "failed to hash identifier for audit", "event", ev, "error", err)
		return
	}

	entry := entity.AuditEntry{
		ID:             s.uid.Generate(),
		IdentifierHash: key,
		IdentifierKind: idn.Kind,
		MaskedValue:    idn.Masked(),
		Event:          ev,
		Attempt:        attempt,
		UserID:         userID,
		CorrelationID:  instrument.GetCorrelationID(ctx),
		OccurredAt:     s.clock.Now(),
	}

	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := s.repoDB.CreateLoginEvent(ctx, entry); err != nil {
			slog.ErrorContext(ctx, "failed to repo create login event", "event", ev, "error", err)
			return err
		}

		if err := s.repoMessaging.PublishLoginEvent(ctx, entry); err != nil {
			slog.ErrorContext(ctx, "failed to publish login event", "event", ev, "error", err)
			return err
		}

		return nil
	})
}
