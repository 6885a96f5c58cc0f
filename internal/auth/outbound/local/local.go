// Package local is an in-process Session Store for development and tests.
// Codes are TOTP values bound to the moment they were issued; no message is
// actually delivered, the code is logged instead.
package local

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/portal/internal/auth/entity"
	"github.com/shandysiswandi/portal/internal/pkg/clock"
	"github.com/shandysiswandi/portal/internal/pkg/otp"
	"github.com/shandysiswandi/portal/internal/pkg/uid"
)

var errNoCode = errors.New("local: no code was issued for identifier")

type Config struct {
	// FixedCode is accepted for every identifier when set.
	FixedCode string
	// BlockedIdentifiers simulate undeliverable addresses.
	BlockedIdentifiers []string
	// CodeExpiry is how long an issued code is accepted.
	CodeExpiry time.Duration
}

type issued struct {
	secret string
	at     time.Time
}

type session struct {
	user entity.User
}

type Store struct {
	mu       sync.Mutex
	otp      otp.OTP
	clock    clock.Clocker
	uuid     uid.StringID
	cfg      Config
	blocked  map[string]struct{}
	codes    map[string]issued
	sessions map[string]session
}

func NewStore(cfg Config, o otp.OTP, clk clock.Clocker, uuid uid.StringID) *Store {
	if cfg.CodeExpiry <= 0 {
		cfg.CodeExpiry = 5 * time.Minute
	}

	blocked := lo.SliceToMap(cfg.BlockedIdentifiers, func(s string) (string, struct{}) {
		return strings.ToLower(strings.TrimSpace(s)), struct{}{}
	})

	return &Store{
		otp:      o,
		clock:    clk,
		uuid:     uuid,
		cfg:      cfg,
		blocked:  blocked,
		codes:    make(map[string]issued),
		sessions: make(map[string]session),
	}
}

func (s *Store) SendCode(ctx context.Context, idn entity.Identifier) (entity.SendResult, error) {
	return s.issue(ctx, idn)
}

func (s *Store) ResendCode(ctx context.Context, idn entity.Identifier) (entity.SendResult, error) {
	return s.issue(ctx, idn)
}

func (s *Store) issue(ctx context.Context, idn entity.Identifier) (entity.SendResult, error) {
	if _, ok := s.blocked[idn.Value]; ok {
		slog.InfoContext(ctx, "local store simulating a bounce", "identifier", idn.Masked())
		return entity.SendResult{Blocked: true}, nil
	}

	secret, err := s.otp.NewSecret(idn.Value)
	if err != nil {
		return entity.SendResult{}, err
	}

	now := s.clock.Now()
	code, err := s.otp.GenerateCode(secret, now)
	if err != nil {
		return entity.SendResult{}, err
	}

	s.mu.Lock()
	s.codes[idn.Value] = issued{secret: secret, at: now}
	s.mu.Unlock()

	slog.InfoContext(ctx, "local store issued code", "identifier", idn.Masked(), "otp_code", code)

	return entity.SendResult{ExpiresAt: now.Add(s.cfg.CodeExpiry)}, nil
}

func (s *Store) VerifyCode(ctx context.Context, idn entity.Identifier, code string) (entity.VerifyResult, error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.FixedCode == "" || code != s.cfg.FixedCode {
		is, ok := s.codes[idn.Value]
		if !ok {
			slog.DebugContext(ctx, "local store verify without code", "identifier", idn.Masked(), "error", errNoCode)
			return entity.VerifyResult{}, entity.ErrCodeRejected
		}
		if !s.otp.Validate(code, is.secret, is.at) {
			return entity.VerifyResult{}, entity.ErrCodeRejected
		}
		if now.Sub(is.at) >= s.cfg.CodeExpiry {
			return entity.VerifyResult{}, entity.ErrCodeExpired
		}
	}

	delete(s.codes, idn.Value)

	user := entity.User{ID: "local:" + idn.Value}
	if idn.Kind == entity.IdentifierKindEmail {
		user.Email = idn.Value
		user.Name, _, _ = strings.Cut(idn.Value, "@")
	} else {
		user.Phone = idn.Value
		user.Name = idn.Masked()
	}

	return entity.VerifyResult{Token: s.openSession(user), User: user}, nil
}

func (s *Store) VerifySession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[token]; !ok {
		return entity.ErrSessionInvalid
	}
	return nil
}

func (s *Store) Logout(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, token)
	return nil
}

func (s *Store) LogoutAll(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return entity.ErrSessionInvalid
	}

	mine := lo.PickBy(s.sessions, func(_ string, v session) bool { return v.user.ID == sess.user.ID })
	for tok := range mine {
		delete(s.sessions, tok)
	}
	return nil
}

// ExchangeT1Pay accepts any non-empty code and logs in a fixed customer.
func (s *Store) ExchangeT1Pay(_ context.Context, code string) (entity.VerifyResult, error) {
	if strings.TrimSpace(code) == "" {
		return entity.VerifyResult{}, entity.ErrT1PayRejected
	}

	user := entity.User{ID: "local-t1pay", Name: "Cliente T1 Pay", Email: "cliente@t1pay.local"}

	s.mu.Lock()
	defer s.mu.Unlock()

	return entity.VerifyResult{Token: s.openSession(user), User: user}, nil
}

// openSession is called with mu held.
func (s *Store) openSession(user entity.User) string {
	token := s.uuid.Generate()
	s.sessions[token] = session{user: user}
	return token
}

// Sessions lists the open backend tokens of a user, for tests.
func (s *Store) Sessions(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := lo.Keys(lo.PickBy(s.sessions, func(_ string, v session) bool { return v.user.ID == userID }))
	slices.Sort(out)
	return out
}
