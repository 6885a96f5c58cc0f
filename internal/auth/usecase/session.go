package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/portal/internal/auth/entity"
	"github.com/shandysiswandi/portal/internal/pkg/goerror"
	"github.com/shandysiswandi/portal/internal/pkg/jwt"
)

type LoginOutput struct {
	Token      string
	ExpiresAt  time.Time
	User       entity.User
	RedirectTo string

	session entity.AuthSession
}

type SessionOutput struct {
	User      entity.User
	Method    entity.LoginMethod
	ExpiresAt time.Time
}

// establish issues the portal token and stores the authenticated session.
// Nothing is stored when the token cannot be issued.
func (s *Usecase) establish(ctx context.Context, res entity.VerifyResult, masked string, method entity.LoginMethod) (*LoginOutput, error) {
	now := s.clock.Now()
	sess := entity.AuthSession{
		ID:           s.uuid.Generate(),
		BackendToken: res.Token,
		User:         res.User,
		Identifier:   masked,
		Method:       method,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.sessionTTL),
	}

	token, err := s.jwt.Generate(jwt.Subject{SessionID: sess.ID, UserID: res.User.ID, Identifier: masked})
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate portal jwt token", "user_id", res.User.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoCache.SaveSession(ctx, sess); err != nil {
		slog.ErrorContext(ctx, "failed to repo save session", "user_id", res.User.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &LoginOutput{
		Token:      token,
		ExpiresAt:  sess.ExpiresAt,
		User:       res.User,
		RedirectTo: redirectAccount,
		session:    sess,
	}, nil
}

// ResolveSession returns the authenticated session referenced by a portal
// token. Other modules use it to reach the backend on the customer's behalf.
func (s *Usecase) ResolveSession(ctx context.Context, sid string) (*entity.AuthSession, error) {
	sess, err := s.repoCache.GetSession(ctx, sid)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, sessionExpired()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get session", "session_id", sid, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.clock.Now().Before(sess.ExpiresAt) {
		return nil, sessionExpired()
	}

	return sess, nil
}

// CheckSession confirms the session is alive locally and upstream.
func (s *Usecase) CheckSession(ctx context.Context) (*SessionOutput, error) {
	ctx, span := s.startSpan(ctx, "CheckSession")
	defer span.End()

	sess, err := s.currentSession(ctx)
	if err != nil {
		return nil, err
	}

	err = s.store.VerifySession(ctx, sess.BackendToken)
	if errors.Is(err, entity.ErrSessionInvalid) {
		slog.WarnContext(ctx, "backend session is no longer valid", "user_id", sess.User.ID)
		if err := s.repoCache.DeleteSession(ctx, *sess); err != nil {
			slog.ErrorContext(ctx, "failed to repo delete session", "session_id", sess.ID, "error", err)
		}
		return nil, sessionExpired()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to verify backend session", "user_id", sess.User.ID, "error", err)
		return nil, goerror.NewUpstream(err, entity.ErrorKindNetworkError.Message())
	}

	return &SessionOutput{User: sess.User, Method: sess.Method, ExpiresAt: sess.ExpiresAt}, nil
}

// Logout ends the current session. Upstream failures are logged and ignored:
// the local session is removed regardless.
func (s *Usecase) Logout(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	sess, err := s.repoCache.GetSession(ctx, clm.SessionID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get session", "session_id", clm.SessionID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.store.Logout(ctx, sess.BackendToken); err != nil {
		slog.WarnContext(ctx, "failed to logout upstream", "user_id", sess.User.ID, "error", err)
	}

	if err := s.repoCache.DeleteSession(ctx, *sess); err != nil {
		slog.ErrorContext(ctx, "failed to repo delete session", "session_id", sess.ID, "error", err)
		return goerror.NewServer(err)
	}

	s.auditUser(ctx, sess, entity.LoginEventLogout)

	return nil
}

// LogoutAll closes every session of the customer, upstream first.
func (s *Usecase) LogoutAll(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "LogoutAll")
	defer span.End()

	sess, err := s.currentSession(ctx)
	if err != nil {
		return err
	}

	if err := s.store.LogoutAll(ctx, sess.BackendToken); err != nil {
		slog.ErrorContext(ctx, "failed to close sessions upstream", "user_id", sess.User.ID, "error", err)
		return goerror.NewUpstream(err, "No pudimos cerrar las sesiones. Intenta nuevamente")
	}

	n, err := s.repoCache.DeleteUserSessions(ctx, sess.User.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete user sessions", "user_id", sess.User.ID, "error", err)
		return goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "closed all sessions", "user_id", sess.User.ID, "count", n)
	s.auditUser(ctx, sess, entity.LoginEventLogoutAll)

	return nil
}

func (s *Usecase) currentSession(ctx context.Context) (*entity.AuthSession, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	return s.ResolveSession(ctx, clm.SessionID)
}

func (s *Usecase) auditUser(ctx context.Context, sess *entity.AuthSession, ev entity.LoginEvent) {
	idn := entity.Identifier{Value: sess.User.Email, Kind: entity.IdentifierKindEmail}
	if idn.Value == "" {
		idn = entity.Identifier{Value: sess.User.Phone, Kind: entity.IdentifierKindPhone}
	}
	s.audit(ctx, idn, ev, 0, sess.User.ID)
}

func sessionExpired() error {
	return goerror.NewBusiness("Tu sesión ha expirado. Inicia sesión nuevamente", goerror.CodeUnauthorized,
		"redirect_to", redirectLogin)
}
