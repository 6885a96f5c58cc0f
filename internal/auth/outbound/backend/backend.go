package backend

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shandysiswandi/portal/internal/auth/entity"
	"github.com/shandysiswandi/portal/internal/pkg/httpclient"
)

type userModel struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (u userModel) toEntity() entity.User {
	return entity.User{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone}
}

type sendResponse struct {
	Success   bool      `json:"success"`
	Blocked   bool      `json:"blocked"`
	ExpiresAt time.Time `json:"expires_at"`
}

type tokenResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Code    string    `json:"code"`
	Token   string    `json:"token"`
	User    userModel `json:"user"`
}

// accepted reports whether a 2xx answer actually carries a session.
func (r tokenResponse) accepted() bool {
	return r.Success && r.Token != "" && r.User.ID != ""
}

func (r tokenResponse) expired() bool {
	return strings.Contains(strings.ToLower(r.Code+" "+r.Message), "expired")
}

var errSendRefused = errors.New("backend: code was not sent")

// Store is the Session Store backed by the commerce REST backend.
type Store struct {
	client *httpclient.Client
}

func NewStore(client *httpclient.Client) *Store {
	return &Store{client: client}
}

func (s *Store) SendCode(ctx context.Context, idn entity.Identifier) (entity.SendResult, error) {
	return s.send(ctx, "auth/send-code", idn)
}

func (s *Store) ResendCode(ctx context.Context, idn entity.Identifier) (entity.SendResult, error) {
	return s.send(ctx, "auth/resend", idn)
}

func (s *Store) send(ctx context.Context, path string, idn entity.Identifier) (entity.SendResult, error) {
	var resp sendResponse
	err := s.client.JSON(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   map[string]string{"identifier": idn.Value},
	}, &resp)
	if apiErr, ok := httpclient.AsAPIError(err); ok && apiErr.Status == http.StatusTooManyRequests {
		return entity.SendResult{}, entity.ErrTooManyCodes
	}
	if err != nil {
		return entity.SendResult{}, err
	}
	if !resp.Success && !resp.Blocked {
		return entity.SendResult{}, errSendRefused
	}

	return entity.SendResult{Blocked: resp.Blocked, ExpiresAt: resp.ExpiresAt}, nil
}

// VerifyCode maps 4xx answers, and 2xx answers without a session, to a
// rejected or expired code. Everything else, including timeouts, 408, 429 and
// 5xx, is returned as is and counts as a network error.
func (s *Store) VerifyCode(ctx context.Context, idn entity.Identifier, code string) (entity.VerifyResult, error) {
	var resp tokenResponse
	err := s.client.JSON(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "auth/verify",
		Body:   map[string]string{"identifier": idn.Value, "code": code},
	}, &resp)
	if apiErr, ok := httpclient.AsAPIError(err); ok && !apiErr.Temporary() {
		if apiErr.Contains("expired") {
			return entity.VerifyResult{}, entity.ErrCodeExpired
		}
		return entity.VerifyResult{}, entity.ErrCodeRejected
	}
	if err != nil {
		return entity.VerifyResult{}, err
	}
	if !resp.accepted() {
		if resp.expired() {
			return entity.VerifyResult{}, entity.ErrCodeExpired
		}
		return entity.VerifyResult{}, entity.ErrCodeRejected
	}

	return entity.VerifyResult{Token: resp.Token, User: resp.User.toEntity()}, nil
}

func (s *Store) VerifySession(ctx context.Context, token string) error {
	var resp struct {
		Valid bool `json:"valid"`
	}
	err := s.client.JSON(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "auth/verify-session",
		Token:  token,
	}, &resp)
	if apiErr, ok := httpclient.AsAPIError(err); ok && !apiErr.Temporary() {
		return entity.ErrSessionInvalid
	}
	if err != nil {
		return err
	}
	if !resp.Valid {
		return entity.ErrSessionInvalid
	}

	return nil
}

func (s *Store) Logout(ctx context.Context, token string) error {
	return s.client.JSON(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "auth/logout",
		Token:  token,
	}, nil)
}

func (s *Store) LogoutAll(ctx context.Context, token string) error {
	return s.client.JSON(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "account/close-all-sessions",
		Token:  token,
	}, nil)
}

func (s *Store) ExchangeT1Pay(ctx context.Context, code string) (entity.VerifyResult, error) {
	var resp tokenResponse
	err := s.client.JSON(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "auth/t1pay/callback",
		Body:   map[string]string{"code": code},
	}, &resp)
	if apiErr, ok := httpclient.AsAPIError(err); ok && !apiErr.Temporary() {
		return entity.VerifyResult{}, entity.ErrT1PayRejected
	}
	if err != nil {
		return entity.VerifyResult{}, err
	}
	if !resp.accepted() {
		return entity.VerifyResult{}, entity.ErrT1PayRejected
	}

	return entity.VerifyResult{Token: resp.Token, User: resp.User.toEntity()}, nil
}
