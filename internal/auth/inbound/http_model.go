package inbound

import (
	"time"

	"github.com/shandysiswandi/portal/internal/auth/entity"
	"github.com/shandysiswandi/portal/internal/auth/usecase"
)

type SendCodeRequest struct {
	Identifier string `json:"identifier"`
}

type DigitRequest struct {
	Position int    `json:"position"`
	Digit    string `json:"digit"`
}

type PasteRequest struct {
	Sequence string `json:"sequence"`
}

type VerifyRequest struct {
	Code string `json:"code"`
}

type T1PayCallbackRequest struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type LoginResponse struct {
	Token      string       `json:"token"`
	ExpiresAt  time.Time    `json:"expires_at"`
	User       UserResponse `json:"user"`
	RedirectTo string       `json:"redirect_to"`
}

// VerificationResponse is the session snapshot. Login is present once the
// code was accepted.
type VerificationResponse struct {
	ID                     string         `json:"id"`
	MaskedIdentifier       string         `json:"masked_identifier"`
	IdentifierKind         string         `json:"identifier_kind"`
	State                  string         `json:"state"`
	CodeBuffer             []string       `json:"code_buffer"`
	Focus                  int            `json:"focus"`
	AttemptCount           int            `json:"attempt_count"`
	MaxAttempts            int            `json:"max_attempts"`
	BlockedUntil           *time.Time     `json:"blocked_until,omitempty"`
	RemainingBlockMinutes  int            `json:"remaining_block_minutes"`
	ResendAvailableAt      *time.Time     `json:"resend_available_at,omitempty"`
	ResendRemainingSeconds int            `json:"resend_remaining_seconds"`
	ResendReady            bool           `json:"resend_ready"`
	ResendsLeft            int            `json:"resends_left"`
	ErrorKind              string         `json:"error_kind,omitempty"`
	ErrorMessage           string         `json:"error_message,omitempty"`
	Login                  *LoginResponse `json:"login,omitempty"`
}

func (v VerificationResponse) Message() string {
	if v.Login != nil {
		return "Verification successful"
	}
	return "Verification session"
}

type SessionResponse struct {
	User      UserResponse `json:"user"`
	Method    string       `json:"method"`
	ExpiresAt time.Time    `json:"expires_at"`
	Valid     bool         `json:"valid"`
}

type T1PayURLResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

func toUser(u entity.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone}
}

func toLogin(l *usecase.LoginOutput) *LoginResponse {
	if l == nil {
		return nil
	}
	return &LoginResponse{
		Token:      l.Token,
		ExpiresAt:  l.ExpiresAt,
		User:       toUser(l.User),
		RedirectTo: l.RedirectTo,
	}
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func toVerification(out *usecase.VerificationOutput) VerificationResponse {
	snap := out.Snapshot
	resp := VerificationResponse{
		ID:                     snap.ID,
		MaskedIdentifier:       snap.MaskedIdentifier,
		IdentifierKind:         snap.IdentifierKind.String(),
		State:                  snap.State.String(),
		CodeBuffer:             snap.CodeBuffer,
		Focus:                  snap.Focus,
		AttemptCount:           snap.AttemptCount,
		MaxAttempts:            snap.MaxAttempts,
		BlockedUntil:           optionalTime(snap.BlockedUntil),
		RemainingBlockMinutes:  snap.RemainingBlockMinutes,
		ResendAvailableAt:      optionalTime(snap.ResendAvailableAt),
		ResendRemainingSeconds: snap.ResendRemainingSeconds,
		ResendReady:            snap.ResendReady,
		ResendsLeft:            snap.ResendsLeft,
		ErrorMessage:           snap.Message,
		Login:                  toLogin(out.Login),
	}
	if snap.ErrorKind != entity.ErrorKindNone {
		resp.ErrorKind = snap.ErrorKind.String()
	}

	return resp
}
