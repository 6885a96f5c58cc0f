package inbound

import (
	"context"

	"github.com/shandysiswandi/portal/internal/auth/usecase"
	"github.com/shandysiswandi/portal/internal/pkg/router"
	"github.com/ulule/limiter/v3"
)

type uc interface {
	SendCode(ctx context.Context, in usecase.SendCodeInput) (*usecase.VerificationOutput, error)

	GetVerification(ctx context.Context, in usecase.VerificationInput) (*usecase.VerificationOutput, error)
	EnterDigit(ctx context.Context, in usecase.EnterDigitInput) (*usecase.VerificationOutput, error)
	Paste(ctx context.Context, in usecase.PasteInput) (*usecase.VerificationOutput, error)
	Verify(ctx context.Context, in usecase.VerifyInput) (*usecase.VerificationOutput, error)
	Resend(ctx context.Context, in usecase.VerificationInput) (*usecase.VerificationOutput, error)
	Discard(ctx context.Context, in usecase.VerificationInput) error

	T1PayAuthURL(ctx context.Context) (*usecase.T1PayURLOutput, error)
	T1PayCallback(ctx context.Context, in usecase.T1PayCallbackInput) (*usecase.LoginOutput, error)

	CheckSession(ctx context.Context) (*usecase.SessionOutput, error)
	Logout(ctx context.Context) error
	LogoutAll(ctx context.Context) error
}

// RegisterHTTPEndpoint mounts the auth routes. captureLimit guards code
// issuance per client IP; nil disables it.
func RegisterHTTPEndpoint(r *router.Router, uc uc, captureLimit *limiter.Limiter) {
	end := &HTTPEndpoint{uc: uc}

	// Identifier capture
	r.POST("/api/v1/auth/send-code", end.SendCode, router.RateLimit(captureLimit))

	// OTP verification
	r.GET("/api/v1/auth/verification/:id", end.GetVerification)
	r.POST("/api/v1/auth/verification/:id/digit", end.EnterDigit)
	r.POST("/api/v1/auth/verification/:id/paste", end.Paste)
	r.POST("/api/v1/auth/verification/:id/verify", end.Verify)
	r.POST("/api/v1/auth/verification/:id/resend", end.Resend)
	r.DELETE("/api/v1/auth/verification/:id", end.Discard)

	// T1 Pay
	r.GET("/api/v1/auth/t1pay/url", end.T1PayURL)
	r.POST("/api/v1/auth/t1pay/callback", end.T1PayCallback)

	// Session (need authenticated)
	r.GET("/api/v1/auth/session", end.Session)
	r.POST("/api/v1/auth/logout", end.Logout)
	r.POST("/api/v1/account/close-all-sessions", end.LogoutAll)
}
