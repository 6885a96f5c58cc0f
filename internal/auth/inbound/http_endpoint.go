package inbound

import (
	"github.com/shandysiswandi/portal/internal/auth/usecase"
	"github.com/shandysiswandi/portal/internal/pkg/router"
)

// HTTPEndpoint exposes the login flow and session handlers.
type HTTPEndpoint struct {
	uc uc
}

type LogoutResponse struct{}

func (LogoutResponse) Message() string { return "Sesión cerrada" }

type LogoutAllResponse struct{}

func (LogoutAllResponse) Message() string { return "Todas las sesiones fueron cerradas" }

// SendCode validates the identifier, asks the backend for a code and opens a
// verification session.
// @Summary Send login code
// @Description Classifies the email or phone, asks the backend to deliver a code and opens a verification session with the resend cooldown running.
// @Tags Auth, Identifier Capture
// @Accept json
// @Produce json
// @Param request body SendCodeRequest true "Identifier payload"
// @Success 200 {object} router.successResponse{data=VerificationResponse} "Verification session"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "Invalid identifier or undeliverable code"
// @Failure 423 {object} router.errorResponse "Identifier locked after too many attempts"
// @Failure 429 {object} router.errorResponse "Too many requests"
// @Failure 502 {object} router.errorResponse "Backend unreachable"
// @Router /api/v1/auth/send-code [post]
func (h *HTTPEndpoint) SendCode(r *router.Request) (any, error) {
	var req SendCodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.SendCode(r.Context(), usecase.SendCodeInput{Identifier: req.Identifier})
	if err != nil {
		return nil, err
	}

	return toVerification(out), nil
}

// GetVerification returns the current snapshot, used to redraw the code boxes
// and both countdowns.
// @Summary Get verification session
// @Description Returns the code buffer, attempts, block window and resend cooldown of a verification session.
// @Tags Auth, OTP Verification
// @Produce json
// @Param id path string true "Verification session ID"
// @Success 200 {object} router.successResponse{data=VerificationResponse} "Verification session"
// @Failure 404 {object} router.errorResponse "Unknown session, go back to capture"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/auth/verification/{id} [get]
func (h *HTTPEndpoint) GetVerification(r *router.Request) (any, error) {
	out, err := h.uc.GetVerification(r.Context(), usecase.VerificationInput{ID: r.GetParam("id")})
	if err != nil {
		return nil, err
	}

	return toVerification(out), nil
}

// EnterDigit writes one cell. A complete buffer is submitted in the same call.
// @Summary Enter one digit
// @Description Writes one code box. Non-numeric input is ignored; an empty digit clears the box or moves focus back. Filling the sixth box submits the code.
// @Tags Auth, OTP Verification
// @Accept json
// @Produce json
// @Param id path string true "Verification session ID"
// @Param request body DigitRequest true "Digit payload"
// @Success 200 {object} router.successResponse{data=VerificationResponse} "Verification session, with login once the code is accepted"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 404 {object} router.errorResponse "Unknown session, go back to capture"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/auth/verification/{id}/digit [post]
func (h *HTTPEndpoint) EnterDigit(r *router.Request) (any, error) {
	var req DigitRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.EnterDigit(r.Context(), usecase.EnterDigitInput{
		ID:       r.GetParam("id"),
		Position: req.Position,
		Digit:    req.Digit,
	})
	if err != nil {
		return nil, err
	}

	return toVerification(out), nil
}

// Paste fills the boxes from clipboard text. Fewer than six digits change nothing.
// @Summary Paste a code
// @Description Keeps the digits of the pasted text and submits them when exactly six remain.
// @Tags Auth, OTP Verification
// @Accept json
// @Produce json
// @Param id path string true "Verification session ID"
// @Param request body PasteRequest true "Paste payload"
// @Success 200 {object} router.successResponse{data=VerificationResponse} "Verification session, with login once the code is accepted"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 404 {object} router.errorResponse "Unknown session, go back to capture"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/auth/verification/{id}/paste [post]
func (h *HTTPEndpoint) Paste(r *router.Request) (any, error) {
	var req PasteRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.Paste(r.Context(), usecase.PasteInput{ID: r.GetParam("id"), Sequence: req.Sequence})
	if err != nil {
		return nil, err
	}

	return toVerification(out), nil
}

// @Summary Verify a code
// @Description Submits a full code. Wrong codes count against the attempt limit; expired codes and network failures do not.
// @Tags Auth, OTP Verification
// @Accept json
// @Produce json
// @Param id path string true "Verification session ID"
// @Param request body VerifyRequest true "Code payload"
// @Success 200 {object} router.successResponse{data=VerificationResponse} "Verification session, with login once the code is accepted"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 404 {object} router.errorResponse "Unknown session, go back to capture"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/auth/verification/{id}/verify [post]
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.Verify(r.Context(), usecase.VerifyInput{ID: r.GetParam("id"), Code: req.Code})
	if err != nil {
		return nil, err
	}

	return toVerification(out), nil
}

// Resend takes no body.
// @Summary Resend the code
// @Description Asks for a new code. Ignored while the cooldown runs; attempts are kept.
// @Tags Auth, OTP Verification
// @Produce json
// @Param id path string true "Verification session ID"
// @Success 200 {object} router.successResponse{data=VerificationResponse} "Verification session"
// @Failure 404 {object} router.errorResponse "Unknown session, go back to capture"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/auth/verification/{id}/resend [post]
func (h *HTTPEndpoint) Resend(r *router.Request) (any, error) {
	out, err := h.uc.Resend(r.Context(), usecase.VerificationInput{ID: r.GetParam("id")})
	if err != nil {
		return nil, err
	}

	return toVerification(out), nil
}

// @Summary Discard verification session
// @Description Drops the session and its timers, as when the customer goes back to change the identifier.
// @Tags Auth, OTP Verification
// @Param id path string true "Verification session ID"
// @Success 204 "No Content"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/auth/verification/{id} [delete]
func (h *HTTPEndpoint) Discard(r *router.Request) (any, error) {
	return nil, h.uc.Discard(r.Context(), usecase.VerificationInput{ID: r.GetParam("id")})
}

// @Summary T1 Pay authorization URL
// @Description Returns the identity provider URL to redirect to, with a single-use state.
// @Tags Auth, T1 Pay
// @Produce json
// @Success 200 {object} router.successResponse{data=T1PayURLResponse} "Authorization URL"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/t1pay/url [get]
func (h *HTTPEndpoint) T1PayURL(r *router.Request) (any, error) {
	out, err := h.uc.T1PayAuthURL(r.Context())
	if err != nil {
		return nil, err
	}

	return T1PayURLResponse{URL: out.URL, State: out.State}, nil
}

// @Summary T1 Pay callback
// @Description Exchanges the authorization code for a portal session. The state must come from the URL endpoint.
// @Tags Auth, T1 Pay
// @Accept json
// @Produce json
// @Param request body T1PayCallbackRequest true "Callback payload"
// @Success 200 {object} router.successResponse{data=LoginResponse} "Portal session"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unknown state or rejected authorization"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 502 {object} router.errorResponse "Backend unreachable"
// @Router /api/v1/auth/t1pay/callback [post]
func (h *HTTPEndpoint) T1PayCallback(r *router.Request) (any, error) {
	var req T1PayCallbackRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.T1PayCallback(r.Context(), usecase.T1PayCallbackInput{Code: req.Code, State: req.State})
	if err != nil {
		return nil, err
	}

	return toLogin(out), nil
}

// @Summary Check session
// @Description Confirms the portal session is alive here and at the backend.
// @Tags Auth, Session
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=SessionResponse} "Session"
// @Failure 401 {object} router.errorResponse "Session expired"
// @Failure 502 {object} router.errorResponse "Backend unreachable"
// @Router /api/v1/auth/session [get]
func (h *HTTPEndpoint) Session(r *router.Request) (any, error) {
	out, err := h.uc.CheckSession(r.Context())
	if err != nil {
		return nil, err
	}

	return SessionResponse{
		User:      toUser(out.User),
		Method:    string(out.Method),
		ExpiresAt: out.ExpiresAt,
		Valid:     true,
	}, nil
}

// @Summary Logout
// @Description Ends the current session. Backend failures are ignored.
// @Tags Auth, Session
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse "Session closed"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/logout [post]
func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	if err := h.uc.Logout(r.Context()); err != nil {
		return nil, err
	}

	return LogoutResponse{}, nil
}

// @Summary Close all sessions
// @Description Closes every session of the customer, at the backend first.
// @Tags Auth, Session
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse "Sessions closed"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 502 {object} router.errorResponse "Backend unreachable"
// @Router /api/v1/account/close-all-sessions [post]
func (h *HTTPEndpoint) LogoutAll(r *router.Request) (any, error) {
	if err := h.uc.LogoutAll(r.Context()); err != nil {
		return nil, err
	}

	return LogoutAllResponse{}, nil
}
