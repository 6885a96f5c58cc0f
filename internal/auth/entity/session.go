package entity

import "time"

// User is the customer profile returned by the backend on login.
type User struct {
	ID    string
	Name  string
	Email string
	Phone string
}

// AuthSession is a logged-in portal session. The portal JWT carries only its
// ID; the backend token never reaches the browser.
type AuthSession struct {
	ID           string
	BackendToken string
	User         User
	Identifier   string
	Method       LoginMethod
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

type LoginMethod string

const (
	LoginMethodOTP   LoginMethod = "otp"
	LoginMethodT1Pay LoginMethod = "t1pay"
)

// Lockout is the persisted block of an identifier after too many failures.
type Lockout struct {
	Until    time.Time
	Attempts int
}

// SendResult is the Session Store answer for a send or resend.
type SendResult struct {
	// Blocked means the backend could not deliver to the identifier (bounce).
	Blocked bool
	// ExpiresAt is when the issued code stops being accepted, if known.
	ExpiresAt time.Time
}

// VerifyResult is the Session Store answer for an accepted code.
type VerifyResult struct {
	Token string
	User  User
}

// LoginEvent names the audit trail entries.
type LoginEvent string

const (
	LoginEventCodeSent     LoginEvent = "code_sent"
	LoginEventCodeResent   LoginEvent = "code_resent"
	LoginEventVerified     LoginEvent = "verified"
	LoginEventRejected     LoginEvent = "rejected"
	LoginEventExpired      LoginEvent = "expired"
	LoginEventBlocked      LoginEvent = "blocked"
	LoginEventNetworkError LoginEvent = "network_error"
	LoginEventLogout       LoginEvent = "logout"
	LoginEventLogoutAll    LoginEvent = "logout_all"
	LoginEventT1Pay        LoginEvent = "t1pay_login"
)

// AuditEntry is one row of the login audit trail.
type AuditEntry struct {
	ID             int64
	IdentifierHash string
	IdentifierKind IdentifierKind
	MaskedValue    string
	Event          LoginEvent
	Attempt        int
	UserID         string
	CorrelationID  string
	OccurredAt     time.Time
}
