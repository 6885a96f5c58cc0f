package entity

import (
	"errors"
	"strconv"
)

var (
	ErrInvalidFormat      = errors.New("auth: identifier is neither an email nor a phone")
	ErrPositionOutOfRange = errors.New("auth: digit position out of range")
	ErrBusy               = errors.New("auth: a request for this session is already in flight")
	ErrBlocked            = errors.New("auth: verification is blocked")
	ErrIncompleteCode     = errors.New("auth: code is incomplete")
	ErrAlreadyVerified    = errors.New("auth: verification already succeeded")
	ErrResendThrottled    = errors.New("auth: resend is cooling down")
	ErrResendLimit        = errors.New("auth: resend limit reached")
	ErrSessionNotFound    = errors.New("auth: session not found")
)

// Errors a Session Store reports. Anything else is treated as a network failure.
var (
	ErrCodeRejected   = errors.New("auth: code rejected")
	ErrCodeExpired    = errors.New("auth: code expired")
	ErrTooManyCodes   = errors.New("auth: too many codes requested")
	ErrSessionInvalid = errors.New("auth: backend session is no longer valid")
	ErrT1PayRejected  = errors.New("auth: t1pay authorization rejected")
)

// ErrorKind is the single user-facing error slot of a verification session.
type ErrorKind int8

const (
	ErrorKindNone ErrorKind = iota
	ErrorKindInvalidFormat
	ErrorKindIncompleteCode
	ErrorKindInvalidCode
	ErrorKindMaxAttemptsExceeded
	ErrorKindCodeExpired
	ErrorKindNetworkError
	ErrorKindResendThrottled
	ErrorKindResendLimit
	ErrorKindUndeliverable
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindInvalidFormat:
		return "INVALID_FORMAT"
	case ErrorKindIncompleteCode:
		return "INCOMPLETE_CODE"
	case ErrorKindInvalidCode:
		return "INVALID_CODE"
	case ErrorKindMaxAttemptsExceeded:
		return "MAX_ATTEMPTS"
	case ErrorKindCodeExpired:
		return "CODE_EXPIRED"
	case ErrorKindNetworkError:
		return "NETWORK_ERROR"
	case ErrorKindResendThrottled:
		return "RESEND_THROTTLED"
	case ErrorKindResendLimit:
		return "RESEND_LIMIT"
	case ErrorKindUndeliverable:
		return "EMAIL_BOUNCED"
	default:
		return ""
	}
}

// Message returns the Spanish text shown to the customer.
func (k ErrorKind) Message() string {
	switch k {
	case ErrorKindInvalidFormat:
		return "El formato del email o teléfono no es válido"
	case ErrorKindIncompleteCode:
		return "Código incompleto"
	case ErrorKindInvalidCode:
		return "Código incorrecto. Intenta nuevamente"
	case ErrorKindMaxAttemptsExceeded:
		return "Has alcanzado el número máximo de intentos"
	case ErrorKindCodeExpired:
		return "El código ha expirado. Solicita uno nuevo"
	case ErrorKindNetworkError:
		return "Error de conexión. Intenta nuevamente"
	case ErrorKindResendLimit:
		return "Has solicitado demasiados códigos. Intenta más tarde"
	case ErrorKindUndeliverable:
		return "No pudimos enviar el código. Verifica tu email"
	default:
		return ""
	}
}

func attemptSuffix(n, limit int) string {
	return " (Intento " + strconv.Itoa(n) + " de " + strconv.Itoa(limit) + ")"
}
