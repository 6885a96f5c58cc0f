package goerror

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
)

var (
	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("resource conflict")
)

// Default client-facing messages. The portal UI is Spanish.
const (
	MsgInternal      = "Ocurrió un error inesperado. Intenta nuevamente"
	MsgInvalidBody   = "La solicitud no es válida"
	MsgInvalidFields = "Revisa los datos enviados"
)

type Type int

const (
	TypeServer Type = iota
	TypeBusiness
	TypeValidation
)

func (t Type) String() string {
	switch t {
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Code decides the HTTP status of an error.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeTooManyRequest
	CodeUnauthorized
	CodeForbidden
	CodeTimeout
	CodeLocked     // verification blocked after too many wrong codes
	CodeBadGateway // commerce backend failed or unreachable
)

var codes = map[Code]struct {
	name   string
	status int
}{
	CodeInternal:       {"ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	CodeInvalidFormat:  {"ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
	CodeInvalidInput:   {"ERROR_CODE_INVALID_INPUT", http.StatusUnprocessableEntity},
	CodeNotFound:       {"ERROR_CODE_NOT_FOUND", http.StatusNotFound},
	CodeConflict:       {"ERROR_CODE_CONFLICT", http.StatusConflict},
	CodeTooManyRequest: {"ERROR_CODE_TOO_MANY_REQUESTS", http.StatusTooManyRequests},
	CodeUnauthorized:   {"ERROR_CODE_UNAUTHORIZED", http.StatusUnauthorized},
	CodeForbidden:      {"ERROR_CODE_FORBIDDEN", http.StatusForbidden},
	CodeTimeout:        {"ERROR_CODE_TIMEOUT", http.StatusRequestTimeout},
	CodeLocked:         {"ERROR_CODE_LOCKED", http.StatusLocked},
	CodeBadGateway:     {"ERROR_CODE_BAD_GATEWAY", http.StatusBadGateway},
}

func (c Code) String() string {
	if info, ok := codes[c]; ok {
		return info.name
	}
	return codes[CodeInternal].name
}

// Status is the HTTP status for c; unknown codes map to 500.
func (c Code) Status() int {
	if info, ok := codes[c]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// Error carries a message safe to show the customer next to the cause, which
// is only logged.
type Error struct {
	cause   error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
}

// Error returns the cause when there is one, so logs keep the real reason.
func (e *Error) Error() string {
	if e.cause != nil {
		return e.cause.Error()
	}
	return e.msg
}

func (e *Error) String() string {
	return fmt.Sprintf("type=%s code=%s msg=%q cause=%v", e.errType, e.code, e.msg, e.cause)
}

func (e *Error) Msg() string { return e.msg }

func (e *Error) Type() Type { return e.errType }

func (e *Error) Code() Code { return e.code }

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) StatusCode() int { return e.code.Status() }

// Fields are extra details for the client, such as redirect_to or
// error_kind, or per-field validation messages.
func (e *Error) Fields() map[string]string { return maps.Clone(e.fields) }

func build(cause error, msg string, t Type, c Code, kv []string) *Error {
	e := &Error{cause: cause, msg: msg, errType: t, code: c}
	if len(kv) >= 2 {
		e.fields = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			e.fields[kv[i]] = kv[i+1]
		}
	}
	return e
}

func NewServer(err error) error {
	return build(err, MsgInternal, TypeServer, CodeInternal, nil)
}

// NewBusiness reports a rule the customer hit. kv pairs become Fields, e.g.
// NewBusiness("Sesión expirada", CodeUnauthorized, "redirect_to", "/cuenta/login").
func NewBusiness(msg string, code Code, kv ...string) error {
	return build(nil, msg, TypeBusiness, code, kv)
}

// NewUpstream reports a backend failure the customer may retry.
func NewUpstream(err error, msg string) error {
	return build(err, msg, TypeServer, CodeBadGateway, nil)
}

// NewInvalidInput wraps a validator error, or builds one from field/message
// pairs. An odd number of pairs is a malformed call and reads as a bad body.
func NewInvalidInput(err error, kv ...string) error {
	switch {
	case err != nil:
		return build(err, MsgInvalidFields, TypeValidation, CodeInvalidInput, nil)
	case len(kv)%2 != 0:
		return build(nil, MsgInvalidBody, TypeValidation, CodeInvalidFormat, nil)
	default:
		return build(nil, MsgInvalidFields, TypeValidation, CodeInvalidInput, kv)
	}
}

// NewInvalidFormat is for bodies that do not decode. msg overrides the
// default message.
func NewInvalidFormat(msg ...string) error {
	if len(msg) > 0 && msg[0] != "" {
		return build(nil, msg[0], TypeValidation, CodeInvalidFormat, nil)
	}
	return build(nil, MsgInvalidBody, TypeValidation, CodeInvalidFormat, nil)
}
