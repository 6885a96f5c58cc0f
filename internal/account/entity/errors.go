package entity

import "errors"

// ErrUnauthorized means the backend no longer accepts the session token.
var ErrUnauthorized = errors.New("account: backend rejected the session token")

// RejectedError is a 4xx answer the customer can act on.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return "account: request rejected"
	}
	return "account: " + e.Message
}
