package event

import "time"

const AuthDestination string = "portal.auth.events"

// AuthMessage is one login lifecycle event. The raw identifier never leaves
// the portal: consumers get its keyed hash and the masked form.
type AuthMessage struct {
	ID             int64     `json:"id"`
	Event          string    `json:"event"`
	IdentifierHash string    `json:"identifier_hash"`
	IdentifierKind string    `json:"identifier_kind"`
	MaskedValue    string    `json:"masked"`
	Attempt        int       `json:"attempt,omitempty"`
	UserID         string    `json:"user_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
