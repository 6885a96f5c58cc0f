package uid

import "github.com/google/uuid"

// UUID generates version 7 UUID strings. They sort by creation time, which
// keeps session keys and correlation ids roughly ordered in logs.
type UUID struct{}

// NewUUID returns a UUID generator.
func NewUUID() *UUID {
	return &UUID{}
}

// Generate returns a new UUID string, falling back to version 4 if the
// version 7 clock read fails.
func (*UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
