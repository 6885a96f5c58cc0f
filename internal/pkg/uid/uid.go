// Package uid generates identifiers: sortable int64 ids for rows and
// string ids for sessions and correlation.
package uid

// NumberID generates int64 identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}
