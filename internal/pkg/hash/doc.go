// Package hash provides keyed hashing helpers.
//
// The portal never stores a raw email or phone number as a storage key: the
// identifier is passed through HMACSHA256 first, so lockout records and audit
// rows can be correlated without exposing the customer's contact data.
package hash
