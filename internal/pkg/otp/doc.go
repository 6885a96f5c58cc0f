// Package otp issues and checks numeric one-time codes with TOTP (RFC 6238).
//
// The portal uses it for the local Session Store: each challenge gets a fresh
// secret and the code is derived at issue time, so expiry is tracked by the
// caller rather than by TOTP window alignment.
package otp
