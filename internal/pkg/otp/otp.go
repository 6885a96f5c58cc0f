package otp

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// OTP defines the contract for one-time code operations.
type OTP interface {
	// NewSecret creates a random secret bound to an account name.
	NewSecret(accountName string) (string, error)
	// GenerateCode derives the code for secret at the given time.
	GenerateCode(secret string, at time.Time) (string, error)
	// Validate checks whether code is the one derived for secret at the given time.
	Validate(code, secret string, at time.Time) bool
}

// TOTP implements OTP using the Time-based One-Time Password algorithm.
type TOTP struct {
	issuer string
	period uint
	digits otp.Digits
}

// NewTOTP constructs a TOTP instance.
//
// length other than 8 means 6 digits; a zero period means 30 seconds.
func NewTOTP(issuer string, period uint, length int) *TOTP {
	digits := otp.DigitsSix
	if length == 8 {
		digits = otp.DigitsEight
	}

	if period == 0 {
		period = 30
	}

	return &TOTP{
		issuer: issuer,
		period: period,
		digits: digits,
	}
}

// NewSecret creates a secret for accountName.
func (o *TOTP) NewSecret(accountName string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      o.issuer,
		AccountName: accountName,
		Period:      o.period,
		SecretSize:  20, // RFC 4226/6238 recommendation
		Digits:      o.digits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", err
	}

	return key.Secret(), nil
}

// GenerateCode derives the code for secret at the given time.
func (o *TOTP) GenerateCode(secret string, at time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, at, o.opts())
}

// Validate checks code against the window containing at, without skew.
func (o *TOTP) Validate(code, secret string, at time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, at, o.opts())
	return ok && err == nil
}

func (o *TOTP) opts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    o.period,
		Skew:      0,
		Digits:    o.digits,
		Algorithm: otp.AlgorithmSHA1,
	}
}
