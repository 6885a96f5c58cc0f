package entity

import (
	"strings"
	"time"
)

type VerificationState int8

const (
	StateAwaitingInput VerificationState = iota
	StateSubmitting
	StateVerified
	StateBlocked
)

func (s VerificationState) String() string {
	switch s {
	case StateSubmitting:
		return "submitting"
	case StateVerified:
		return "verified"
	case StateBlocked:
		return "blocked"
	default:
		return "awaiting_input"
	}
}

// VerifyOutcome is what the Session Store answered for a submitted code.
type VerifyOutcome int8

const (
	VerifyAccepted VerifyOutcome = iota
	VerifyRejected
	VerifyExpired
	VerifyNetworkError
)

// ResendOutcome is what the Session Store answered for a resend request.
type ResendOutcome int8

const (
	ResendSent ResendOutcome = iota
	ResendNetworkError
	ResendUndeliverable
	ResendLimited
)

// Policy holds the tunables of the verification flow.
type Policy struct {
	CodeLength     int
	MaxAttempts    int
	BlockDuration  time.Duration
	ResendCooldown time.Duration
	MaxResends     int
	CodeExpiry     time.Duration
	IdleTimeout    time.Duration
}

// DefaultPolicy mirrors the values the account portal has always shipped with.
func DefaultPolicy() Policy {
	return Policy{
		CodeLength:     6,
		MaxAttempts:    5,
		BlockDuration:  30 * time.Minute,
		ResendCooldown: 30 * time.Second,
		MaxResends:     3,
		CodeExpiry:     5 * time.Minute,
		IdleTimeout:    45 * time.Minute,
	}
}

// DigitResult tells the caller where focus goes and whether the buffer just
// became complete and must be submitted.
type DigitResult struct {
	Focus  int
	Submit bool
	Code   string
}

// Verification is the OTP verification state machine for one login attempt.
//
// It does no I/O and reads no clock: every transition takes now. Callers are
// expected to serialise access.
type Verification struct {
	ID         string
	Identifier Identifier

	policy            Policy
	state             VerificationState
	code              []string
	focus             int
	attemptCount      int
	blockedUntil      time.Time
	resendAvailableAt time.Time
	resendCount       int
	resending         bool
	errorKind         ErrorKind
	message           string

	remainingBlockMinutes  int
	resendRemainingSeconds int

	createdAt  time.Time
	lastActive time.Time
}

// NewVerification starts a session right after a code was sent, so the resend
// cooldown starts at now.
func NewVerification(id string, idn Identifier, p Policy, now time.Time) *Verification {
	if p.CodeLength <= 0 {
		p.CodeLength = DefaultPolicy().CodeLength
	}

	v := &Verification{
		ID:         id,
		Identifier: idn,
		policy:     p,
		state:      StateAwaitingInput,
		code:       make([]string, p.CodeLength),
		createdAt:  now,
		lastActive: now,
	}
	v.startCooldown(now)

	return v
}

func (v *Verification) State() VerificationState { return v.state }
func (v *Verification) AttemptCount() int        { return v.attemptCount }
func (v *Verification) BlockedUntil() time.Time  { return v.blockedUntil }
func (v *Verification) ResendAvailableAt() time.Time {
	return v.resendAvailableAt
}
func (v *Verification) ResendCount() int     { return v.resendCount }
func (v *Verification) ErrorKind() ErrorKind { return v.errorKind }
func (v *Verification) Message() string      { return v.message }
func (v *Verification) Focus() int           { return v.focus }
func (v *Verification) Policy() Policy       { return v.policy }

// CodeBuffer returns a copy of the digit cells.
func (v *Verification) CodeBuffer() []string {
	return append([]string(nil), v.code...)
}

// Busy reports whether a verify or resend request is in flight.
func (v *Verification) Busy() bool {
	return v.state == StateSubmitting || v.resending
}

// EnterDigit writes one cell. Non-numeric input is ignored; an empty digit on
// an empty cell moves focus back (backspace). Filling the last empty cell
// asks the caller to submit the assembled code.
func (v *Verification) EnterDigit(pos int, digit string, now time.Time) (DigitResult, error) {
	if pos < 0 || pos >= len(v.code) {
		return DigitResult{Focus: v.focus}, ErrPositionOutOfRange
	}

	v.touch(now)
	v.refresh(now)

	if v.state != StateAwaitingInput || v.resending {
		return DigitResult{Focus: v.focus}, nil
	}

	if digit == "" {
		if v.code[pos] == "" && pos > 0 {
			v.focus = pos - 1
		} else {
			v.code[pos] = ""
			v.focus = pos
		}
		return DigitResult{Focus: v.focus}, nil
	}

	if !isDigit(digit) {
		return DigitResult{Focus: v.focus}, nil
	}

	v.code[pos] = digit
	v.clearError()
	if pos < len(v.code)-1 {
		v.focus = pos + 1
	} else {
		v.focus = pos
	}

	if v.complete() {
		return DigitResult{Focus: v.focus, Submit: true, Code: strings.Join(v.code, "")}, nil
	}

	return DigitResult{Focus: v.focus}, nil
}

// Paste keeps the digits of seq and, when exactly a full code remains, fills
// the buffer and returns it for submission. Anything else leaves the buffer as is.
func (v *Verification) Paste(seq string, now time.Time) (string, bool) {
	v.touch(now)
	v.refresh(now)

	if v.state != StateAwaitingInput || v.resending {
		return "", false
	}

	digits := make([]string, 0, len(v.code))
	for _, r := range seq {
		if r < '0' || r > '9' {
			continue
		}
		digits = append(digits, string(r))
		if len(digits) == len(v.code) {
			break
		}
	}
	if len(digits) != len(v.code) {
		return "", false
	}

	copy(v.code, digits)
	v.focus = len(v.code) - 1
	v.clearError()

	return strings.Join(digits, ""), true
}

// BeginVerify moves to Submitting. It fails without side effects while busy
// or verified, and records the refusal in the message slot when the code is
// incomplete or the session is blocked.
func (v *Verification) BeginVerify(code string, now time.Time) error {
	v.touch(now)
	v.refresh(now)

	switch {
	case v.state == StateVerified:
		return ErrAlreadyVerified
	case v.Busy():
		return ErrBusy
	}

	if len(code) != len(v.code) || !isDigits(code) {
		v.setError(ErrorKindIncompleteCode, ErrorKindIncompleteCode.Message())
		return ErrIncompleteCode
	}

	if v.state == StateBlocked {
		v.setError(ErrorKindMaxAttemptsExceeded, ErrorKindMaxAttemptsExceeded.Message())
		return ErrBlocked
	}

	for i := range v.code {
		v.code[i] = code[i : i+1]
	}
	v.state = StateSubmitting
	v.clearError()

	return nil
}

// CompleteVerify applies the Session Store answer. It is ignored unless a
// verify is in flight.
func (v *Verification) CompleteVerify(out VerifyOutcome, now time.Time) {
	if v.state != StateSubmitting {
		return
	}
	v.touch(now)

	switch out {
	case VerifyAccepted:
		v.state = StateVerified
		v.clearError()

	case VerifyRejected:
		v.attemptCount++
		v.clearBuffer()
		if v.attemptCount >= v.policy.MaxAttempts {
			v.block(now.Add(v.policy.BlockDuration), v.attemptCount, now)
			return
		}
		v.state = StateAwaitingInput
		v.setError(ErrorKindInvalidCode,
			ErrorKindInvalidCode.Message()+attemptSuffix(v.attemptCount, v.policy.MaxAttempts))

	case VerifyExpired:
		v.state = StateAwaitingInput
		v.clearBuffer()
		v.setError(ErrorKindCodeExpired, ErrorKindCodeExpired.Message())

	default:
		v.state = StateAwaitingInput
		v.setError(ErrorKindNetworkError, ErrorKindNetworkError.Message())
	}
}

// BeginResend marks a resend as in flight. ErrResendThrottled is a silent
// no-op: the message slot is left alone.
func (v *Verification) BeginResend(now time.Time) error {
	v.touch(now)
	v.refresh(now)

	switch {
	case v.state == StateVerified:
		return ErrAlreadyVerified
	case v.Busy():
		return ErrBusy
	case v.state == StateBlocked:
		v.setError(ErrorKindMaxAttemptsExceeded, ErrorKindMaxAttemptsExceeded.Message())
		return ErrBlocked
	case now.Before(v.resendAvailableAt):
		return ErrResendThrottled
	case v.policy.MaxResends > 0 && v.resendCount >= v.policy.MaxResends:
		v.setError(ErrorKindResendLimit, ErrorKindResendLimit.Message())
		return ErrResendLimit
	}

	v.resending = true
	return nil
}

// CompleteResend applies the Session Store answer for a resend. Only a sent
// code moves the cooldown; attemptCount is never touched here.
func (v *Verification) CompleteResend(out ResendOutcome, now time.Time) {
	if !v.resending {
		return
	}
	v.resending = false
	v.touch(now)

	switch out {
	case ResendSent:
		v.resendCount++
		v.startCooldown(now)
		v.clearBuffer()
		v.clearError()
	case ResendUndeliverable:
		v.setError(ErrorKindUndeliverable, ErrorKindUndeliverable.Message())
	case ResendLimited:
		v.setError(ErrorKindResendLimit, ErrorKindResendLimit.Message())
	default:
		v.setError(ErrorKindNetworkError, ErrorKindNetworkError.Message())
	}
}

// TickBlock refreshes the remaining-minutes counter. It reports done once the
// session is no longer blocked.
func (v *Verification) TickBlock(now time.Time) bool {
	v.refresh(now)
	if v.state != StateBlocked {
		v.remainingBlockMinutes = 0
		return true
	}
	v.remainingBlockMinutes = ceilUnits(v.blockedUntil.Sub(now), time.Minute)
	return false
}

// TickResend refreshes the remaining-seconds counter. It reports done once
// the cooldown elapsed.
func (v *Verification) TickResend(now time.Time) bool {
	rem := ceilUnits(v.resendAvailableAt.Sub(now), time.Second)
	if rem <= 0 {
		v.resendRemainingSeconds = 0
		return true
	}
	v.resendRemainingSeconds = rem
	return false
}

// Expired reports whether the session was idle longer than the policy allows.
func (v *Verification) Expired(now time.Time) bool {
	if v.policy.IdleTimeout <= 0 || v.Busy() {
		return false
	}
	return now.Sub(v.lastActive) >= v.policy.IdleTimeout
}

// Snapshot is the read model handed to clients.
type Snapshot struct {
	ID                     string
	MaskedIdentifier       string
	IdentifierKind         IdentifierKind
	State                  VerificationState
	CodeBuffer             []string
	Focus                  int
	AttemptCount           int
	MaxAttempts            int
	BlockedUntil           time.Time
	RemainingBlockMinutes  int
	ResendAvailableAt      time.Time
	ResendRemainingSeconds int
	ResendReady            bool
	ResendsLeft            int
	ErrorKind              ErrorKind
	Message                string
}

// Snapshot reads the current state. The display counters are the ones kept
// by the tickers; ResendReady and the block state are decided against now.
func (v *Verification) Snapshot(now time.Time) Snapshot {
	v.refresh(now)

	left := v.policy.MaxResends - v.resendCount
	if v.policy.MaxResends <= 0 || left < 0 {
		left = 0
	}

	return Snapshot{
		ID:                     v.ID,
		MaskedIdentifier:       v.Identifier.Masked(),
		IdentifierKind:         v.Identifier.Kind,
		State:                  v.state,
		CodeBuffer:             v.CodeBuffer(),
		Focus:                  v.focus,
		AttemptCount:           v.attemptCount,
		MaxAttempts:            v.policy.MaxAttempts,
		BlockedUntil:           v.blockedUntil,
		RemainingBlockMinutes:  v.remainingBlockMinutes,
		ResendAvailableAt:      v.resendAvailableAt,
		ResendRemainingSeconds: v.resendRemainingSeconds,
		ResendReady:            !now.Before(v.resendAvailableAt),
		ResendsLeft:            left,
		ErrorKind:              v.errorKind,
		Message:                v.message,
	}
}

// refresh lifts an elapsed block. The comparison is against blockedUntil, not
// against the display counter.
func (v *Verification) refresh(now time.Time) bool {
	if v.state != StateBlocked || now.Before(v.blockedUntil) {
		return false
	}

	v.state = StateAwaitingInput
	v.attemptCount = 0
	v.blockedUntil = time.Time{}
	v.remainingBlockMinutes = 0
	v.focus = 0
	v.clearError()
	return true
}

func (v *Verification) block(until time.Time, attempts int, now time.Time) {
	v.state = StateBlocked
	v.attemptCount = attempts
	v.blockedUntil = until
	v.remainingBlockMinutes = ceilUnits(until.Sub(now), time.Minute)
	v.clearBuffer()
	v.setError(ErrorKindMaxAttemptsExceeded,
		ErrorKindMaxAttemptsExceeded.Message()+attemptSuffix(attempts, v.policy.MaxAttempts))
}

func (v *Verification) startCooldown(now time.Time) {
	v.resendAvailableAt = now.Add(v.policy.ResendCooldown)
	v.resendRemainingSeconds = ceilUnits(v.policy.ResendCooldown, time.Second)
}

func (v *Verification) clearBuffer() {
	for i := range v.code {
		v.code[i] = ""
	}
	v.focus = 0
}

func (v *Verification) complete() bool {
	for _, c := range v.code {
		if c == "" {
			return false
		}
	}
	return true
}

func (v *Verification) setError(kind ErrorKind, msg string) {
	v.errorKind = kind
	v.message = msg
}

func (v *Verification) clearError() {
	v.errorKind = ErrorKindNone
	v.message = ""
}

func (v *Verification) touch(now time.Time) {
	if now.After(v.lastActive) {
		v.lastActive = now
	}
}

func isDigit(s string) bool {
	return len(s) == 1 && s[0] >= '0' && s[0] <= '9'
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

func ceilUnits(d, unit time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + unit - 1) / unit)
}
