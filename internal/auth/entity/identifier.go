package entity

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	reEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	rePhone = regexp.MustCompile(`^[+]?[(]?[0-9]{3}[)]?[-\s\.]?[(]?[0-9]{3}[)]?[-\s\.]?[0-9]{4,6}$`)
)

type IdentifierKind int8

const (
	IdentifierKindUnknown IdentifierKind = 0
	IdentifierKindEmail   IdentifierKind = 1
	IdentifierKindPhone   IdentifierKind = 2
)

func (k IdentifierKind) String() string {
	switch k {
	case IdentifierKindEmail:
		return "email"
	case IdentifierKindPhone:
		return "phone"
	default:
		return "unknown"
	}
}

// Identifier is the email or phone a customer logs in with. It is classified
// once at capture and passed by value afterwards.
type Identifier struct {
	Value string
	Kind  IdentifierKind
}

// ParseIdentifier trims and classifies raw. Emails are lower-cased; phones
// keep an optional leading "+" followed by digits only.
func ParseIdentifier(raw string) (Identifier, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return Identifier{}, ErrInvalidFormat
	}

	if reEmail.MatchString(v) {
		return Identifier{Value: strings.ToLower(v), Kind: IdentifierKindEmail}, nil
	}

	compact := strings.Join(strings.Fields(v), "")
	if rePhone.MatchString(compact) {
		return Identifier{Value: normalizePhone(compact), Kind: IdentifierKindPhone}, nil
	}

	return Identifier{}, ErrInvalidFormat
}

func normalizePhone(v string) string {
	var b strings.Builder
	b.Grow(len(v))
	for i, r := range v {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Masked returns the display form: "al***e@example.com" or "***5678".
func (i Identifier) Masked() string {
	switch i.Kind {
	case IdentifierKindEmail:
		return MaskEmail(i.Value)
	case IdentifierKindPhone:
		return MaskPhone(i.Value)
	default:
		return ""
	}
}

// MaskEmail keeps the first two and the last character of the local part.
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return "***"
	}

	r := []rune(local)
	head := r
	if len(head) > 2 {
		head = head[:2]
	}
	var tail string
	if len(r) > 0 {
		tail = string(r[len(r)-1])
	}

	return string(head) + "***" + tail + "@" + domain
}

// MaskPhone keeps the last four digits.
func MaskPhone(phone string) string {
	digits := make([]rune, 0, len(phone))
	for _, r := range phone {
		if unicode.IsDigit(r) {
			digits = append(digits, r)
		}
	}
	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}
	return "***" + string(digits)
}
