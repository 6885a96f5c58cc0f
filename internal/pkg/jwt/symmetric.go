package jwt

import (
	"errors"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

// minHS512Key is the HS512 block size in bytes.
const minHS512Key = 64

// HS512 signs portal tokens with a shared secret.
type HS512 struct {
	secret    []byte
	issuer    string
	audiences []string
	ttl       time.Duration
	clock     clocker
	uuid      generator
	parser    *libJWT.Parser
}

// NewHS512 fails when the secret is shorter than 64 bytes or when TTL,
// Clock or UUID are missing.
func NewHS512(cfg Config) (*HS512, error) {
	switch {
	case len(cfg.Secret) < minHS512Key:
		return nil, ErrSigningKeyTooShort
	case cfg.TTL <= 0, cfg.Clock == nil, cfg.UUID == nil:
		return nil, ErrInvalidConfig
	}

	opts := []libJWT.ParserOption{
		libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
		libJWT.WithIssuedAt(),
		libJWT.WithExpirationRequired(),
		libJWT.WithTimeFunc(cfg.Clock.Now),
	}
	if cfg.Issuer != "" {
		opts = append(opts, libJWT.WithIssuer(cfg.Issuer))
	}
	if len(cfg.Audiences) > 0 {
		opts = append(opts, libJWT.WithAudience(cfg.Audiences...))
	}

	return &HS512{
		secret:    cfg.Secret,
		issuer:    cfg.Issuer,
		audiences: cfg.Audiences,
		ttl:       cfg.TTL,
		clock:     cfg.Clock,
		uuid:      cfg.UUID,
		parser:    libJWT.NewParser(opts...),
	}, nil
}

// Generate issues a token for sub that expires after the configured TTL.
// The portal session behind it may end sooner; Verify does not check that.
func (s *HS512) Generate(sub Subject) (string, error) {
	if sub.SessionID == "" || sub.UserID == "" {
		return "", ErrInvalidToken
	}

	now := s.clock.Now()
	clm := Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ID:        s.uuid.Generate(),
			Subject:   sub.UserID,
			Issuer:    s.issuer,
			Audience:  s.audiences,
			IssuedAt:  libJWT.NewNumericDate(now),
			NotBefore: libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(now.Add(s.ttl)),
		},
		SessionID:  sub.SessionID,
		Identifier: sub.Identifier,
	}

	return libJWT.NewWithClaims(libJWT.SigningMethodHS512, clm).SignedString(s.secret)
}

func (s *HS512) key(*libJWT.Token) (any, error) {
	return s.secret, nil
}

// Verify returns ErrTokenExpired for an expired token and ErrInvalidToken
// for anything else that fails.
func (s *HS512) Verify(tokenStr string) (Claims, error) {
	var clm Claims

	token, err := s.parser.ParseWithClaims(tokenStr, &clm, s.key)
	switch {
	case errors.Is(err, libJWT.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case err != nil:
		return Claims{}, errors.Join(ErrInvalidToken, err)
	case !token.Valid, clm.SessionID == "", clm.Subject == "":
		return Claims{}, ErrInvalidToken
	}

	return clm, nil
}
