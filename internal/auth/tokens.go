package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// ErrInvalidToken covers every way an access token can fail verification.
var ErrInvalidToken = errors.New("auth: invalid token")

// TokenService signs and verifies HS256 access tokens.
type TokenService struct {
	Secret    []byte
	Issuer    string
	Audience  string
	AccessTTL time.Duration
	ClockSkew time.Duration
	Now       func() time.Time
}

func (t TokenService) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

// Sign issues an access token whose subject is the user id and whose
// custom claim "typ" carries the customer type used for pricing.
func (t TokenService) Sign(userID, customerType string) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.AccessTTL)
	builder := jwt.NewBuilder().
		Subject(userID).
		Issuer(t.Issuer).
		Audience([]string{t.Audience}).
		IssuedAt(now).
		NotBefore(now.Add(-t.ClockSkew)).
		Expiration(expiresAt).
		Claim("typ", customerType)
	token, err := builder.Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, t.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

// Parse verifies a token and returns the subject user id.
func (t TokenService) Parse(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidToken
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if algorithm != jwa.HS256 {
		return "", fmt.Errorf("%w: unexpected algorithm %s", ErrInvalidToken, algorithm)
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, t.Secret))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	validator := TokenValidator{
		Issuer:    t.Issuer,
		Audience:  t.Audience,
		ClockSkew: t.ClockSkew,
		Algorithm: jwa.HS256,
	}
	if err := validator.Validate(parsed, algorithm, t.now()); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return parsed.Subject(), nil
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("token missing protected headers")
		}
		alg := headers.Algorithm()
		if alg == "" {
			return "", errors.New("token missing algorithm")
		}
		if alg == jwa.NoSignature {
			return "", errors.New("token uses none algorithm")
		}
		if algorithm == "" {
			algorithm = alg
		} else if algorithm != alg {
			return "", errors.New("mixed token algorithms detected")
		}
	}
	return algorithm, nil
}
