package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenMalformed indicates the token could not be parsed or decoded.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrSignatureInvalid indicates the token was tampered with or signed
	// with a different key.
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrMissingSubject indicates a well-signed token without a subject claim.
	ErrMissingSubject = errors.New("token missing subject claim")
)

// TokenService issues and verifies bearer tokens carrying the user's email
// as the subject claim. Tokens are signed with HS256 using a process-wide
// secret and carry no expiry; rotating the secret invalidates everything
// issued before it.
type TokenService struct {
	secret []byte
}

func NewTokenService(secret string) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// Issue signs a token whose subject is the given email.
func (s *TokenService) Issue(email string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: email,
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates the token and returns its subject email.
func (s *TokenService) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		// ErrTokenUnverifiable covers keyfunc rejections, i.e. a token
		// signed with anything other than HMAC.
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrTokenUnverifiable) {
			return "", ErrSignatureInvalid
		}
		return "", ErrTokenMalformed
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrMissingSubject
	}
	return claims.Subject, nil
}
