package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CSRFClaims binds an anti-forgery token to one session.
type CSRFClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

var (
	ErrInvalidCSRFToken    = errors.New("invalid csrf token")
	ErrCSRFSessionMismatch = errors.New("csrf token belongs to another session")
)

// GenerateCSRFToken signs a token for sessionID that expires after ttl.
func GenerateCSRFToken(secret []byte, sessionID string, ttl time.Duration) (string, error) {
	claims := &CSRFClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseCSRFToken validates signature and expiry.
func ParseCSRFToken(secret []byte, tokenString string) (*CSRFClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidCSRFToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &CSRFClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, ErrInvalidCSRFToken
	}

	if claims, ok := token.Claims.(*CSRFClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidCSRFToken
}

// VerifyCSRFToken checks tokenString was issued for sessionID.
func VerifyCSRFToken(secret []byte, tokenString, sessionID string) error {
	claims, err := ParseCSRFToken(secret, tokenString)
	if err != nil {
		return err
	}
	if claims.SessionID != sessionID {
		return ErrCSRFSessionMismatch
	}
	return nil
}
