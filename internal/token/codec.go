// Package token signs and verifies the compact JWTs the service hands out:
// session tokens for logged-in users and verification tokens embedded in
// booking-ticket QR codes.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMalformed    = errors.New("token malformed")
	ErrBadSignature = errors.New("token signature invalid")
	ErrExpired      = errors.New("token expired")
)

// VerificationClaims bind a ticket token to one booking. Email must still
// match the stored booking at redemption time.
type VerificationClaims struct {
	BookingID int64  `json:"bookingId"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

type sessionClaims struct {
	UserID int64 `json:"userId"`
	jwt.RegisteredClaims
}

type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

func (c *Codec) IssueVerification(bookingID int64, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := VerificationClaims{
		BookingID: bookingID,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

func (c *Codec) VerifyVerification(raw string) (VerificationClaims, error) {
	var claims VerificationClaims
	if _, err := jwt.ParseWithClaims(raw, &claims, c.keyFunc, jwt.WithValidMethods([]string{"HS256"})); err != nil {
		return VerificationClaims{}, mapError(err)
	}
	return claims, nil
}

func (c *Codec) IssueSession(userID int64, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

func (c *Codec) VerifySession(raw string) (int64, error) {
	var claims sessionClaims
	if _, err := jwt.ParseWithClaims(raw, &claims, c.keyFunc, jwt.WithValidMethods([]string{"HS256"})); err != nil {
		return 0, mapError(err)
	}
	if claims.UserID == 0 {
		return 0, ErrMalformed
	}
	return claims.UserID, nil
}

func (c *Codec) keyFunc(_ *jwt.Token) (interface{}, error) {
	return c.secret, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrBadSignature
	default:
		return ErrMalformed
	}
}
