package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const verificationIssuer = "ideabox"

// VerificationClaims prove that Email completed an OTP verification.
type VerificationClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateVerificationToken signs a short-lived token for email.
func GenerateVerificationToken(secret []byte, email string, now time.Time, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("verification secret not configured")
	}
	claims := &VerificationClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    verificationIssuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseVerificationToken validates tokenString at now and returns the email
// it was issued for.
func ParseVerificationToken(secret []byte, tokenString string, now time.Time) (string, error) {
	claims := &VerificationClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(verificationIssuer),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("invalid verification token: %w", err)
	}
	if !token.Valid || claims.Email == "" {
		return "", errors.New("invalid verification token")
	}
	return claims.Email, nil
}
