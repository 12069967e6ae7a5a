/*
Package session issues and verifies the signed session token stored in the
userId cookie, and resolves it into a request identity.
*/
package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	// Expiration is the lifetime of a session token and of its cookie.
	Expiration = 365 * 24 * time.Hour

	// TokenIssuer identifies the issuer of the token.
	TokenIssuer = "StudyHive-Server"
)

// Payload is the set of claims carried by a session token.
type Payload struct {
	jwt.StandardClaims

	// ID is the user id the session belongs to.
	ID string `json:"id"`
}

// GenerateToken signs a token for userID that expires after duration.
func GenerateToken(userID string, secretKey string, duration time.Duration) (string, error) {
	now := time.Now()

	payload := &Payload{
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(duration).Unix(),
			IssuedAt:  now.Unix(),
			Issuer:    TokenIssuer,
			Subject:   userID,
		},
		ID: userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)

	return token.SignedString([]byte(secretKey))
}

// ParseToken validates signature, issuer and expiry and returns the claims.
func ParseToken(tokenString string, secretKey string) (*Payload, error) {
	claims := &Payload{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	if !claims.VerifyIssuer(TokenIssuer, true) || claims.ID == "" {
		return nil, errors.New("token issuer or subject invalid")
	}

	return claims, nil
}
