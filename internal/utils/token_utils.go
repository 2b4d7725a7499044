package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IdentityClaims are the JWT claims carried on every authenticated call. The
// tenant ID rides alongside the registered subject so that repositories can be
// tenant-scoped without a second lookup.
type IdentityClaims struct {
	TenantID string `json:"tenantID"`
	jwt.RegisteredClaims
}

// GenerateJWT generates a new JWT token carrying the user and tenant identity.
func GenerateJWT(userID, tenantID string, secret string, expiryDuration time.Duration, issuer string) (string, error) {
	claims := IdentityClaims{
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiryDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseAndValidateJWT parses a JWT token string and validates its signature and
// standard claims. It returns the identity claims if the token is valid.
func ParseAndValidateJWT(tokenString string, secretKey string) (*IdentityClaims, error) {
	claims := &IdentityClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, err // Includes expiry and signature errors
	}

	if !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}

	return claims, nil
}
