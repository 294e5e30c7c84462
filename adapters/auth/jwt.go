// Package auth provides stateless authentication using JWT.
// No shared state between instances, so it scales horizontally.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/voxway/voxgate/ports"
)

// DefaultTTL is the token lifetime when none is configured.
const DefaultTTL = 7 * 24 * time.Hour

// claims is the JWT claim set carried by issued tokens.
type claims struct {
	UserID  string `json:"uid"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"adm"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 bearer tokens.
// Safe for concurrent use.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenService creates a JWT token service. An empty secret is
// replaced with a random one, which invalidates tokens on restart.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if secret == "" {
		secret = GenerateSecret()
	}

	if ttl == 0 {
		ttl = DefaultTTL
	}

	return &TokenService{
		secret: []byte(secret),
		issuer: "voxgate",
		ttl:    ttl,
	}
}

// Issue creates a signed token for the given user.
func (s *TokenService) Issue(userID, email string, isAdmin bool) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(s.ttl)

	c := claims{
		UserID:  userID,
		Email:   email,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// Verify validates a token and extracts its claims.
func (s *TokenService) Verify(tokenString string) (ports.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return ports.Claims{}, err
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return ports.Claims{}, errors.New("invalid token")
	}

	return ports.Claims{UserID: c.UserID, Email: c.Email, IsAdmin: c.IsAdmin}, nil
}

var _ ports.TokenService = (*TokenService)(nil)

// GenerateSecret generates a random secret suitable for JWT signing.
func GenerateSecret() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}
