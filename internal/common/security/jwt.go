// Package security holds the credential primitives: stateless signed
// tokens and one-way password hashing.
package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
	jwx "github.com/lestrrat-go/jwx/v2/jwt"

	"auth_api/internal/common"
)

// DefaultTokenTTL is used when no expiry is configured.
const DefaultTokenTTL = 7 * 24 * time.Hour

// TokenClaims is the payload carried by every issued token.
type TokenClaims struct {
	UserID string
	Role   string
}

// TokenService issues and verifies HS256-signed bearer tokens. Tokens are
// self-contained; verification needs no server-side lookup, so the only
// invalidation is expiry.
type TokenService struct {
	auth *jwtauth.JWTAuth
	ttl  time.Duration
	now  func() time.Time
}

// NewTokenService builds a TokenService around the signing secret. A nil
// now func means the wall clock; tests inject a fixed clock to probe
// expiry boundaries.
func NewTokenService(secret []byte, ttl time.Duration, now func() time.Time) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if now == nil {
		now = time.Now
	}
	auth := jwtauth.New("HS256", secret, nil, jwx.WithClock(jwx.ClockFunc(now)))
	return &TokenService{auth: auth, ttl: ttl, now: now}
}

// JWTAuth exposes the underlying verifier for the router's token
// extraction middleware.
func (s *TokenService) JWTAuth() *jwtauth.JWTAuth { return s.auth }

// Issue signs a token for the subject and role, valid until now+TTL.
func (s *TokenService) Issue(userID, role string) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"iat":     issuedAt.Unix(),
		"exp":     expiresAt.Unix(),
	}
	_, tokenString, err := s.auth.Encode(claims)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("encoding token: %w", err)
	}
	return tokenString, expiresAt, nil
}

// Verify checks signature and expiry and returns the embedded claims.
// Every failure mode collapses into the same opaque error so callers
// cannot distinguish a forged token from an expired one.
func (s *TokenService) Verify(tokenString string) (*TokenClaims, error) {
	// VerifyToken both checks the signature and validates the registered
	// claims (exp against the injected clock); Decode alone does only the
	// former.
	token, err := jwtauth.VerifyToken(s.auth, tokenString)
	if err != nil {
		return nil, common.ErrTokenInvalid
	}

	userID, ok := token.Get("user_id")
	if !ok {
		return nil, common.ErrTokenInvalid
	}
	role, ok := token.Get("role")
	if !ok {
		return nil, common.ErrTokenInvalid
	}

	id, idOK := userID.(string)
	r, roleOK := role.(string)
	if !idOK || !roleOK || id == "" {
		return nil, common.ErrTokenInvalid
	}
	return &TokenClaims{UserID: id, Role: r}, nil
}

// GetUserIDFromClaims extracts the subject from a verified claims map.
func GetUserIDFromClaims(claims map[string]interface{}) (string, error) {
	id, ok := claims["user_id"].(string)
	if !ok || id == "" {
		return "", errors.New("user_id claim is missing or not a string")
	}
	return id, nil
}

// GetUserRoleFromClaims extracts the role from a verified claims map.
func GetUserRoleFromClaims(claims map[string]interface{}) (string, error) {
	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return "", errors.New("role claim is missing or not a string")
	}
	return role, nil
}
