package jwtinfra

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-auth-api/internal/config"
	"github.com/go-auth-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Class selects which secret/lifetime pair a token is signed and verified
// under. The three classes are never interchangeable: a token legitimately
// issued as one class fails verification under any other.
type Class string

const (
	ClassAccess  Class = "access"
	ClassRefresh Class = "refresh"
	ClassReset   Class = "reset"
)

// Claims holds the JWT payload fields.
type Claims struct {
	UserID string      `json:"id"`
	Email  string      `json:"email,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type classConfig struct {
	secret []byte
	ttl    time.Duration
}

// Provider signs and verifies HS256 JWTs across the three token classes.
type Provider struct {
	classes map[Class]classConfig
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	classes := map[Class]classConfig{
		ClassAccess:  {secret: []byte(cfg.JWTAccessSecret), ttl: cfg.JWTAccessExpiry},
		ClassRefresh: {secret: []byte(cfg.JWTRefreshSecret), ttl: cfg.JWTRefreshExpiry},
		ClassReset:   {secret: []byte(cfg.JWTResetSecret), ttl: cfg.JWTResetExpiry},
	}
	for class, cc := range classes {
		if len(cc.secret) == 0 {
			return nil, fmt.Errorf("jwt: missing %s secret", class)
		}
	}
	return &Provider{classes: classes}, nil
}

// Sign issues a token of the given class carrying {id, email, role, iat, exp}.
func (p *Provider) Sign(class Class, userID, email string, role domain.Role) (string, error) {
	cc, ok := p.classes[class]
	if !ok {
		return "", fmt.Errorf("jwt: unknown token class %q", class)
	}
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cc.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(cc.secret)
}

// Verify validates tokenStr under the class secret and returns its claims.
// Failures (bad signature, wrong class, expired) wrap domain.ErrUnauthorized.
func (p *Provider) Verify(class Class, tokenStr string) (*Claims, error) {
	cc, ok := p.classes[class]
	if !ok {
		return nil, fmt.Errorf("jwt: unknown token class %q", class)
	}
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return cc.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("token expired: %w: %w", jwt.ErrTokenExpired, domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims: %w", domain.ErrUnauthorized)
	}
	return claims, nil
}

// ExpiryOf returns the natural expiry of an access-class token, for callers
// that need it without trusting the rest of the payload (revocation registry).
func (p *Provider) ExpiryOf(tokenStr string) (time.Time, error) {
	claims, err := p.Verify(ClassAccess, tokenStr)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("token has no expiry: %w", domain.ErrUnauthorized)
	}
	return claims.ExpiresAt.Time, nil
}

// FederatedClaims is the identity payload of an externally issued ID token
// (Google / Firebase).
type FederatedClaims struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

// DecodeFederated extracts claims without verifying the signature. Used only
// for federated login tokens whose issuer is trusted out of band.
func DecodeFederated(tokenStr string) (*FederatedClaims, error) {
	claims := &FederatedClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("malformed token: %w", domain.ErrUnauthorized)
	}
	return claims, nil
}
