package jwtinfra

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Subjects carried by the tokens this service signs.
const (
	SubjectSession         = "authenticated-user"
	SubjectWebhookComplete = "webhook-complete"
	SubjectWebhookEvent    = "webhook-event"
)

// HS256 requires a key of at least 32 bytes.
const minKeyLength = 32

// Provider signs and verifies HS256 JWTs for UI sessions and webhook callbacks.
type Provider struct {
	key []byte
}

func NewProvider(secret string) (*Provider, error) {
	if secret == "" {
		return nil, errors.New("jwt secret key cannot be empty")
	}
	return &Provider{key: []byte(padSecret(secret))}, nil
}

// padSecret right-pads short secrets with '0' up to the HS256 minimum.
func padSecret(secret string) string {
	if len(secret) >= minKeyLength {
		return secret
	}
	return secret + fmt.Sprintf("%0*d", minKeyLength-len(secret), 0)
}

func (p *Provider) Sign(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.key)
}

func (p *Provider) Verify(tokenStr string) (*jwt.RegisteredClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.key, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// VerifySubject verifies the token and returns its subject claim.
func (p *Provider) VerifySubject(tokenStr string) (string, error) {
	claims, err := p.Verify(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
