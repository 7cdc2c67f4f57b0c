package auth

import (
	"fmt"
	"sync"
	"time"

	"github.com/idverse-gateway/internal/domain"
	jwtinfra "github.com/idverse-gateway/internal/infrastructure/jwt"
	"github.com/idverse-gateway/internal/pkg/random"
)

// Issued pairs a one-time exchange key with the session token it redeems to.
type Issued struct {
	ExchangeKey  string
	SessionToken string
}

type entry struct {
	token     string
	expiresAt time.Time
}

type Service interface {
	// Issue mints a session token and a short-lived one-time exchange key
	// for it. Expired keys are swept on every issue.
	Issue() (*Issued, error)
	// Redeem exchanges a key for its session token exactly once. Absent and
	// expired keys both surface as ErrNotFound.
	Redeem(exchangeKey string) (string, error)
	// ValidateSession checks a session token's signature and expiry.
	ValidateSession(token string) error
}

type service struct {
	signer     *jwtinfra.Provider
	sessionTTL time.Duration
	keyTTL     time.Duration

	mu   sync.Mutex
	keys map[string]entry

	now func() time.Time
}

func NewService(signer *jwtinfra.Provider, sessionTTL, keyTTL time.Duration) Service {
	return &service{
		signer:     signer,
		sessionTTL: sessionTTL,
		keyTTL:     keyTTL,
		keys:       make(map[string]entry),
		now:        time.Now,
	}
}

func (s *service) Issue() (*Issued, error) {
	token, err := s.signer.Sign(jwtinfra.SubjectSession, s.sessionTTL)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	key := random.ExchangeKey()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.keys[key] = entry{token: token, expiresAt: s.now().Add(s.keyTTL)}
	return &Issued{ExchangeKey: key, SessionToken: token}, nil
}

func (s *service) Redeem(exchangeKey string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.keys[exchangeKey]
	if !ok {
		return "", domain.ErrNotFound
	}
	delete(s.keys, exchangeKey)
	if s.now().After(e.expiresAt) {
		return "", domain.ErrNotFound
	}
	return e.token, nil
}

func (s *service) ValidateSession(token string) error {
	if _, err := s.signer.Verify(token); err != nil {
		return domain.ErrUnauthorized
	}
	return nil
}

func (s *service) sweepLocked() {
	now := s.now()
	for k, e := range s.keys {
		if now.After(e.expiresAt) {
			delete(s.keys, k)
		}
	}
}
