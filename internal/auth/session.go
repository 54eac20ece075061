// Package auth exposes the signed-in user's session to the client. Tokens are
// minted elsewhere; the client only reads their subject and expiry.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoSession      = errors.New("no authenticated session")
	ErrSessionExpired = errors.New("session expired")
)

type Session struct {
	Token     string
	UserId    string
	ExpiresAt *time.Time
}

// SessionProvider returns the current session or ErrNoSession.
type SessionProvider interface {
	Session() (*Session, error)
}

// ParseToken reads the claims of a bearer token without verifying its
// signature. Verification belongs to the backend.
func ParseToken(token string, now time.Time) (*Session, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return nil, ErrNoSession
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}

	s := &Session{Token: token}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		s.UserId = sub
	} else if uid, ok := claims["user_id"].(string); ok {
		s.UserId = uid
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("parse access token expiry: %w", err)
	}
	if exp != nil {
		t := exp.Time
		s.ExpiresAt = &t
		if !now.Before(t) {
			return nil, ErrSessionExpired
		}
	}
	return s, nil
}

// TokenProvider holds one bearer token, replaceable at runtime.
type TokenProvider struct {
	mu    sync.RWMutex
	token string
	now   func() time.Time
}

func NewTokenProvider(token string) *TokenProvider {
	return &TokenProvider{token: token, now: time.Now}
}

func (p *TokenProvider) Session() (*Session, error) {
	p.mu.RLock()
	token := p.token
	p.mu.RUnlock()

	return ParseToken(token, p.now())
}

func (p *TokenProvider) SetToken(token string) {
	p.mu.Lock()
	p.token = token
	p.mu.Unlock()
}

func (p *TokenProvider) Clear() {
	p.SetToken("")
}
